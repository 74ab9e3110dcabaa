package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"time"

	"kvstore/internal/logs"
	"kvstore/internal/ttl"
)

const (
	DefaultAddr      = "127.0.0.1:6969"
	DefaultAdminAddr = "127.0.0.1:8080"
	DefaultLogBuffer = 1000
)

// Config is the process configuration.
type Config struct {
	Addr      string
	AdminAddr string // empty disables the admin HTTP server
	Expiry    ttl.Config
	LogLevel  logs.Level
	LogBuffer int
}

func Default() Config {
	return Config{
		Addr:      DefaultAddr,
		AdminAddr: DefaultAdminAddr,
		Expiry:    ttl.DefaultConfig(),
		LogLevel:  logs.INFO,
		LogBuffer: DefaultLogBuffer,
	}
}

// Load starts from Default, applies environment overrides read through
// getenv, then command-line flags. Flags win over the environment.
func Load(name string, args []string, getenv func(string) string, output io.Writer) (Config, error) {
	cfg := Default()

	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	if output != nil {
		fs.SetOutput(output)
	}

	level := string(cfg.LogLevel)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "address for the KV text protocol")
	fs.StringVar(&cfg.AdminAddr, "admin-addr", cfg.AdminAddr, "address for the admin HTTP API (empty to disable)")
	fs.DurationVar(&cfg.Expiry.Interval, "expiry-interval", cfg.Expiry.Interval, "active expiry cycle interval")
	fs.IntVar(&cfg.Expiry.BatchSize, "expiry-batch", cfg.Expiry.BatchSize, "keys checked per active expiry cycle")
	fs.StringVar(&level, "log-level", level, "minimum log level (DEBUG, INFO, WARN, ERROR)")
	fs.IntVar(&cfg.LogBuffer, "log-buffer", cfg.LogBuffer, "log entries kept in memory")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	lvl, err := logs.ParseLevel(level)
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = lvl

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if getenv == nil {
		return nil
	}

	if v := getenv("KV_ADDR"); v != "" {
		c.Addr = v
	}
	if v, ok := lookup(getenv, "KV_ADMIN_ADDR"); ok {
		c.AdminAddr = v
	}
	if v := getenv("KV_EXPIRY_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("KV_EXPIRY_INTERVAL: %w", err)
		}
		c.Expiry.Interval = d
	}
	if v := getenv("KV_EXPIRY_BATCH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("KV_EXPIRY_BATCH: %w", err)
		}
		c.Expiry.BatchSize = n
	}
	if v := getenv("KV_LOG_LEVEL"); v != "" {
		lvl, err := logs.ParseLevel(v)
		if err != nil {
			return fmt.Errorf("KV_LOG_LEVEL: %w", err)
		}
		c.LogLevel = lvl
	}
	return nil
}

// lookup treats the literal value "off" as an explicit empty string.
func lookup(getenv func(string) string, key string) (string, bool) {
	v := getenv(key)
	switch v {
	case "":
		return "", false
	case "off":
		return "", true
	default:
		return v, true
	}
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("config: addr must not be empty")
	}
	if c.LogBuffer <= 0 {
		return errors.New("config: log buffer must be positive")
	}
	return c.Expiry.Validate()
}
