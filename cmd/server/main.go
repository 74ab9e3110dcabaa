package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"kvstore/internal/api"
	"kvstore/internal/config"
	"kvstore/internal/logs"
	"kvstore/internal/metrics"
	"kvstore/internal/protocol"
	"kvstore/internal/server"
	"kvstore/internal/store"
	"kvstore/internal/ttl"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[0], os.Args[1:], os.Getenv, os.Stderr)
	if err != nil {
		return err
	}

	// Root context, cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logs.NewLogger(cfg.LogBuffer, cfg.LogLevel).WithOutput(os.Stdout)

	// Metrics
	metricsRegistry := metrics.NewRegistry()
	commandDuration := metrics.NewHistogramVec("kv_command_duration_seconds")
	promRegistry := metrics.NewPrometheusRegistry(metricsRegistry, commandDuration)

	// Store and command processing
	kv := store.NewStore(metricsRegistry)
	processor := protocol.NewProcessor(kv, metricsRegistry, protocol.WithCommandDuration(commandDuration))

	// Bind before starting anything else; a bind failure ends the process
	srv, err := server.Listen(cfg.Addr, processor, logger, metricsRegistry)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup

	// Active expiry
	reaper := ttl.NewReaper(kv, cfg.Expiry, logger, metricsRegistry)
	wg.Add(1)
	go func() {
		defer wg.Done()
		reaper.Start(ctx)
	}()

	// Admin API
	var admin *http.Server
	adminErr := make(chan error, 1)
	if cfg.AdminAddr != "" {
		handler := api.NewHandler(kv, metricsRegistry, logger, reaper, promRegistry)
		admin = &http.Server{
			Addr:              cfg.AdminAddr,
			Handler:           api.RegisterRoutes(http.NewServeMux(), handler),
			ReadHeaderTimeout: 5 * time.Second,
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("admin server started", "addr", cfg.AdminAddr)
			if err := admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("admin server failed", "error", err)
				adminErr <- err
				stop()
			}
		}()
	}

	serveErr := srv.Serve(ctx)
	stop()

	if admin != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := admin.Shutdown(shutdownCtx); err != nil {
			logger.Warn("admin server shutdown", "error", err)
		}
	}

	wg.Wait()
	logger.Info("shutdown complete", "reaper_cycles", reaper.Stats().CyclesRun)

	select {
	case err := <-adminErr:
		return errors.Join(serveErr, err)
	default:
		return serveErr
	}
}
