package protocol

import (
	"time"

	"kvstore/internal/metrics"
	"kvstore/internal/store"

	"github.com/prometheus/client_golang/prometheus"
)

// Processor executes request lines against a Store.
//
// Each command takes the store lock exactly once and performs its whole
// read-modify-write sequence under it. Arguments are validated before the
// lock is taken, so a rejected command never mutates the store.
type Processor struct {
	store    *store.Store
	metrics  *metrics.Registry
	duration *prometheus.HistogramVec
}

// Option configures a Processor.
type Option func(*Processor)

// WithCommandDuration records per-command latency into h.
func WithCommandDuration(h *prometheus.HistogramVec) Option {
	return func(p *Processor) {
		p.duration = h
	}
}

// NewProcessor creates a processor bound to st. reg may be nil.
func NewProcessor(st *store.Store, reg *metrics.Registry, opts ...Option) *Processor {
	p := &Processor{
		store:   st,
		metrics: reg,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process parses and executes one request line and returns the newline
// terminated response. Malformed input yields an "ERROR: ..." response.
func (p *Processor) Process(line string) string {
	start := time.Now()
	p.metrics.Inc(metrics.CommandsTotal)

	label := "UNKNOWN"
	resp, err := func() (string, error) {
		cmd, err := Parse(line)
		if err != nil {
			return "", err
		}
		if !cmd.Known() {
			return "", errUnknownCommand(cmd.Token)
		}
		label = cmd.Name
		return p.execute(cmd)
	}()

	if err != nil {
		p.metrics.Inc(metrics.ProtocolErrorsTotal)
		resp = replyError(err)
	}

	metrics.RecordDuration(p.duration, label, time.Since(start).Seconds())
	return resp
}

func (p *Processor) execute(cmd Command) (string, error) {
	switch cmd.Name {
	case CmdGet:
		return p.get(cmd.Args)
	case CmdSet:
		return p.set(cmd.Args)
	case CmdExpire:
		return p.expire(cmd.Args)
	case CmdTTL:
		return p.ttl(cmd.Args)
	case CmdIncr:
		return p.incr(cmd.Args)
	case CmdDel:
		return p.del(cmd.Args)
	case CmdPing:
		return replyPong, nil
	case CmdKeys:
		return p.keys()
	default:
		return "", errUnknownCommand(cmd.Token)
	}
}
