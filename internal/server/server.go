package server

import (
	"context"
	"net"
	"sync"

	"kvstore/internal/logs"
	"kvstore/internal/metrics"

	"github.com/libp2p/go-reuseport"
	"github.com/pkg/errors"
)

// Server accepts TCP connections and serves each one on its own goroutine.
type Server struct {
	ln      net.Listener
	proc    Processor
	logger  *logs.Logger
	metrics *metrics.Registry

	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// Listen binds addr with SO_REUSEPORT. Bind failures are returned to the caller.
func Listen(addr string, proc Processor, logger *logs.Logger, reg *metrics.Registry) (*Server, error) {
	ln, err := reuseport.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen on %s", addr)
	}
	return New(ln, proc, logger, reg), nil
}

// New serves on an existing listener.
func New(ln net.Listener, proc Processor, logger *logs.Logger, reg *metrics.Registry) *Server {
	return &Server{
		ln:      ln,
		proc:    proc,
		logger:  logger,
		metrics: reg,
		conns:   make(map[net.Conn]struct{}),
	}
}

func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Serve runs the accept loop until ctx is cancelled or Close is called.
// On shutdown it closes open connections and waits for their handlers.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("kv server listening", "addr", s.Addr())

	stop := context.AfterFunc(ctx, func() {
		_ = s.Close()
	})
	defer stop()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if s.isClosed() {
				s.wg.Wait()
				s.logger.Info("kv server stopped", "addr", s.Addr())
				return nil
			}
			return errors.Wrap(err, "accept connection")
		}

		if !s.track(conn) {
			_ = conn.Close()
			continue
		}

		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)

	remote := conn.RemoteAddr().String()
	s.metrics.Inc(metrics.ConnAcceptedTotal)
	s.metrics.Inc(metrics.ConnActive)
	defer s.metrics.Dec(metrics.ConnActive)
	s.logger.Debug("connection opened", "remote", remote)

	if err := HandleConn(conn, s.proc); err != nil && !s.isClosed() {
		s.metrics.Inc(metrics.ConnErrorsTotal)
		s.logger.Warn("connection error", "remote", remote, "error", err)
		return
	}
	s.logger.Debug("connection closed", "remote", remote)
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	_ = conn.Close()
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close stops accepting and closes every open connection. It is idempotent.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conns := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	err := s.ln.Close()
	for _, c := range conns {
		_ = c.Close()
	}
	return err
}
