package server

import (
	"context"
	"errors"
	"github.com/Buddhsen-tripathi/rotating-globe-threejs/internal/config"
	"github.com/Buddhsen-tripathi/rotating-globe-threejs/internal/metrics"
	"github.com/Buddhsen-tripathi/rotating-globe-threejs/internal/models"
	"github.com/Buddhsen-tripathi/rotating-globe-threejs/internal/protocol"
	"log"
	"net"
	"sync"
	"time"
)

const maxAcceptBackoff = time.Second

// Handler produces responses for parsed requests. Error is used for requests
// that could not be parsed, in which case req is nil.
type Handler interface {
	Handle(req *protocol.Request) *protocol.Response
	Error(req *protocol.Request, status int, message string) *protocol.Response
}

// Recorder receives one access record per written response
type Recorder interface {
	Record(rec *models.AccessRecord)
}

// Server accepts TCP connections and serves each on its own goroutine
type Server struct {
	addr              string
	handler           Handler
	metrics           *metrics.Metrics
	access            Recorder
	readHeaderTimeout time.Duration
	idleTimeout       time.Duration
	shutdownGrace     time.Duration

	mu    sync.Mutex
	cur   *run
	ready chan struct{}
}

// run holds the state of one Start/Stop cycle
type run struct {
	ln       net.Listener
	conns    map[*conn]struct{}
	wg       sync.WaitGroup
	shutting bool
	stopped  chan struct{}
}

// New creates a server for cfg. access may be nil.
func New(cfg config.Config, h Handler, m *metrics.Metrics, access Recorder) *Server {
	if m == nil {
		m = metrics.NewMetrics()
	}
	return &Server{
		addr:              cfg.Addr(),
		handler:           h,
		metrics:           m,
		access:            access,
		readHeaderTimeout: cfg.ReadHeaderTimeout(),
		idleTimeout:       cfg.IdleTimeout(),
		shutdownGrace:     cfg.ShutdownGrace(),
		ready:             make(chan struct{}),
	}
}

// Ready is closed once the current Start call is accepting connections
func (s *Server) Ready() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Addr returns the bound address, or nil when the server is not running
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return nil
	}
	return s.cur.ln.Addr()
}

// Start binds the listening socket and serves until Stop is called or ctx is
// cancelled. Cancelling ctx drains connections for the configured grace
// period. A listen failure is returned as *BindError.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cur != nil {
		s.mu.Unlock()
		return ErrServerRunning
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.mu.Unlock()
		return &BindError{Addr: s.addr, Err: err}
	}

	r := &run{
		ln:      ln,
		conns:   make(map[*conn]struct{}),
		stopped: make(chan struct{}),
	}
	s.cur = r
	close(s.ready)
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			stopCtx, cancel := context.WithTimeout(context.Background(), s.shutdownGrace)
			defer cancel()
			if err := s.Stop(stopCtx); err != nil {
				log.Printf("error during shutdown: %v", err)
			}
		case <-r.stopped:
		}
	}()

	var backoff time.Duration
	for {
		nc, err := ln.Accept()
		if err != nil {
			if s.shuttingDown(r) {
				<-r.stopped
				return nil
			}
			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else {
				backoff *= 2
			}
			if backoff > maxAcceptBackoff {
				backoff = maxAcceptBackoff
			}
			log.Printf("accept error: %v; retrying in %v", err, backoff)
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		c := newConn(s, r, nc)
		if !s.track(c) {
			nc.Close()
			continue
		}

		s.metrics.IncrementConnections()
		go func() {
			defer r.wg.Done()
			defer s.untrack(c)
			c.serve()
		}()
	}
}

// Stop stops accepting, closes idle connections and waits for in-flight
// responses. When ctx expires first the remaining connections are closed and
// ctx.Err() is returned. Calling Stop on a stopped server is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	r := s.cur
	if r == nil {
		s.mu.Unlock()
		return nil
	}
	if r.shutting {
		s.mu.Unlock()
		select {
		case <-r.stopped:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.shutting = true
	if err := r.ln.Close(); err != nil {
		log.Printf("error closing listener: %v", err)
	}
	for c := range r.conns {
		if c.idle {
			c.close()
		}
	}
	s.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(drained)
	}()

	var result error
	select {
	case <-drained:
	case <-ctx.Done():
		s.mu.Lock()
		for c := range r.conns {
			c.close()
		}
		s.mu.Unlock()
		result = ctx.Err()
	}

	s.mu.Lock()
	s.cur = nil
	s.ready = make(chan struct{})
	s.mu.Unlock()
	close(r.stopped)

	return result
}

func (s *Server) shuttingDown(r *run) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return r.shutting
}

func (s *Server) track(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.run.shutting {
		return false
	}
	c.run.conns[c] = struct{}{}
	c.run.wg.Add(1)
	return true
}

func (s *Server) untrack(c *conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(c.run.conns, c)
}

// setIdle marks c as waiting for its next request. It returns false when the
// server is shutting down and c should be closed.
func (s *Server) setIdle(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.idle = true
	return !c.run.shutting
}

// setActive marks c as reading a request. It returns false when the server
// is shutting down.
func (s *Server) setActive(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.run.shutting {
		return false
	}
	c.idle = false
	return true
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
