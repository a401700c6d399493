// Package daemon implements the kvfsd TCP server: one goroutine per
// accepted connection, one worker goroutine per request, and a metadata
// engine shared across all sessions. Lifecycle management follows the
// teacher's pkg/adapter.BaseAdapter shape (listener ownership, a
// WaitGroup tracking active connections, and an idempotent Shutdown).
package daemon

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/kvfs/kvfs/internal/logger"
	"github.com/kvfs/kvfs/internal/metadata"
)

// Server accepts connections on a single TCP listener and serves each one
// with a *session against the shared engine.
type Server struct {
	Engine *metadata.Engine

	listenAddr      string
	shutdownTimeout time.Duration

	listener net.Listener

	activeConns sync.WaitGroup
	shutdownCh  chan struct{}
	shutdownMu  sync.Once

	shutdownCtx    context.Context
	cancelRequests context.CancelFunc
}

// New constructs a Server. The engine must already be initialized (see
// metadata.Engine.Init) before the first connection is accepted.
func New(engine *metadata.Engine, listenAddr string, shutdownTimeout time.Duration) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		Engine:          engine,
		listenAddr:      listenAddr,
		shutdownTimeout: shutdownTimeout,
		shutdownCh:      make(chan struct{}),
		shutdownCtx:     ctx,
		cancelRequests:  cancel,
	}
}

// Listen binds the configured listen address. Separated from Serve so a
// caller (or a test) can learn the bound address — useful with a ":0"
// listen address — before the accept loop starts blocking.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp4", s.listenAddr)
	if err != nil {
		return err
	}
	s.listener = ln
	return nil
}

// Addr returns the bound listener's address. Valid only after Listen.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve blocks accepting connections on the listener bound by Listen,
// until Shutdown is called or a fatal accept error occurs.
func (s *Server) Serve() error {
	logger.Info("kvfsd listening", "addr", s.listener.Addr().String())

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdownCh:
				return nil
			default:
				return err
			}
		}

		sess := newSession(conn, s.Engine)
		s.activeConns.Add(1)
		go func() {
			defer s.activeConns.Done()
			sess.serve(s.shutdownCtx)
		}()
	}
}

// ListenAndServe binds the listen address and blocks accepting
// connections until Shutdown is called or a fatal accept error occurs.
func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Shutdown stops accepting new connections, cancels in-flight requests'
// context, and waits up to the configured shutdown timeout for active
// connections to finish.
func (s *Server) Shutdown() {
	s.shutdownMu.Do(func() {
		close(s.shutdownCh)
		if s.listener != nil {
			s.listener.Close()
		}
		s.cancelRequests()

		done := make(chan struct{})
		go func() {
			s.activeConns.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(s.shutdownTimeout):
			logger.Warn("kvfsd shutdown timed out waiting for connections")
		}
	})
}
