package daemon

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/kvfs/kvfs/internal/logger"
	"github.com/kvfs/kvfs/internal/metadata"
	"github.com/kvfs/kvfs/internal/protocol/wire"
)

// session owns one accepted connection: the receive loop that frames
// incoming requests, and the send lock that keeps concurrently finishing
// workers from interleaving their response frames on the wire.
type session struct {
	conn   net.Conn
	engine *metadata.Engine

	sendMu sync.Mutex

	wg sync.WaitGroup
}

func newSession(conn net.Conn, engine *metadata.Engine) *session {
	return &session{conn: conn, engine: engine}
}

// serve runs the receive loop until a framing violation, the connection
// closes, or ctx is cancelled. Each request is handed to its own worker
// goroutine so a slow operation on one correlation id never blocks
// others queued behind it on the same connection.
func (s *session) serve(ctx context.Context) {
	clientAddr := s.conn.RemoteAddr().String()
	defer s.conn.Close()
	defer s.wg.Wait()

	go func() {
		<-ctx.Done()
		s.conn.Close()
	}()

	for {
		req, err := wire.ReadRequest(s.conn)
		if err != nil {
			if ctx.Err() == nil {
				logger.InfoCtx(ctx, "connection closed", logger.ClientIP(clientAddr), logger.Err(err))
			}
			return
		}

		if !req.Type.Known() {
			logger.WarnCtx(ctx, "unknown operation type, closing connection",
				logger.ClientIP(clientAddr), logger.RequestID(req.ID), logger.Procedure(req.Type.String()))
			return
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, req, clientAddr)
		}()
	}
}

func (s *session) handle(ctx context.Context, req *wire.Request, clientAddr string) {
	start := time.Now()
	status, meta, data := dispatch(ctx, s.engine, req)

	if err := s.respond(req.ID, status, meta, data); err != nil {
		logger.WarnCtx(ctx, "failed to write response",
			logger.RequestID(req.ID), logger.Err(err))
		return
	}

	logger.InfoCtx(ctx, "request completed",
		logger.Procedure(req.Type.String()),
		logger.RequestID(req.ID),
		logger.ClientIP(clientAddr),
		logger.Status(int(status)),
		logger.DurationMs(float64(time.Since(start).Microseconds())/1000.0))
}

// respond serializes one response frame under the session's send lock so
// it cannot interleave with a response from a different worker on the
// same connection.
func (s *session) respond(id uint32, status int32, meta, data []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return wire.WriteResponse(s.conn, id, status, 0, meta, data)
}
