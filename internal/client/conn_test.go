package client_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	kvfsclient "github.com/kvfs/kvfs/internal/client"
	"github.com/kvfs/kvfs/internal/content"
	"github.com/kvfs/kvfs/internal/daemon"
	"github.com/kvfs/kvfs/internal/metadata"
	"github.com/kvfs/kvfs/internal/metadata/badgerstore"
	"github.com/kvfs/kvfs/internal/protocol/wire"
)

func startDaemon(t *testing.T) *daemon.Server {
	t.Helper()
	ns, err := badgerstore.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ns.Close() })

	store := content.NewStore(t.TempDir())
	engine := metadata.NewEngine(ns.Attr, ns.Dir, ns.Loc, store)
	require.NoError(t, engine.Init(context.Background()))

	srv := daemon.New(engine, "127.0.0.1:0", time.Second)
	require.NoError(t, srv.Listen())
	go func() { _ = srv.Serve() }()
	t.Cleanup(srv.Shutdown)
	return srv
}

func TestConnRoundTripThroughDaemon(t *testing.T) {
	srv := startDaemon(t)
	conn := kvfsclient.New(srv.Addr().String(), 16, 3*time.Second)
	t.Cleanup(conn.Disconnect)
	ctx := context.Background()

	status, err := conn.CreateDir(ctx, "/foo/", 0o777)
	require.NoError(t, err)
	require.Equal(t, int32(0), status)

	stat, status, err := conn.GetFileAttr(ctx, "/foo/")
	require.NoError(t, err)
	require.Equal(t, int32(0), status)
	require.Equal(t, uint32(0o040777), stat.Mode)
	require.Equal(t, uint32(2), stat.Nlink)

	status, err = conn.CreateFile(ctx, "/foo/bar", 0o644)
	require.NoError(t, err)
	require.Equal(t, int32(0), status)

	status, err = conn.WriteFile(ctx, "/foo/bar", []byte("hello"), 0)
	require.NoError(t, err)
	require.Equal(t, int32(5), status)

	data, status, err := conn.ReadFile(ctx, "/foo/bar", 5, 0)
	require.NoError(t, err)
	require.Equal(t, int32(0), status)
	require.Equal(t, "hello", string(data))

	names, status, err := conn.ReadDir(ctx, "/")
	require.NoError(t, err)
	require.Equal(t, int32(0), status)
	require.Equal(t, []string{".", "..", "foo/"}, names)

	status, err = conn.CreateFile(ctx, "/foo/bar", 0o644)
	require.NoError(t, err)
	require.Equal(t, metadata.EEXIST, status)
}

// fakeServer is a bare wire-protocol server used to control response
// timing and ordering precisely, independent of the real daemon, to
// exercise spec.md §8's out-of-order correlation and late-reply
// properties.
type fakeServer struct {
	ln net.Listener
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	return &fakeServer{ln: ln}
}

func (f *fakeServer) addr() string { return f.ln.Addr().String() }

// serve accepts one connection and hands each decoded request to respond,
// which decides how and when to reply.
func (f *fakeServer) serve(t *testing.T, respond func(conn net.Conn, req *wire.Request)) {
	t.Helper()
	go func() {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		for {
			req, err := wire.ReadRequest(conn)
			if err != nil {
				return
			}
			respond(conn, req)
		}
	}()
}

func TestOutOfOrderResponseCorrelation(t *testing.T) {
	f := newFakeServer(t)
	defer f.ln.Close()

	mu := testSerializer{gate: make(chan struct{})}
	f.serve(t, func(conn net.Conn, req *wire.Request) {
		switch string(req.Path) {
		case "/one":
			// Wait off the reader goroutine so /two can still be read.
			go mu.run(func() {
				_ = wire.WriteResponse(conn, req.ID, 0, 0, metadata.EncodeStat(&metadata.Stat{Size: 111}), nil)
			})
		case "/two":
			// Reply to /two immediately, ahead of /one, regardless of
			// which request arrived first on the wire.
			_ = wire.WriteResponse(conn, req.ID, 0, 0, metadata.EncodeStat(&metadata.Stat{Size: 222}), nil)
			mu.release()
		}
	})

	conn := kvfsclient.New(f.addr(), 16, 3*time.Second)
	t.Cleanup(conn.Disconnect)
	ctx := context.Background()

	results := make(chan struct {
		path string
		size uint64
	}, 2)

	for _, p := range []string{"/one", "/two"} {
		p := p
		go func() {
			stat, status, err := conn.GetFileAttr(ctx, p)
			require.NoError(t, err)
			require.Equal(t, int32(0), status)
			results <- struct {
				path string
				size uint64
			}{p, stat.Size}
		}()
	}

	got := map[string]uint64{}
	for i := 0; i < 2; i++ {
		r := <-results
		got[r.path] = r.size
	}
	require.Equal(t, uint64(111), got["/one"])
	require.Equal(t, uint64(222), got["/two"])
}

// testSerializer lets the /two handler release the /one handler only
// after /two's response has already gone out on the wire, guaranteeing
// out-of-order delivery without a fixed sleep.
type testSerializer struct {
	gate chan struct{}
	once bool
}

func (s *testSerializer) run(f func()) {
	if s.gate == nil {
		s.gate = make(chan struct{})
	}
	<-s.gate
	f()
}

func (s *testSerializer) release() {
	if s.gate == nil {
		s.gate = make(chan struct{})
	}
	if !s.once {
		s.once = true
		close(s.gate)
	}
}

func TestLateReplyDrainDoesNotWedgeConnection(t *testing.T) {
	f := newFakeServer(t)
	defer f.ln.Close()

	f.serve(t, func(conn net.Conn, req *wire.Request) {
		if string(req.Path) == "/slow" {
			go func() {
				time.Sleep(200 * time.Millisecond)
				_ = wire.WriteResponse(conn, req.ID, 0, 0, metadata.EncodeStat(&metadata.Stat{Size: 999}), nil)
			}()
			return
		}
		_ = wire.WriteResponse(conn, req.ID, 0, 0, metadata.EncodeStat(&metadata.Stat{Size: 1}), nil)
	})

	conn := kvfsclient.New(f.addr(), 4, 60*time.Millisecond)
	t.Cleanup(conn.Disconnect)
	ctx := context.Background()

	_, _, err := conn.GetFileAttr(ctx, "/slow")
	require.ErrorIs(t, err, kvfsclient.ErrTimedOut)

	// The connection must still be usable for a fresh call, and the late
	// reply (arriving ~140ms from now) must not corrupt it.
	stat, status, err := conn.GetFileAttr(ctx, "/fast")
	require.NoError(t, err)
	require.Equal(t, int32(0), status)
	require.Equal(t, uint64(1), stat.Size)

	time.Sleep(250 * time.Millisecond)

	stat, status, err = conn.GetFileAttr(ctx, "/fast")
	require.NoError(t, err)
	require.Equal(t, int32(0), status)
	require.Equal(t, uint64(1), stat.Size)
}

func TestReconnectAfterDaemonRestart(t *testing.T) {
	ns, err := badgerstore.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ns.Close() })
	store := content.NewStore(t.TempDir())
	engine := metadata.NewEngine(ns.Attr, ns.Dir, ns.Loc, store)
	require.NoError(t, engine.Init(context.Background()))

	srv1 := daemon.New(engine, "127.0.0.1:0", time.Second)
	require.NoError(t, srv1.Listen())
	addr := srv1.Addr().String()
	go func() { _ = srv1.Serve() }()

	conn := kvfsclient.New(addr, 16, 500*time.Millisecond)
	t.Cleanup(conn.Disconnect)
	ctx := context.Background()

	status, err := conn.CreateDir(ctx, "/a/", 0o777)
	require.NoError(t, err)
	require.Equal(t, int32(0), status)

	srv1.Shutdown()
	time.Sleep(50 * time.Millisecond)

	_, err = conn.CreateDir(ctx, "/b/", 0o777)
	require.Error(t, err)

	srv2 := daemon.New(engine, addr, time.Second)
	require.NoError(t, srv2.Listen())
	go func() { _ = srv2.Serve() }()
	t.Cleanup(srv2.Shutdown)

	status, err = conn.CreateDir(ctx, "/b/", 0o777)
	require.NoError(t, err)
	require.Equal(t, int32(0), status)
}
