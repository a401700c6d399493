package daemon_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kvfs/kvfs/internal/content"
	"github.com/kvfs/kvfs/internal/daemon"
	"github.com/kvfs/kvfs/internal/metadata"
	"github.com/kvfs/kvfs/internal/metadata/badgerstore"
	"github.com/kvfs/kvfs/internal/protocol/wire"
)

func startTestDaemon(t *testing.T) *daemon.Server {
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

// A reserved-but-unimplemented op code gets a -EPERM response and the
// connection stays open for further requests.
func TestReservedOpCodeReturnsEPERM(t *testing.T) {
	srv := startTestDaemon(t)
	conn, err := net.Dial("tcp4", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, wire.WriteRequest(conn, 1, wire.DeleteFile, 0, []byte("/a"), nil, nil))
	hdr, err := wire.ReadResponseHeader(conn)
	require.NoError(t, err)
	require.Equal(t, metadata.EPERM, hdr.Status)
	require.NoError(t, wire.DrainResponseBody(conn, hdr.TotalLength))

	// the connection is still usable
	require.NoError(t, wire.WriteRequest(conn, 2, wire.CreateDir, 0, []byte("/x/"), encodeMode(0o777), nil))
	hdr, err = wire.ReadResponseHeader(conn)
	require.NoError(t, err)
	require.Equal(t, int32(0), hdr.Status)
}

// A genuinely unknown op code is a protocol violation: the daemon closes
// the connection instead of answering it.
func TestUnknownOpCodeClosesConnection(t *testing.T) {
	srv := startTestDaemon(t)
	conn, err := net.Dial("tcp4", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, wire.WriteRequest(conn, 1, wire.OperationType(99), 0, []byte("/a"), nil, nil))

	_, err = wire.ReadResponseHeader(conn)
	require.Error(t, err)
}

func encodeMode(mode uint32) []byte {
	buf := make([]byte, 4)
	buf[0] = byte(mode)
	buf[1] = byte(mode >> 8)
	buf[2] = byte(mode >> 16)
	buf[3] = byte(mode >> 24)
	return buf
}
