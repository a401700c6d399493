// Package facade implements the client-side façade of spec.md §4.5: it
// maps a path to a target daemon and forwards each filesystem operation to
// that daemon's connection, creating or reconnecting the connection lazily.
//
// Grounded on the original implementation's client.rs get_connection_index
// (a stub literally commented "// mock" that always returns 0) and its
// surrounding per-shard connection map.
package facade

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kvfs/kvfs/internal/client"
	"github.com/kvfs/kvfs/internal/metadata"
)

// MapPath resolves a path to a shard index. The reference implementation
// and this one are both single-shard: every path maps to shard 0. Per
// spec.md §9's Open Questions, a real resolver (e.g. consistent hashing
// over the path's directory prefix) is future work; the interface is
// shaped to support one without any caller change.
func MapPath(path string) int {
	return 0
}

// Facade holds one *client.Conn per shard, created on first use.
type Facade struct {
	mu        sync.Mutex
	endpoints map[int]string
	conns     map[int]*client.Conn
	ringSize  int
	timeout   time.Duration
}

// New constructs a Facade. endpoints maps shard index to daemon address;
// the single-shard placeholder configuration is {0: addr}.
func New(endpoints map[int]string, ringSize int, timeout time.Duration) *Facade {
	return &Facade{
		endpoints: endpoints,
		conns:     make(map[int]*client.Conn),
		ringSize:  ringSize,
		timeout:   timeout,
	}
}

func (f *Facade) connFor(path string) (*client.Conn, error) {
	shard := MapPath(path)

	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.conns[shard]; ok {
		return c, nil
	}
	addr, ok := f.endpoints[shard]
	if !ok {
		return nil, fmt.Errorf("facade: no daemon configured for shard %d", shard)
	}
	c := client.New(addr, f.ringSize, f.timeout)
	f.conns[shard] = c
	return c, nil
}

// CreateFile forwards to the target connection; an unreachable target
// reports -EIO, per spec.md §4.5.
func (f *Facade) CreateFile(ctx context.Context, path string, mode uint32) int32 {
	conn, err := f.connFor(path)
	if err != nil {
		return metadata.EIO
	}
	status, err := conn.CreateFile(ctx, path, mode)
	if err != nil {
		return metadata.EIO
	}
	return status
}

// CreateDir forwards to the target connection.
func (f *Facade) CreateDir(ctx context.Context, path string, mode uint32) int32 {
	conn, err := f.connFor(path)
	if err != nil {
		return metadata.EIO
	}
	status, err := conn.CreateDir(ctx, path, mode)
	if err != nil {
		return metadata.EIO
	}
	return status
}

// GetFileAttr forwards to the target connection.
func (f *Facade) GetFileAttr(ctx context.Context, path string) (*metadata.Stat, int32) {
	conn, err := f.connFor(path)
	if err != nil {
		return nil, metadata.EIO
	}
	stat, status, err := conn.GetFileAttr(ctx, path)
	if err != nil {
		return nil, metadata.EIO
	}
	return stat, status
}

// ReadDir forwards to the target connection and returns the decoded child
// names.
func (f *Facade) ReadDir(ctx context.Context, path string) ([]string, int32) {
	conn, err := f.connFor(path)
	if err != nil {
		return nil, metadata.EIO
	}
	names, status, err := conn.ReadDir(ctx, path)
	if err != nil {
		return nil, metadata.EIO
	}
	return names, status
}

// OpenFile forwards to the target connection.
func (f *Facade) OpenFile(ctx context.Context, path string) int32 {
	conn, err := f.connFor(path)
	if err != nil {
		return metadata.EIO
	}
	status, err := conn.OpenFile(ctx, path)
	if err != nil {
		return metadata.EIO
	}
	return status
}

// ReadFile forwards to the target connection.
func (f *Facade) ReadFile(ctx context.Context, path string, size uint32, offset uint64) ([]byte, int32) {
	conn, err := f.connFor(path)
	if err != nil {
		return nil, metadata.EIO
	}
	data, status, err := conn.ReadFile(ctx, path, size, offset)
	if err != nil {
		return nil, metadata.EIO
	}
	return data, status
}

// WriteFile forwards to the target connection. On success the returned
// status is the number of bytes written, per spec.md §4.1.
func (f *Facade) WriteFile(ctx context.Context, path string, data []byte, offset uint64) int32 {
	conn, err := f.connFor(path)
	if err != nil {
		return metadata.EIO
	}
	status, err := conn.WriteFile(ctx, path, data, offset)
	if err != nil {
		return metadata.EIO
	}
	return status
}

// Close disconnects every shard connection the façade has opened.
func (f *Facade) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.conns {
		c.Disconnect()
	}
}
