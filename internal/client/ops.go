package client

import (
	"context"
	"encoding/binary"

	"github.com/kvfs/kvfs/internal/metadata"
	"github.com/kvfs/kvfs/internal/protocol/wire"
)

// CreateFile sends a CREATE_FILE request. Returns the wire status (0 on
// success, a negative errno otherwise) and a non-nil error only for a
// connection-level failure (send error or timeout).
func (c *Conn) CreateFile(ctx context.Context, path string, mode uint32) (int32, error) {
	status, _, _, err := c.call(ctx, wire.CreateFile, []byte(path), encodeMode(mode), nil, nil, nil)
	return status, err
}

// CreateDir sends a CREATE_DIR request. path must end in "/".
func (c *Conn) CreateDir(ctx context.Context, path string, mode uint32) (int32, error) {
	status, _, _, err := c.call(ctx, wire.CreateDir, []byte(path), encodeMode(mode), nil, nil, nil)
	return status, err
}

// GetFileAttr sends a GET_FILE_ATTR request and decodes the stat blob on
// success.
func (c *Conn) GetFileAttr(ctx context.Context, path string) (*metadata.Stat, int32, error) {
	metaBuf := make([]byte, 16)
	status, metaLen, _, err := c.call(ctx, wire.GetFileAttr, []byte(path), nil, nil, metaBuf, nil)
	if err != nil {
		return nil, 0, err
	}
	if status != 0 {
		return nil, status, nil
	}
	stat, decErr := metadata.DecodeStat(metaBuf[:metaLen])
	if decErr != nil {
		return nil, metadata.EIO, nil
	}
	return stat, 0, nil
}

// ReadDir sends a READ_DIR request and unpacks the child-name list on
// success. path must end in "/".
func (c *Conn) ReadDir(ctx context.Context, path string) ([]string, int32, error) {
	dataBuf := make([]byte, wire.MaxFrameBody)
	status, _, dataLen, err := c.call(ctx, wire.ReadDir, []byte(path), nil, nil, nil, dataBuf)
	if err != nil {
		return nil, 0, err
	}
	if status != 0 {
		return nil, status, nil
	}
	names, unpackErr := metadata.UnpackDir(dataBuf[:dataLen])
	if unpackErr != nil {
		return nil, metadata.EIO, nil
	}
	return names, 0, nil
}

// OpenFile sends an OPEN_FILE request. The daemon allocates no handle
// beyond what the filesystem bridge itself tracks (spec.md §4.6).
func (c *Conn) OpenFile(ctx context.Context, path string) (int32, error) {
	status, _, _, err := c.call(ctx, wire.OpenFile, []byte(path), nil, nil, nil, nil)
	return status, err
}

// ReadFile sends a READ_FILE request for up to size bytes at offset and
// returns exactly the bytes the daemon reported reading.
func (c *Conn) ReadFile(ctx context.Context, path string, size uint32, offset uint64) ([]byte, int32, error) {
	dataBuf := make([]byte, size)
	status, _, dataLen, err := c.call(ctx, wire.ReadFile, []byte(path), encodeSizeOffset(size, offset), nil, nil, dataBuf)
	if err != nil {
		return nil, 0, err
	}
	if status != 0 {
		return nil, status, nil
	}
	return dataBuf[:dataLen], 0, nil
}

// WriteFile sends a WRITE_FILE request. On success the wire status field
// carries the number of bytes actually written, per spec.md §4.1.
func (c *Conn) WriteFile(ctx context.Context, path string, data []byte, offset uint64) (int32, error) {
	meta := encodeSizeOffset(uint32(len(data)), offset)
	status, _, _, err := c.call(ctx, wire.WriteFile, []byte(path), meta, data, nil, nil)
	return status, err
}

func encodeMode(mode uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, mode)
	return buf
}

func encodeSizeOffset(size uint32, offset uint64) []byte {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint32(buf[0:4], size)
	binary.LittleEndian.PutUint64(buf[4:12], offset)
	return buf
}
