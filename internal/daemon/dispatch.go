package daemon

import (
	"context"
	"encoding/binary"

	"github.com/kvfs/kvfs/internal/metadata"
	"github.com/kvfs/kvfs/internal/protocol/wire"
)

// dispatch decodes one request's op-specific meta/data fields, invokes the
// engine, and returns the wire status plus response meta/data sections.
// Genuinely unrecognized op codes never reach here: session.serve closes
// the connection on those per spec.md §4/§6 before calling dispatch. Only
// the reserved-but-unimplemented codes (DeleteFile, DeleteDir) fall
// through to the default case below, returning -EPERM.
func dispatch(ctx context.Context, engine *metadata.Engine, req *wire.Request) (status int32, meta, data []byte) {
	path := string(req.Path)

	switch req.Type {
	case wire.CreateFile:
		mode := decodeMode(req.Meta)
		err := engine.CreateFile(ctx, path, mode)
		return metadata.StatusOf(err), nil, nil

	case wire.CreateDir:
		mode := decodeMode(req.Meta)
		err := engine.CreateDir(ctx, path, mode)
		return metadata.StatusOf(err), nil, nil

	case wire.GetFileAttr:
		stat, err := engine.GetFileAttr(ctx, path)
		if err != nil {
			return metadata.StatusOf(err), nil, nil
		}
		return 0, metadata.EncodeStat(stat), nil

	case wire.ReadDir:
		packed, err := engine.ReadDir(ctx, path)
		if err != nil {
			return metadata.StatusOf(err), nil, nil
		}
		return 0, nil, packed

	case wire.OpenFile:
		// open returns success but allocates no handle beyond what the
		// bridge itself tracks; existence is implied by a prior lookup.
		return 0, nil, nil

	case wire.ReadFile:
		size, offset := decodeSizeOffset(req.Meta)
		bytes, err := engine.ReadFile(ctx, path, size, offset)
		if err != nil {
			return metadata.StatusOf(err), nil, nil
		}
		return 0, nil, bytes

	case wire.WriteFile:
		_, offset := decodeSizeOffset(req.Meta)
		n, err := engine.WriteFile(ctx, path, req.Data, offset)
		if err != nil {
			return metadata.StatusOf(err), nil, nil
		}
		return int32(n), nil, nil

	default:
		return metadata.EPERM, nil, nil
	}
}

func decodeMode(meta []byte) uint32 {
	if len(meta) < 4 {
		return 0o777
	}
	return binary.LittleEndian.Uint32(meta[0:4])
}

func decodeSizeOffset(meta []byte) (size uint32, offset uint64) {
	if len(meta) < 12 {
		return 0, 0
	}
	size = binary.LittleEndian.Uint32(meta[0:4])
	offset = binary.LittleEndian.Uint64(meta[4:12])
	return size, offset
}
