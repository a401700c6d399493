package wire_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kvfs/kvfs/internal/protocol/wire"
)

func TestRequestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	err := wire.WriteRequest(&buf, 42, wire.WriteFile, 0, []byte("/foo/bar"), []byte("meta"), []byte("payload"))
	require.NoError(t, err)

	req, err := wire.ReadRequest(&buf)
	require.NoError(t, err)
	require.Equal(t, uint32(42), req.ID)
	require.Equal(t, wire.WriteFile, req.Type)
	require.Equal(t, []byte("/foo/bar"), req.Path)
	require.Equal(t, []byte("meta"), req.Meta)
	require.Equal(t, []byte("payload"), req.Data)
}

func TestResponseRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	err := wire.WriteResponse(&buf, 7, 0, 0, []byte("m"), []byte("some data"))
	require.NoError(t, err)

	hdr, err := wire.ReadResponseHeader(&buf)
	require.NoError(t, err)
	require.Equal(t, uint32(7), hdr.ID)
	require.Equal(t, int32(0), hdr.Status)

	meta := make([]byte, 16)
	data := make([]byte, 16)
	metaLen, dataLen, err := wire.ReadResponseBody(&buf, meta, data)
	require.NoError(t, err)
	require.Equal(t, "m", string(meta[:metaLen]))
	require.Equal(t, "some data", string(data[:dataLen]))
}

func TestReadRequestRejectsOversizedSection(t *testing.T) {
	var buf bytes.Buffer
	// Hand-craft a header claiming a total_length bigger than MaxFrameBody.
	err := wire.WriteRequest(&buf, 1, wire.GetFileAttr, 0, nil, nil, nil)
	require.NoError(t, err)
	raw := buf.Bytes()
	// total_length field
	raw[12] = 0xff
	raw[13] = 0xff
	raw[14] = 0xff
	raw[15] = 0x7f

	_, err = wire.ReadRequest(bytes.NewReader(raw))
	require.Error(t, err)
	var protoErr *wire.ProtocolError
	require.ErrorAs(t, err, &protoErr)
}

func TestReadRequestRejectsShortRead(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, wire.WriteRequest(&buf, 1, wire.CreateFile, 0, []byte("/a"), nil, nil))
	truncated := buf.Bytes()[:buf.Len()-2]

	_, err := wire.ReadRequest(bytes.NewReader(truncated))
	require.Error(t, err)
}

func TestDrainResponseBody(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, wire.WriteResponse(&buf, 3, 0, 0, []byte("xx"), []byte("yyyy")))

	hdr, err := wire.ReadResponseHeader(&buf)
	require.NoError(t, err)
	require.NoError(t, wire.DrainResponseBody(&buf, hdr.TotalLength))
	require.Equal(t, 0, buf.Len())
}

func TestOperationTypeImplemented(t *testing.T) {
	require.True(t, wire.CreateFile.Implemented())
	require.True(t, wire.WriteFile.Implemented())
	require.False(t, wire.DeleteFile.Implemented())
	require.False(t, wire.DeleteDir.Implemented())
}

func TestOperationTypeKnown(t *testing.T) {
	require.True(t, wire.CreateFile.Known())
	require.True(t, wire.DeleteFile.Known())
	require.True(t, wire.DeleteDir.Known())
	require.False(t, wire.OperationType(0).Known())
	require.False(t, wire.OperationType(42).Known())
	require.False(t, wire.OperationType(99).Known())
}
