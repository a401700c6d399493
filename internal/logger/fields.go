package logger

import (
	"log/slog"
)

// Standard field keys for structured logging. Use these keys consistently
// across all log statements so aggregation and querying stay uniform.
const (
	// Distributed tracing
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// Wire operation
	KeyProcedure = "procedure"  // operation name: CreateFile, ReadDir, WriteFile, etc.
	KeyRequestID = "request_id" // correlation id from the request header
	KeyStatus    = "status"     // negative-errno status code
	KeyStatusMsg = "status_msg"

	// Path
	KeyPath       = "path"
	KeyParentPath = "parent_path"

	// I/O
	KeyOffset       = "offset"
	KeyCount        = "count"
	KeyBytesRead    = "bytes_read"
	KeyBytesWritten = "bytes_written"

	// Client/connection identification
	KeyClientIP     = "client_ip"
	KeyConnectionID = "connection_id"

	// Operation metadata
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyErrorCode  = "error_code"

	// Directory/link bookkeeping
	KeyEntries   = "entries"
	KeyLinkCount = "link_count"
)

// TraceID returns a slog.Attr for the trace ID.
func TraceID(id string) slog.Attr { return slog.String(KeyTraceID, id) }

// SpanID returns a slog.Attr for the span ID.
func SpanID(id string) slog.Attr { return slog.String(KeySpanID, id) }

// Procedure returns a slog.Attr for the operation name.
func Procedure(name string) slog.Attr { return slog.String(KeyProcedure, name) }

// RequestID returns a slog.Attr for the correlation id.
func RequestID(id uint32) slog.Attr { return slog.Any(KeyRequestID, id) }

// Status returns a slog.Attr for the status code.
func Status(code int) slog.Attr { return slog.Int(KeyStatus, code) }

// StatusMsg returns a slog.Attr for a human-readable status message.
func StatusMsg(msg string) slog.Attr { return slog.String(KeyStatusMsg, msg) }

// Path returns a slog.Attr for a file/directory path.
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }

// ParentPath returns a slog.Attr for a parent directory path.
func ParentPath(p string) slog.Attr { return slog.String(KeyParentPath, p) }

// Offset returns a slog.Attr for a file offset.
func Offset(off uint64) slog.Attr { return slog.Uint64(KeyOffset, off) }

// Count returns a slog.Attr for a requested byte count.
func Count(c uint32) slog.Attr { return slog.Any(KeyCount, c) }

// BytesRead returns a slog.Attr for actual bytes read.
func BytesRead(n int) slog.Attr { return slog.Int(KeyBytesRead, n) }

// BytesWritten returns a slog.Attr for actual bytes written.
func BytesWritten(n int) slog.Attr { return slog.Int(KeyBytesWritten, n) }

// ClientIP returns a slog.Attr for the client IP address.
func ClientIP(addr string) slog.Attr { return slog.String(KeyClientIP, addr) }

// ConnectionID returns a slog.Attr for a connection identifier.
func ConnectionID(id string) slog.Attr { return slog.String(KeyConnectionID, id) }

// DurationMs returns a slog.Attr for an operation duration in milliseconds.
func DurationMs(ms float64) slog.Attr { return slog.Float64(KeyDurationMs, ms) }

// Err returns a slog.Attr for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a numeric error code.
func ErrorCode(code int) slog.Attr { return slog.Int(KeyErrorCode, code) }

// Entries returns a slog.Attr for a directory entry count.
func Entries(n int) slog.Attr { return slog.Int(KeyEntries, n) }

// LinkCount returns a slog.Attr for a hard link count.
func LinkCount(count uint32) slog.Attr { return slog.Any(KeyLinkCount, count) }
