package bridge

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kvfs/kvfs/internal/metadata"
)

func TestErrnoFromStatus(t *testing.T) {
	require.Equal(t, syscall.Errno(0), errnoFromStatus(0))
	require.Equal(t, syscall.ENOENT, errnoFromStatus(metadata.ENOENT))
	require.Equal(t, syscall.EEXIST, errnoFromStatus(metadata.EEXIST))
	// WriteFile's success status is the byte count, not an errno.
	require.Equal(t, syscall.Errno(0), errnoFromStatus(5))
}
