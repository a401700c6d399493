package bridge

import (
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// zero is held across the lifetime of the mount: AttrTimeout: 0 and
// EntryTimeout: 0 disable the kernel's attribute/entry cache, and
// FOPEN_DIRECT_IO (set on every FileNode.Open) disables its data cache,
// so every read/write traverses the protocol, per spec.md §6.
var zero = time.Duration(0)

// Mount binds the bridge's filesystem at mountPoint and returns the
// running *fuse.Server. Call Wait on the result to block until unmount,
// and Unmount to tear it down.
func Mount(mountPoint string, fsys *FS, fsName string) (*fuse.Server, error) {
	opts := &gofuse.Options{
		MountOptions: fuse.MountOptions{
			FsName:      fsName,
			Name:        "kvfs",
			DirectMount: true,
		},
		AttrTimeout:  &zero,
		EntryTimeout: &zero,
	}
	return gofuse.Mount(mountPoint, fsys.Root(), opts)
}
