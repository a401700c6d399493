// Package bridge translates kernel filesystem callbacks, delivered via
// github.com/hanwen/go-fuse/v2, into calls on the client façade
// (spec.md §4.6). Each callback is a thin translation: getattr, readdir,
// open, read, write, create, and mkdir map directly onto one façade call.
// No other FUSE operation is implemented here; those get go-fuse's default
// reply for an unimplemented node interface, and nothing in this package
// answers them with -EPERM.
//
// Grounded on scttfrdmn-objectfs's internal/fuse/filesystem.go: a
// DirectoryNode/FileNode pair embedding fs.Inode, with a FileHandle
// carrying the open file's path for Read/Write.
package bridge

import (
	"context"
	"strings"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/kvfs/kvfs/internal/facade"
	"github.com/kvfs/kvfs/internal/metadata"
)

// FS is the root of the mounted tree. Root() hands go-fuse the inode for
// spec.md's "/", already initialized by the daemon.
type FS struct {
	facade *facade.Facade
}

// New constructs a bridge FS over an already-configured façade.
func New(fac *facade.Facade) *FS {
	return &FS{facade: fac}
}

// Root returns the root directory node, per fs.InodeEmbedder.
func (f *FS) Root() fs.InodeEmbedder {
	return &DirectoryNode{facade: f.facade, path: "/"}
}

// DirectoryNode is one directory in the mounted tree. path always ends in
// "/", matching spec.md §3's Path convention.
type DirectoryNode struct {
	fs.Inode
	facade *facade.Facade
	path   string
}

var (
	_ fs.NodeLookuper  = (*DirectoryNode)(nil)
	_ fs.NodeReaddirer = (*DirectoryNode)(nil)
	_ fs.NodeMkdirer   = (*DirectoryNode)(nil)
	_ fs.NodeCreater   = (*DirectoryNode)(nil)
	_ fs.NodeGetattrer = (*DirectoryNode)(nil)

	_ fs.NodeOpener    = (*FileNode)(nil)
	_ fs.NodeGetattrer = (*FileNode)(nil)

	_ fs.FileReader = (*FileHandle)(nil)
	_ fs.FileWriter = (*FileHandle)(nil)
)

func (n *DirectoryNode) child(name string) string { return n.path + name }

// Lookup resolves a single child by name, trying it first as a file and
// then as a directory, since the metadata engine keys the two namespaces
// by different path shapes (spec.md §3: a directory path carries a
// trailing "/").
func (n *DirectoryNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	filePath := n.child(name)
	if stat, status := n.facade.GetFileAttr(ctx, filePath); status == 0 {
		return n.newChildInode(ctx, name, filePath, stat), 0
	}

	dirPath := filePath + "/"
	if stat, status := n.facade.GetFileAttr(ctx, dirPath); status == 0 {
		return n.newChildInode(ctx, name, dirPath, stat), 0
	}

	return nil, syscall.ENOENT
}

func (n *DirectoryNode) newChildInode(ctx context.Context, name, childPath string, stat *metadata.Stat) *fs.Inode {
	if strings.HasSuffix(childPath, "/") {
		child := &DirectoryNode{facade: n.facade, path: childPath}
		return n.NewInode(ctx, child, fs.StableAttr{Mode: fuse.S_IFDIR})
	}
	child := &FileNode{facade: n.facade, path: childPath}
	return n.NewInode(ctx, child, fs.StableAttr{Mode: fuse.S_IFREG})
}

// Readdir lists this directory's children. "." and ".." are present in
// the wire-level packed list (spec.md §3) but are omitted here: the
// kernel already synthesizes both for any FUSE directory and a duplicate
// entry from the filesystem would confuse callers like `ls -a`.
func (n *DirectoryNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	names, status := n.facade.ReadDir(ctx, n.path)
	if status != 0 {
		return nil, errnoFromStatus(status)
	}

	entries := make([]fuse.DirEntry, 0, len(names))
	for _, name := range names {
		if name == "." || name == ".." {
			continue
		}
		if strings.HasSuffix(name, "/") {
			entries = append(entries, fuse.DirEntry{Name: strings.TrimSuffix(name, "/"), Mode: fuse.S_IFDIR})
		} else {
			entries = append(entries, fuse.DirEntry{Name: name, Mode: fuse.S_IFREG})
		}
	}
	return fs.NewListDirStream(entries), 0
}

// Mkdir implements the kernel's mkdir callback.
func (n *DirectoryNode) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	childPath := n.child(name) + "/"
	if status := n.facade.CreateDir(ctx, childPath, mode); status != 0 {
		return nil, errnoFromStatus(status)
	}
	child := &DirectoryNode{facade: n.facade, path: childPath}
	return n.NewInode(ctx, child, fs.StableAttr{Mode: fuse.S_IFDIR}), 0
}

// Create implements the kernel's create callback, then immediately opens
// the new file so the caller's open(2) call succeeds in one round trip.
func (n *DirectoryNode) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (node *fs.Inode, fh fs.FileHandle, fuseFlags uint32, errno syscall.Errno) {
	childPath := n.child(name)
	if status := n.facade.CreateFile(ctx, childPath, mode); status != 0 {
		return nil, nil, 0, errnoFromStatus(status)
	}

	child := &FileNode{facade: n.facade, path: childPath}
	node = n.NewInode(ctx, child, fs.StableAttr{Mode: fuse.S_IFREG})

	fh, fuseFlags, errno = child.Open(ctx, flags)
	return node, fh, fuseFlags, errno
}

// Getattr reports the root/directory stat synthesized by the metadata
// engine: mode S_IFDIR|0777, link count 2 (spec.md §3).
func (n *DirectoryNode) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	stat, status := n.facade.GetFileAttr(ctx, n.path)
	if status != 0 {
		return errnoFromStatus(status)
	}
	applyStat(&out.Attr, stat)
	return 0
}

// FileNode is one file in the mounted tree.
type FileNode struct {
	fs.Inode
	facade *facade.Facade
	path   string
}

// Open reports success without allocating any handle state beyond the
// path itself; the daemon's OPEN_FILE response carries no handle either
// (spec.md §4.6).
func (f *FileNode) Open(ctx context.Context, flags uint32) (fh fs.FileHandle, fuseFlags uint32, errno syscall.Errno) {
	if status := f.facade.OpenFile(ctx, f.path); status != 0 {
		return nil, 0, errnoFromStatus(status)
	}
	// FOPEN_DIRECT_IO disables the kernel page cache for this handle, so
	// every read/write traverses the protocol, per spec.md §6.
	return &FileHandle{facade: f.facade, path: f.path}, fuse.FOPEN_DIRECT_IO, 0
}

// Getattr reports the file stat synthesized by the metadata engine: mode
// S_IFREG|0777, link count 1 (spec.md §3).
func (f *FileNode) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	stat, status := f.facade.GetFileAttr(ctx, f.path)
	if status != 0 {
		return errnoFromStatus(status)
	}
	applyStat(&out.Attr, stat)
	return 0
}

// FileHandle is the open-file state read(2)/write(2) target. It carries
// no buffering of its own — every call is forwarded to the façade.
type FileHandle struct {
	facade *facade.Facade
	path   string
}

// Read implements the kernel's read callback.
func (fh *FileHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	data, status := fh.facade.ReadFile(ctx, fh.path, uint32(len(dest)), uint64(off))
	if status != 0 {
		return nil, errnoFromStatus(status)
	}
	return fuse.ReadResultData(data), 0
}

// Write implements the kernel's write callback.
func (fh *FileHandle) Write(ctx context.Context, data []byte, off int64) (written uint32, errno syscall.Errno) {
	status := fh.facade.WriteFile(ctx, fh.path, data, uint64(off))
	if status < 0 {
		return 0, errnoFromStatus(status)
	}
	return uint32(status), 0
}

func applyStat(out *fuse.Attr, stat *metadata.Stat) {
	out.Mode = stat.Mode
	out.Nlink = stat.Nlink
	out.Size = stat.Size
	out.SetTimes(nil, ptrTime(time.Now()), nil)
}

func ptrTime(t time.Time) *time.Time { return &t }

// errnoFromStatus converts a wire status (0 or a negative errno, per
// spec.md §4.1) into a syscall.Errno for go-fuse.
func errnoFromStatus(status int32) syscall.Errno {
	if status >= 0 {
		return 0
	}
	return syscall.Errno(-status)
}
