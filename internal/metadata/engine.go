package metadata

import (
	"context"
	"path"
	"strings"
)

// CreateFile implements spec.md §4.2's create_file(path, mode).
func (e *Engine) CreateFile(ctx context.Context, p string, mode uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.HasSuffix(p, "/") {
		return NewError(EISDIR)
	}
	if _, ok, err := e.attr.Get(ctx, p); err != nil {
		return err
	} else if ok {
		return NewError(EEXIST)
	}

	parent, leaf, ok := splitFileParent(p)
	if !ok {
		return NewError(EIO)
	}

	unlock := e.locks.lock(parent)
	defer unlock()

	packed, ok, err := e.dir.Get(ctx, parent)
	if err != nil {
		return err
	}
	if !ok {
		return NewError(ENOENT)
	}

	packed, err = AppendDirEntry(packed, leaf)
	if err != nil {
		return NewError(EIO)
	}
	if err := e.dir.Put(ctx, parent, packed); err != nil {
		return NewError(EIO)
	}

	if err := e.attr.Put(ctx, p, AttrFile); err != nil {
		return NewError(EIO)
	}

	name := e.content.GenerateName()
	if err := e.loc.Put(ctx, p, name); err != nil {
		return NewError(EIO)
	}

	if err := e.content.Create(name, mode); err != nil {
		return NewError(EIO)
	}
	return nil
}

// CreateDir implements spec.md §4.2's create_dir(path, mode).
func (e *Engine) CreateDir(ctx context.Context, p string, mode uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !strings.HasSuffix(p, "/") {
		return NewError(ENOTDIR)
	}
	if _, ok, err := e.attr.Get(ctx, p); err != nil {
		return err
	} else if ok {
		return NewError(EEXIST)
	}

	parent, leaf, ok := splitDirParent(p)
	if !ok {
		return NewError(EIO)
	}

	unlock := e.locks.lock(parent)
	defer unlock()

	packed, ok, err := e.dir.Get(ctx, parent)
	if err != nil {
		return err
	}
	if !ok {
		return NewError(ENOENT)
	}

	packed, err = AppendDirEntry(packed, leaf)
	if err != nil {
		return NewError(EIO)
	}
	if err := e.dir.Put(ctx, parent, packed); err != nil {
		return NewError(EIO)
	}

	if err := e.attr.Put(ctx, p, AttrDir); err != nil {
		return NewError(EIO)
	}
	return e.dir.Put(ctx, p, rootDir())
}

// GetFileAttr implements spec.md §4.2's get_file_attr(path).
func (e *Engine) GetFileAttr(ctx context.Context, p string) (*Stat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	kind, ok, err := e.attr.Get(ctx, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewError(ENOENT)
	}
	switch kind {
	case AttrFile:
		return fileStat(), nil
	case AttrDir:
		return dirStat(), nil
	default:
		return nil, NewError(ENOENT)
	}
}

// ReadDir implements spec.md §4.2's read_dir(path), returning the packed
// child list verbatim.
func (e *Engine) ReadDir(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	kind, ok, err := e.attr.Get(ctx, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewError(ENOENT)
	}
	if kind != AttrDir {
		return nil, NewError(ENOTDIR)
	}
	packed, ok, err := e.dir.Get(ctx, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewError(ENOENT)
	}
	return packed, nil
}

// ReadFile implements spec.md §4.2's read_file(path, size, offset).
func (e *Engine) ReadFile(ctx context.Context, p string, size uint32, offset uint64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.checkIsFile(ctx, p); err != nil {
		return nil, err
	}

	name, ok, err := e.loc.Get(ctx, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewError(EIO)
	}

	buf := make([]byte, size)
	n, err := e.content.ReadAt(name, buf, int64(offset))
	if err != nil {
		return nil, NewError(EIO)
	}
	return buf[:n], nil
}

// WriteFile implements spec.md §4.2's write_file(path, bytes, offset).
func (e *Engine) WriteFile(ctx context.Context, p string, data []byte, offset uint64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := e.checkIsFile(ctx, p); err != nil {
		return 0, err
	}

	name, ok, err := e.loc.Get(ctx, p)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, NewError(EIO)
	}

	n, err := e.content.WriteAt(name, data, int64(offset))
	if err != nil {
		return 0, NewError(EIO)
	}
	return n, nil
}

func (e *Engine) checkIsFile(ctx context.Context, p string) error {
	kind, ok, err := e.attr.Get(ctx, p)
	if err != nil {
		return err
	}
	if !ok {
		return NewError(ENOENT)
	}
	if kind != AttrFile {
		return NewError(EISDIR)
	}
	return nil
}

// CleanPath collapses "." and ".." segments of a path but, unlike
// path.Clean, preserves a trailing "/" that marks a directory path. The
// daemon does not call it: request paths are matched against the metadata
// namespaces exactly as received.
func CleanPath(p string) string {
	if p == "" {
		return "/"
	}
	trailingSlash := strings.HasSuffix(p, "/") && p != "/"
	cleaned := path.Clean(p)
	if trailingSlash && !strings.HasSuffix(cleaned, "/") {
		cleaned += "/"
	}
	return cleaned
}
