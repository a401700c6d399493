package metadata

import "context"

// Attribute tags stored in the attr namespace.
const (
	AttrFile byte = 'f'
	AttrDir  byte = 'd'
)

// AttrStore is the path -> "f"|"d" namespace.
type AttrStore interface {
	Get(ctx context.Context, path string) (kind byte, ok bool, err error)
	Put(ctx context.Context, path string, kind byte) error
	Clear(ctx context.Context) error
}

// DirStore is the directory-path -> packed children namespace.
type DirStore interface {
	Get(ctx context.Context, path string) (packed []byte, ok bool, err error)
	Put(ctx context.Context, path string, packed []byte) error
	Clear(ctx context.Context) error
}

// LocStore is the file-path -> opaque local name namespace.
type LocStore interface {
	Get(ctx context.Context, path string) (name string, ok bool, err error)
	Put(ctx context.Context, path string, name string) error
	Clear(ctx context.Context) error
}

// ContentStore performs I/O against the opaque host files a LocStore entry
// names. Implemented by internal/content against the local filesystem.
type ContentStore interface {
	GenerateName() string
	Create(name string, mode uint32) error
	ReadAt(name string, buf []byte, offset int64) (int, error)
	WriteAt(name string, data []byte, offset int64) (int, error)
}

// Engine composes the three namespaces and the content store into the
// business logic spec.md §4.2 describes: create_file, create_dir,
// get_file_attr, read_dir, read_file, write_file.
type Engine struct {
	attr    AttrStore
	dir     DirStore
	loc     LocStore
	content ContentStore
	locks   *dirLockTable
}

// NewEngine wires the three namespace stores and a content store into an
// Engine. The per-directory lock table is sized independently of any
// store — it only ever guards in-process read-modify-write sequences.
func NewEngine(attr AttrStore, dir DirStore, loc LocStore, content ContentStore) *Engine {
	return &Engine{
		attr:    attr,
		dir:     dir,
		loc:     loc,
		content: content,
		locks:   newDirLockTable(256),
	}
}

// Init wipes all three namespaces and installs the root: attr["/"]="d",
// dir["/"]=packed(".",".."), loc["/"]="".
func (e *Engine) Init(ctx context.Context) error {
	if err := e.attr.Clear(ctx); err != nil {
		return err
	}
	if err := e.dir.Clear(ctx); err != nil {
		return err
	}
	if err := e.loc.Clear(ctx); err != nil {
		return err
	}
	if err := e.attr.Put(ctx, "/", AttrDir); err != nil {
		return err
	}
	if err := e.dir.Put(ctx, "/", rootDir()); err != nil {
		return err
	}
	return e.loc.Put(ctx, "/", "")
}
