// Package badgerstore implements the metadata.AttrStore, metadata.DirStore,
// and metadata.LocStore interfaces on top of badger/v4, one *badger.DB per
// namespace, following the db.View/db.Update/ctx.Err() shape the teacher
// repo's pkg/metadata/store/badger package uses throughout its CRUD layer.
package badgerstore

import (
	"context"
	"fmt"
	"path/filepath"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/kvfs/kvfs/internal/metadata"
)

// Namespaces opens the three badger instances the metadata engine needs.
// Default directory names match spec.md §6's persistent-state section:
// testdb (attr), testdirdb (dir), testfiledb (loc).
type Namespaces struct {
	Attr *AttrStore
	Dir  *DirStore
	Loc  *LocStore

	attrDB, dirDB, locDB *badger.DB
}

// Open opens (creating if absent) the three badger instances under
// dataDir/{testdb,testdirdb,testfiledb}.
func Open(dataDir string) (*Namespaces, error) {
	attrDB, err := openDB(filepath.Join(dataDir, "testdb"))
	if err != nil {
		return nil, fmt.Errorf("open attr store: %w", err)
	}
	dirDB, err := openDB(filepath.Join(dataDir, "testdirdb"))
	if err != nil {
		attrDB.Close()
		return nil, fmt.Errorf("open dir store: %w", err)
	}
	locDB, err := openDB(filepath.Join(dataDir, "testfiledb"))
	if err != nil {
		attrDB.Close()
		dirDB.Close()
		return nil, fmt.Errorf("open loc store: %w", err)
	}

	return &Namespaces{
		Attr:   &AttrStore{db: attrDB},
		Dir:    &DirStore{db: dirDB},
		Loc:    &LocStore{db: locDB},
		attrDB: attrDB,
		dirDB:  dirDB,
		locDB:  locDB,
	}, nil
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	return badger.Open(opts)
}

// Close closes all three underlying databases.
func (n *Namespaces) Close() error {
	var firstErr error
	for _, db := range []*badger.DB{n.attrDB, n.dirDB, n.locDB} {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// AttrStore implements metadata.AttrStore.
type AttrStore struct {
	db *badger.DB
}

func (s *AttrStore) Get(ctx context.Context, path string) (byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	var kind byte
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(path))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			if len(val) > 0 {
				kind = val[0]
			}
			return nil
		})
	})
	return kind, found, err
}

func (s *AttrStore) Put(ctx context.Context, path string, kind byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(path), []byte{kind})
	})
}

func (s *AttrStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.DropAll()
}

// DirStore implements metadata.DirStore.
type DirStore struct {
	db *badger.DB
}

func (s *DirStore) Get(ctx context.Context, path string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var packed []byte
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(path))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			packed = append([]byte(nil), val...)
			return nil
		})
	})
	return packed, found, err
}

func (s *DirStore) Put(ctx context.Context, path string, packed []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(path), packed)
	})
}

func (s *DirStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.DropAll()
}

// LocStore implements metadata.LocStore.
type LocStore struct {
	db *badger.DB
}

func (s *LocStore) Get(ctx context.Context, path string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	var name string
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(path))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			name = string(val)
			return nil
		})
	})
	return name, found, err
}

func (s *LocStore) Put(ctx context.Context, path string, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(path), []byte(name))
	})
}

func (s *LocStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.DropAll()
}

var (
	_ metadata.AttrStore = (*AttrStore)(nil)
	_ metadata.DirStore  = (*DirStore)(nil)
	_ metadata.LocStore  = (*LocStore)(nil)
)
