package metadata_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kvfs/kvfs/internal/content"
	"github.com/kvfs/kvfs/internal/metadata"
	"github.com/kvfs/kvfs/internal/metadata/badgerstore"
)

func newTestEngine(t *testing.T) *metadata.Engine {
	t.Helper()
	ns, err := badgerstore.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ns.Close() })

	store := content.NewStore(t.TempDir())
	engine := metadata.NewEngine(ns.Attr, ns.Dir, ns.Loc, store)
	require.NoError(t, engine.Init(context.Background()))
	return engine
}

func TestRootListing(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	packed, err := engine.ReadDir(ctx, "/")
	require.NoError(t, err)
	names, err := metadata.UnpackDir(packed)
	require.NoError(t, err)
	require.Equal(t, []string{".", ".."}, names)
}

func TestCreateFileRoundTripAttributes(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.CreateFile(ctx, "/a", 0o644))

	stat, err := engine.GetFileAttr(ctx, "/a")
	require.NoError(t, err)
	require.Equal(t, uint32(0o100000|0o777), stat.Mode)
	require.Equal(t, uint32(1), stat.Nlink)
}

func TestCreateDirRoundTripAttributes(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.CreateDir(ctx, "/foo/", 0o755))

	stat, err := engine.GetFileAttr(ctx, "/foo/")
	require.NoError(t, err)
	require.Equal(t, uint32(0o040000|0o777), stat.Mode)
	require.Equal(t, uint32(2), stat.Nlink)
}

func TestParentChildInvariant(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.CreateDir(ctx, "/a/", 0o755))
	require.NoError(t, engine.CreateFile(ctx, "/a/b", 0o644))

	packed, err := engine.ReadDir(ctx, "/a/")
	require.NoError(t, err)
	names, err := metadata.UnpackDir(packed)
	require.NoError(t, err)
	require.Contains(t, names, "b")

	require.NoError(t, engine.CreateDir(ctx, "/a/c/", 0o755))
	packed, err = engine.ReadDir(ctx, "/a/")
	require.NoError(t, err)
	names, err = metadata.UnpackDir(packed)
	require.NoError(t, err)
	require.Contains(t, names, "c/")
}

func TestDuplicateCreateRejected(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.CreateFile(ctx, "/a", 0o644))
	err := engine.CreateFile(ctx, "/a", 0o644)
	require.Error(t, err)
	require.Equal(t, metadata.EEXIST, metadata.StatusOf(err))
}

func TestCreateDirDuplicateRejected(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.CreateDir(ctx, "/foo/", 0o755))
	err := engine.CreateDir(ctx, "/foo/", 0o755)
	require.Error(t, err)
	require.Equal(t, metadata.EEXIST, metadata.StatusOf(err))
}

func TestFileDataRoundTrip(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.CreateFile(ctx, "/hello", 0o644))

	n, err := engine.WriteFile(ctx, "/hello", []byte("hello"), 0)
	require.NoError(t, err)
	require.Equal(t, 5, n)

	got, err := engine.ReadFile(ctx, "/hello", 5, 0)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)
}

func TestGetFileAttrMissing(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.GetFileAttr(ctx, "/nope")
	require.Error(t, err)
	require.Equal(t, metadata.ENOENT, metadata.StatusOf(err))
}

func TestCreateFileMissingParent(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	err := engine.CreateFile(ctx, "/missing/bar", 0o644)
	require.Error(t, err)
	require.Equal(t, metadata.ENOENT, metadata.StatusOf(err))
}

func TestCreateFileRejectsTrailingSlash(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	err := engine.CreateFile(ctx, "/foo/", 0o644)
	require.Error(t, err)
	require.Equal(t, metadata.EISDIR, metadata.StatusOf(err))
}

func TestReadDirOnFileIsNotDir(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.CreateFile(ctx, "/a", 0o644))
	_, err := engine.ReadDir(ctx, "/a")
	require.Error(t, err)
	require.Equal(t, metadata.ENOTDIR, metadata.StatusOf(err))
}

func TestReadFileOnDirIsDir(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.CreateDir(ctx, "/foo/", 0o755))
	_, err := engine.ReadFile(ctx, "/foo/", 10, 0)
	require.Error(t, err)
	require.Equal(t, metadata.EISDIR, metadata.StatusOf(err))
}

// End-to-end scenario from spec.md §8, scenario 1-3 and 6.
func TestEndToEndScenario(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.CreateDir(ctx, "/foo/", 0o777))

	stat, err := engine.GetFileAttr(ctx, "/foo/")
	require.NoError(t, err)
	require.Equal(t, uint32(0o040777), stat.Mode)
	require.Equal(t, uint32(2), stat.Nlink)

	rootPacked, err := engine.ReadDir(ctx, "/")
	require.NoError(t, err)
	rootNames, err := metadata.UnpackDir(rootPacked)
	require.NoError(t, err)
	require.Equal(t, []string{".", "..", "foo/"}, rootNames)

	require.NoError(t, engine.CreateFile(ctx, "/foo/bar", 0o644))
	n, err := engine.WriteFile(ctx, "/foo/bar", []byte("hello"), 0)
	require.NoError(t, err)
	require.Equal(t, 5, n)

	got, err := engine.ReadFile(ctx, "/foo/bar", 5, 0)
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))

	err = engine.CreateFile(ctx, "/foo/bar", 0o644)
	require.Equal(t, metadata.EEXIST, metadata.StatusOf(err))

	err = engine.CreateDir(ctx, "/foo/", 0o777)
	require.Equal(t, metadata.EEXIST, metadata.StatusOf(err))

	packed, err := engine.ReadDir(ctx, "/foo/")
	require.NoError(t, err)
	names, err := metadata.UnpackDir(packed)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{".", "..", "bar"}, names)
}
