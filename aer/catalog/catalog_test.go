package catalog

import (
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/Nachtalb/aer/aer/filesystem/common"
	"github.com/Nachtalb/aer/aer/filesystem/walker"
	"github.com/Nachtalb/aer/aer/filetypes"
	"github.com/Nachtalb/aer/aer/fingerprint"
	"github.com/Nachtalb/aer/aer/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// spyEnumerator counts Enumerate calls and delegates to a real walker or a fixed list.
type spyEnumerator struct {
	calls      atomic.Int32
	inner      Enumerator
	candidates []walker.Candidate
}

func (s *spyEnumerator) Enumerate(ctx context.Context, root string) iter.Seq[walker.Candidate] {
	s.calls.Add(1)
	if s.inner != nil {
		return s.inner.Enumerate(ctx, root)
	}
	return func(yield func(walker.Candidate) bool) {
		for _, c := range s.candidates {
			if !yield(c) {
				return
			}
		}
	}
}

type fixture struct {
	root    string
	spy     *spyEnumerator
	store   *store.MockStore
	metrics *common.CatalogMetrics
	service *Service
}

func newFixture(t *testing.T, opts ...fingerprint.Option) *fixture {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "a.jpg", "jpeg bytes")
	writeFile(t, root, "b.gif", "gif bytes")
	writeFile(t, root, "c.mp4", "mp4 bytes")
	writeFile(t, root, "d.txt", "")

	registry := filetypes.MustDefaultRegistry()
	spy := &spyEnumerator{inner: walker.New(walker.DefaultOptions(), zerolog.Nop())}
	mock := store.NewMockStore()
	metrics := common.NewCatalogMetrics()

	lister := NewLister(spy, registry, metrics, zerolog.Nop())
	cache := fingerprint.NewCache(mock, zerolog.Nop(), opts...)
	service := NewService(registry, lister, cache, metrics, ServiceOptions{Workers: 2, PublicURL: "http://localhost:9999/media"}, zerolog.Nop())

	return &fixture{root: root, spy: spy, store: mock, metrics: metrics, service: service}
}

func sortedPaths(entries []Entry) []string {
	SortByPath(entries)
	return Paths(entries)
}

func TestListAll(t *testing.T) {
	f := newFixture(t)

	entries, err := f.service.ListAll(context.Background(), f.root)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.jpg", "b.gif", "c.mp4", "d.txt"}, sortedPaths(entries))
}

func TestListByCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	images, err := f.service.ListByCategory(ctx, f.root, "images")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.gif"}, sortedPaths(images))

	media, err := f.service.ListByCategory(ctx, f.root, "media")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.gif", "c.mp4"}, sortedPaths(media))

	animations, err := f.service.ListByCategory(ctx, f.root, "animations")
	require.NoError(t, err)
	assert.Equal(t, []string{"b.gif", "c.mp4"}, sortedPaths(animations))
}

func TestListByUnknownCategoryDoesNotTraverse(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.ListByCategory(context.Background(), f.root, "bogus")

	var unknown *filetypes.UnknownCategoryError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "bogus", unknown.Name)
	assert.Zero(t, f.spy.calls.Load())

	for _, name := range []string{"", "  ", "\t"} {
		_, err = f.service.ListByCategory(context.Background(), f.root, name)
		assert.ErrorIs(t, err, filetypes.ErrUnknownCategory, "name %q", name)
	}
	assert.Zero(t, f.spy.calls.Load())
}

func TestEntryFields(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.root, "sub/My Photo.JPEG", "")

	entries, err := f.service.ListByCategory(context.Background(), f.root, "jpg")
	require.NoError(t, err)
	SortByPath(entries)
	require.Len(t, entries, 2)

	e := entries[1]
	assert.Equal(t, "sub/My Photo.JPEG", e.Path)
	assert.Equal(t, filepath.Join(f.root, "sub", "My Photo.JPEG"), e.FullPath)
	assert.True(t, filepath.IsAbs(e.FullPath))
	assert.Equal(t, "My Photo.JPEG", e.Name)
	assert.Equal(t, "jpeg", e.Extension)
	assert.Equal(t, "jpg", e.Type)
	assert.Equal(t, "http://localhost:9999/media/sub/My%20Photo.JPEG", e.URL)
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", e.MD5)
	assert.Zero(t, e.Size)
}

func TestTypeClassification(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.root, "README", "")

	entries, err := f.service.ListAll(context.Background(), f.root)
	require.NoError(t, err)

	types := map[string]string{}
	for _, e := range entries {
		types[e.Name] = e.Type
	}
	assert.Equal(t, map[string]string{
		"a.jpg":  "jpg",
		"b.gif":  "gif",
		"c.mp4":  "mp4",
		"d.txt":  filetypes.OtherType,
		"README": filetypes.OtherType,
	}, types)
}

func TestFingerprintsAreCached(t *testing.T) {
	var calls atomic.Int32
	f := newFixture(t, fingerprint.WithHashFunc(func(path string) (string, error) {
		calls.Add(1)
		return fingerprint.MD5File(path)
	}))
	ctx := context.Background()

	first, err := f.service.ListAll(ctx, f.root)
	require.NoError(t, err)
	second, err := f.service.ListAll(ctx, f.root)
	require.NoError(t, err)

	SortByPath(first)
	SortByPath(second)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(4), calls.Load())
	assert.Equal(t, int64(4), f.metrics.FingerprintMisses.Load())
	assert.Equal(t, int64(4), f.metrics.FingerprintHits.Load())

	value, ok := f.store.Value("md5:a.jpg")
	require.True(t, ok)
	assert.Equal(t, first[0].MD5, value)
}

func TestFingerprintFailureIsPerEntry(t *testing.T) {
	f := newFixture(t, fingerprint.WithHashFunc(func(path string) (string, error) {
		if filepath.Base(path) == "b.gif" {
			return "", os.ErrPermission
		}
		return fingerprint.MD5File(path)
	}))

	entries, err := f.service.ListByCategory(context.Background(), f.root, "images")
	require.NoError(t, err)
	SortByPath(entries)
	require.Len(t, entries, 2)

	assert.NotEmpty(t, entries[0].MD5)
	assert.Empty(t, entries[0].FingerprintError)
	assert.Empty(t, entries[1].MD5)
	assert.Contains(t, entries[1].FingerprintError, "permission denied")
	assert.Equal(t, int64(1), f.metrics.FingerprintErrors.Load())
}

func TestStoreUnavailableStillLists(t *testing.T) {
	f := newFixture(t)
	f.store.GetErr = store.ErrUnavailable
	f.store.SetErr = store.ErrUnavailable

	entries, err := f.service.ListAll(context.Background(), f.root)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	for _, e := range entries {
		assert.NotEmpty(t, e.MD5)
	}
}

func TestListerSkipsBadEntries(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.jpg", "")
	require.NoError(t, os.Mkdir(filepath.Join(root, "dir.jpg"), 0o755))

	spy := &spyEnumerator{candidates: []walker.Candidate{
		{Path: filepath.Join(root, "locked"), IsDir: true, Depth: 1, Err: os.ErrPermission},
		{Path: filepath.Join(root, "vanished.jpg"), Depth: 1},
		{Path: filepath.Join(root, "dir.jpg"), Depth: 1},
		{Path: filepath.Join(root, "a.jpg"), Depth: 1},
	}}
	metrics := common.NewCatalogMetrics()
	lister := NewLister(spy, filetypes.MustDefaultRegistry(), metrics, zerolog.Nop())

	entries, err := lister.List(context.Background(), root, filetypes.MatchAll())
	require.NoError(t, err)

	assert.Equal(t, []string{"a.jpg"}, Paths(entries))
	assert.Equal(t, int64(3), metrics.EntriesSkipped.Load())
}

func TestListerKeepsSymlinkedFiles(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	writeFile(t, root, "real.png", "png")
	require.NoError(t, os.Symlink(filepath.Join(root, "real.png"), filepath.Join(root, "link.png")))
	require.NoError(t, os.Symlink(filepath.Join(root, "missing.png"), filepath.Join(root, "broken.png")))
	require.NoError(t, os.Mkdir(filepath.Join(root, "folder"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(root, "folder"), filepath.Join(root, "folder.png")))

	lister := NewLister(walker.New(walker.DefaultOptions(), zerolog.Nop()), filetypes.MustDefaultRegistry(), nil, zerolog.Nop())

	entries, err := lister.List(context.Background(), root, filetypes.MatchAll())
	require.NoError(t, err)

	assert.Equal(t, []string{"link.png", "real.png"}, Paths(entries))
}

func TestListerRejectsPathOutsideRoot(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(t.TempDir(), "escape.jpg")
	writeFile(t, filepath.Dir(outside), "escape.jpg", "")

	spy := &spyEnumerator{candidates: []walker.Candidate{{Path: outside, Depth: 1}}}
	lister := NewLister(spy, filetypes.MustDefaultRegistry(), nil, zerolog.Nop())

	_, err := lister.List(context.Background(), root, filetypes.MatchAll())

	var notUnder *common.PathNotUnderRootError
	require.ErrorAs(t, err, &notUnder)
	assert.Equal(t, outside, notUnder.Path)
}

func TestListMissingRootFails(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.ListAll(context.Background(), filepath.Join(f.root, "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.False(t, errors.Is(err, filetypes.ErrUnknownCategory))
}

func TestListCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.service.ListAll(ctx, f.root)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestListHonorsIgnoreFiles(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.root, ".gitignore", "c.mp4\nskip/\n")
	writeFile(t, f.root, "skip/e.webm", "")

	entries, err := f.service.ListAll(context.Background(), f.root)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.jpg", "b.gif", "d.txt"}, sortedPaths(entries))
}

func TestCategories(t *testing.T) {
	f := newFixture(t)

	infos, err := f.service.Categories()
	require.NoError(t, err)
	require.Len(t, infos, len(filetypes.DefaultTable))

	byName := map[string]CategoryInfo{}
	for _, info := range infos {
		byName[info.Name] = info
	}
	assert.Equal(t, "composite", byName["videos"].Kind)
	assert.Equal(t, []string{"mp4", "webm"}, byName["videos"].Includes)
	assert.Equal(t, []string{"jpeg", "jpg"}, byName["jpg"].Extensions)
	assert.Equal(t, "primitive", byName["jpg"].Kind)
}

func TestMetricsRecordListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.ListAll(ctx, f.root)
	require.NoError(t, err)
	_, err = f.service.ListAll(ctx, filepath.Join(f.root, "missing"))
	require.Error(t, err)

	snapshot := f.service.Metrics().GetMetrics()
	assert.Equal(t, int64(2), snapshot["total_operations"])
	assert.Equal(t, int64(1), snapshot["failed_ops"])
	assert.Equal(t, int64(4), snapshot["entries_listed"])
}
