package fingerprint

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/Nachtalb/aer/aer/filesystem/common"
	"github.com/Nachtalb/aer/aer/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const emptyMD5 = "d41d8cd98f00b204e9800998ecf8427e"

// countingHash wraps MD5File and counts how often file content was read.
func countingHash(calls *atomic.Int32) HashFunc {
	return func(path string) (string, error) {
		calls.Add(1)
		return MD5File(path)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestMD5File(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "file.txt"), "")
	writeFile(t, filepath.Join(dir, "hello.txt"), "hello")

	sum, err := MD5File(filepath.Join(dir, "file.txt"))
	require.NoError(t, err)
	assert.Equal(t, emptyMD5, sum)

	sum, err = MD5File(filepath.Join(dir, "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", sum)

	_, err = MD5File(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestFingerprintMissThenHit(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "dir", "a.jpg")
	writeFile(t, path, "hello")

	var calls atomic.Int32
	mock := store.NewMockStore()
	cache := NewCache(mock, zerolog.Nop(), WithHashFunc(countingHash(&calls)))

	first, err := cache.Lookup(context.Background(), path, root)
	require.NoError(t, err)
	assert.False(t, first.Hit)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", first.Value)

	stored, ok := mock.Value("md5:dir/a.jpg")
	require.True(t, ok)
	assert.Equal(t, first.Value, stored)

	second, err := cache.Lookup(context.Background(), path, root)
	require.NoError(t, err)
	assert.True(t, second.Hit)
	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, first.Value, mock.LastHit(), "store get returned the value")
	assert.Equal(t, int32(1), calls.Load(), "file read once")
}

func TestFingerprintIsKeyedByRelativePath(t *testing.T) {
	oldRoot := t.TempDir()
	newRoot := t.TempDir()
	writeFile(t, filepath.Join(oldRoot, "a.gif"), "gif")
	writeFile(t, filepath.Join(newRoot, "a.gif"), "gif")

	var calls atomic.Int32
	cache := NewCache(store.NewMemoryStore(8, 0), zerolog.Nop(), WithHashFunc(countingHash(&calls)))

	_, err := cache.Fingerprint(context.Background(), filepath.Join(oldRoot, "a.gif"), oldRoot)
	require.NoError(t, err)
	res, err := cache.Lookup(context.Background(), filepath.Join(newRoot, "a.gif"), newRoot)
	require.NoError(t, err)

	assert.True(t, res.Hit, "moving the root keeps the cache")
	assert.Equal(t, int32(1), calls.Load())
}

func TestFingerprintStaleAfterEditInPlace(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.jpg")
	writeFile(t, path, "before")

	cache := NewCache(store.NewMockStore(), zerolog.Nop())

	before, err := cache.Fingerprint(context.Background(), path, root)
	require.NoError(t, err)

	writeFile(t, path, "after")
	after, err := cache.Fingerprint(context.Background(), path, root)
	require.NoError(t, err)

	fresh, err := MD5File(path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "cached value is returned after an in-place edit")
	assert.NotEqual(t, fresh, after)
}

func TestFingerprintStoreUnavailable(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.jpg")
	writeFile(t, path, "")

	mock := store.NewMockStore()
	mock.GetErr = store.ErrUnavailable
	mock.SetErr = store.ErrUnavailable
	cache := NewCache(mock, zerolog.Nop())

	sum, err := cache.Fingerprint(context.Background(), path, root)
	require.NoError(t, err)
	assert.Equal(t, emptyMD5, sum)

	_, _, sets := mock.Stats()
	assert.Equal(t, 1, sets, "write-back attempted")
}

func TestFingerprintComputeError(t *testing.T) {
	root := t.TempDir()
	mock := store.NewMockStore()
	cache := NewCache(mock, zerolog.Nop())

	_, err := cache.Fingerprint(context.Background(), filepath.Join(root, "missing.jpg"), root)

	var computeErr *ComputeError
	require.ErrorAs(t, err, &computeErr)
	assert.ErrorIs(t, err, ErrFingerprintCompute)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, _, sets := mock.Stats()
	assert.Zero(t, sets, "nothing cached for a failed computation")
}

func TestFingerprintPathOutsideRoot(t *testing.T) {
	cache := NewCache(store.NewMockStore(), zerolog.Nop())

	_, err := cache.Fingerprint(context.Background(), filepath.Join(t.TempDir(), "a.jpg"), t.TempDir())
	assert.ErrorIs(t, err, common.ErrPathNotUnderRoot)
}

func TestKeyPrefix(t *testing.T) {
	cache := NewCache(store.NewMockStore(), zerolog.Nop(), WithKeyPrefix("type:"))

	key, err := cache.Key(filepath.Join("/srv", "media", "x", "y.png"), filepath.Join("/srv", "media"))
	require.NoError(t, err)
	assert.Equal(t, "type:x/y.png", key)
}

func TestGetOrComputeOnlyReturnsComputeErrors(t *testing.T) {
	mock := store.NewMockStore()
	boom := errors.New("boom")

	_, err := GetOrCompute(context.Background(), mock, "k", func() (string, error) { return "", boom }, zerolog.Nop())
	assert.ErrorIs(t, err, boom)

	mock.SetErr = errors.New("write failed")
	res, err := GetOrCompute(context.Background(), mock, "k", func() (string, error) { return "v", nil }, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, Result{Value: "v"}, res)
}
