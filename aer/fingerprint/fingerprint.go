package fingerprint

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	internal "github.com/Nachtalb/aer/aer"
	"github.com/Nachtalb/aer/aer/filesystem/common"
	"github.com/Nachtalb/aer/aer/store"

	"github.com/rs/zerolog"
)

// ErrFingerprintCompute is the root of ComputeError.
var ErrFingerprintCompute = errors.New("failed to compute fingerprint")

// ComputeError reports a file that could not be hashed.
type ComputeError struct {
	Path string
	Err  error
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("%v for %s: %v", ErrFingerprintCompute, e.Path, e.Err)
}

func (e *ComputeError) Unwrap() []error { return []error{ErrFingerprintCompute, e.Err} }

// HashFunc hashes the complete content of the file at path.
type HashFunc func(path string) (string, error)

// MD5File returns the lowercase hex MD5 digest of the file at path.
func MD5File(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := md5.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Cache memoizes fingerprints in a Store.
//
// Keys are derived from the root-relative path only, so an entry survives moving the
// catalog root but a file edited in place keeps reporting its old fingerprint until the
// store evicts or expires the key.
type Cache struct {
	store  store.Store
	prefix string
	hash   HashFunc
	paths  *common.PathUtils
	logger zerolog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithKeyPrefix sets the namespace prepended to every key.
func WithKeyPrefix(prefix string) Option {
	return func(c *Cache) { c.prefix = prefix }
}

// WithHashFunc replaces the content hash, MD5File by default.
func WithHashFunc(fn HashFunc) Option {
	return func(c *Cache) { c.hash = fn }
}

// NewCache creates a Cache over s.
func NewCache(s store.Store, logger zerolog.Logger, opts ...Option) *Cache {
	c := &Cache{
		store:  s,
		prefix: internal.DefaultStoreKeyPrefix,
		hash:   MD5File,
		paths:  common.NewPathUtils(),
		logger: logger.With().Str("component", "fingerprint").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the store key for path under root.
func (c *Cache) Key(path, root string) (string, error) {
	rel, err := c.paths.RelativeTo(path, root)
	if err != nil {
		return "", err
	}
	return c.prefix + rel, nil
}

// Lookup returns the fingerprint of path and whether it came from the store.
func (c *Cache) Lookup(ctx context.Context, path, root string) (Result, error) {
	key, err := c.Key(path, root)
	if err != nil {
		return Result{}, err
	}

	return GetOrCompute(ctx, c.store, key, func() (string, error) {
		sum, err := c.hash(path)
		if err != nil {
			return "", &ComputeError{Path: path, Err: err}
		}
		return sum, nil
	}, c.logger)
}

// Fingerprint returns the content fingerprint of path.
func (c *Cache) Fingerprint(ctx context.Context, path, root string) (string, error) {
	res, err := c.Lookup(ctx, path, root)
	return res.Value, err
}
