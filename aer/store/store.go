// Package store provides the key-value stores backing the fingerprint cache.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned by Get for a missing or expired key.
	ErrNotFound = errors.New("key not found")
	// ErrUnavailable wraps any backend failure. Callers treat it like a miss.
	ErrUnavailable = errors.New("store unavailable")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store is closed")
)

// Store is a string key-value store. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Options configures the store constructors.
type Options struct {
	Driver string
	DSN    string
	TTL    time.Duration
	Size   int
}

// Open creates the store named by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", "memory":
		return NewMemoryStore(opts.Size, opts.TTL), nil
	case "libsql":
		return NewSQLStore(ctx, opts.DSN, opts.TTL)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", opts.Driver)
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
