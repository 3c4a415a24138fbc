// Package fingerprint computes content hashes for catalog entries and memoizes them in a
// key-value store, keyed by the path relative to the catalog root.
package fingerprint

import (
	"context"
	"errors"

	"github.com/Nachtalb/aer/aer/store"

	"github.com/rs/zerolog"
)

// Result is the outcome of a cache-aside lookup.
type Result struct {
	Value string
	// Hit is true when Value came from the store and compute was not called.
	Hit bool
}

// GetOrCompute returns the value stored under key, or calls compute and writes the result
// back. Store failures on either side degrade to a miss and are only logged; the only error
// returned is the one from compute.
func GetOrCompute(ctx context.Context, s store.Store, key string, compute func() (string, error), logger zerolog.Logger) (Result, error) {
	value, err := s.Get(ctx, key)
	switch {
	case err == nil:
		return Result{Value: value, Hit: true}, nil
	case errors.Is(err, store.ErrNotFound):
	default:
		logger.Debug().Err(err).Str("key", key).Msg("Store read failed, treating as miss")
	}

	value, err = compute()
	if err != nil {
		return Result{}, err
	}

	if err := s.Set(ctx, key, value); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Failed to write fingerprint back to store")
	}
	return Result{Value: value}, nil
}
