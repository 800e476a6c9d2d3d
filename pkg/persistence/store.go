// Package persistence stores form value snapshots so partially filled forms
// survive restarts.
package persistence

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Get when no entry exists for the key.
var ErrNotFound = errors.New("persistence: not found")

// Store is a keyed byte store. Implementations must be safe for concurrent
// use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}
