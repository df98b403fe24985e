// Package kv defines the key-value persistence boundary used by the cache
// gate, the session store and app settings.
//
// Implementations live in this package (Memory), in kv/bolt (bbolt) and in
// internal/storage (sqlite). Callers depend only on Store.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("kv: key not found")

// Store is a string key-value store.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Keys returns every key that starts with prefix, in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Closer is implemented by stores that hold an underlying resource.
type Closer interface {
	Close() error
}
