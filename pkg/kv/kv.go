// Package kv provides the local key/value store used for auth-artifact
// persistence and the private notes feature. Keys are plain strings;
// namespacing is the caller's concern, but the store supports removing
// every key under a prefix so a namespace can be swept wholesale.
package kv

import "context"

// ErrKeyNotFound reports an absent key.
type notFoundError struct{}

func (notFoundError) Error() string { return "kv: key not found" }

// ErrKeyNotFound is returned by Get when the key does not exist.
var ErrKeyNotFound error = notFoundError{}

// Store is a minimal persisted key/value abstraction.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// DeleteByPrefix removes every key beginning with prefix, including
	// keys written by schema versions the caller no longer knows about.
	DeleteByPrefix(ctx context.Context, prefix string) error
}
