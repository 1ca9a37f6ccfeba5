// Package kv defines the string-keyed, string-valued storage a profile persists into.
//
// It plays the part of browser local storage: every component that persists
// state (identity registry, active session, per-user chat collections) does so
// through a Store, and the concrete backend is chosen at startup.
package kv

import "context"

// Store is a flat key-value namespace.
// Implementations must be safe for concurrent use. Writes are last-write-wins.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}
