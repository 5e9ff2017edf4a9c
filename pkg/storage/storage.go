// Package storage defines the key/value persistence backends the conversation
// history is written to.
package storage

import "context"

// Store persists opaque values under string keys. A value is always written
// and read as a whole; drivers never merge or partially update a value.
type Store interface {
	// Get returns the value stored under key. Returns ErrNotFound if the key
	// has never been written.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put replaces the value stored under key.
	Put(ctx context.Context, key string, value []byte) error

	// Close releases any resources held by the store.
	Close() error
}

// ErrNotFound is returned when a key doesn't exist in the store.
type ErrNotFound struct {
	Key string
}

func (e ErrNotFound) Error() string {
	if e.Key == "" {
		return "key not found"
	}

	return "key not found: " + e.Key
}
