// Package inmemory is a process-local storage.Store, used for ephemeral
// sessions and tests.
package inmemory

import (
	"context"
	"sync"

	"github.com/papercomputeco/toolrelay/pkg/storage"
)

// Driver keeps values in a map. Values are copied on the way in and out so
// callers cannot mutate stored state.
type Driver struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewDriver creates an empty in-memory store.
func NewDriver() *Driver {
	return &Driver{values: make(map[string][]byte)}
}

func (d *Driver) Get(_ context.Context, key string) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	v, ok := d.values[key]
	if !ok {
		return nil, storage.ErrNotFound{Key: key}
	}

	return append([]byte(nil), v...), nil
}

func (d *Driver) Put(_ context.Context, key string, value []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.values[key] = append([]byte(nil), value...)
	return nil
}

func (d *Driver) Close() error {
	return nil
}
