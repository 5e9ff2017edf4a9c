package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/papercomputeco/toolrelay/pkg/storage"
)

// DefaultKey is the storage key the log is persisted under.
const DefaultKey = "mcp_history"

// Log is the ordered, append-only conversation log. The whole log is
// persisted under a single key on every append, so the stored copy always
// mirrors the in-memory sequence.
type Log struct {
	// writeMu orders appends with their writes so a later snapshot is never
	// overwritten by an earlier one.
	writeMu sync.Mutex

	mu    sync.RWMutex
	store storage.Store
	key   string
	turns []Turn
}

// NewLog returns an empty log bound to key in store. Call Load to pick up
// turns from earlier sessions.
func NewLog(store storage.Store, key string) *Log {
	if key == "" {
		key = DefaultKey
	}
	return &Log{store: store, key: key}
}

// Load replaces the in-memory turns with the persisted log. A key that has
// never been written loads as an empty log.
func (l *Log) Load(ctx context.Context) error {
	data, err := l.store.Get(ctx, l.key)
	var notFound storage.ErrNotFound
	if errors.As(err, &notFound) {
		l.mu.Lock()
		l.turns = nil
		l.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	var turns []Turn
	if len(data) > 0 {
		if err := json.Unmarshal(data, &turns); err != nil {
			return fmt.Errorf("decode history %s: %w", l.key, err)
		}
	}

	for i := range turns {
		turns[i].Role = normalizeRole(turns[i].Role)
	}

	l.mu.Lock()
	l.turns = turns
	l.mu.Unlock()
	return nil
}

// Append adds turn to the end of the log and persists the whole log. The
// turn is kept in memory even when the write fails; the next successful
// Persist carries it.
func (l *Log) Append(ctx context.Context, turn Turn) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.mu.Lock()
	l.turns = append(l.turns, turn)
	l.mu.Unlock()

	return l.persist(ctx)
}

// Persist writes the current log to the store.
func (l *Log) Persist(ctx context.Context) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	return l.persist(ctx)
}

func (l *Log) persist(ctx context.Context) error {
	l.mu.RLock()
	turns := l.turns
	if turns == nil {
		turns = []Turn{}
	}
	data, err := json.Marshal(turns)
	l.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	if err := l.store.Put(ctx, l.key, data); err != nil {
		return fmt.Errorf("persist history: %w", err)
	}

	return nil
}

// Turns returns a copy of the log in conversation order.
func (l *Log) Turns() []Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

// Len returns the number of turns in the log.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.turns)
}
