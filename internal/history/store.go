// Package history persists the client's conversion history as a keyed record.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pdf2word/backend/internal/logging"
	"github.com/pdf2word/backend/internal/models"
)

// Key is the record the history log is stored under.
const Key = "conversionHistory"

var (
	// ErrClosed is returned by stores used after Close.
	ErrClosed = errors.New("history store closed")
	// ErrNotPersisted wraps store failures after the in-memory log changed.
	ErrNotPersisted = errors.New("history not persisted")
)

// Store is a durable key/value record store.
type Store interface {
	// Get returns the value for key. ok is false when no record exists.
	Get(key string) (value []byte, ok bool, err error)
	Put(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// Log is the ordered, newest-first history backed by a Store.
type Log struct {
	store  Store
	logger *slog.Logger

	mu      sync.Mutex
	entries []models.HistoryEntry
}

// Open reads the persisted history. A missing record is an empty log; an
// unreadable one is logged and treated as empty.
func Open(store Store, logger *slog.Logger) (*Log, error) {
	l := &Log{store: store, logger: logging.OrDefault(logger)}

	raw, ok, err := store.Get(Key)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &l.entries); err != nil {
			l.logger.Warn("discarding unreadable history", logging.Error(err))
			l.entries = nil
		}
	}
	return l, nil
}

// Entries returns a copy of the log, newest first.
func (l *Log) Entries() []models.HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.HistoryEntry(nil), l.entries...)
}

// Find returns the entry with the given id.
func (l *Log) Find(id string) (models.HistoryEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.ID == id {
			return e, true
		}
	}
	return models.HistoryEntry{}, false
}

// Prepend adds entries one at a time in the given order, each going to the
// front, and persists the result. The last entry given ends up first. The
// in-memory log keeps the entries even when persisting fails; the error is
// wrapped with ErrNotPersisted.
func (l *Log) Prepend(entries ...models.HistoryEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := make([]models.HistoryEntry, 0, len(l.entries)+len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		next = append(next, entries[i])
	}
	l.entries = append(next, l.entries...)

	if err := l.persist(l.entries); err != nil {
		return fmt.Errorf("%w: %w", ErrNotPersisted, err)
	}
	return nil
}

// Clear empties the log and removes the persisted record. Clearing an empty
// log is not an error.
func (l *Log) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Delete(Key); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	l.entries = nil
	return nil
}

// Recent returns up to limit successful entries, newest first.
func (l *Log) Recent(limit int) []models.HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []models.HistoryEntry
	for _, e := range l.entries {
		if len(out) >= limit {
			break
		}
		if e.Status == models.StatusSuccess {
			out = append(out, e)
		}
	}
	return out
}

func (l *Log) persist(entries []models.HistoryEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := l.store.Put(Key, data); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}
