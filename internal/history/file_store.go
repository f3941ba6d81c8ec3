package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

// FileStore keeps one JSON file per key in a directory. A sibling lock file
// serialises access across processes.
type FileStore struct {
	dir string

	mu     sync.Mutex
	closed bool
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory records are stored in.
func (s *FileStore) Dir() string { return s.dir }

// Get implements Store.
func (s *FileStore) Get(key string) ([]byte, bool, error) {
	var (
		data  []byte
		found bool
	)
	err := s.withLock(key, false, func(path string) error {
		b, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		data, found = b, true
		return nil
	})
	return data, found, err
}

// Put implements Store. The value is written to a temp file and renamed into place.
func (s *FileStore) Put(key string, value []byte) error {
	return s.withLock(key, true, func(path string) error {
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, value, 0o644); err != nil {
			return err
		}
		if err := os.Rename(tmp, path); err != nil {
			_ = os.Remove(tmp)
			return err
		}
		return nil
	})
}

// Delete implements Store. Deleting a missing key is not an error.
func (s *FileStore) Delete(key string) error {
	return s.withLock(key, true, func(path string) error {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	})
}

// Close implements Store.
func (s *FileStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *FileStore) withLock(key string, exclusive bool, fn func(path string) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return fmt.Errorf("invalid history key %q", key)
	}

	path := filepath.Join(s.dir, key+".json")
	lock := flock.New(path + ".lock")
	if exclusive {
		if err := lock.Lock(); err != nil {
			return fmt.Errorf("lock %s: %w", key, err)
		}
	} else if err := lock.RLock(); err != nil {
		return fmt.Errorf("lock %s: %w", key, err)
	}
	defer func() { _ = lock.Unlock() }()

	if err := fn(path); err != nil {
		return fmt.Errorf("history record %s: %w", key, err)
	}
	return nil
}
