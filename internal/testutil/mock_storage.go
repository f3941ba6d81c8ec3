// mock_storage.go - Mock storage implementation for testing
package testutil

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pdf2word/backend/internal/models"
	"github.com/pdf2word/backend/internal/storage"
)

// MockStorage implements storage.Store in memory for testing
type MockStorage struct {
	uploads   map[string][]byte
	converted map[string][]byte
	mu        sync.RWMutex
	seq       int

	// FailConvertedWrites makes WriteConverted fail for the listed output names.
	FailConvertedWrites map[string]bool
}

// NewMockStorage creates a new empty mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		uploads:             make(map[string][]byte),
		converted:           make(map[string][]byte),
		FailConvertedWrites: make(map[string]bool),
	}
}

func (m *MockStorage) SaveUpload(field, originalName string, r io.Reader) (*models.TemporaryFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	name := fmt.Sprintf("%s-%d-%d.pdf", field, time.Now().UnixMilli(), m.seq)
	m.uploads[name] = data
	return &models.TemporaryFile{
		Name:         name,
		OriginalName: originalName,
		Area:         models.AreaUploads,
		Path:         "/mock/uploads/" + name,
		Size:         int64(len(data)),
		ModTime:      time.Now(),
	}, nil
}

func (m *MockStorage) WriteConverted(name string, data []byte) (*models.TemporaryFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailConvertedWrites[name] {
		return nil, errors.New("disk full")
	}
	m.converted[name] = append([]byte(nil), data...)
	return &models.TemporaryFile{
		Name:    name,
		Area:    models.AreaConverted,
		Path:    "/mock/converted/" + name,
		Size:    int64(len(data)),
		ModTime: time.Now(),
	}, nil
}

func (m *MockStorage) ConvertedPath(name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.converted[name]; !ok {
		return "", storage.ErrNotFound
	}
	return "/mock/converted/" + name, nil
}

func (m *MockStorage) Remove(file *models.TemporaryFile) error {
	if file == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	switch file.Area {
	case models.AreaConverted:
		delete(m.converted, file.Name)
	default:
		delete(m.uploads, file.Name)
	}
	return nil
}

// UploadCount returns how many uploaded inputs are still held.
func (m *MockStorage) UploadCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.uploads)
}

// Converted returns the payload written under name.
func (m *MockStorage) Converted(name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.converted[name]
	return data, ok
}

// ConvertedNames lists every output name written so far.
func (m *MockStorage) ConvertedNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.converted))
	for name := range m.converted {
		names = append(names, name)
	}
	return names
}
