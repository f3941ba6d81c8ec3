package storage

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdf2word/backend/internal/models"
)

// ErrNotFound is returned when a stored file does not exist.
var ErrNotFound = errors.New("file not found")

// Store defines the interface for the upload and converted storage areas.
type Store interface {
	SaveUpload(field, originalName string, r io.Reader) (*models.TemporaryFile, error)
	WriteConverted(name string, data []byte) (*models.TemporaryFile, error)
	ConvertedPath(name string) (string, error)
	Remove(file *models.TemporaryFile) error
}

// LocalStore implements Store using two flat directories on the local filesystem.
type LocalStore struct {
	uploadDir    string
	convertedDir string
	now          func() time.Time
}

// NewLocalStore creates a new LocalStore, creating both directories if needed.
func NewLocalStore(uploadDir, convertedDir string) (*LocalStore, error) {
	for _, dir := range []string{uploadDir, convertedDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating storage directory: %w", err)
		}
	}

	return &LocalStore{
		uploadDir:    uploadDir,
		convertedDir: convertedDir,
		now:          time.Now,
	}, nil
}

// UploadDir returns the uploads area.
func (s *LocalStore) UploadDir() string { return s.uploadDir }

// ConvertedDir returns the converted area.
func (s *LocalStore) ConvertedDir() string { return s.convertedDir }

// SaveUpload streams r into the uploads area under a generated name.
func (s *LocalStore) SaveUpload(field, originalName string, r io.Reader) (*models.TemporaryFile, error) {
	name := s.generateName(field, filepath.Ext(originalName))
	path := filepath.Join(s.uploadDir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing file: %w", err)
	}

	return &models.TemporaryFile{
		Name:         name,
		OriginalName: originalName,
		Area:         models.AreaUploads,
		Path:         path,
		Size:         size,
		ModTime:      s.now(),
	}, nil
}

// WriteConverted writes data into the converted area under name.
func (s *LocalStore) WriteConverted(name string, data []byte) (*models.TemporaryFile, error) {
	if !validName(name) {
		return nil, fmt.Errorf("invalid output name %q", name)
	}
	path := filepath.Join(s.convertedDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("writing converted file: %w", err)
	}

	return &models.TemporaryFile{
		Name:    name,
		Area:    models.AreaConverted,
		Path:    path,
		Size:    int64(len(data)),
		ModTime: s.now(),
	}, nil
}

// ConvertedPath returns the absolute path of a converted file.
func (s *LocalStore) ConvertedPath(name string) (string, error) {
	if !validName(name) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	path := filepath.Join(s.convertedDir, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return path, nil
}

// Remove deletes a stored file. Removing a file that is already gone is not an error.
func (s *LocalStore) Remove(file *models.TemporaryFile) error {
	if file == nil {
		return nil
	}
	if err := os.Remove(file.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

// generateName builds <field>-<unixmillis>-<random><ext>.
func (s *LocalStore) generateName(field, ext string) string {
	return fmt.Sprintf("%s-%d-%d%s", field, s.now().UnixMilli(), rand.Intn(1e9), ext)
}

// validName rejects anything that could escape the storage directory.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return false
	}
	return filepath.Base(name) == name
}
