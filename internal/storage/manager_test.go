// manager_test.go - Tests for storage layer
package storage

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/pdf2word/backend/internal/models"
)

func createTestStore(t *testing.T) *LocalStore {
	t.Helper()
	tempDir := t.TempDir()
	store, err := NewLocalStore(filepath.Join(tempDir, "uploads"), filepath.Join(tempDir, "converted"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestNewLocalStore(t *testing.T) {
	t.Run("creates both directories", func(t *testing.T) {
		store := createTestStore(t)

		for _, dir := range []string{store.UploadDir(), store.ConvertedDir()} {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				t.Errorf("Expected directory %s to be created", dir)
			}
		}
	})
}

func TestLocalStore_SaveUpload(t *testing.T) {
	t.Run("saves file under generated name", func(t *testing.T) {
		store := createTestStore(t)
		store.now = func() time.Time { return time.UnixMilli(1712345678901) }

		content := "%PDF-1.7 body"
		file, err := store.SaveUpload("files", "report.pdf", strings.NewReader(content))
		if err != nil {
			t.Fatalf("Failed to save upload: %v", err)
		}

		pattern := regexp.MustCompile(`^files-1712345678901-\d+\.pdf$`)
		if !pattern.MatchString(file.Name) {
			t.Errorf("Unexpected stored name %q", file.Name)
		}
		if file.OriginalName != "report.pdf" {
			t.Errorf("Expected original name 'report.pdf', got %q", file.OriginalName)
		}
		if file.Area != models.AreaUploads {
			t.Errorf("Expected uploads area, got %q", file.Area)
		}
		if file.Size != int64(len(content)) {
			t.Errorf("Expected size %d, got %d", len(content), file.Size)
		}

		data, err := os.ReadFile(filepath.Join(store.UploadDir(), file.Name))
		if err != nil {
			t.Fatalf("Failed to read saved file: %v", err)
		}
		if string(data) != content {
			t.Errorf("Expected content %q, got %q", content, string(data))
		}
	})

	t.Run("generated names differ", func(t *testing.T) {
		store := createTestStore(t)
		seen := make(map[string]bool)
		for i := 0; i < 20; i++ {
			file, err := store.SaveUpload("files", "a.pdf", strings.NewReader("x"))
			if err != nil {
				t.Fatalf("Failed to save upload: %v", err)
			}
			if seen[file.Name] {
				t.Fatalf("Duplicate stored name %q", file.Name)
			}
			seen[file.Name] = true
		}
	})
}

func TestLocalStore_WriteConverted(t *testing.T) {
	t.Run("writes into converted area", func(t *testing.T) {
		store := createTestStore(t)

		file, err := store.WriteConverted("files-1-2.docx", []byte("placeholder"))
		if err != nil {
			t.Fatalf("Failed to write converted file: %v", err)
		}
		if file.Area != models.AreaConverted {
			t.Errorf("Expected converted area, got %q", file.Area)
		}

		path, err := store.ConvertedPath("files-1-2.docx")
		if err != nil {
			t.Fatalf("Expected converted file to be found: %v", err)
		}
		if path != file.Path {
			t.Errorf("Expected path %s, got %s", file.Path, path)
		}
	})

	t.Run("rejects path traversal", func(t *testing.T) {
		store := createTestStore(t)
		if _, err := store.WriteConverted("../escape.docx", []byte("x")); err == nil {
			t.Error("Expected error for traversal name")
		}
	})
}

func TestLocalStore_ConvertedPath(t *testing.T) {
	store := createTestStore(t)

	for _, name := range []string{"missing.docx", "", "..", "../uploads/x.pdf", `a\b.docx`} {
		t.Run(name, func(t *testing.T) {
			_, err := store.ConvertedPath(name)
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("Expected ErrNotFound for %q, got %v", name, err)
			}
		})
	}
}

func TestLocalStore_Remove(t *testing.T) {
	t.Run("removes file and tolerates repeat", func(t *testing.T) {
		store := createTestStore(t)
		file, err := store.SaveUpload("files", "a.pdf", strings.NewReader("x"))
		if err != nil {
			t.Fatalf("Failed to save upload: %v", err)
		}

		if err := store.Remove(file); err != nil {
			t.Fatalf("Failed to remove: %v", err)
		}
		if _, err := os.Stat(file.Path); !os.IsNotExist(err) {
			t.Error("Expected file to be gone")
		}
		if err := store.Remove(file); err != nil {
			t.Errorf("Expected second remove to succeed, got %v", err)
		}
	})

	t.Run("nil is a no-op", func(t *testing.T) {
		store := createTestStore(t)
		if err := store.Remove(nil); err != nil {
			t.Errorf("Expected nil error, got %v", err)
		}
	})
}
