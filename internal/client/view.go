package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/pdf2word/backend/internal/models"
)

// Level classifies a user notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// View renders tracker state. Implementations must not call back into the
// tracker from these methods.
type View interface {
	RenderFiles(files []models.PendingFile)
	RenderHistory(entries []models.HistoryEntry)
	RenderRecent(entries []models.HistoryEntry)
	SetSubmitEnabled(enabled bool)
	SetProgress(active bool, percent int, text string)
	Notify(level Level, message string)
}

// Opener returns a fresh reader over a file's content.
type Opener func() (io.ReadCloser, error)

// Candidate is a file offered for selection.
type Candidate struct {
	Name     string
	Size     int64
	MIMEType string
	Open     Opener
}

// CandidateFromPath describes a local file. The MIME type is derived from the
// extension.
func CandidateFromPath(path string) (Candidate, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Candidate{}, err
	}
	if !info.Mode().IsRegular() {
		return Candidate{}, fmt.Errorf("%s is not a regular file", path)
	}
	return Candidate{
		Name:     filepath.Base(path),
		Size:     info.Size(),
		MIMEType: mime.TypeByExtension(filepath.Ext(path)),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// Upload is one file of a submitted batch.
type Upload struct {
	Name     string
	MIMEType string
	Open     Opener
}

// API is the conversion backend as seen by the tracker.
type API interface {
	Convert(ctx context.Context, files []Upload) (*models.ConvertResponse, error)
	Download(ctx context.Context, url string, w io.Writer) error
}

// Saver creates the destination for a downloaded file.
type Saver interface {
	Create(name string) (Destination, error)
}

// Destination receives one download. Commit makes it visible under its final
// name; Abort discards what was written and leaves any existing file alone.
type Destination interface {
	io.Writer
	Commit() error
	Abort() error
}

// DirSaver writes downloads into a directory.
type DirSaver struct {
	Dir string
}

// Create implements Saver. Only the base name of name is used. Data goes to a
// temporary file in Dir until Commit renames it into place.
func (d DirSaver) Create(name string) (Destination, error) {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return nil, err
	}
	base := filepath.Base(name)
	tmp, err := os.CreateTemp(d.Dir, "."+base+".*.part")
	if err != nil {
		return nil, err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, err
	}
	return &fileDestination{File: tmp, path: filepath.Join(d.Dir, base)}, nil
}

type fileDestination struct {
	*os.File
	path string
}

func (f *fileDestination) Commit() error {
	if err := f.File.Close(); err != nil {
		_ = os.Remove(f.Name())
		return err
	}
	if err := os.Rename(f.Name(), f.path); err != nil {
		_ = os.Remove(f.Name())
		return err
	}
	return nil
}

func (f *fileDestination) Abort() error {
	_ = f.File.Close()
	if err := os.Remove(f.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
