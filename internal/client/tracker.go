// Package client tracks files selected for conversion, submits them as one
// batch and keeps the persisted conversion history.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdf2word/backend/internal/history"
	"github.com/pdf2word/backend/internal/logging"
	"github.com/pdf2word/backend/internal/models"
	"github.com/pdf2word/backend/internal/sizefmt"
)

// MaxFileSize is the largest file accepted for selection.
const MaxFileSize = 50 * 1024 * 1024

// RecentLimit caps the recent downloads view.
const RecentLimit = 6

const pdfMIMEType = "application/pdf"

// User-facing notices.
const (
	MsgOnlyPDF           = "Only PDF files are supported"
	MsgTooLarge          = "File size must be less than 50MB"
	MsgConverted         = "Files converted successfully!"
	MsgConversionFailed  = "Conversion failed: "
	MsgHistoryNotSaved   = "Files converted, but history could not be saved: "
	MsgDownloadStarted   = "Download started!"
	MsgDownloadMissing   = "Download not available"
	MsgHistoryCleared    = "History cleared successfully"
	progressUploading    = "Uploading files..."
	progressConverting   = "Converting files..."
	progressConverted    = "Conversion completed!"
	progressUploadingPct = 10
	progressConvertPct   = 50
)

// ErrDownloadUnavailable is returned when a history entry has nothing to download.
var ErrDownloadUnavailable = errors.New("download not available")

// Options configures a Tracker.
type Options struct {
	API     API
	History *history.Log
	View    View
	Saver   Saver
	Now     func() time.Time
	Logger  *slog.Logger
}

type pendingFile struct {
	models.PendingFile
	open Opener
}

// Tracker owns the pending batch and the conversion history.
type Tracker struct {
	api     API
	history *history.Log
	view    View
	saver   Saver
	now     func() time.Time
	logger  *slog.Logger

	mu         sync.Mutex
	pending    []pendingFile
	submitting bool
}

// New creates a tracker and renders the persisted history.
func New(opts Options) *Tracker {
	t := &Tracker{
		api:     opts.API,
		history: opts.History,
		view:    opts.View,
		saver:   opts.Saver,
		now:     opts.Now,
		logger:  logging.OrDefault(opts.Logger),
	}
	if t.view == nil {
		t.view = nopView{}
	}
	if t.now == nil {
		t.now = time.Now
	}

	t.renderFiles()
	t.renderHistory()
	return t
}

// AddFiles validates candidates and appends the accepted ones in order.
func (t *Tracker) AddFiles(candidates []Candidate) {
	t.mu.Lock()
	var rejected []string
	for _, c := range candidates {
		switch {
		case c.MIMEType != pdfMIMEType:
			rejected = append(rejected, MsgOnlyPDF)
		case c.Size > MaxFileSize:
			rejected = append(rejected, MsgTooLarge)
		default:
			t.pending = append(t.pending, pendingFile{
				PendingFile: models.PendingFile{
					ID:       uuid.NewString(),
					Name:     c.Name,
					Size:     c.Size,
					MIMEType: c.MIMEType,
					Status:   models.PendingStatus,
				},
				open: c.Open,
			})
		}
	}
	t.mu.Unlock()

	for _, msg := range rejected {
		t.view.Notify(LevelError, msg)
	}
	t.renderFiles()
}

// RemoveFile drops a pending file. Unknown ids are ignored.
func (t *Tracker) RemoveFile(id string) {
	t.mu.Lock()
	for i, p := range t.pending {
		if p.ID == id {
			t.pending = append(t.pending[:i], t.pending[i+1:]...)
			break
		}
	}
	t.mu.Unlock()

	t.renderFiles()
}

// SubmitBatch sends every pending file as one request and returns the new
// history entries in submission order. On transport failure the batch is
// kept and the error returned. On success each result is recorded in history
// and the pending batch is cleared; if the history could not be persisted the
// entries are still returned along with an error wrapping
// history.ErrNotPersisted.
func (t *Tracker) SubmitBatch(ctx context.Context) ([]models.HistoryEntry, error) {
	t.mu.Lock()
	if len(t.pending) == 0 || t.submitting {
		t.mu.Unlock()
		return nil, nil
	}
	t.submitting = true
	uploads := make([]Upload, len(t.pending))
	for i, p := range t.pending {
		uploads[i] = Upload{Name: p.Name, MIMEType: p.MIMEType, Open: p.open}
	}
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.submitting = false
		t.mu.Unlock()
	}()

	t.view.SetProgress(true, progressUploadingPct, progressUploading)

	resp, err := t.api.Convert(ctx, uploads)
	if err != nil {
		t.view.SetProgress(false, 0, "")
		t.logger.Error("conversion request failed", slog.Int("files", len(uploads)), logging.Error(err))
		t.view.Notify(LevelError, MsgConversionFailed+err.Error())
		return nil, fmt.Errorf("convert batch: %w", err)
	}

	t.view.SetProgress(true, progressConvertPct, progressConverting)

	entries := make([]models.HistoryEntry, len(resp.Results))
	for i, r := range resp.Results {
		entries[i] = t.entryFor(r)
	}
	persistErr := t.history.Prepend(entries...)
	if persistErr != nil {
		t.logger.Error("failed to persist history", slog.Int("entries", len(entries)), logging.Error(persistErr))
	}

	t.mu.Lock()
	t.pending = nil
	t.mu.Unlock()

	t.view.SetProgress(true, 100, progressConverted)
	t.renderFiles()
	t.renderHistory()
	t.view.SetProgress(false, 0, "")
	if persistErr != nil {
		t.view.Notify(LevelError, MsgHistoryNotSaved+persistErr.Error())
		return entries, persistErr
	}
	t.view.Notify(LevelSuccess, MsgConverted)
	return entries, nil
}

// DownloadEntry saves the converted file of a history entry.
func (t *Tracker) DownloadEntry(ctx context.Context, id string) error {
	entry, ok := t.history.Find(id)
	if !ok || entry.DownloadURL == "" {
		t.view.Notify(LevelError, MsgDownloadMissing)
		return ErrDownloadUnavailable
	}

	name := entry.ConvertedName
	if name == "" {
		name = models.ConvertedName(entry.FileName)
	}

	if err := t.fetch(ctx, entry.DownloadURL, name); err != nil {
		t.logger.Error("download failed", slog.String("file", name), logging.Error(err))
		t.view.Notify(LevelError, MsgDownloadMissing)
		return fmt.Errorf("download %s: %w", name, err)
	}

	t.view.Notify(LevelSuccess, MsgDownloadStarted)
	return nil
}

// ClearHistory empties the persisted history.
func (t *Tracker) ClearHistory() error {
	err := t.history.Clear()
	if err != nil {
		t.logger.Warn("failed to clear persisted history", logging.Error(err))
	}
	t.renderHistory()
	t.view.Notify(LevelSuccess, MsgHistoryCleared)
	return err
}

// Pending returns the selected files in selection order.
func (t *Tracker) Pending() []models.PendingFile {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.PendingFile, len(t.pending))
	for i, p := range t.pending {
		out[i] = p.PendingFile
	}
	return out
}

// CanSubmit reports whether there is anything to submit.
func (t *Tracker) CanSubmit() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending) > 0
}

// History returns every entry, newest first.
func (t *Tracker) History() []models.HistoryEntry {
	return t.history.Entries()
}

// RecentDownloads returns the newest successful entries.
func (t *Tracker) RecentDownloads() []models.HistoryEntry {
	return t.history.Recent(RecentLimit)
}

func (t *Tracker) entryFor(r models.ConversionResult) models.HistoryEntry {
	e := models.HistoryEntry{
		ID:          uuid.NewString(),
		FileName:    r.OriginalName,
		ConvertedAt: t.now(),
		Status:      r.Status,
	}
	if r.Status == models.StatusSuccess {
		e.ConvertedName = r.ConvertedName
		e.OriginalSize = sizefmt.Format(r.Size)
		e.DownloadURL = r.DownloadURL
	} else {
		e.Status = models.StatusError
		e.Error = r.Error
	}
	return e
}

func (t *Tracker) fetch(ctx context.Context, url, name string) error {
	if t.saver == nil {
		return errors.New("no download destination configured")
	}
	dst, err := t.saver.Create(name)
	if err != nil {
		return err
	}
	if err := t.api.Download(ctx, url, dst); err != nil {
		if abortErr := dst.Abort(); abortErr != nil {
			t.logger.Warn("failed to discard partial download", slog.String("file", name), logging.Error(abortErr))
		}
		return err
	}
	return dst.Commit()
}

func (t *Tracker) renderFiles() {
	files := t.Pending()
	t.view.RenderFiles(files)
	t.view.SetSubmitEnabled(len(files) > 0)
}

func (t *Tracker) renderHistory() {
	t.view.RenderHistory(t.history.Entries())
	t.view.RenderRecent(t.history.Recent(RecentLimit))
}

type nopView struct{}

func (nopView) RenderFiles([]models.PendingFile)    {}
func (nopView) RenderHistory([]models.HistoryEntry) {}
func (nopView) RenderRecent([]models.HistoryEntry)  {}
func (nopView) SetSubmitEnabled(bool)               {}
func (nopView) SetProgress(bool, int, string)       {}
func (nopView) Notify(Level, string)                {}
