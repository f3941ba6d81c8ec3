package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdf2word/backend/internal/history"
	"github.com/pdf2word/backend/internal/models"
)

type notice struct {
	level   Level
	message string
}

type recordingView struct {
	mu       sync.Mutex
	files    []models.PendingFile
	history  []models.HistoryEntry
	recent   []models.HistoryEntry
	enabled  bool
	progress []string
	notices  []notice
}

func (v *recordingView) RenderFiles(files []models.PendingFile)      { v.files = files }
func (v *recordingView) RenderHistory(entries []models.HistoryEntry) { v.history = entries }
func (v *recordingView) RenderRecent(entries []models.HistoryEntry)  { v.recent = entries }
func (v *recordingView) SetSubmitEnabled(enabled bool)               { v.enabled = enabled }

func (v *recordingView) SetProgress(active bool, percent int, text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if active {
		v.progress = append(v.progress, text)
	}
}

func (v *recordingView) Notify(level Level, message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notices = append(v.notices, notice{level, message})
}

func (v *recordingView) last() notice {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.notices) == 0 {
		return notice{}
	}
	return v.notices[len(v.notices)-1]
}

type fakeAPI struct {
	resp      *models.ConvertResponse
	err       error
	got       []Upload
	downloads map[string]string
}

func (f *fakeAPI) Convert(_ context.Context, files []Upload) (*models.ConvertResponse, error) {
	f.got = files
	return f.resp, f.err
}

func (f *fakeAPI) Download(_ context.Context, url string, w io.Writer) error {
	body, ok := f.downloads[url]
	if !ok {
		return &StatusError{StatusCode: 404}
	}
	_, err := io.WriteString(w, body)
	return err
}

type memSaver struct {
	files map[string]*bytes.Buffer
}

type memDestination struct {
	bytes.Buffer
	name  string
	saver *memSaver
}

func (d *memDestination) Commit() error {
	if d.saver.files == nil {
		d.saver.files = make(map[string]*bytes.Buffer)
	}
	d.saver.files[d.name] = &d.Buffer
	return nil
}

func (d *memDestination) Abort() error { return nil }

func (m *memSaver) Create(name string) (Destination, error) {
	return &memDestination{name: name, saver: m}, nil
}

// failingPutStore reads from the wrapped store but refuses writes.
type failingPutStore struct {
	history.Store
}

func (failingPutStore) Put(string, []byte) error { return errors.New("disk full") }

func pdf(name string, size int64) Candidate {
	return Candidate{
		Name:     name,
		Size:     size,
		MIMEType: "application/pdf",
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("%PDF")), nil
		},
	}
}

type fixture struct {
	tracker *Tracker
	view    *recordingView
	api     *fakeAPI
	saver   *memSaver
	store   history.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := history.NewFileStore(t.TempDir())
	require.NoError(t, err)
	log, err := history.Open(store, nil)
	require.NoError(t, err)

	f := &fixture{view: &recordingView{}, api: &fakeAPI{}, saver: &memSaver{}, store: store}
	f.tracker = New(Options{
		API:     f.api,
		History: log,
		View:    f.view,
		Saver:   f.saver,
		Now:     func() time.Time { return time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC) },
	})
	return f
}

func submit(t *testing.T, f *fixture) []models.HistoryEntry {
	t.Helper()
	batch, err := f.tracker.SubmitBatch(context.Background())
	require.NoError(t, err)
	return batch
}

func TestAddFiles(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.view.enabled)

	f.tracker.AddFiles([]Candidate{
		pdf("a.pdf", 100),
		{Name: "photo.png", Size: 10, MIMEType: "image/png"},
		pdf("huge.pdf", MaxFileSize+1),
		pdf("b.pdf", MaxFileSize),
	})

	pending := f.tracker.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, "a.pdf", pending[0].Name)
	assert.Equal(t, "b.pdf", pending[1].Name)
	assert.Equal(t, models.PendingStatus, pending[0].Status)
	assert.NotEqual(t, pending[0].ID, pending[1].ID)

	assert.Equal(t, []notice{
		{LevelError, MsgOnlyPDF},
		{LevelError, MsgTooLarge},
	}, f.view.notices)
	assert.True(t, f.view.enabled)
	assert.Len(t, f.view.files, 2)
	assert.True(t, f.tracker.CanSubmit())
}

func TestRemoveFile(t *testing.T) {
	f := newFixture(t)
	f.tracker.AddFiles([]Candidate{pdf("a.pdf", 1), pdf("b.pdf", 2)})
	first := f.tracker.Pending()[0].ID

	f.tracker.RemoveFile("does-not-exist")
	assert.Len(t, f.tracker.Pending(), 2)

	f.tracker.RemoveFile(first)
	require.Len(t, f.tracker.Pending(), 1)
	assert.Equal(t, "b.pdf", f.tracker.Pending()[0].Name)

	f.tracker.RemoveFile(f.tracker.Pending()[0].ID)
	assert.Empty(t, f.tracker.Pending())
	assert.False(t, f.view.enabled)
	assert.False(t, f.tracker.CanSubmit())
}

func TestSubmitBatch_Empty(t *testing.T) {
	f := newFixture(t)
	assert.Nil(t, submit(t, f))
	assert.Nil(t, f.api.got)
	assert.Empty(t, f.view.progress)
}

func TestSubmitBatch_Success(t *testing.T) {
	f := newFixture(t)
	f.api.resp = &models.ConvertResponse{Results: []models.ConversionResult{
		{OriginalName: "a.pdf", ConvertedName: "a.docx", Size: 1536, Status: models.StatusSuccess, DownloadURL: "/api/download/x.docx?name=a.docx"},
		{OriginalName: "b.pdf", Status: models.StatusError, Error: "unreadable PDF"},
	}}
	f.tracker.AddFiles([]Candidate{pdf("a.pdf", 1536), pdf("b.pdf", 10)})

	batch := submit(t, f)
	require.Len(t, batch, 2)
	assert.Equal(t, "a.pdf", batch[0].FileName, "batch in submission order")
	assert.Equal(t, "b.pdf", batch[1].FileName)

	require.Len(t, f.api.got, 2)
	assert.Equal(t, "a.pdf", f.api.got[0].Name)
	assert.Equal(t, "application/pdf", f.api.got[0].MIMEType)

	hist := f.tracker.History()
	require.Len(t, hist, 2)
	assert.Equal(t, "b.pdf", hist[0].FileName, "last result is newest")
	assert.Equal(t, models.StatusError, hist[0].Status)
	assert.Equal(t, "unreadable PDF", hist[0].Error)
	assert.Empty(t, hist[0].DownloadURL)

	assert.Equal(t, "a.pdf", hist[1].FileName)
	assert.Equal(t, "a.docx", hist[1].ConvertedName)
	assert.Equal(t, "1.5 KB", hist[1].OriginalSize)
	assert.Equal(t, time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC), hist[1].ConvertedAt)

	assert.Empty(t, f.tracker.Pending(), "batch cleared even when a file failed")
	assert.False(t, f.view.enabled)
	assert.Len(t, f.view.history, 2)
	require.Len(t, f.view.recent, 1)
	assert.Equal(t, "a.pdf", f.view.recent[0].FileName)
	assert.Equal(t, []string{progressUploading, progressConverting, progressConverted}, f.view.progress)
	assert.Equal(t, notice{LevelSuccess, MsgConverted}, f.view.last())

	raw, ok, err := f.store.Get(history.Key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(raw), `"fileName":"b.pdf"`)
}

func TestSubmitBatch_TransportFailureKeepsBatch(t *testing.T) {
	f := newFixture(t)
	f.api.err = &StatusError{StatusCode: 500}
	f.tracker.AddFiles([]Candidate{pdf("a.pdf", 1)})

	batch, err := f.tracker.SubmitBatch(context.Background())
	require.Error(t, err)
	assert.Nil(t, batch)

	var statusErr *StatusError
	assert.True(t, errors.As(err, &statusErr))
	assert.Len(t, f.tracker.Pending(), 1)
	assert.Empty(t, f.tracker.History())
	assert.Equal(t, notice{LevelError, "Conversion failed: HTTP error! status: 500"}, f.view.last())
	assert.True(t, f.tracker.CanSubmit())
}

func TestSubmitBatch_HistoryNotPersisted(t *testing.T) {
	store, err := history.NewFileStore(t.TempDir())
	require.NoError(t, err)
	log, err := history.Open(failingPutStore{store}, nil)
	require.NoError(t, err)

	view := &recordingView{}
	api := &fakeAPI{resp: &models.ConvertResponse{Results: []models.ConversionResult{
		{OriginalName: "a.pdf", ConvertedName: "a.docx", Size: 10, Status: models.StatusSuccess, DownloadURL: "/api/download/a.docx"},
	}}}
	tr := New(Options{API: api, History: log, View: view, Saver: &memSaver{}})
	tr.AddFiles([]Candidate{pdf("a.pdf", 10)})

	batch, err := tr.SubmitBatch(context.Background())
	require.ErrorIs(t, err, history.ErrNotPersisted)
	require.Len(t, batch, 1)
	assert.Equal(t, "/api/download/a.docx", batch[0].DownloadURL)

	hist := tr.History()
	require.Len(t, hist, 1, "results stay in memory")
	assert.Equal(t, batch[0].ID, hist[0].ID)
	assert.Empty(t, tr.Pending())

	last := view.last()
	assert.Equal(t, LevelError, last.level)
	assert.True(t, strings.HasPrefix(last.message, MsgHistoryNotSaved), last.message)

	api.downloads = map[string]string{"/api/download/a.docx": "docx"}
	require.NoError(t, tr.DownloadEntry(context.Background(), batch[0].ID))
}

func TestDownloadEntry(t *testing.T) {
	f := newFixture(t)
	f.api.resp = &models.ConvertResponse{Results: []models.ConversionResult{
		{OriginalName: "report.pdf", ConvertedName: "report.docx", Size: 10, Status: models.StatusSuccess, DownloadURL: "/api/download/r.docx"},
		{OriginalName: "bad.pdf", Status: models.StatusError, Error: "boom"},
	}}
	f.api.downloads = map[string]string{"/api/download/r.docx": "docx bytes"}
	f.tracker.AddFiles([]Candidate{pdf("report.pdf", 10), pdf("bad.pdf", 10)})
	submit(t, f)

	hist := f.tracker.History()
	failed, good := hist[0], hist[1]

	require.NoError(t, f.tracker.DownloadEntry(context.Background(), good.ID))
	assert.Equal(t, "docx bytes", f.saver.files["report.docx"].String())
	assert.Equal(t, notice{LevelSuccess, MsgDownloadStarted}, f.view.last())

	err := f.tracker.DownloadEntry(context.Background(), failed.ID)
	assert.ErrorIs(t, err, ErrDownloadUnavailable)
	assert.Equal(t, notice{LevelError, MsgDownloadMissing}, f.view.last())

	err = f.tracker.DownloadEntry(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrDownloadUnavailable)
}

func TestDownloadEntry_FailureKeepsExistingFile(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	f.tracker.saver = DirSaver{Dir: dir}
	existing := filepath.Join(dir, "report.docx")
	require.NoError(t, os.WriteFile(existing, []byte("previous download"), 0o644))

	f.api.resp = &models.ConvertResponse{Results: []models.ConversionResult{
		{OriginalName: "report.pdf", ConvertedName: "report.docx", Status: models.StatusSuccess, DownloadURL: "/api/download/gone.docx"},
	}}
	f.tracker.AddFiles([]Candidate{pdf("report.pdf", 10)})
	batch := submit(t, f)

	err := f.tracker.DownloadEntry(context.Background(), batch[0].ID)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 404, statusErr.StatusCode)

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "previous download", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no partial file left behind")

	f.api.downloads = map[string]string{"/api/download/gone.docx": "fresh"}
	require.NoError(t, f.tracker.DownloadEntry(context.Background(), batch[0].ID))
	data, err = os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(data))

	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestClearHistory(t *testing.T) {
	f := newFixture(t)
	f.api.resp = &models.ConvertResponse{Results: []models.ConversionResult{
		{OriginalName: "a.pdf", ConvertedName: "a.docx", Status: models.StatusSuccess, DownloadURL: "/x"},
	}}
	f.tracker.AddFiles([]Candidate{pdf("a.pdf", 1)})
	submit(t, f)
	require.Len(t, f.tracker.History(), 1)

	require.NoError(t, f.tracker.ClearHistory())
	require.NoError(t, f.tracker.ClearHistory())

	assert.Empty(t, f.tracker.History())
	assert.Empty(t, f.tracker.RecentDownloads())
	assert.Empty(t, f.view.history)
	assert.Empty(t, f.view.recent)
	assert.Equal(t, notice{LevelSuccess, MsgHistoryCleared}, f.view.last())

	_, found, err := f.store.Get(history.Key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRecentDownloadsLimit(t *testing.T) {
	f := newFixture(t)
	var results []models.ConversionResult
	var candidates []Candidate
	for i := 0; i < 8; i++ {
		name := string(rune('a'+i)) + ".pdf"
		candidates = append(candidates, pdf(name, 1))
		results = append(results, models.ConversionResult{
			OriginalName: name, ConvertedName: models.ConvertedName(name),
			Status: models.StatusSuccess, DownloadURL: "/api/download/" + name,
		})
	}
	f.api.resp = &models.ConvertResponse{Results: results}
	f.tracker.AddFiles(candidates)
	submit(t, f)

	recent := f.tracker.RecentDownloads()
	require.Len(t, recent, RecentLimit)
	assert.Equal(t, "h.pdf", recent[0].FileName)
	assert.Equal(t, "c.pdf", recent[5].FileName)
}

func TestHistoryLoadedAtConstruction(t *testing.T) {
	store, err := history.NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Put(history.Key, []byte(`[{"id":"1","fileName":"old.pdf","status":"success","downloadUrl":"/d","convertedAt":"2026-01-01T00:00:00Z"}]`)))
	log, err := history.Open(store, nil)
	require.NoError(t, err)

	view := &recordingView{}
	tr := New(Options{API: &fakeAPI{}, History: log, View: view})

	require.Len(t, tr.History(), 1)
	assert.Equal(t, "old.pdf", view.history[0].FileName)
	assert.Len(t, view.recent, 1)
}
