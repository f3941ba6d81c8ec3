package upload

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pdf2word/backend/internal/logging"
	"github.com/pdf2word/backend/internal/models"
	"github.com/pdf2word/backend/internal/progress"
)

// Publisher receives job progress events.
type Publisher interface {
	Publish(evt progress.Event)
}

// Manager tracks conversion batches from submission to completion.
type Manager struct {
	jobs   map[string]*models.BatchJob
	mu     sync.RWMutex
	pub    Publisher
	logger *slog.Logger
}

// NewManager creates a new batch job manager. pub may be nil.
func NewManager(pub Publisher, logger *slog.Logger) *Manager {
	return &Manager{
		jobs:   make(map[string]*models.BatchJob),
		pub:    pub,
		logger: logging.OrDefault(logger),
	}
}

// StartJob registers a new batch in processing state and returns its ID.
func (m *Manager) StartJob(files []models.JobFile) string {
	job := &models.BatchJob{
		ID:        uuid.New().String(),
		Status:    models.JobStatusProcessing,
		Files:     make([]models.JobFile, len(files)),
		CreatedAt: time.Now(),
	}
	for i, f := range files {
		job.Files[i] = f
		job.Files[i].State = models.FileStateQueued
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	m.logger.Info("conversion batch started", slog.String("job", shortID(job.ID)), slog.Int("files", len(files)))
	m.publish(progress.Event{Type: progress.EventJobStart, JobID: job.ID, Total: len(files)})
	return job.ID
}

// FileStarted marks file index as converting.
func (m *Manager) FileStarted(jobID string, index int) {
	name, total, ok := m.updateFile(jobID, index, models.FileStateConverting, "")
	if !ok {
		return
	}
	m.publish(progress.Event{Type: progress.EventFileStart, JobID: jobID, Index: index, Total: total, FileName: name})
}

// FileFinished records the result for file index and recomputes progress.
func (m *Manager) FileFinished(jobID string, index int, result models.ConversionResult) {
	state := models.FileStateSuccess
	if result.Status != models.StatusSuccess {
		state = models.FileStateError
	}
	name, total, ok := m.updateFile(jobID, index, state, result.Error)
	if !ok {
		return
	}

	m.mu.RLock()
	pct := m.jobs[jobID].Progress
	m.mu.RUnlock()

	m.publish(progress.Event{
		Type:     progress.EventFileDone,
		JobID:    jobID,
		Index:    index,
		Total:    total,
		FileName: name,
		Status:   string(result.Status),
		Error:    result.Error,
		Progress: pct,
	})
}

// CompleteJob marks a batch as complete (thread-safe). Per-file failures are
// recorded on the files, never on the job.
func (m *Manager) CompleteJob(jobID string) {
	m.mu.Lock()
	job, ok := m.jobs[jobID]
	if !ok {
		m.mu.Unlock()
		return
	}
	job.Status = models.JobStatusComplete
	job.Progress = 100
	now := time.Now()
	job.CompletedAt = &now
	total := len(job.Files)
	m.mu.Unlock()

	m.logger.Info("conversion batch complete", slog.String("job", shortID(jobID)), slog.Int("files", total))
	m.publish(progress.Event{
		Type:     progress.EventJobDone,
		JobID:    jobID,
		Total:    total,
		Status:   string(models.JobStatusComplete),
		Progress: 100,
	})
}

// GetJob returns a snapshot of a job by ID.
func (m *Manager) GetJob(id string) (models.BatchJob, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return models.BatchJob{}, false
	}
	snapshot := *job
	snapshot.Files = append([]models.JobFile(nil), job.Files...)
	return snapshot, true
}

// CleanupOldJobs removes finished jobs older than the specified duration.
func (m *Manager) CleanupOldJobs(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for id, job := range m.jobs {
		if job.Status == models.JobStatusComplete && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(m.jobs, id)
			removed++
		}
	}
	return removed
}

// updateFile sets the state of one file (thread-safe).
func (m *Manager) updateFile(jobID string, index int, state models.FileState, errMsg string) (string, int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok || index < 0 || index >= len(job.Files) {
		return "", 0, false
	}
	job.Files[index].State = state
	job.Files[index].Error = errMsg

	done := 0
	for _, f := range job.Files {
		if f.State == models.FileStateSuccess || f.State == models.FileStateError {
			done++
		}
	}
	job.Progress = float64(done) / float64(len(job.Files)) * 100
	return job.Files[index].Name, len(job.Files), true
}

func (m *Manager) publish(evt progress.Event) {
	if m.pub != nil {
		m.pub.Publish(evt)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
