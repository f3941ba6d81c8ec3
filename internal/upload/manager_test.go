package upload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdf2word/backend/internal/models"
	"github.com/pdf2word/backend/internal/progress"
)

type recordingPublisher struct {
	events []progress.Event
}

func (r *recordingPublisher) Publish(evt progress.Event) {
	r.events = append(r.events, evt)
}

func (r *recordingPublisher) types() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func TestManager_Lifecycle(t *testing.T) {
	pub := &recordingPublisher{}
	m := NewManager(pub, nil)

	id := m.StartJob([]models.JobFile{{Name: "a.pdf", Size: 10}, {Name: "b.pdf", Size: 20}})
	require.NotEmpty(t, id)

	job, ok := m.GetJob(id)
	require.True(t, ok)
	assert.Equal(t, models.JobStatusProcessing, job.Status)
	assert.Equal(t, models.FileStateQueued, job.Files[0].State)

	m.FileStarted(id, 0)
	m.FileFinished(id, 0, models.ConversionResult{OriginalName: "a.pdf", Status: models.StatusSuccess})
	m.FileStarted(id, 1)
	m.FileFinished(id, 1, models.ConversionResult{OriginalName: "b.pdf", Status: models.StatusError, Error: "boom"})

	job, _ = m.GetJob(id)
	assert.Equal(t, 100.0, job.Progress)
	assert.Equal(t, models.FileStateSuccess, job.Files[0].State)
	assert.Equal(t, models.FileStateError, job.Files[1].State)
	assert.Equal(t, "boom", job.Files[1].Error)

	m.CompleteJob(id)
	job, _ = m.GetJob(id)
	assert.Equal(t, models.JobStatusComplete, job.Status)
	require.NotNil(t, job.CompletedAt)

	assert.Equal(t, []string{
		progress.EventJobStart,
		progress.EventFileStart,
		progress.EventFileDone,
		progress.EventFileStart,
		progress.EventFileDone,
		progress.EventJobDone,
	}, pub.types())
	assert.Equal(t, 50.0, pub.events[2].Progress)
	assert.Equal(t, "b.pdf", pub.events[4].FileName)
}

func TestManager_UnknownJobIgnored(t *testing.T) {
	pub := &recordingPublisher{}
	m := NewManager(pub, nil)

	m.FileStarted("missing", 0)
	m.FileFinished("missing", 0, models.ConversionResult{Status: models.StatusSuccess})
	m.CompleteJob("missing")

	assert.Empty(t, pub.events)
	_, ok := m.GetJob("missing")
	assert.False(t, ok)
}

func TestManager_SnapshotIsolation(t *testing.T) {
	m := NewManager(nil, nil)
	id := m.StartJob([]models.JobFile{{Name: "a.pdf"}})

	job, _ := m.GetJob(id)
	job.Files[0].Name = "mutated"

	again, _ := m.GetJob(id)
	assert.Equal(t, "a.pdf", again.Files[0].Name)
}

func TestManager_CleanupOldJobs(t *testing.T) {
	m := NewManager(nil, nil)
	finished := m.StartJob([]models.JobFile{{Name: "a.pdf"}})
	running := m.StartJob([]models.JobFile{{Name: "b.pdf"}})
	m.CompleteJob(finished)

	old := time.Now().Add(-2 * time.Hour)
	m.mu.Lock()
	m.jobs[finished].CompletedAt = &old
	m.mu.Unlock()

	assert.Equal(t, 1, m.CleanupOldJobs(time.Hour))

	_, ok := m.GetJob(finished)
	assert.False(t, ok)
	_, ok = m.GetJob(running)
	assert.True(t, ok)
}
