// handlers_jobs.go - Batch job status handler
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pdf2word/backend/internal/progress"
)

// JobHandlerImpl implements the JobHandler interface
type JobHandlerImpl struct {
	jobs JobSource
	feed *ProgressFeed
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobs JobSource, hub *progress.Hub) JobHandler {
	return &JobHandlerImpl{
		jobs: jobs,
		feed: NewProgressFeed(hub),
	}
}

// HandleGetJob returns the status of a conversion batch
func (h *JobHandlerImpl) HandleGetJob(c echo.Context) error {
	if h.jobs == nil {
		return NewNotFoundError("Job not found")
	}
	job, ok := h.jobs.GetJob(c.Param("id"))
	if !ok {
		return NewNotFoundError("Job not found")
	}
	return respond(c, http.StatusOK, job)
}

// HandleProgressSocket streams job progress events over a WebSocket
func (h *JobHandlerImpl) HandleProgressSocket(c echo.Context) error {
	return h.feed.Serve(c)
}
