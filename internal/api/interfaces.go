// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/pdf2word/backend/internal/convert"
	"github.com/pdf2word/backend/internal/models"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// ConvertHandler accepts PDF batches and returns per-file results
type ConvertHandler interface {
	HandleConvert(c echo.Context) error
}

// DownloadHandler serves converted files
type DownloadHandler interface {
	HandleDownload(c echo.Context) error
}

// JobHandler exposes batch job status
type JobHandler interface {
	HandleGetJob(c echo.Context) error
	HandleProgressSocket(c echo.Context) error
}

// BatchConverter runs a conversion batch. convert.Service implements it.
type BatchConverter interface {
	ConvertBatch(ctx context.Context, files []*models.TemporaryFile) (*convert.BatchResult, error)
}

// JobSource looks up batch jobs. upload.Manager implements it.
type JobSource interface {
	GetJob(id string) (models.BatchJob, bool)
}
