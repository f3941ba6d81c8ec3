// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/pdf2word/backend/internal/progress"
	"github.com/pdf2word/backend/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store          storage.Store
	Converter      BatchConverter
	Jobs           JobSource
	Hub            *progress.Hub
	MaxUploadBytes int64
	Version        string
	Logger         *slog.Logger
}

// Handlers holds all handler instances
type Handlers struct {
	Health   HealthHandler
	Convert  ConvertHandler
	Download DownloadHandler
	Jobs     JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(deps.Version),
		Convert:  NewConvertHandler(deps.Store, deps.Converter, deps.MaxUploadBytes, deps.Logger),
		Download: NewDownloadHandler(deps.Store, deps.Logger),
		Jobs:     NewJobHandler(deps.Jobs, deps.Hub),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Conversion
	apiGroup.POST("/convert", handlers.Convert.HandleConvert)
	apiGroup.GET("/download/:filename", handlers.Download.HandleDownload)

	// Batch status
	apiGroup.GET("/jobs/:id", handlers.Jobs.HandleGetJob)
	apiGroup.GET("/ws/progress", handlers.Jobs.HandleProgressSocket)
}

// SetupMiddleware installs the structured error handler
func SetupMiddleware(e *echo.Echo, logger *slog.Logger) {
	e.HTTPErrorHandler = NewErrorHandler(logger)
}
