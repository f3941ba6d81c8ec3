// handlers_download.go - Converted file download handler
package api

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pdf2word/backend/internal/logging"
	"github.com/pdf2word/backend/internal/storage"
)

// DownloadHandlerImpl implements the DownloadHandler interface
type DownloadHandlerImpl struct {
	store  storage.Store
	logger *slog.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(store storage.Store, logger *slog.Logger) DownloadHandler {
	return &DownloadHandlerImpl{
		store:  store,
		logger: logging.OrDefault(logger),
	}
}

// HandleDownload streams a converted file as an attachment. The optional
// name query parameter sets the suggested save name.
func (h *DownloadHandlerImpl) HandleDownload(c echo.Context) error {
	filename := c.Param("filename")

	path, err := h.store.ConvertedPath(filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError(MsgFileNotFound)
		}
		return NewInternalError(err)
	}

	if err := c.Attachment(path, suggestedName(c.QueryParam("name"), filename)); err != nil {
		h.logger.Error(MsgDownloadFailed, slog.String("file", filename), logging.Error(err))
		return err
	}
	return nil
}

// suggestedName falls back to the stored name when the requested one is
// empty or carries path components.
func suggestedName(requested, stored string) string {
	requested = strings.TrimSpace(requested)
	if requested == "" || strings.ContainsAny(requested, `/\`) || filepath.Base(requested) != requested {
		return stored
	}
	return requested
}
