// handlers_convert.go - PDF batch upload and conversion handler
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/pdf2word/backend/internal/convert"
	"github.com/pdf2word/backend/internal/logging"
	"github.com/pdf2word/backend/internal/models"
	"github.com/pdf2word/backend/internal/storage"
)

// UploadField is the multipart field carrying the PDFs.
const UploadField = "files"

// HeaderJobID carries the batch job ID on convert responses.
const HeaderJobID = "X-Job-ID"

// MIMEApplicationMsgpack selects the msgpack response encoding.
const MIMEApplicationMsgpack = "application/msgpack"

const pdfMIMEType = "application/pdf"

// ConvertHandlerImpl implements the ConvertHandler interface
type ConvertHandlerImpl struct {
	store     storage.Store
	converter BatchConverter
	maxBytes  int64
	logger    *slog.Logger
}

// NewConvertHandler creates a new convert handler. maxBytes caps each file.
func NewConvertHandler(store storage.Store, converter BatchConverter, maxBytes int64, logger *slog.Logger) ConvertHandler {
	return &ConvertHandlerImpl{
		store:     store,
		converter: converter,
		maxBytes:  maxBytes,
		logger:    logging.OrDefault(logger),
	}
}

// HandleConvert accepts a multipart batch of PDFs, stores them in the uploads
// area, converts each one and responds with per-file results in input order.
func (h *ConvertHandlerImpl) HandleConvert(c echo.Context) error {
	headers, apiErr := h.collectFiles(c)
	if apiErr != nil {
		return apiErr
	}

	files := make([]*models.TemporaryFile, 0, len(headers))
	for _, fh := range headers {
		saved, err := h.saveUpload(fh)
		if err != nil {
			h.discard(files)
			return NewInternalError(fmt.Errorf("saving upload %q: %w", fh.Filename, err))
		}
		files = append(files, saved)
	}

	h.logger.Info("conversion requested", slog.Int("files", len(files)))

	out, err := h.converter.ConvertBatch(c.Request().Context(), files)
	if err != nil {
		if errors.Is(err, convert.ErrNoFiles) {
			return NewValidationError(MsgNoFiles)
		}
		return NewInternalError(err)
	}

	if out.JobID != "" {
		c.Response().Header().Set(HeaderJobID, out.JobID)
	}
	resp := models.ConvertResponse{Results: out.Results}
	return respond(c, http.StatusOK, resp)
}

// collectFiles parses the multipart body and validates every file before any
// of them is written. The first offending file decides the error.
func (h *ConvertHandlerImpl) collectFiles(c echo.Context) ([]*multipart.FileHeader, *APIError) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, NewValidationError(MsgNoFiles)
		}
		var maxErr *http.MaxBytesError
		var httpErr *echo.HTTPError
		if errors.As(err, &maxErr) || (errors.As(err, &httpErr) && httpErr.Code == http.StatusRequestEntityTooLarge) {
			return nil, NewValidationError(h.tooLargeMessage())
		}
		return nil, NewBadRequestError("Invalid upload", err)
	}

	headers := form.File[UploadField]
	if len(headers) == 0 {
		return nil, NewValidationError(MsgNoFiles)
	}

	for _, fh := range headers {
		if !isPDFPart(fh) {
			return nil, NewValidationError(MsgOnlyPDF)
		}
		if h.maxBytes > 0 && fh.Size > h.maxBytes {
			return nil, NewValidationError(h.tooLargeMessage())
		}
	}
	return headers, nil
}

func (h *ConvertHandlerImpl) saveUpload(fh *multipart.FileHeader) (*models.TemporaryFile, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return h.store.SaveUpload(UploadField, fh.Filename, src)
}

// discard removes uploads already written when a later file fails to save.
func (h *ConvertHandlerImpl) discard(files []*models.TemporaryFile) {
	for _, f := range files {
		if err := h.store.Remove(f); err != nil {
			h.logger.Warn("failed to remove upload", slog.String("file", f.Name), logging.Error(err))
		}
	}
}

func (h *ConvertHandlerImpl) tooLargeMessage() string {
	if h.maxBytes <= 0 || h.maxBytes == 50*1024*1024 {
		return MsgFileTooLarge
	}
	return fmt.Sprintf("File too large. Maximum size is %dMB.", h.maxBytes/(1024*1024))
}

// isPDFPart accepts a part only when both its declared type and its name say PDF.
func isPDFPart(fh *multipart.FileHeader) bool {
	ct := strings.TrimSpace(strings.ToLower(fh.Header.Get(echo.HeaderContentType)))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct == pdfMIMEType && models.HasPDFExtension(fh.Filename)
}

// respond writes v as msgpack when the client asks for it, JSON otherwise.
func respond(c echo.Context, status int, v interface{}) error {
	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), MIMEApplicationMsgpack) {
		data, err := msgpack.Marshal(v)
		if err != nil {
			return NewInternalError(fmt.Errorf("encoding msgpack: %w", err))
		}
		return c.Blob(status, MIMEApplicationMsgpack, data)
	}
	return c.JSON(status, v)
}
