// Package convert runs conversion batches: each uploaded PDF is converted on
// its own, a failure is reported inline for that file only, and every input
// is removed from the uploads area once it has been processed.
package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pdf2word/backend/internal/logging"
	"github.com/pdf2word/backend/internal/models"
	"github.com/pdf2word/backend/internal/storage"
)

// ErrNoFiles is returned when a batch contains no files.
var ErrNoFiles = errors.New("no files uploaded")

// DownloadRoute is the well-known path converted files are served from.
const DownloadRoute = "/api/download/"

// Converter transforms an uploaded PDF into the bytes of the output document.
type Converter interface {
	Convert(ctx context.Context, src *models.TemporaryFile) ([]byte, error)
}

// JobTracker observes batch progress. upload.Manager implements it.
type JobTracker interface {
	StartJob(files []models.JobFile) string
	FileStarted(jobID string, index int)
	FileFinished(jobID string, index int, result models.ConversionResult)
	CompleteJob(jobID string)
}

// Options configures a Service.
type Options struct {
	Converter     Converter
	Jobs          JobTracker
	PublicBaseURL string // prefix for download URLs, empty for relative URLs
	MaxConcurrent int    // 1 or less means sequential
	Logger        *slog.Logger
}

// Service converts batches of uploaded files.
type Service struct {
	store       storage.Store
	converter   Converter
	jobs        JobTracker
	baseURL     string
	concurrency int
	logger      *slog.Logger
}

// BatchResult is the outcome of one ConvertBatch call.
type BatchResult struct {
	JobID   string
	Results []models.ConversionResult
}

// NewService creates a conversion service backed by store.
func NewService(store storage.Store, opts Options) *Service {
	conv := opts.Converter
	if conv == nil {
		conv = NewPlaceholderConverter()
	}
	concurrency := opts.MaxConcurrent
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		store:       store,
		converter:   conv,
		jobs:        opts.Jobs,
		baseURL:     strings.TrimRight(opts.PublicBaseURL, "/"),
		concurrency: concurrency,
		logger:      logging.OrDefault(opts.Logger),
	}
}

// ConvertBatch converts every file and returns one result per input, in
// input order. Per-file failures never fail the batch. The request context
// is detached: conversions already submitted are not cancelled.
func (s *Service) ConvertBatch(ctx context.Context, files []*models.TemporaryFile) (*BatchResult, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	ctx = context.WithoutCancel(ctx)

	jobID := ""
	if s.jobs != nil {
		jobFiles := make([]models.JobFile, len(files))
		for i, f := range files {
			jobFiles[i] = models.JobFile{Name: f.OriginalName, Size: f.Size}
		}
		jobID = s.jobs.StartJob(jobFiles)
	}

	results := make([]models.ConversionResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if s.jobs != nil {
				s.jobs.FileStarted(jobID, i)
			}
			results[i] = s.processFile(gctx, file)
			if s.jobs != nil {
				s.jobs.FileFinished(jobID, i, results[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	if s.jobs != nil {
		s.jobs.CompleteJob(jobID)
	}
	return &BatchResult{JobID: jobID, Results: results}, nil
}

// processFile converts a single upload. The input is always removed.
func (s *Service) processFile(ctx context.Context, file *models.TemporaryFile) (result models.ConversionResult) {
	result = models.ConversionResult{OriginalName: file.OriginalName}

	defer func() {
		if err := s.store.Remove(file); err != nil {
			s.logger.Warn("failed to remove upload",
				slog.String("file", file.Name),
				logging.Error(err),
			)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("conversion panicked", slog.String("file", file.OriginalName), slog.Any("panic", r))
			result = errorResult(file, fmt.Errorf("conversion panicked: %v", r))
		}
	}()

	outName := models.ConvertedName(file.Name)
	data, err := s.converter.Convert(ctx, file)
	if err == nil {
		_, err = s.store.WriteConverted(outName, data)
	}
	if err != nil {
		s.logger.Error("error converting file",
			slog.String("file", file.OriginalName),
			logging.Error(err),
		)
		return errorResult(file, err)
	}

	convertedName := models.ConvertedName(file.OriginalName)
	s.logger.Info("converted file",
		slog.String("file", file.OriginalName),
		slog.String("output", outName),
		slog.Int64("size", file.Size),
	)
	return models.ConversionResult{
		OriginalName:  file.OriginalName,
		ConvertedName: convertedName,
		Size:          file.Size,
		Status:        models.StatusSuccess,
		DownloadURL:   s.downloadURL(outName, convertedName),
	}
}

// downloadURL addresses a converted file under the download route. The
// suggested save name travels as the name query parameter.
func (s *Service) downloadURL(storedName, convertedName string) string {
	u := s.baseURL + DownloadRoute + url.PathEscape(storedName)
	if convertedName != "" {
		u += "?name=" + url.QueryEscape(convertedName)
	}
	return u
}

func errorResult(file *models.TemporaryFile, err error) models.ConversionResult {
	return models.ConversionResult{
		OriginalName: file.OriginalName,
		Status:       models.StatusError,
		Error:        err.Error(),
	}
}
