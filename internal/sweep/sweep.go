// Package sweep periodically deletes stale temporary files from the storage areas.
package sweep

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdf2word/backend/internal/logging"
)

// Result contains the outcome of one sweep pass.
type Result struct {
	Removed []string
	Errors  []Error
}

// Error pairs a path with the error hit while sweeping it.
type Error struct {
	Path string
	Err  error
}

// Sweeper deletes regular files older than MaxAge from a fixed set of directories.
type Sweeper struct {
	Dirs     []string
	MaxAge   time.Duration
	Interval time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
}

// New creates a sweeper for dirs.
func New(dirs []string, interval, maxAge time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		Dirs:     dirs,
		MaxAge:   maxAge,
		Interval: interval,
		Logger:   logging.OrDefault(logger),
		Now:      time.Now,
	}
}

// Run sweeps every Interval until ctx is done. The first pass happens one
// interval after start.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce()
		}
	}
}

// SweepOnce runs a single pass. It never fails; problems are logged and
// returned in the result.
func (s *Sweeper) SweepOnce() Result {
	var result Result
	logger := logging.OrDefault(s.Logger)
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	cutoff := now().Add(-s.MaxAge)

	for _, dir := range s.Dirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				result.Errors = append(result.Errors, Error{Path: dir, Err: err})
				logger.Warn("failed to list directory for sweep", slog.String("dir", dir), logging.Error(err))
			}
			continue
		}

		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			info, err := entry.Info()
			if err != nil {
				if !os.IsNotExist(err) {
					result.Errors = append(result.Errors, Error{Path: path, Err: err})
				}
				continue
			}
			if !info.ModTime().Before(cutoff) {
				continue
			}
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				result.Errors = append(result.Errors, Error{Path: path, Err: err})
				logger.Error("error deleting stale file", slog.String("path", path), logging.Error(err))
				continue
			}
			result.Removed = append(result.Removed, path)
			logger.Info("cleaned up old file",
				slog.String("path", path),
				slog.Duration("age", now().Sub(info.ModTime())),
			)
		}
	}

	return result
}
