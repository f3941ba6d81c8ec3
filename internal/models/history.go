package models

import "time"

// HistoryEntry is a persisted record of one past conversion outcome.
// Entries are never mutated after creation.
type HistoryEntry struct {
	ID            string       `json:"id" yaml:"id"`
	FileName      string       `json:"fileName" yaml:"fileName"`
	ConvertedName string       `json:"convertedName,omitempty" yaml:"convertedName,omitempty"`
	OriginalSize  string       `json:"originalSize,omitempty" yaml:"originalSize,omitempty"` // formatted, e.g. "2 MB"
	ConvertedAt   time.Time    `json:"convertedAt" yaml:"convertedAt"`
	Status        ResultStatus `json:"status" yaml:"status"`
	DownloadURL   string       `json:"downloadUrl,omitempty" yaml:"downloadUrl,omitempty"`
	Error         string       `json:"error,omitempty" yaml:"error,omitempty"`
}

// Downloadable reports whether the entry points at a retrievable output.
func (e HistoryEntry) Downloadable() bool {
	return e.Status == StatusSuccess && e.DownloadURL != ""
}
