package models

import "time"

// Area names a server-side storage directory.
type Area string

const (
	AreaUploads   Area = "uploads"
	AreaConverted Area = "converted"
)

// TemporaryFile describes a file held in one of the storage areas.
type TemporaryFile struct {
	Name         string    `json:"name"`         // stored name, <field>-<millis>-<random>.<ext>
	OriginalName string    `json:"originalName"` // name supplied by the client
	Area         Area      `json:"area"`
	Path         string    `json:"-"`
	Size         int64     `json:"size"`
	ModTime      time.Time `json:"modTime"`
}
