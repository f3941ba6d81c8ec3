// Package models contains domain types for the PDF to Word converter.
package models

import "strings"

// ResultStatus is the outcome of converting a single file.
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusError   ResultStatus = "error"
)

// ConversionResult is the per-file outcome returned by the convert endpoint.
type ConversionResult struct {
	OriginalName  string       `json:"originalName" msgpack:"originalName"`
	ConvertedName string       `json:"convertedName,omitempty" msgpack:"convertedName,omitempty"`
	Size          int64        `json:"size,omitempty" msgpack:"size,omitempty"`
	Status        ResultStatus `json:"status" msgpack:"status"`
	DownloadURL   string       `json:"downloadUrl,omitempty" msgpack:"downloadUrl,omitempty"`
	Error         string       `json:"error,omitempty" msgpack:"error,omitempty"`
}

// ConvertResponse wraps the ordered results of one batch.
type ConvertResponse struct {
	Results []ConversionResult `json:"results" msgpack:"results"`
}

const (
	sourceExt = ".pdf"
	targetExt = ".docx"
)

// HasPDFExtension reports whether name ends in ".pdf", ignoring case.
func HasPDFExtension(name string) bool {
	return len(name) >= len(sourceExt) && strings.EqualFold(name[len(name)-len(sourceExt):], sourceExt)
}

// ConvertedName replaces a trailing ".pdf" with ".docx". Names without the
// suffix get ".docx" appended.
func ConvertedName(name string) string {
	if HasPDFExtension(name) {
		return name[:len(name)-len(sourceExt)] + targetExt
	}
	return name + targetExt
}
