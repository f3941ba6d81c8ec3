package models

// PendingStatus is the only status a selected, unsubmitted file can have.
const PendingStatus = "pending"

// PendingFile is a client-side file selected for the next batch. It is
// never persisted.
type PendingFile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MIMEType string `json:"mimeType"`
	Status   string `json:"status"`
}
