// Package models defines the document types shared by storage, the index
// and the outer surfaces.
package models

import "time"

// DocumentMetadata is the lightweight view of a vault file.
type DocumentMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Event kinds reported for vault documents.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// DocumentEvent describes one change to a vault document. Revision is set
// when the change came through a buffer transaction.
type DocumentEvent struct {
	Kind     string `json:"kind"`
	Path     string `json:"path"`
	Revision string `json:"revision,omitempty"`
}
