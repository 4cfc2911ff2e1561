// Package storage defines the document vault abstraction.
package storage

import "github.com/starford/nexusmap/internal/models"

// Extension is the file suffix of vault documents.
const Extension = ".md"

// Provider is the interface for vault file operations. Paths are relative
// to the vault root.
type Provider interface {
	// List returns metadata for every document under dir.
	List(dir string) ([]models.DocumentMetadata, error)
	// Stat returns metadata for one document.
	Stat(path string) (models.DocumentMetadata, error)
	// Read returns the raw bytes of the document at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the document at path.
	Write(path string, content []byte) error
	Delete(path string) error
	Move(oldPath, newPath string) error
}
