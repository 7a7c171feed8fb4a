// Package docstore provides storage interfaces and implementations for the
// PDF document records used by the readaloud service.
package docstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no document matches the requested id.
var ErrNotFound = errors.New("document not found")

// Document is the metadata and extracted text of one uploaded PDF.
type Document struct {
	ID            string    `json:"_id" bson:"_id"`
	Filename      string    `json:"filename" bson:"filename"`
	OriginalName  string    `json:"originalName" bson:"originalName"`
	Size          int64     `json:"size" bson:"size"`
	Path          string    `json:"path" bson:"path"`
	BlobID        string    `json:"blobId" bson:"blobId"`
	ContentHash   string    `json:"contentHash" bson:"contentHash"`
	ExtractedText string    `json:"extractedText" bson:"extractedText"`
	Pages         []string  `json:"pages,omitempty" bson:"pages,omitempty"`
	UploadDate    time.Time `json:"uploadDate" bson:"uploadDate"`
}

// Changes lists the metadata fields an update may modify. Nil fields are
// left untouched.
type Changes struct {
	OriginalName *string `json:"originalName,omitempty"`
	Filename     *string `json:"filename,omitempty"`
}

// Empty reports whether the changes modify nothing.
func (c Changes) Empty() bool {
	return c.OriginalName == nil && c.Filename == nil
}

// Store defines the interface for storing and retrieving document records.
type Store interface {
	// Initialize opens the underlying database and prepares its schema.
	Initialize(ctx context.Context) error

	// Close closes the store and releases any resources.
	Close() error

	// Create inserts a new document. An empty ID is filled in by the store.
	Create(ctx context.Context, doc *Document) error

	// Get returns the document with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (*Document, error)

	// List returns all documents, newest upload first.
	List(ctx context.Context) ([]*Document, error)

	// SearchByName returns documents whose original name contains name,
	// ignoring case, newest upload first.
	SearchByName(ctx context.Context, name string) ([]*Document, error)

	// Update applies changes to a document and returns the updated record.
	Update(ctx context.Context, id string, changes Changes) (*Document, error)

	// SetExtractedText stores the full text and per-page text of a document.
	SetExtractedText(ctx context.Context, id string, text string, pages []string) (*Document, error)

	// Delete removes a document and returns the deleted record.
	Delete(ctx context.Context, id string) (*Document, error)
}
