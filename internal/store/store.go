package store

import (
	"context"
	"errors"

	"github.com/voyagen/m3uforge/internal/models"
)

// ErrNotFound is returned when a document id does not exist.
var ErrNotFound = errors.New("not found")

// Store persists playlist documents.
type Store interface {
	// CreateDocument inserts doc (name, source url, playlist) and returns its id.
	CreateDocument(ctx context.Context, doc *models.Document) (int64, error)
	// GetDocument returns a document with its playlist.
	GetDocument(ctx context.Context, id int64) (*models.Document, error)
	// ListDocuments returns all documents without their playlists, oldest first.
	ListDocuments(ctx context.Context) ([]models.Document, error)
	// SaveDocument overwrites name, source url and playlist of an existing document.
	SaveDocument(ctx context.Context, doc *models.Document) error
	// DeleteDocument deletes a document.
	DeleteDocument(ctx context.Context, id int64) error
}
