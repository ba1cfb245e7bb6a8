package driven

import (
	"context"

	"github.com/kestrel-labs/kestrel/internal/core/domain"
)

// DocumentStore persists full documents for summary lookups.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound when the document does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// DeleteDocument removes a document.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns all stored documents.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// Close releases resources.
	Close() error
}
