package driving

import (
	"context"

	"github.com/kestrel-labs/kestrel/internal/core/domain"
)

// Retrieval exposes the retrieval engine to external actors.
type Retrieval interface {
	// Ingest chunks, embeds and indexes a document. When id is empty a
	// content-hash-derived identifier is assigned.
	Ingest(ctx context.Context, content, id string, metadata map[string]any) (domain.IngestReceipt, error)

	// Retrieve returns up to k segments ranked by descending similarity.
	Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedResult, error)

	// DocumentSummary returns aggregate stats for an ingested document.
	// Returns domain.ErrNotFound for unknown ids.
	DocumentSummary(ctx context.Context, documentID string) (*domain.DocumentSummary, error)

	// RemoveDocument removes a document and its indexed segments.
	RemoveDocument(ctx context.Context, documentID string) error

	// AugmentQuery prefixes a query with retrieved context for grounding.
	AugmentQuery(query string, results []domain.RetrievedResult) string
}
