package driven

import (
	"context"

	"github.com/kestrel-labs/kestrel/internal/core/domain"
)

// VectorIndex stores segment vectors and provides nearest-neighbour search.
// The index owns the segment records needed to hydrate search results.
type VectorIndex interface {
	// Add inserts a segment and its vector, durably, before returning.
	Add(ctx context.Context, segment domain.Segment, vector []float32) error

	// Search finds up to k nearest segments to the query vector,
	// ordered by descending similarity. An empty index yields no hits.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Get returns the stored segment for a segment ID.
	Get(ctx context.Context, segmentID string) (*domain.Segment, error)

	// ListByDocument returns all segments belonging to a document,
	// in insertion order.
	ListByDocument(ctx context.Context, documentID string) ([]domain.Segment, error)

	// RemoveDocument removes all segments of a document and compacts
	// the index.
	RemoveDocument(ctx context.Context, documentID string) error

	// Len returns the number of indexed segments.
	Len() int

	// Close flushes pending state and releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// SegmentID is the matched segment.
	SegmentID string

	// Similarity is the bounded score in (0, 1]; 1.0 is a perfect match.
	Similarity float64
}
