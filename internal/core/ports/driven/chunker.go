package driven

import (
	"context"

	"github.com/kestrel-labs/kestrel/internal/core/domain"
)

// Chunker splits raw text into bounded, semantically coherent segments.
type Chunker interface {
	// Chunk splits text into ordered segments for the given document.
	// Empty input yields zero segments. A single indivisible unit longer
	// than the configured maximum is kept whole, never cut mid-content.
	Chunk(ctx context.Context, text, documentID string, kind domain.ContentKind) ([]domain.Segment, error)
}
