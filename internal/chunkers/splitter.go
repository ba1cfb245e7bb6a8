package chunkers

import (
	"context"

	"github.com/kestrel-labs/kestrel/internal/core/domain"
	"github.com/kestrel-labs/kestrel/internal/core/ports/driven"
)

// Ensure Splitter implements the interface.
var _ driven.Chunker = (*Splitter)(nil)

// DefaultChunkSize is the default maximum segment size in characters.
const DefaultChunkSize = 512

// DefaultOverlap is the default overlap window. For code it bounds the
// line lookback; for prose any positive value enables the
// trailing-sentence overlap.
const DefaultOverlap = 64

// overlapSentences is the number of trailing sentences carried into the
// next prose segment.
const overlapSentences = 2

// Splitter segments text by content kind.
type Splitter struct {
	chunkSize int
	overlap   int
}

// Option configures the splitter.
type Option func(*Splitter)

// WithChunkSize sets the maximum segment size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap window.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// New creates a splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Overlap must leave room for new content in every chunk.
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}

	return s
}

// Chunk splits text into ordered segments for the given document.
// Empty input yields zero segments.
func (s *Splitter) Chunk(_ context.Context, text, documentID string, kind domain.ContentKind) ([]domain.Segment, error) {
	if text == "" {
		return nil, nil
	}

	if kind == domain.KindCode {
		return s.chunkCode(text, documentID), nil
	}
	return s.chunkProse(text, documentID), nil
}
