package domain

import "time"

// Document represents an ingested unit of content.
// The full text is retained for summary lookups; chunking never mutates it.
type Document struct {
	// ID is the unique identifier, caller-supplied or content-hash derived.
	ID string

	// Content is the complete ingested text before chunking.
	Content string

	// Kind is the detected content kind (prose or code).
	Kind ContentKind

	// Metadata contains arbitrary caller-supplied key-value pairs.
	Metadata map[string]any

	// IngestedAt is when the document entered the engine.
	IngestedAt time.Time
}

// Segment is a bounded span of a document's text, the unit of
// embedding and retrieval.
type Segment struct {
	// ID is derived from the document ID and the segment ordinal.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Content is the text content of this segment.
	Content string

	// Metadata holds segment-specific keys such as sentence_count,
	// start_line, end_line, language and embedding_fallback.
	Metadata map[string]any

	// CreatedAt is when the segment was produced.
	CreatedAt time.Time
}

// RetrievedResult is a read-only projection of a segment plus its
// similarity score. Created per query, never persisted.
type RetrievedResult struct {
	// Content is the segment text.
	Content string

	// Score is the similarity in [0, 1]; higher is more relevant.
	Score float64

	// DocumentID is the owning document.
	DocumentID string

	// ChunkID is the matched segment.
	ChunkID string

	// Metadata is the segment metadata.
	Metadata map[string]any
}

// DocumentSummary aggregates stats about an ingested document.
type DocumentSummary struct {
	// ID is the document identifier.
	ID string

	// Length is the full text length in bytes.
	Length int

	// ChunkCount is the number of indexed segments.
	ChunkCount int

	// Preview is the leading content of the first segment.
	Preview string

	// IngestedAt is when the first segment was created.
	IngestedAt time.Time
}

// IngestReceipt reports the outcome of an ingestion.
type IngestReceipt struct {
	// DocumentID is the assigned or supplied document identifier.
	DocumentID string

	// ChunkCount is the number of segments produced and indexed.
	ChunkCount int

	// Degraded is true when the deterministic fallback embedder was used.
	Degraded bool
}
