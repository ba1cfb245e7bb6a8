package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kestrel-labs/kestrel/internal/core/domain"
	"github.com/kestrel-labs/kestrel/internal/core/ports/driven"
	"github.com/kestrel-labs/kestrel/internal/core/ports/driving"
	"github.com/kestrel-labs/kestrel/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.Retrieval = (*RetrievalService)(nil)

// DefaultTopK is the number of results returned when the caller does
// not ask for a specific count.
const DefaultTopK = 5

// previewLength caps the document summary preview.
const previewLength = 100

// DegradationReporter is implemented by embedders that can tell
// whether their last encode used a degraded fallback path.
type DegradationReporter interface {
	Degraded() bool
}

// RetrievalService orchestrates chunking, embedding and indexing on
// ingest, and embedding plus vector search on retrieval.
type RetrievalService struct {
	chunker     driven.Chunker
	embedder    driven.Embedder
	vectorIndex driven.VectorIndex
	docStore    driven.DocumentStore
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(
	chunker driven.Chunker,
	embedder driven.Embedder,
	vectorIndex driven.VectorIndex,
	docStore driven.DocumentStore,
) *RetrievalService {
	return &RetrievalService{
		chunker:     chunker,
		embedder:    embedder,
		vectorIndex: vectorIndex,
		docStore:    docStore,
	}
}

// Ingest chunks, embeds and indexes a document. An empty documentID is
// replaced with a content-derived one so re-ingesting the same text
// updates rather than duplicates. All chunks of a batch are embedded
// in a single call.
func (s *RetrievalService) Ingest(
	ctx context.Context, content, documentID string, metadata map[string]any,
) (domain.IngestReceipt, error) {
	logger.Section("Ingest")

	if strings.TrimSpace(content) == "" {
		return domain.IngestReceipt{}, fmt.Errorf("ingest: %w: empty content", domain.ErrInvalidInput)
	}

	if documentID == "" {
		documentID = deriveDocumentID(content)
		logger.Debug("No document ID supplied, derived %s", documentID)
	}

	kind := domain.DetectKind(content)
	logger.Debug("Document %s detected as %s (%d bytes)", documentID, kind, len(content))

	segments, err := s.chunker.Chunk(ctx, content, documentID, kind)
	if err != nil {
		return domain.IngestReceipt{}, fmt.Errorf("chunk document %s: %w", documentID, err)
	}
	if len(segments) == 0 {
		return domain.IngestReceipt{}, fmt.Errorf("ingest %s: %w: no chunks produced", documentID, domain.ErrInvalidInput)
	}
	logger.Debug("Produced %d chunks", len(segments))

	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Content
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return domain.IngestReceipt{}, fmt.Errorf("embed document %s: %w", documentID, err)
	}
	if len(vectors) != len(segments) {
		return domain.IngestReceipt{}, fmt.Errorf("embed document %s: got %d vectors for %d chunks", documentID, len(vectors), len(segments))
	}

	degraded := false
	if r, ok := s.embedder.(DegradationReporter); ok && r.Degraded() {
		degraded = true
		logger.Warn("Document %s embedded with fallback model; recall quality reduced", documentID)
	}

	// Replacing a document starts from a clean slate so stale chunks
	// from a longer prior version cannot linger.
	if err := s.vectorIndex.RemoveDocument(ctx, documentID); err != nil {
		return domain.IngestReceipt{}, fmt.Errorf("clear previous chunks of %s: %w", documentID, err)
	}

	for i, seg := range segments {
		if degraded {
			if seg.Metadata == nil {
				seg.Metadata = make(map[string]any)
			}
			seg.Metadata["embedding_fallback"] = true
		}
		if err := s.vectorIndex.Add(ctx, seg, vectors[i]); err != nil {
			return domain.IngestReceipt{}, fmt.Errorf("index chunk %s: %w", seg.ID, err)
		}
	}

	doc := &domain.Document{
		ID:         documentID,
		Content:    content,
		Kind:       kind,
		Metadata:   metadata,
		IngestedAt: time.Now(),
	}
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return domain.IngestReceipt{}, fmt.Errorf("save document %s: %w", documentID, err)
	}

	logger.Info("Ingested %s: %d chunks (degraded=%t)", documentID, len(segments), degraded)

	return domain.IngestReceipt{
		DocumentID: documentID,
		ChunkCount: len(segments),
		Degraded:   degraded,
	}, nil
}

// Retrieve embeds the query and returns the topK most similar chunks,
// hydrated with their text and ordered by descending similarity.
func (s *RetrievalService) Retrieve(
	ctx context.Context, query string, topK int,
) ([]domain.RetrievedResult, error) {
	logger.Section("Retrieve")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("retrieve: %w: empty query", domain.ErrInvalidInput)
	}

	if topK <= 0 {
		topK = DefaultTopK
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.vectorIndex.Search(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Index returned %d hits", len(hits))

	results := make([]domain.RetrievedResult, 0, len(hits))
	for _, hit := range hits {
		seg, err := s.vectorIndex.Get(ctx, hit.SegmentID)
		if err != nil {
			// A hit whose chunk vanished mid-flight is skipped, not fatal.
			logger.Warn("Chunk %s missing during hydration: %v", hit.SegmentID, err)
			continue
		}
		results = append(results, domain.RetrievedResult{
			Content:    seg.Content,
			Score:      hit.Similarity,
			DocumentID: seg.DocumentID,
			ChunkID:    seg.ID,
			Metadata:   seg.Metadata,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results, nil
}

// DocumentSummary reports chunk count, length and a content preview
// for an ingested document.
func (s *RetrievalService) DocumentSummary(
	ctx context.Context, documentID string,
) (*domain.DocumentSummary, error) {
	segments, err := s.vectorIndex.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list chunks of %s: %w", documentID, err)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	}

	summary := &domain.DocumentSummary{
		ID:         documentID,
		ChunkCount: len(segments),
	}

	// Prefer the stored document for length and timestamp; fall back
	// to the index when only chunks survive.
	if doc, err := s.docStore.GetDocument(ctx, documentID); err == nil {
		summary.Length = len(doc.Content)
		summary.IngestedAt = doc.IngestedAt
	} else {
		for _, seg := range segments {
			summary.Length += len(seg.Content)
		}
		summary.IngestedAt = segments[0].CreatedAt
	}

	preview := segments[0].Content
	if len(preview) > previewLength {
		preview = preview[:previewLength] + "..."
	}
	summary.Preview = preview

	return summary, nil
}

// RemoveDocument deletes a document and all its chunks.
func (s *RetrievalService) RemoveDocument(ctx context.Context, documentID string) error {
	if err := s.vectorIndex.RemoveDocument(ctx, documentID); err != nil {
		return fmt.Errorf("remove chunks of %s: %w", documentID, err)
	}
	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document %s: %w", documentID, err)
	}
	logger.Info("Removed document %s", documentID)
	return nil
}

// AugmentQuery renders retrieved chunks and the user query into a
// single prompt block suitable for a language model.
func (s *RetrievalService) AugmentQuery(query string, results []domain.RetrievedResult) string {
	if len(results) == 0 {
		return query
	}

	var b strings.Builder
	b.WriteString("Use the following context to answer the question.\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "[Context %d] (source: %s, relevance: %.2f)\n%s\n\n", i+1, r.DocumentID, r.Score, r.Content)
	}
	b.WriteString("Question: ")
	b.WriteString(query)
	return b.String()
}

// deriveDocumentID builds a stable ID from the content hash.
func deriveDocumentID(content string) string {
	sum := md5.Sum([]byte(content))
	return "doc_" + hex.EncodeToString(sum[:])[:12]
}
