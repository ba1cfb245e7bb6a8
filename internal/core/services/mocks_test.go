package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/kestrel-labs/kestrel/internal/core/domain"
	"github.com/kestrel-labs/kestrel/internal/core/ports/driven"
)

// mockChunker splits on blank lines, one segment per paragraph.
type mockChunker struct {
	err error
}

var _ driven.Chunker = (*mockChunker)(nil)

func (m *mockChunker) Chunk(_ context.Context, text, documentID string, _ domain.ContentKind) ([]domain.Segment, error) {
	if m.err != nil {
		return nil, m.err
	}

	var segments []domain.Segment
	for _, part := range strings.Split(text, "\n\n") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		segments = append(segments, domain.Segment{
			ID:         fmt.Sprintf("%s_chunk_%d", documentID, len(segments)),
			DocumentID: documentID,
			Content:    part,
		})
	}
	return segments, nil
}

// mockEmbedder returns fixed-dimension vectors and records batch sizes.
type mockEmbedder struct {
	dimensions int
	err        error
	degraded   bool
	batchSizes []int
}

var _ driven.Embedder = (*mockEmbedder)(nil)

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return make([]float32, m.dimensions), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.batchSizes = append(m.batchSizes, len(texts))
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = make([]float32, m.dimensions)
	}
	return vectors, nil
}

func (m *mockEmbedder) Dimensions() int            { return m.dimensions }
func (m *mockEmbedder) ModelName() string          { return "mock" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error               { return nil }

// Degraded satisfies the DegradationReporter check in the service.
func (m *mockEmbedder) Degraded() bool { return m.degraded }

// mockVectorIndex is an in-memory index with scripted search results.
type mockVectorIndex struct {
	segments   map[string]domain.Segment
	order      []string
	searchHits []driven.VectorHit
	addErr     error
}

var _ driven.VectorIndex = (*mockVectorIndex)(nil)

func newMockVectorIndex() *mockVectorIndex {
	return &mockVectorIndex{segments: make(map[string]domain.Segment)}
}

func (m *mockVectorIndex) Add(_ context.Context, segment domain.Segment, _ []float32) error {
	if m.addErr != nil {
		return m.addErr
	}
	if _, ok := m.segments[segment.ID]; !ok {
		m.order = append(m.order, segment.ID)
	}
	m.segments[segment.ID] = segment
	return nil
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, k int) ([]driven.VectorHit, error) {
	hits := m.searchHits
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *mockVectorIndex) Get(_ context.Context, segmentID string) (*domain.Segment, error) {
	segment, ok := m.segments[segmentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &segment, nil
}

func (m *mockVectorIndex) ListByDocument(_ context.Context, documentID string) ([]domain.Segment, error) {
	var segments []domain.Segment
	for _, id := range m.order {
		if m.segments[id].DocumentID == documentID {
			segments = append(segments, m.segments[id])
		}
	}
	return segments, nil
}

func (m *mockVectorIndex) RemoveDocument(_ context.Context, documentID string) error {
	var kept []string
	for _, id := range m.order {
		if m.segments[id].DocumentID == documentID {
			delete(m.segments, id)
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
	return nil
}

func (m *mockVectorIndex) Len() int { return len(m.order) }

func (m *mockVectorIndex) Close() error { return nil }

// mockDocStore is an in-memory document store.
type mockDocStore struct {
	documents map[string]domain.Document
	saveErr   error
}

var _ driven.DocumentStore = (*mockDocStore)(nil)

func newMockDocStore() *mockDocStore {
	return &mockDocStore{documents: make(map[string]domain.Document)}
}

func (m *mockDocStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.documents[doc.ID] = *doc
	return nil
}

func (m *mockDocStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := m.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

func (m *mockDocStore) DeleteDocument(_ context.Context, id string) error {
	delete(m.documents, id)
	return nil
}

func (m *mockDocStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	docs := make([]domain.Document, 0, len(m.documents))
	for _, doc := range m.documents {
		docs = append(docs, doc)
	}
	return docs, nil
}

func (m *mockDocStore) Close() error { return nil }

// mockSessionStore is an in-memory session store.
type mockSessionStore struct {
	sessions map[string]domain.Session
}

var _ driven.SessionStore = (*mockSessionStore)(nil)

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[string]domain.Session)}
}

func (m *mockSessionStore) Save(_ context.Context, session *domain.Session) error {
	m.sessions[session.ID] = *session
	return nil
}

func (m *mockSessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	session, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &session, nil
}

func (m *mockSessionStore) Delete(_ context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}
