// Package flat provides a vector index backed by a dense in-memory
// arena with exhaustive cosine scan. Segments and vectors share the
// same dense position, so search hits resolve without derived keys and
// without collision risk.
//
// Durability uses a write-ahead log: every Add appends a fsynced WAL
// record before returning, and the arena is snapshotted to a binary
// vector blob plus a JSON sidecar once the WAL grows past a threshold
// and on Close.
package flat

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/kestrel-labs/kestrel/internal/core/domain"
	"github.com/kestrel-labs/kestrel/internal/core/ports/driven"
	"github.com/kestrel-labs/kestrel/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// DefaultWALThreshold is the number of WAL records that triggers a
// snapshot.
const DefaultWALThreshold = 64

// Index provides similarity search over a dense segment arena.
type Index struct {
	mu        sync.RWMutex
	basePath  string
	dimension int

	segments []domain.Segment
	vectors  [][]float32
	byID     map[string]int // segment ID -> dense position

	wal          *os.File
	walCount     int
	walThreshold int
	closed       bool
}

// Option configures the index.
type Option func(*Index)

// WithWALThreshold sets the snapshot trigger in WAL records.
func WithWALThreshold(n int) Option {
	return func(idx *Index) {
		if n > 0 {
			idx.walThreshold = n
		}
	}
}

// New creates or opens a flat index at basePath. Corrupt or
// disagreeing artifacts are logged and the index starts empty;
// availability is prioritised over recovering damaged state.
func New(basePath string, dimension int, opts ...Option) (*Index, error) {
	if basePath == "" {
		return nil, fmt.Errorf("flat: base path cannot be empty")
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("flat: dimension must be positive")
	}

	if err := os.MkdirAll(filepath.Dir(basePath), 0700); err != nil {
		return nil, fmt.Errorf("flat: creating index directory: %w", err)
	}

	idx := &Index{
		basePath:     basePath,
		dimension:    dimension,
		byID:         make(map[string]int),
		walThreshold: DefaultWALThreshold,
	}
	for _, opt := range opts {
		opt(idx)
	}

	idx.loadSnapshot()
	idx.replayWAL()

	wal, err := os.OpenFile(idx.walPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("flat: opening WAL: %w", err)
	}
	idx.wal = wal

	return idx, nil
}

// Add inserts or replaces a segment and its vector. The WAL record is
// synced to disk before Add returns, so a crash loses at most the
// in-flight segment.
func (idx *Index) Add(_ context.Context, segment domain.Segment, vector []float32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return domain.ErrIndexClosed
	}
	if len(vector) != idx.dimension {
		return fmt.Errorf("flat: %w: got %d, want %d", domain.ErrDimensionMismatch, len(vector), idx.dimension)
	}

	if err := idx.appendWAL(segment, vector); err != nil {
		return fmt.Errorf("flat: writing WAL: %w", err)
	}
	idx.insert(segment, vector)

	idx.walCount++
	if idx.walCount >= idx.walThreshold {
		if err := idx.snapshot(); err != nil {
			// The WAL still holds every record; snapshotting retries
			// on the next threshold crossing.
			logger.Warn("Snapshot failed, continuing on WAL: %v", err)
		}
	}

	return nil
}

// insert places a segment in the arena, replacing any previous entry
// with the same ID. Caller must hold the write lock.
func (idx *Index) insert(segment domain.Segment, vector []float32) {
	if pos, ok := idx.byID[segment.ID]; ok {
		idx.segments[pos] = segment
		idx.vectors[pos] = vector
		return
	}
	idx.byID[segment.ID] = len(idx.segments)
	idx.segments = append(idx.segments, segment)
	idx.vectors = append(idx.vectors, vector)
}

// Search scans the arena and returns up to k hits by descending
// similarity. An empty index yields no hits.
func (idx *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, domain.ErrIndexClosed
	}
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("flat: %w: got %d, want %d", domain.ErrDimensionMismatch, len(query), idx.dimension)
	}
	if k <= 0 || len(idx.vectors) == 0 {
		return nil, nil
	}

	hits := make([]driven.VectorHit, 0, len(idx.vectors))
	for i, vector := range idx.vectors {
		distance := cosineDistance(query, vector)
		hits = append(hits, driven.VectorHit{
			SegmentID: idx.segments[i].ID,
			// Monotonic transform keeps ordering while bounding the
			// score: 1.0 is a perfect match, decaying with distance.
			Similarity: 1.0 / (1.0 + distance),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Get returns the stored segment for a segment ID.
func (idx *Index) Get(_ context.Context, segmentID string) (*domain.Segment, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	pos, ok := idx.byID[segmentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	segment := idx.segments[pos]
	return &segment, nil
}

// ListByDocument returns all segments of a document in insertion order.
func (idx *Index) ListByDocument(_ context.Context, documentID string) ([]domain.Segment, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var segments []domain.Segment
	for i := range idx.segments {
		if idx.segments[i].DocumentID == documentID {
			segments = append(segments, idx.segments[i])
		}
	}
	return segments, nil
}

// RemoveDocument drops all segments of a document, compacts the arena
// and forces a snapshot so the removal is durable immediately.
func (idx *Index) RemoveDocument(_ context.Context, documentID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return domain.ErrIndexClosed
	}

	kept := 0
	for i := range idx.segments {
		if idx.segments[i].DocumentID == documentID {
			continue
		}
		idx.segments[kept] = idx.segments[i]
		idx.vectors[kept] = idx.vectors[i]
		kept++
	}
	if kept == len(idx.segments) {
		return nil
	}

	idx.segments = idx.segments[:kept]
	idx.vectors = idx.vectors[:kept]
	idx.byID = make(map[string]int, kept)
	for i := range idx.segments {
		idx.byID[idx.segments[i].ID] = i
	}

	if err := idx.snapshot(); err != nil {
		return fmt.Errorf("flat: snapshot after removal: %w", err)
	}
	return nil
}

// Len returns the number of indexed segments.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.segments)
}

// Close snapshots pending WAL records and releases the WAL handle.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return nil
	}
	idx.closed = true

	var snapErr error
	if idx.walCount > 0 {
		snapErr = idx.snapshot()
	}

	if idx.wal != nil {
		if err := idx.wal.Close(); err != nil && snapErr == nil {
			snapErr = err
		}
		idx.wal = nil
	}

	return snapErr
}

// cosineDistance returns 1 - cosine similarity. Zero-norm vectors are
// treated as maximally distant from everything.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1.0
	}
	return 1.0 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
