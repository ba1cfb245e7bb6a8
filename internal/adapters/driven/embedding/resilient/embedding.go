// Package resilient wraps a primary embedder with the deterministic
// hash fallback. Embedding failures are recovered per call and never
// propagated to ingestion or retrieval.
package resilient

import (
	"context"
	"sync"

	"github.com/kestrel-labs/kestrel/internal/core/ports/driven"
	"github.com/kestrel-labs/kestrel/internal/logger"
)

// Ensure Embedder implements the interface.
var _ driven.Embedder = (*Embedder)(nil)

// Embedder tries the primary embedder and degrades to the fallback.
type Embedder struct {
	primary  driven.Embedder // may be nil
	fallback driven.Embedder

	mu           sync.Mutex
	primaryDown  bool
	lastDegraded bool
}

// New creates a resilient embedder. The primary may be nil, in which
// case every call uses the fallback.
func New(primary, fallback driven.Embedder) *Embedder {
	return &Embedder{
		primary:     primary,
		fallback:    fallback,
		primaryDown: primary == nil,
	}
}

// Embed generates a vector for the text, falling back on failure.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if !e.isPrimaryDown() {
		vector, err := e.primary.Embed(ctx, text)
		if err == nil {
			e.setDegraded(false)
			return vector, nil
		}
		logger.Warn("Primary embedder failed, using fallback: %v", err)
	}

	e.setDegraded(true)
	return e.fallback.Embed(ctx, text)
}

// EmbedBatch generates vectors for the batch, falling back on failure.
// The whole batch is retried with the fallback so every vector in one
// batch comes from the same encoder.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if !e.isPrimaryDown() {
		vectors, err := e.primary.EmbedBatch(ctx, texts)
		if err == nil {
			e.setDegraded(false)
			return vectors, nil
		}
		logger.Warn("Primary embedder failed on batch of %d, using fallback: %v", len(texts), err)
	}

	e.setDegraded(true)
	return e.fallback.EmbedBatch(ctx, texts)
}

// Dimensions returns the embedding vector size.
// Primary and fallback are constructed with matching dimensions.
func (e *Embedder) Dimensions() int {
	return e.fallback.Dimensions()
}

// ModelName returns the name of the active embedding model.
func (e *Embedder) ModelName() string {
	if e.isPrimaryDown() {
		return e.fallback.ModelName()
	}
	return e.primary.ModelName()
}

// Ping checks the primary at startup. When it is unreachable the
// embedder switches to fallback mode; Ping itself never fails.
func (e *Embedder) Ping(ctx context.Context) error {
	if e.primary == nil {
		return nil
	}
	if err := e.primary.Ping(ctx); err != nil {
		logger.Warn("Embedding model unreachable, degrading to hash fallback: %v", err)
		e.mu.Lock()
		e.primaryDown = true
		e.mu.Unlock()
	}
	return nil
}

// Degraded reports whether the most recent encode used the fallback.
func (e *Embedder) Degraded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastDegraded
}

// Close releases both embedders.
func (e *Embedder) Close() error {
	if e.primary != nil {
		if err := e.primary.Close(); err != nil {
			return err
		}
	}
	return e.fallback.Close()
}

func (e *Embedder) isPrimaryDown() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.primaryDown
}

func (e *Embedder) setDegraded(degraded bool) {
	e.mu.Lock()
	e.lastDegraded = degraded
	e.mu.Unlock()
}
