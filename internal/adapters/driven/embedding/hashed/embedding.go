// Package hashed provides a deterministic, content-derived embedding
// fallback. It is used when no embedding model is reachable so that
// ingestion and retrieval degrade to a lower-quality mode instead of
// failing outright. Identical input always yields an identical vector.
package hashed

import (
	"context"
	"crypto/md5" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"

	"github.com/kestrel-labs/kestrel/internal/core/ports/driven"
)

// Ensure Embedder implements the interface.
var _ driven.Embedder = (*Embedder)(nil)

// DefaultDimensions matches the bge-small embedding size.
const DefaultDimensions = 384

// Embedder derives vectors from a cryptographic digest of the text.
type Embedder struct {
	dimensions int
}

// New creates a hash embedder producing vectors of the given dimension.
func New(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Embedder{dimensions: dimensions}
}

// Embed expands the MD5 hex digest of the text cyclically across the
// vector, normalising each hex digit into [0, 1].
func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	sum := md5.Sum([]byte(text)) //nolint:gosec
	digest := hex.EncodeToString(sum[:])

	vector := make([]float32, e.dimensions)
	for i := range vector {
		digit := digest[i%len(digest)]
		value, _ := hexDigitValue(digit)
		vector[i] = float32(value) / 15.0
	}
	return vector, nil
}

// EmbedBatch generates one vector per input, preserving order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vector, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vector
	}
	return vectors, nil
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// ModelName returns the name of the embedding method.
func (e *Embedder) ModelName() string {
	return "hash-fallback"
}

// Ping always succeeds; the fallback has no external dependency.
func (e *Embedder) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (e *Embedder) Close() error {
	return nil
}

// hexDigitValue returns the numeric value of a lowercase hex digit.
func hexDigitValue(b byte) (int, bool) {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0'), true
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10, true
	default:
		return 0, false
	}
}
