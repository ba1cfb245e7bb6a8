// Command kestrel is a local retrieval-augmented context engine.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kestrel-labs/kestrel/internal/adapters/driven/config/file"
	"github.com/kestrel-labs/kestrel/internal/adapters/driven/embedding/hashed"
	"github.com/kestrel-labs/kestrel/internal/adapters/driven/embedding/ollama"
	"github.com/kestrel-labs/kestrel/internal/adapters/driven/embedding/resilient"
	"github.com/kestrel-labs/kestrel/internal/adapters/driven/storage/memory"
	"github.com/kestrel-labs/kestrel/internal/adapters/driven/storage/sqlite"
	"github.com/kestrel-labs/kestrel/internal/adapters/driven/vectorindex/flat"
	"github.com/kestrel-labs/kestrel/internal/adapters/driving/cli"
	"github.com/kestrel-labs/kestrel/internal/chunkers"
	"github.com/kestrel-labs/kestrel/internal/core/domain"
	"github.com/kestrel-labs/kestrel/internal/core/ports/driven"
	"github.com/kestrel-labs/kestrel/internal/core/services"
	"github.com/kestrel-labs/kestrel/internal/logger"
)

// version is overridden at build time via -ldflags.
var version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	dataDir, err := resolveDataDir()
	if err != nil {
		return err
	}

	embedder := buildEmbedder(cfg)
	defer embedder.Close()

	indexPath := cfg.GetString("index.path")
	if indexPath == "" {
		indexPath = filepath.Join(dataDir, "index")
	}
	index, err := flat.New(indexPath, embedder.Dimensions())
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}
	defer index.Close()

	docStore, err := buildDocStore(cfg, dataDir)
	if err != nil {
		return fmt.Errorf("opening document store: %w", err)
	}
	defer docStore.Close()

	var chunkerOpts []chunkers.Option
	if size := cfg.GetInt("chunk.size"); size > 0 {
		chunkerOpts = append(chunkerOpts, chunkers.WithChunkSize(size))
	}
	if overlap := cfg.GetInt("chunk.overlap"); overlap > 0 {
		chunkerOpts = append(chunkerOpts, chunkers.WithOverlap(overlap))
	}
	chunker := chunkers.New(chunkerOpts...)

	retrieval := services.NewRetrievalService(chunker, embedder, index, docStore)

	window := services.NewContextWindow(cfg.GetInt("context.max_tokens"))
	conversation := services.NewConversationService(memory.NewSessionStore(), window)

	cli.Wire(retrieval, conversation, version)
	return cli.Execute()
}

func resolveDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".kestrel", "data"), nil
}

// buildEmbedder wires the primary model behind the deterministic
// fallback. The primary can be disabled outright with
// embedding.disabled = true, leaving hash-only embeddings.
func buildEmbedder(cfg *file.ConfigStore) *resilient.Embedder {
	dimensions := cfg.GetInt("embedding.dimension")
	if dimensions <= 0 {
		dimensions = hashed.DefaultDimensions
	}
	fallback := hashed.New(dimensions)

	if cfg.GetBool("embedding.disabled") {
		logger.Info("Primary embedding model disabled; using hash fallback")
		return resilient.New(nil, fallback)
	}

	primary := ollama.New(ollama.Config{
		BaseURL:    cfg.GetString("embedding.base_url"),
		Model:      cfg.GetString("embedding.model"),
		Dimensions: dimensions,
		Timeout:    30 * time.Second,
	})
	return resilient.New(primary, fallback)
}

// buildDocStore selects the document store backend; SQLite is the
// default so document text survives restarts.
func buildDocStore(cfg *file.ConfigStore, dataDir string) (driven.DocumentStore, error) {
	if cfg.GetString("storage.backend") == "memory" {
		return memory.NewDocumentStore(), nil
	}
	return sqlite.NewDocumentStore(dataDir)
}
