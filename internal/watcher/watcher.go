// Package watcher re-ingests files as they change on disk.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kestrel-labs/kestrel/internal/core/ports/driving"
	"github.com/kestrel-labs/kestrel/internal/logger"
)

// DefaultDebounce is how long a file must stay quiet before it is
// re-ingested. Editors often fire several write events per save.
const DefaultDebounce = 500 * time.Millisecond

// ingestible file extensions; everything else is ignored.
var ingestExtensions = map[string]bool{
	".txt": true, ".md": true, ".markdown": true, ".rst": true,
	".go": true, ".py": true, ".js": true, ".ts": true,
	".java": true, ".c": true, ".cpp": true, ".h": true, ".rs": true,
	".json": true, ".yaml": true, ".yml": true, ".toml": true,
}

// Watcher observes a directory and ingests files on create and write.
type Watcher struct {
	retrieval driving.Retrieval
	debounce  time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a watcher that feeds changed files to the retrieval service.
func New(retrieval driving.Retrieval, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		retrieval: retrieval,
		debounce:  debounce,
		pending:   make(map[string]*time.Timer),
	}
}

// Watch blocks, ingesting files under dir as they change, until the
// context is cancelled.
func (w *Watcher) Watch(ctx context.Context, dir string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("Watching %s", dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !w.shouldIngest(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// schedule arms (or re-arms) the debounce timer for a path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.ingestFile(ctx, path)
	})
}

// ingestFile reads and ingests a single file, logging failures.
func (w *Watcher) ingestFile(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Skipping %s: %v", path, err)
		return
	}
	if strings.TrimSpace(string(data)) == "" {
		return
	}

	receipt, err := w.retrieval.Ingest(ctx, string(data), filepath.Base(path), map[string]any{
		"source_path": path,
	})
	if err != nil {
		logger.Warn("Ingest %s failed: %v", path, err)
		return
	}
	logger.Info("Re-ingested %s: %d chunks", receipt.DocumentID, receipt.ChunkCount)
}

// shouldIngest filters out directories, hidden files and unknown types.
func (w *Watcher) shouldIngest(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return false
	}
	return ingestExtensions[strings.ToLower(filepath.Ext(path))]
}
