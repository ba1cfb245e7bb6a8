package services

import (
	"github.com/kestrel-labs/kestrel/internal/core/domain"
	"github.com/kestrel-labs/kestrel/internal/logger"
)

// DefaultMaxTokens is the default context window budget.
const DefaultMaxTokens = 4096

// charsPerToken is the approximation used for token counting: one
// token per four characters of text. Counting is monotonic, so a
// truncated window never re-grows.
const charsPerToken = 4

// ContextWindow keeps a conversation within a fixed token budget by
// dropping the oldest turns first. A leading system turn, when
// present, survives truncation and stays first.
type ContextWindow struct {
	maxTokens int
}

// NewContextWindow creates a window manager with the given budget.
// Non-positive budgets fall back to DefaultMaxTokens.
func NewContextWindow(maxTokens int) *ContextWindow {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &ContextWindow{maxTokens: maxTokens}
}

// MaxTokens returns the window budget.
func (w *ContextWindow) MaxTokens() int {
	return w.maxTokens
}

// EstimateTokens approximates the token count of a piece of text.
func EstimateTokens(text string) int {
	return len(text) / charsPerToken
}

// Truncate returns the turns that fit within the budget, preserving
// chronological order. Newer turns win over older ones; a leading
// system turn is retained regardless of age. Truncate is idempotent:
// applying it to its own output returns the same turns.
func (w *ContextWindow) Truncate(turns []domain.Turn) []domain.Turn {
	if len(turns) == 0 {
		return nil
	}

	var system *domain.Turn
	rest := turns
	if turns[0].Role == domain.RoleSystem {
		system = &turns[0]
		rest = turns[1:]
	}

	budget := w.maxTokens
	if system != nil {
		budget -= EstimateTokens(system.Content)
	}

	// Walk newest to oldest, taking turns while they fit.
	kept := 0
	used := 0
	for i := len(rest) - 1; i >= 0; i-- {
		cost := EstimateTokens(rest[i].Content)
		if used+cost > budget {
			break
		}
		used += cost
		kept++
	}

	if dropped := len(rest) - kept; dropped > 0 {
		logger.Debug("context window dropped %d of %d turns", dropped, len(rest))
	}

	out := make([]domain.Turn, 0, kept+1)
	if system != nil {
		out = append(out, *system)
	}
	out = append(out, rest[len(rest)-kept:]...)
	return out
}
