package driving

import (
	"context"

	"github.com/kestrel-labs/kestrel/internal/core/domain"
)

// Conversation manages session histories and their budgeted windows.
type Conversation interface {
	// Start creates a new session, optionally seeded with a system
	// instruction, and returns its ID.
	Start(ctx context.Context, systemInstruction string) (string, error)

	// Append adds a turn to a session's history.
	Append(ctx context.Context, sessionID string, turn domain.Turn) error

	// Window returns the session's turns truncated to the token budget,
	// counting any retrieved segment content toward the same budget.
	Window(ctx context.Context, sessionID string, retrieved []domain.RetrievedResult) ([]domain.Turn, error)
}
