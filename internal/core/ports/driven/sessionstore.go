package driven

import (
	"context"

	"github.com/kestrel-labs/kestrel/internal/core/domain"
)

// SessionStore persists conversation sessions.
type SessionStore interface {
	// Save stores or updates a session.
	Save(ctx context.Context, session *domain.Session) error

	// Get retrieves a session by ID.
	// Returns domain.ErrNotFound when the session does not exist.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Delete removes a session.
	Delete(ctx context.Context, id string) error
}
