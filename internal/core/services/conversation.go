package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kestrel-labs/kestrel/internal/core/domain"
	"github.com/kestrel-labs/kestrel/internal/core/ports/driven"
	"github.com/kestrel-labs/kestrel/internal/core/ports/driving"
	"github.com/kestrel-labs/kestrel/internal/logger"
)

// Ensure ConversationService implements the interface.
var _ driving.Conversation = (*ConversationService)(nil)

// ConversationService tracks chat sessions and composes token-budgeted
// windows over their history.
type ConversationService struct {
	sessions driven.SessionStore
	window   *ContextWindow
	now      func() time.Time
}

// NewConversationService creates a conversation service.
func NewConversationService(sessions driven.SessionStore, window *ContextWindow) *ConversationService {
	if window == nil {
		window = NewContextWindow(DefaultMaxTokens)
	}
	return &ConversationService{
		sessions: sessions,
		window:   window,
		now:      time.Now,
	}
}

// Start creates a new session. A non-empty systemInstruction becomes
// the session's pinned first turn.
func (s *ConversationService) Start(ctx context.Context, systemInstruction string) (string, error) {
	session := &domain.Session{
		ID:        uuid.NewString(),
		CreatedAt: s.now(),
	}
	if strings.TrimSpace(systemInstruction) != "" {
		session.Turns = append(session.Turns, domain.Turn{
			Role:      domain.RoleSystem,
			Content:   systemInstruction,
			CreatedAt: s.now(),
		})
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}
	logger.Debug("Started session %s", session.ID)
	return session.ID, nil
}

// Append records a turn at the end of a session's history. A zero
// CreatedAt is stamped with the current time.
func (s *ConversationService) Append(ctx context.Context, sessionID string, turn domain.Turn) error {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("append to session %s: %w", sessionID, err)
	}

	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = s.now()
	}
	session.Turns = append(session.Turns, turn)
	if err := s.sessions.Save(ctx, session); err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}
	return nil
}

// Window returns the session history truncated to the token budget.
// Retrieved chunks, when supplied, are folded into a synthetic user
// turn just before the latest one so they compete for the same budget
// as the conversation itself.
func (s *ConversationService) Window(
	ctx context.Context, sessionID string, retrieved []domain.RetrievedResult,
) ([]domain.Turn, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	turns := session.Turns
	if len(retrieved) > 0 && len(turns) > 0 {
		contextTurn := domain.Turn{
			Role:      domain.RoleUser,
			Content:   renderRetrieved(retrieved),
			CreatedAt: s.now(),
		}
		last := turns[len(turns)-1]
		turns = append(append(append([]domain.Turn{}, turns[:len(turns)-1]...), contextTurn), last)
	}

	return s.window.Truncate(turns), nil
}

// renderRetrieved formats retrieved chunks as a context block.
func renderRetrieved(results []domain.RetrievedResult) string {
	var b strings.Builder
	b.WriteString("Relevant context:\n")
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] (%s) %s\n", i+1, r.DocumentID, r.Content)
	}
	return b.String()
}
