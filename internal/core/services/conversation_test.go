package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-labs/kestrel/internal/core/domain"
)

func TestStart_WithSystemInstruction(t *testing.T) {
	store := newMockSessionStore()
	svc := NewConversationService(store, NewContextWindow(1000))
	ctx := context.Background()

	id, err := svc.Start(ctx, "You are a helpful assistant.")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	session, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, session.Turns, 1)
	assert.Equal(t, domain.RoleSystem, session.Turns[0].Role)
}

func TestStart_WithoutSystemInstruction(t *testing.T) {
	store := newMockSessionStore()
	svc := NewConversationService(store, nil)
	ctx := context.Background()

	id, err := svc.Start(ctx, "")
	require.NoError(t, err)

	session, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, session.Turns)
}

func TestStart_UniqueIDs(t *testing.T) {
	svc := NewConversationService(newMockSessionStore(), nil)
	ctx := context.Background()

	a, err := svc.Start(ctx, "")
	require.NoError(t, err)
	b, err := svc.Start(ctx, "")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestAppend(t *testing.T) {
	store := newMockSessionStore()
	svc := NewConversationService(store, nil)
	ctx := context.Background()

	id, err := svc.Start(ctx, "")
	require.NoError(t, err)

	require.NoError(t, svc.Append(ctx, id, domain.Turn{Role: domain.RoleUser, Content: "hello"}))
	require.NoError(t, svc.Append(ctx, id, domain.Turn{Role: domain.RoleAssistant, Content: "hi"}))

	session, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, session.Turns, 2)
	assert.Equal(t, "hello", session.Turns[0].Content)
	assert.False(t, session.Turns[0].CreatedAt.IsZero())
}

func TestAppend_UnknownSession(t *testing.T) {
	svc := NewConversationService(newMockSessionStore(), nil)

	err := svc.Append(context.Background(), "missing", domain.Turn{Role: domain.RoleUser, Content: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWindow_TruncatesHistory(t *testing.T) {
	store := newMockSessionStore()
	svc := NewConversationService(store, NewContextWindow(25))
	ctx := context.Background()

	id, err := svc.Start(ctx, "")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		turn := domain.Turn{Role: domain.RoleUser, Content: "0123456789012345678901234567890123456789"}
		require.NoError(t, svc.Append(ctx, id, turn))
	}

	turns, err := svc.Window(ctx, id, nil)
	require.NoError(t, err)
	assert.Len(t, turns, 2, "25-token budget fits two 10-token turns")
}

func TestWindow_FoldsRetrievedContext(t *testing.T) {
	store := newMockSessionStore()
	svc := NewConversationService(store, NewContextWindow(4096))
	ctx := context.Background()

	id, err := svc.Start(ctx, "")
	require.NoError(t, err)
	require.NoError(t, svc.Append(ctx, id, domain.Turn{Role: domain.RoleUser, Content: "earlier question"}))
	require.NoError(t, svc.Append(ctx, id, domain.Turn{Role: domain.RoleUser, Content: "latest question"}))

	retrieved := []domain.RetrievedResult{
		{Content: "supporting chunk", DocumentID: "doc"},
	}

	turns, err := svc.Window(ctx, id, retrieved)
	require.NoError(t, err)
	require.Len(t, turns, 3)

	// Context lands just before the latest turn.
	assert.Equal(t, "earlier question", turns[0].Content)
	assert.Contains(t, turns[1].Content, "supporting chunk")
	assert.Equal(t, "latest question", turns[2].Content)
}

func TestWindow_UnknownSession(t *testing.T) {
	svc := NewConversationService(newMockSessionStore(), nil)

	_, err := svc.Window(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
