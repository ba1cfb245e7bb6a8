package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-labs/kestrel/internal/core/domain"
)

func TestDocumentStore_SaveAndGet(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := &domain.Document{
		ID:      "doc1",
		Content: "some content",
		Kind:    domain.KindProse,
		Metadata: map[string]any{
			"source": "test",
		},
	}
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, "some content", got.Content)
	assert.Equal(t, domain.KindProse, got.Kind)
	assert.Equal(t, "test", got.Metadata["source"])
}

func TestDocumentStore_Get_NotFound(t *testing.T) {
	store := NewDocumentStore()

	_, err := store.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_Save_Overwrites(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "doc1", Content: "old"}))
	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "doc1", Content: "new"}))

	got, err := store.GetDocument(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Content)

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestDocumentStore_Delete(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "doc1"}))
	require.NoError(t, store.DeleteDocument(ctx, "doc1"))

	_, err := store.GetDocument(ctx, "doc1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting again is not an error.
	assert.NoError(t, store.DeleteDocument(ctx, "doc1"))
}

func TestDocumentStore_List(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "a"}))
	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "b"}))

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestSessionStore_SaveAndGet(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	session := &domain.Session{
		ID: "s1",
		Turns: []domain.Turn{
			{Role: domain.RoleUser, Content: "hello"},
		},
	}
	require.NoError(t, store.Save(ctx, session))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got.Turns, 1)
	assert.Equal(t, "hello", got.Turns[0].Content)
}

func TestSessionStore_Get_ReturnsCopy(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.Session{
		ID:    "s1",
		Turns: []domain.Turn{{Role: domain.RoleUser, Content: "original"}},
	}))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	got.Turns[0].Content = "mutated"

	again, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Turns[0].Content)
}

func TestSessionStore_Delete(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.Session{ID: "s1"}))
	require.NoError(t, store.Delete(ctx, "s1"))

	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
