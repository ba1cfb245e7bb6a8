package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-labs/kestrel/internal/core/domain"
)

func newTestServer(t *testing.T, retrieval *mockRetrieval, conversation *mockConversation) *Server {
	t.Helper()

	ports := &Ports{Retrieval: retrieval}
	if conversation != nil {
		ports.Conversation = conversation
	}
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestNewServer_RequiresRetrieval(t *testing.T) {
	_, err := NewServer(&Ports{})
	assert.ErrorIs(t, err, ErrMissingRetrieval)
}

func TestHandleIngest(t *testing.T) {
	retrieval := &mockRetrieval{
		ingestReceipt: domain.IngestReceipt{DocumentID: "doc", ChunkCount: 4, Degraded: true},
	}
	server := newTestServer(t, retrieval, nil)

	_, output, err := server.handleIngest(context.Background(), nil, IngestInput{Content: "text"})
	require.NoError(t, err)

	assert.Equal(t, "doc", output.DocumentID)
	assert.Equal(t, 4, output.ChunkCount)
	assert.True(t, output.Degraded)
	assert.Equal(t, "text", retrieval.lastContent)
}

func TestHandleRetrieve(t *testing.T) {
	retrieval := &mockRetrieval{
		results: []domain.RetrievedResult{
			{DocumentID: "doc", ChunkID: "doc_chunk_0", Score: 0.8, Content: "chunk text"},
		},
	}
	server := newTestServer(t, retrieval, nil)

	_, output, err := server.handleRetrieve(context.Background(), nil, RetrieveInput{Query: "q", TopK: 3})
	require.NoError(t, err)

	assert.Equal(t, 1, output.Count)
	require.Len(t, output.Results, 1)
	assert.Equal(t, "doc_chunk_0", output.Results[0].ChunkID)
	assert.Equal(t, 0.8, output.Results[0].Score)
	assert.Equal(t, 3, retrieval.lastTopK)
}

func TestHandleSummary(t *testing.T) {
	retrieval := &mockRetrieval{
		summary: &domain.DocumentSummary{ID: "doc", Length: 500, ChunkCount: 2, Preview: "start..."},
	}
	server := newTestServer(t, retrieval, nil)

	_, output, err := server.handleSummary(context.Background(), nil, SummaryInput{DocumentID: "doc"})
	require.NoError(t, err)

	assert.Equal(t, "doc", output.DocumentID)
	assert.Equal(t, 500, output.Length)
	assert.Equal(t, 2, output.ChunkCount)
	assert.Equal(t, "start...", output.Preview)
}

func TestHandleSummary_Error(t *testing.T) {
	retrieval := &mockRetrieval{summaryErr: domain.ErrNotFound}
	server := newTestServer(t, retrieval, nil)

	_, _, err := server.handleSummary(context.Background(), nil, SummaryInput{DocumentID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHandleCompose_WithoutSession(t *testing.T) {
	retrieval := &mockRetrieval{
		results: []domain.RetrievedResult{{Content: "a"}, {Content: "b"}},
	}
	server := newTestServer(t, retrieval, nil)

	_, output, err := server.handleCompose(context.Background(), nil, ComposeInput{Query: "q"})
	require.NoError(t, err)

	assert.Equal(t, "augmented(q, 2 chunks)", output.Prompt)
	assert.Equal(t, 2, output.ChunksUsed)
}

func TestHandleCompose_WithSession(t *testing.T) {
	retrieval := &mockRetrieval{
		results: []domain.RetrievedResult{{Content: "a"}},
	}
	conversation := &mockConversation{
		sessionID: "s1",
		turns: []domain.Turn{
			{Role: domain.RoleSystem, Content: "be helpful"},
			{Role: domain.RoleUser, Content: "q"},
		},
	}
	server := newTestServer(t, retrieval, conversation)

	_, output, err := server.handleCompose(context.Background(), nil, ComposeInput{Query: "q", SessionID: "s1"})
	require.NoError(t, err)

	require.Len(t, conversation.appended, 1)
	assert.Equal(t, domain.RoleUser, conversation.appended[0].Role)
	assert.Contains(t, output.Prompt, "system: be helpful")
	assert.Contains(t, output.Prompt, "user: q")
	assert.Equal(t, 1, output.ChunksUsed)
}

func TestHandleSessionStart(t *testing.T) {
	server := newTestServer(t, &mockRetrieval{}, &mockConversation{sessionID: "new-session"})

	_, output, err := server.handleSessionStart(context.Background(), nil, SessionStartInput{})
	require.NoError(t, err)
	assert.Equal(t, "new-session", output.SessionID)
}
