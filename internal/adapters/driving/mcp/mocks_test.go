package mcp

import (
	"context"
	"fmt"

	"github.com/kestrel-labs/kestrel/internal/core/domain"
	"github.com/kestrel-labs/kestrel/internal/core/ports/driving"
)

// mockRetrieval is a scripted implementation of driving.Retrieval.
type mockRetrieval struct {
	ingestReceipt domain.IngestReceipt
	ingestErr     error
	results       []domain.RetrievedResult
	retrieveErr   error
	summary       *domain.DocumentSummary
	summaryErr    error
	removedIDs    []string

	lastContent string
	lastTopK    int
}

var _ driving.Retrieval = (*mockRetrieval)(nil)

func (m *mockRetrieval) Ingest(_ context.Context, content, _ string, _ map[string]any) (domain.IngestReceipt, error) {
	m.lastContent = content
	return m.ingestReceipt, m.ingestErr
}

func (m *mockRetrieval) Retrieve(_ context.Context, _ string, k int) ([]domain.RetrievedResult, error) {
	m.lastTopK = k
	return m.results, m.retrieveErr
}

func (m *mockRetrieval) DocumentSummary(_ context.Context, _ string) (*domain.DocumentSummary, error) {
	return m.summary, m.summaryErr
}

func (m *mockRetrieval) RemoveDocument(_ context.Context, id string) error {
	m.removedIDs = append(m.removedIDs, id)
	return nil
}

func (m *mockRetrieval) AugmentQuery(query string, results []domain.RetrievedResult) string {
	return fmt.Sprintf("augmented(%s, %d chunks)", query, len(results))
}

// mockConversation is a scripted implementation of driving.Conversation.
type mockConversation struct {
	sessionID string
	turns     []domain.Turn
	appended  []domain.Turn
}

var _ driving.Conversation = (*mockConversation)(nil)

func (m *mockConversation) Start(_ context.Context, _ string) (string, error) {
	return m.sessionID, nil
}

func (m *mockConversation) Append(_ context.Context, _ string, turn domain.Turn) error {
	m.appended = append(m.appended, turn)
	return nil
}

func (m *mockConversation) Window(_ context.Context, _ string, _ []domain.RetrievedResult) ([]domain.Turn, error) {
	return m.turns, nil
}
