package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kestrel-labs/kestrel/internal/core/domain"
)

// IngestInput is the input schema for the ingest_document tool.
type IngestInput struct {
	Content    string         `json:"content" jsonschema:"the document text to ingest"`
	DocumentID string         `json:"document_id,omitempty" jsonschema:"optional stable identifier; derived from content when omitted"`
	Metadata   map[string]any `json:"metadata,omitempty" jsonschema:"optional key/value metadata stored with the document"`
}

// IngestOutput is the output schema for the ingest_document tool.
type IngestOutput struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
	Degraded   bool   `json:"degraded"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"the query to find relevant chunks for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of chunks to return (default 5)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Results []RetrievedChunk `json:"results"`
	Count   int              `json:"count"`
}

// RetrievedChunk represents a single retrieved chunk.
type RetrievedChunk struct {
	DocumentID string         `json:"document_id"`
	ChunkID    string         `json:"chunk_id"`
	Score      float64        `json:"score"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// SummaryInput is the input schema for the document_summary tool.
type SummaryInput struct {
	DocumentID string `json:"document_id" jsonschema:"identifier of the ingested document"`
}

// SummaryOutput is the output schema for the document_summary tool.
type SummaryOutput struct {
	DocumentID string `json:"document_id"`
	Length     int    `json:"length"`
	ChunkCount int    `json:"chunk_count"`
	Preview    string `json:"preview"`
}

// ComposeInput is the input schema for the compose_context tool.
type ComposeInput struct {
	Query     string `json:"query" jsonschema:"the user question to build an augmented prompt for"`
	TopK      int    `json:"top_k,omitempty" jsonschema:"maximum number of chunks to fold in (default 5)"`
	SessionID string `json:"session_id,omitempty" jsonschema:"optional session to thread the query through a token-budgeted history window"`
}

// SessionStartInput is the input schema for the session_start tool.
type SessionStartInput struct {
	SystemInstruction string `json:"system_instruction,omitempty" jsonschema:"optional system turn pinned at the start of the session"`
}

// SessionStartOutput is the output schema for the session_start tool.
type SessionStartOutput struct {
	SessionID string `json:"session_id"`
}

// ComposeOutput is the output schema for the compose_context tool.
type ComposeOutput struct {
	Prompt     string `json:"prompt"`
	ChunksUsed int    `json:"chunks_used"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_document",
		Description: "Chunk, embed and index a document for later retrieval",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Retrieve the chunks most relevant to a query",
	}, s.handleRetrieve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "document_summary",
		Description: "Summarise an ingested document (length, chunk count, preview)",
	}, s.handleSummary)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "compose_context",
		Description: "Build a context-augmented prompt for a query",
	}, s.handleCompose)

	if s.ports.Conversation != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "session_start",
			Description: "Start a conversation session for threaded context composition",
		}, s.handleSessionStart)
	}
}

// handleIngest handles the ingest_document tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	receipt, err := s.ports.Retrieval.Ingest(ctx, input.Content, input.DocumentID, input.Metadata)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		DocumentID: receipt.DocumentID,
		ChunkCount: receipt.ChunkCount,
		Degraded:   receipt.Degraded,
	}, nil
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	results, err := s.ports.Retrieval.Retrieve(ctx, input.Query, input.TopK)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Results: make([]RetrievedChunk, len(results)),
		Count:   len(results),
	}
	for i := range results {
		output.Results[i] = toRetrievedChunk(results[i])
	}

	return nil, output, nil
}

// handleSummary handles the document_summary tool invocation.
func (s *Server) handleSummary(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SummaryInput,
) (*mcp.CallToolResult, SummaryOutput, error) {
	summary, err := s.ports.Retrieval.DocumentSummary(ctx, input.DocumentID)
	if err != nil {
		return nil, SummaryOutput{}, err
	}

	return nil, SummaryOutput{
		DocumentID: summary.ID,
		Length:     summary.Length,
		ChunkCount: summary.ChunkCount,
		Preview:    summary.Preview,
	}, nil
}

// handleCompose handles the compose_context tool invocation. With a
// session ID, the query is appended to the session and the prompt is
// rendered from the token-budgeted window instead of the bare query.
func (s *Server) handleCompose(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ComposeInput,
) (*mcp.CallToolResult, ComposeOutput, error) {
	results, err := s.ports.Retrieval.Retrieve(ctx, input.Query, input.TopK)
	if err != nil {
		return nil, ComposeOutput{}, err
	}

	if input.SessionID != "" && s.ports.Conversation != nil {
		turn := domain.Turn{Role: domain.RoleUser, Content: input.Query}
		if err := s.ports.Conversation.Append(ctx, input.SessionID, turn); err != nil {
			return nil, ComposeOutput{}, err
		}
		turns, err := s.ports.Conversation.Window(ctx, input.SessionID, results)
		if err != nil {
			return nil, ComposeOutput{}, err
		}
		return nil, ComposeOutput{
			Prompt:     renderTurns(turns),
			ChunksUsed: len(results),
		}, nil
	}

	return nil, ComposeOutput{
		Prompt:     s.ports.Retrieval.AugmentQuery(input.Query, results),
		ChunksUsed: len(results),
	}, nil
}

// handleSessionStart handles the session_start tool invocation.
func (s *Server) handleSessionStart(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SessionStartInput,
) (*mcp.CallToolResult, SessionStartOutput, error) {
	id, err := s.ports.Conversation.Start(ctx, input.SystemInstruction)
	if err != nil {
		return nil, SessionStartOutput{}, err
	}
	return nil, SessionStartOutput{SessionID: id}, nil
}

// renderTurns flattens a window of turns into a prompt block.
func renderTurns(turns []domain.Turn) string {
	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
	}
	return b.String()
}

func toRetrievedChunk(r domain.RetrievedResult) RetrievedChunk {
	return RetrievedChunk{
		DocumentID: r.DocumentID,
		ChunkID:    r.ChunkID,
		Score:      r.Score,
		Content:    r.Content,
		Metadata:   r.Metadata,
	}
}
