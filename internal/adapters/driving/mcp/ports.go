package mcp

import (
	"github.com/kestrel-labs/kestrel/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval provides ingest and retrieval capabilities.
	Retrieval driving.Retrieval

	// Conversation provides token-budgeted context windows.
	Conversation driving.Conversation
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrieval
	}
	// Conversation is optional; compose_context degrades without it.
	return nil
}
