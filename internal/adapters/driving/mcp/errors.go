// Package mcp provides an MCP (Model Context Protocol) server adapter for Kestrel.
// It lets AI assistants ingest documents and retrieve grounded context locally.
package mcp

import "errors"

// ErrMissingRetrieval is returned when the retrieval service is not provided.
var ErrMissingRetrieval = errors.New("mcp: retrieval service is required")
