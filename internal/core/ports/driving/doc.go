// Package driving provides interfaces through which external actors
// (CLI, MCP server, watcher) use the core services (primary/inbound ports).
package driving
