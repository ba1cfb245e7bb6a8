// Package domain contains the core entities of the retrieval engine.
// Types here carry no dependencies on adapters or infrastructure.
package domain
