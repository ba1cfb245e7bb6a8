package domain

import "time"

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleSystem is the pinned system instruction.
	RoleSystem Role = "system"

	// RoleUser is a user message.
	RoleUser Role = "user"

	// RoleAssistant is a model response.
	RoleAssistant Role = "assistant"
)

// Turn is a single conversation message. Turns are appended by the
// caller and never mutated, only truncated out of the active window.
type Turn struct {
	// Role is the author of the turn.
	Role Role

	// Content is the message text.
	Content string

	// CreatedAt is when the turn was appended.
	CreatedAt time.Time
}

// Session is a conversation owned by one caller.
type Session struct {
	// ID is the unique session identifier.
	ID string

	// Turns is the full chronological history.
	Turns []Turn

	// CreatedAt is when the session started.
	CreatedAt time.Time
}
