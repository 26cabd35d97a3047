// Package model defines the core session data types.
package model

import "time"

// Message is one turn of the transcript.
type Message struct {
	ID        string    `json:"id"`
	Session   string    `json:"session"`
	Seq       int       `json:"seq"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Message roles, named after the chat-completion roles they map to.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ValidRoles are the allowed message roles.
var ValidRoles = map[string]bool{
	RoleUser:      true,
	RoleAssistant: true,
}

// Role is the character the player plays.
type Role struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Length modes for narrator replies.
const (
	LengthShort = "short"
	LengthLong  = "long"
)

// ValidLengths are the allowed reply length modes.
var ValidLengths = map[string]bool{
	LengthShort: true,
	LengthLong:  true,
}
