// Package store provides the transcript storage interface and SQLite implementation.
package store

import (
	"context"

	"github.com/rcliao/storyteller/internal/model"
)

// AppendParams holds parameters for appending a message.
type AppendParams struct {
	Session string
	Role    string
	Content string
}

// ListParams holds parameters for listing messages.
type ListParams struct {
	Session string
	Limit   int // 0 means all; otherwise the last Limit messages
}

// Store defines the transcript storage interface.
type Store interface {
	// Append stores a message at the next sequence number of its session.
	Append(ctx context.Context, p AppendParams) (*model.Message, error)

	// List returns messages of a session in sequence order.
	List(ctx context.Context, p ListParams) ([]model.Message, error)

	// TruncateAfter deletes every message of session with a sequence greater
	// than seq and returns how many were removed.
	TruncateAfter(ctx context.Context, session string, seq int) (int64, error)

	// Close closes the store.
	Close() error
}
