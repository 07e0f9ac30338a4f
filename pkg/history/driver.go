// Package history defines the transcript store for finished tutoring turns.
// A turn is recorded only after its stream completes; in-flight chunk
// buffers never touch storage.
package history

import (
	"context"
	"time"
)

// Turn is one completed question/answer exchange in a conversation.
type Turn struct {
	// ID uniquely identifies the turn.
	ID string `json:"id"`

	// ConversationID groups turns belonging to the same conversation.
	ConversationID string `json:"conversation_id"`

	// SessionID is the backend session the turn was answered under, when
	// one was assigned.
	SessionID string `json:"session_id,omitempty"`

	// Question is the user's prompt; Answer is the reconciled response text
	// as finally displayed (including any authoritative override).
	Question string `json:"question"`
	Answer   string `json:"answer"`

	CreatedAt time.Time `json:"created_at"`
}

// Driver defines the interface for persisting and retrieving completed turns
// in a storage backend.
type Driver interface {
	// Put stores a turn. Storing a turn with an existing ID overwrites it.
	Put(ctx context.Context, turn *Turn) error

	// Get retrieves a turn by its ID.
	Get(ctx context.Context, id string) (*Turn, error)

	// List returns all turns, newest first.
	List(ctx context.Context) ([]*Turn, error)

	// Conversation returns all turns for a conversation, oldest first.
	Conversation(ctx context.Context, conversationID string) ([]*Turn, error)

	// Close closes the store and releases any resources.
	Close() error
}
