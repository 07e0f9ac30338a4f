package chat

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventType discriminates the JSON payloads carried in the backend's SSE
// "data:" frames.
type EventType string

const (
	EventSessionCreated        EventType = "session_created"
	EventSessionStatus         EventType = "session_status"
	EventSessionInfo           EventType = "session_info"
	EventProcessing            EventType = "processing"
	EventClarificationQuestion EventType = "clarification_question"
	EventStreamingChunk        EventType = "streaming_chunk"
	EventAnswerComplete        EventType = "answer_complete"
	EventStreamingComplete     EventType = "streaming_complete"
	EventComplete              EventType = "complete"
	EventError                 EventType = "error"
)

// ErrBadEvent indicates a structurally invalid event payload: unparseable
// JSON, a missing type discriminator, or field values the protocol forbids.
// Out-of-order or duplicate chunks are NOT bad events — those are expected
// traffic absorbed by the StreamBuffer.
var ErrBadEvent = errors.New("bad chat event")

// Event is one parsed frame of the tutor backend's streaming protocol,
// discriminated by Type. Only the fields relevant to a given type are
// populated; the rest stay at their zero values.
type Event struct {
	Type EventType `json:"type"`

	// Identity fields, present on most event types.
	SessionID string `json:"session_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`

	// Message carries human-readable text for status, clarification, and
	// error events.
	Message string `json:"message,omitempty"`

	// streaming_chunk fields.
	ChunkIndex int    `json:"chunk_index,omitempty"`
	Content    string `json:"content,omitempty"`
	IsFinal    bool   `json:"is_final,omitempty"`

	// FullResponse is the optional authoritative override carried by
	// terminal complete events.
	FullResponse string `json:"full_response,omitempty"`
}

// Terminal reports whether the event closes the stream for its conversation.
func (e *Event) Terminal() bool {
	switch e.Type {
	case EventAnswerComplete, EventStreamingComplete, EventComplete, EventError:
		return true
	default:
		return false
	}
}

// Complete reports whether the event is one of the terminal success
// variants. The backend has emitted all three names over time; they are
// treated identically.
func (e *Event) Complete() bool {
	switch e.Type {
	case EventAnswerComplete, EventStreamingComplete, EventComplete:
		return true
	default:
		return false
	}
}

// ParseEvent decodes one "data:" JSON payload into an Event.
//
// This is the validation boundary: structurally invalid input (bad JSON,
// wrong field types, missing type, negative chunk index) fails here with an
// error wrapping ErrBadEvent, before anything reaches the reordering buffer.
// The buffer itself assumes validated input.
func ParseEvent(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEvent, err)
	}

	if ev.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrBadEvent)
	}

	if ev.Type == EventStreamingChunk && ev.ChunkIndex < 0 {
		return nil, fmt.Errorf("%w: negative chunk_index %d", ErrBadEvent, ev.ChunkIndex)
	}

	return &ev, nil
}
