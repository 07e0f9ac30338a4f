package chat

import (
	"log/slog"
	"time"
)

// Update is what the dispatcher hands the render layer after each event:
// the current best-known ordered text plus any lifecycle signals that
// arrived with it. Zero-value fields mean "nothing new for this concern".
type Update struct {
	// Key is the conversation key the update belongs to.
	Key string

	// Text is the reconciled response text. Only meaningful when HasText is
	// set; a terminal event with no authoritative override leaves the
	// already-rendered text alone.
	Text    string
	HasText bool

	// SessionID is set when the backend assigns or reports a session id,
	// which can arrive asynchronously mid-stream.
	SessionID string

	// Status carries transient human-readable state ("processing", queue
	// position, etc.). Clarification carries a follow-up question the tutor
	// asks before answering.
	Status        string
	Clarification string

	// Done is set on terminal events. ErrorMessage is set when the terminal
	// event was an error; it is appended to the conversation by the UI.
	Done         bool
	ErrorMessage string
}

// Empty reports whether the update carries nothing for the render layer,
// e.g. because the event was an unrecognized type.
func (u Update) Empty() bool {
	return !u.HasText && u.SessionID == "" && u.Status == "" &&
		u.Clarification == "" && !u.Done
}

// Dispatcher is the single reducer between parsed wire events and the
// buffer layer: streaming chunks feed the conversation's StreamBuffer,
// terminal events discard it, and everything else passes through as
// lifecycle signals.
type Dispatcher struct {
	manager *Manager
	logger  *slog.Logger
}

// NewDispatcher creates a Dispatcher over the given Manager. A nil logger
// discards dispatch logging.
func NewDispatcher(manager *Manager, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{
		manager: manager,
		logger:  logger,
	}
}

// Dispatch routes one validated event for the given conversation key and
// returns the resulting Update.
//
// Dispatch never fails on out-of-order or duplicate input — that is
// expected traffic. Events with types this client does not recognize are
// logged and produce an empty Update.
func (d *Dispatcher) Dispatch(key string, ev *Event) Update {
	u := Update{Key: key}

	switch ev.Type {
	case EventStreamingChunk:
		buf := d.manager.Buffer(key)
		u.Text = buf.AddChunk(ev.ChunkIndex, ev.Content, ev.IsFinal, time.Now())
		u.HasText = true
		if ev.SessionID != "" {
			u.SessionID = ev.SessionID
		}

		// Once the final-marked chunk and everything before it have been
		// consumed, the response is complete even if the backend's safety
		// "complete" frame never arrives.
		if buf.Finalized() {
			d.manager.Remove(key)
			u.Done = true
		}

	case EventAnswerComplete, EventStreamingComplete, EventComplete:
		if ev.FullResponse != "" {
			// Authoritative override: replaces accumulated streamed text
			// outright, last write wins.
			u.Text = d.manager.Buffer(key).Override(ev.FullResponse)
			u.HasText = true
		}
		d.manager.Remove(key)
		u.Done = true

	case EventError:
		d.logger.Warn("stream error event",
			"key", key,
			"message", ev.Message,
		)
		d.manager.Remove(key)
		u.Done = true
		u.ErrorMessage = ev.Message

	case EventSessionCreated, EventSessionInfo:
		u.SessionID = ev.SessionID

	case EventSessionStatus, EventProcessing:
		u.Status = ev.Message
		if ev.SessionID != "" {
			u.SessionID = ev.SessionID
		}

	case EventClarificationQuestion:
		u.Clarification = ev.Message

	default:
		d.logger.Debug("ignoring unrecognized event type",
			"key", key,
			"type", string(ev.Type),
		)
	}

	return u
}

// Supersede discards any in-flight buffer for key ahead of a new question.
// The next streaming chunk for the key starts a clean accumulation.
func (d *Dispatcher) Supersede(key string) {
	d.manager.Supersede(key)
}
