// Package client implements the streaming HTTP transport for the tutor
// backend: it sends a question, consumes the SSE response body, and feeds
// parsed events through the chat dispatcher so callers receive render-safe,
// reorder-corrected updates.
//
// A Client is constructed explicitly and carries its own lifecycle; there is
// no package-level singleton. This keeps the stream manager's dependencies
// injectable in tests.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tutorloop/tutorstream/pkg/chat"
	"github.com/tutorloop/tutorstream/pkg/history"
	"github.com/tutorloop/tutorstream/pkg/session"
	"github.com/tutorloop/tutorstream/pkg/sse"
	"github.com/tutorloop/tutorstream/pkg/worker"
)

const streamPath = "/api/v1/chat/stream"

// Config holds client settings.
type Config struct {
	// Target is the tutor backend base URL (scheme + host + port).
	Target string

	// StreamTimeout is the wall-clock cutoff after which a stream with no
	// terminal event is forced closed so the UI can re-enable input. Zero
	// means no cutoff; the buffer and manager have no internal timeout of
	// their own.
	StreamTimeout time.Duration
}

// askRequest is the JSON body sent to the backend's streaming chat endpoint.
type askRequest struct {
	Question       string `json:"question"`
	ConversationID string `json:"conversation_id,omitempty"`
	RequestID      string `json:"request_id"`
}

// Client is a streaming chat client for one tutor backend.
type Client struct {
	config     Config
	httpClient *http.Client
	store      *session.Store
	manager    *chat.Manager
	dispatcher *chat.Dispatcher
	pool       *worker.Pool
	logger     *slog.Logger

	// mu guards streams and serializes every dispatch against stream
	// registration, so a superseded read loop can never deliver a stale
	// event into the fresh buffer.
	mu      sync.Mutex
	streams map[string]*stream
}

// stream identifies one in-flight ask for a conversation key.
type stream struct {
	id     string
	cancel context.CancelFunc
}

// New creates a Client. The session store supplies the auth token and
// persists session ids the backend assigns mid-stream; it may be nil for
// anonymous use. The logger may be nil to discard logging.
func New(config Config, store *session.Store, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	manager := chat.NewManager()

	c := &Client{
		config:  config,
		store:   store,
		manager: manager,
		logger:  logger,
		streams: make(map[string]*stream),
		httpClient: &http.Client{
			// No overall client timeout: streamed bodies stay open as long
			// as the tutor is answering. The per-stream cutoff is applied
			// via context in Ask.
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	c.dispatcher = chat.NewDispatcher(manager, logger)

	return c
}

// Ask sends a question for the given conversation key and returns a channel
// of updates that closes when the stream ends.
//
// Asking again on the same key supersedes any in-flight response: the prior
// stream is canceled, its remaining events are dropped, and a fresh buffer
// accumulates the new answer. Canceling ctx aborts delivery without emitting
// a terminal update; the superseding Ask (or conversation teardown) discards
// the stale buffer.
func (c *Client) Ask(ctx context.Context, conversationKey, question string) (<-chan chat.Update, error) {
	body, err := json.Marshal(askRequest{
		Question:       question,
		ConversationID: conversationKey,
		RequestID:      uuid.NewString(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	var streamCtx context.Context
	var cancel context.CancelFunc
	if c.config.StreamTimeout > 0 {
		streamCtx, cancel = context.WithTimeout(ctx, c.config.StreamTimeout)
	} else {
		streamCtx, cancel = context.WithCancel(ctx)
	}

	// A new question on an in-flight key always starts clean: abort the
	// prior read loop, take its registry slot, and discard its buffer in
	// one critical section so no stale event can slip in between.
	id := uuid.NewString()
	c.mu.Lock()
	if prev := c.streams[conversationKey]; prev != nil {
		prev.cancel()
	}
	c.streams[conversationKey] = &stream{id: id, cancel: cancel}
	c.dispatcher.Supersede(conversationKey)
	c.mu.Unlock()

	httpReq, err := http.NewRequestWithContext(streamCtx, http.MethodPost, c.config.Target+streamPath, bytes.NewReader(body))
	if err != nil {
		c.release(conversationKey, id, cancel)
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	if err := c.authorize(httpReq); err != nil {
		c.release(conversationKey, id, cancel)
		return nil, err
	}

	c.logger.Debug("sending chat request",
		"target", c.config.Target,
		"conversation", conversationKey,
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.release(conversationKey, id, cancel)
		return nil, fmt.Errorf("sending request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		c.release(conversationKey, id, cancel)
		return nil, fmt.Errorf("backend returned status %d: %s", resp.StatusCode, string(respBody))
	}

	updates := make(chan chat.Update, 16)
	go func() {
		defer close(updates)
		defer resp.Body.Close()
		defer c.release(conversationKey, id, cancel)
		c.consume(streamCtx, conversationKey, id, question, resp.Body, updates)
	}()

	return updates, nil
}

// release cancels a stream's context and frees its registry slot, unless a
// superseding Ask already took the slot over.
func (c *Client) release(key, id string, cancel context.CancelFunc) {
	c.mu.Lock()
	if s := c.streams[key]; s != nil && s.id == id {
		delete(c.streams, key)
	}
	c.mu.Unlock()
	cancel()
}

// consume is the read loop: one SSE frame in, at most one Update out.
func (c *Client) consume(ctx context.Context, key, id, question string, body io.Reader, updates chan<- chat.Update) {
	var (
		lastText  string
		sessionID string
	)

	reader := sse.NewReader(body)
	for {
		frame, err := reader.Next()
		if err != nil {
			c.terminate(ctx, key, id, err, updates)
			return
		}
		if frame == nil {
			// Stream ended without a terminal event. The buffer stays
			// registered; supersession or teardown cleans it up.
			return
		}

		ev, err := chat.ParseEvent([]byte(frame.Data))
		if err != nil {
			// Malformed frames are logged and skipped; the stream continues.
			c.logger.Warn("skipping malformed event",
				"conversation", key,
				"error", err,
			)
			continue
		}

		u, ok := c.dispatch(key, id, ev)
		if !ok {
			// Superseded mid-read: a newer Ask owns the key now, so this
			// stream's remaining events must not reach its buffer.
			c.logger.Debug("dropping event from superseded stream",
				"conversation", key,
			)
			return
		}
		if u.SessionID != "" && u.SessionID != sessionID {
			sessionID = u.SessionID
			c.persistSession(sessionID)
		}
		if u.HasText {
			lastText = u.Text
		}

		if !u.Empty() {
			updates <- u
		}

		if u.Done {
			if u.ErrorMessage == "" {
				c.recordTurn(key, sessionID, question, lastText)
			}
			return
		}
	}
}

// dispatch routes one event through the dispatcher while holding the stream
// registry lock. Returns false when the stream no longer owns its key, in
// which case the event was dropped unseen.
func (c *Client) dispatch(key, id string, ev *chat.Event) (chat.Update, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.streams[key]
	if s == nil || s.id != id {
		return chat.Update{}, false
	}
	return c.dispatcher.Dispatch(key, ev), true
}

// owns reports whether the stream still holds its conversation key.
func (c *Client) owns(key, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.streams[key]
	return s != nil && s.id == id
}

// terminate handles a transport-level read failure: a user abort or
// supersession produces no terminal update (the initiator cleans up the
// buffer), while timeouts and network drops surface as a terminal error
// update and discard the buffer.
func (c *Client) terminate(ctx context.Context, key, id string, err error, updates chan<- chat.Update) {
	if !c.owns(key, id) {
		c.logger.Debug("superseded stream ended", "conversation", key)
		return
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		c.logger.Warn("stream cutoff reached", "conversation", key)
		c.manager.Remove(key)
		updates <- chat.Update{
			Key:          key,
			Done:         true,
			ErrorMessage: "the tutor took too long to respond",
		}
		return
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		c.logger.Debug("stream aborted", "conversation", key)
		return
	}

	c.logger.Error("error reading stream",
		"conversation", key,
		"error", err,
	)
	c.manager.Remove(key)
	updates <- chat.Update{
		Key:          key,
		Done:         true,
		ErrorMessage: "connection to the tutor was lost",
	}
}

// authorize attaches the stored bearer token, when one exists.
func (c *Client) authorize(req *http.Request) error {
	if c.store == nil {
		return nil
	}

	token, err := c.store.Token()
	if err != nil {
		return fmt.Errorf("loading auth token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

// persistSession records a backend-assigned session id. Assignment can
// arrive asynchronously mid-stream, so this runs from the read loop.
func (c *Client) persistSession(sessionID string) {
	if c.store == nil {
		return
	}
	if err := c.store.SetConversation(sessionID); err != nil {
		c.logger.Warn("failed to persist session id",
			"session", sessionID,
			"error", err,
		)
	}
}

// recordTurn enqueues the completed turn for async history storage.
func (c *Client) recordTurn(key, sessionID, question, answer string) {
	if c.pool == nil || answer == "" {
		return
	}

	c.pool.Enqueue(worker.Job{
		Turn: &history.Turn{
			ID:             uuid.NewString(),
			ConversationID: key,
			SessionID:      sessionID,
			Question:       question,
			Answer:         answer,
			CreatedAt:      time.Now(),
		},
	})
}

// Forget discards any in-flight buffer for the key, e.g. when the user
// leaves a conversation after aborting a stream.
func (c *Client) Forget(conversationKey string) {
	c.manager.Remove(conversationKey)
}
