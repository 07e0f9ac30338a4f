package replay

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tutorloop/tutorstream/pkg/chat"
)

// Config holds replay server configuration.
type Config struct {
	// ListenAddr is the address the server listens on, e.g. ":8085".
	ListenAddr string

	// Shuffle delivers streaming chunks out of order so clients can be
	// exercised against late and early arrivals.
	Shuffle bool
}

// Server serves the tutor streaming-chat protocol from a Script.
type Server struct {
	config Config
	script *Script
	logger *slog.Logger
	app    *fiber.App

	mu    sync.Mutex
	asked int
}

type askRequest struct {
	Question       string `json:"question"`
	ConversationID string `json:"conversation_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
}

// NewServer creates a replay server for the given script. A nil script uses
// the built-in demo transcript.
func NewServer(config Config, script *Script, logger *slog.Logger) *Server {
	if script == nil {
		script = DemoScript()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		script: script,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/api/v1/chat/stream", s.handleStream)

	return s
}

// Run starts the replay server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting replay server",
		"listen", s.config.ListenAddr,
		"answers", len(s.script.Answers),
		"shuffle", s.config.Shuffle,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the replay server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying fiber app for in-process testing.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleStream(c *fiber.Ctx) error {
	var req askRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "question is required",
		})
	}

	answer := s.nextAnswer()
	sessionID := req.ConversationID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	s.logger.Debug("replaying answer",
		"session_id", sessionID,
		"question", req.Question,
	)

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	body, err := s.transcript(sessionID, answer)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "building transcript",
		})
	}
	return c.SendString(body)
}

// nextAnswer cycles through the script's answers across requests.
func (s *Server) nextAnswer() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	answer := s.script.Answers[s.asked%len(s.script.Answers)]
	s.asked++
	return answer
}

// transcript renders a full SSE exchange for one answer: session_created,
// processing, the streamed chunks and a terminal complete carrying the
// full response.
func (s *Server) transcript(sessionID, answer string) (string, error) {
	chunks := s.script.chunks(answer)

	events := []chat.Event{
		{Type: chat.EventSessionCreated, SessionID: sessionID},
		{Type: chat.EventProcessing, SessionID: sessionID, Message: "thinking"},
	}

	order := make([]int, len(chunks))
	for i := range order {
		order[i] = i
	}
	if s.config.Shuffle {
		rand.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	for _, i := range order {
		events = append(events, chat.Event{
			Type:       chat.EventStreamingChunk,
			SessionID:  sessionID,
			ChunkIndex: i,
			Content:    chunks[i],
			IsFinal:    i == len(chunks)-1,
		})
	}

	events = append(events, chat.Event{
		Type:         chat.EventAnswerComplete,
		SessionID:    sessionID,
		FullResponse: answer,
	})

	var body string
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return "", fmt.Errorf("encoding event: %w", err)
		}
		body += fmt.Sprintf("data: %s\n\n", data)
	}
	return body, nil
}
