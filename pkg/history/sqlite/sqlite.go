// Package sqlite provides a SQLite-backed history driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tutorloop/tutorstream/pkg/history"
)

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL,
	session_id      TEXT NOT NULL DEFAULT '',
	question        TEXT NOT NULL,
	answer          TEXT NOT NULL,
	created_at      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_conversation ON turns (conversation_id, created_at);
`

// Driver implements history.Driver using SQLite via database/sql.
type Driver struct {
	db *sql.DB
}

// NewDriver creates a new SQLite-backed history driver.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewDriver(dbPath string) (*Driver, error) {
	// Open the database using the github.com/mattn/go-sqlite3 driver
	// (registered as "sqlite3").
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite-specific pragmas
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Append-only schema migration on open.
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Driver{db: db}, nil
}

// Put stores a turn. Storing a turn with an existing ID overwrites it.
func (d *Driver) Put(ctx context.Context, turn *history.Turn) error {
	if turn == nil {
		return errors.New("cannot store nil turn")
	}
	if turn.ID == "" {
		return errors.New("cannot store turn with empty ID")
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO turns (id, conversation_id, session_id, question, answer, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			conversation_id = excluded.conversation_id,
			session_id      = excluded.session_id,
			question        = excluded.question,
			answer          = excluded.answer,
			created_at      = excluded.created_at`,
		turn.ID, turn.ConversationID, turn.SessionID, turn.Question, turn.Answer, turn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("storing turn: %w", err)
	}

	return nil
}

// Get retrieves a turn by its ID.
func (d *Driver) Get(ctx context.Context, id string) (*history.Turn, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, conversation_id, session_id, question, answer, created_at
		FROM turns WHERE id = ?`, id)

	turn, err := scanTurn(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, history.NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("getting turn: %w", err)
	}

	return turn, nil
}

// List returns all turns, newest first.
func (d *Driver) List(ctx context.Context) ([]*history.Turn, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, conversation_id, session_id, question, answer, created_at
		FROM turns ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing turns: %w", err)
	}
	defer rows.Close()

	return collectTurns(rows)
}

// Conversation returns all turns for a conversation, oldest first.
func (d *Driver) Conversation(ctx context.Context, conversationID string) ([]*history.Turn, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, conversation_id, session_id, question, answer, created_at
		FROM turns WHERE conversation_id = ? ORDER BY created_at ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("listing conversation turns: %w", err)
	}
	defer rows.Close()

	return collectTurns(rows)
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.db.Close()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTurn(row scannable) (*history.Turn, error) {
	var turn history.Turn
	err := row.Scan(
		&turn.ID,
		&turn.ConversationID,
		&turn.SessionID,
		&turn.Question,
		&turn.Answer,
		&turn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &turn, nil
}

func collectTurns(rows *sql.Rows) ([]*history.Turn, error) {
	var turns []*history.Turn
	for rows.Next() {
		turn, err := scanTurn(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}
	return turns, nil
}
