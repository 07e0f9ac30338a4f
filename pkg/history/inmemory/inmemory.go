// Package inmemory provides an in-memory history driver used by tests and
// the replay server.
package inmemory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/tutorloop/tutorstream/pkg/history"
)

// Driver implements history.Driver using an in-memory map.
type Driver struct {
	mu sync.RWMutex

	// turns maps turn ID to the stored record.
	turns map[string]*history.Turn
}

// NewDriver creates a new in-memory history driver.
func NewDriver() *Driver {
	return &Driver{
		turns: make(map[string]*history.Turn),
	}
}

// Put stores a turn, overwriting any existing record with the same ID.
func (d *Driver) Put(_ context.Context, turn *history.Turn) error {
	if turn == nil {
		return errors.New("cannot store nil turn")
	}
	if turn.ID == "" {
		return errors.New("cannot store turn with empty ID")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	copied := *turn
	d.turns[turn.ID] = &copied
	return nil
}

// Get retrieves a turn by its ID.
func (d *Driver) Get(_ context.Context, id string) (*history.Turn, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	turn, ok := d.turns[id]
	if !ok {
		return nil, history.NotFoundError{ID: id}
	}

	copied := *turn
	return &copied, nil
}

// List returns all turns, newest first.
func (d *Driver) List(_ context.Context) ([]*history.Turn, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	turns := make([]*history.Turn, 0, len(d.turns))
	for _, t := range d.turns {
		copied := *t
		turns = append(turns, &copied)
	}

	sort.Slice(turns, func(i, j int) bool {
		return turns[i].CreatedAt.After(turns[j].CreatedAt)
	})

	return turns, nil
}

// Conversation returns all turns for a conversation, oldest first.
func (d *Driver) Conversation(_ context.Context, conversationID string) ([]*history.Turn, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var turns []*history.Turn
	for _, t := range d.turns {
		if t.ConversationID == conversationID {
			copied := *t
			turns = append(turns, &copied)
		}
	}

	sort.Slice(turns, func(i, j int) bool {
		return turns[i].CreatedAt.Before(turns[j].CreatedAt)
	})

	return turns, nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}
