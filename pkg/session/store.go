package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

const (
	stateFileName = "session.json"
	lockFileName  = "session.lock"
	stateVersion  = 1
)

// State is the persisted session record: who the client authenticates as and
// which conversation it resumes into. The streaming chunk buffers themselves
// are never persisted; they are request-scoped, in-memory state.
type State struct {
	Version        int       `json:"version"`
	AuthToken      string    `json:"auth_token,omitempty"`
	ConversationID string    `json:"conversation_id,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Store reads and writes session state in the .tutorstream/ directory.
type Store struct {
	Dir       string
	StatePath string
	LockPath  string
}

// Lock holds an exclusive flock on the session lock file while state is
// being read-modified-written.
type Lock struct {
	file *os.File
}

// NewStore resolves the dot directory (see Target) and returns a Store over
// it.
func NewStore(configDir string) (*Store, error) {
	dir, err := Target(configDir)
	if err != nil {
		return nil, err
	}

	return &Store{
		Dir:       dir,
		StatePath: filepath.Join(dir, stateFileName),
		LockPath:  filepath.Join(dir, lockFileName),
	}, nil
}

// Lock takes an exclusive advisory lock over the session state. Concurrent
// tutor CLI invocations serialize on it.
func (s *Store) Lock() (*Lock, error) {
	file, err := os.OpenFile(s.LockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX); err != nil {
		file.Close()
		return nil, fmt.Errorf("locking session file: %w", err)
	}

	return &Lock{file: file}, nil
}

// Release drops the lock. Safe to call on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		_ = l.file.Close()
		return fmt.Errorf("unlocking session file: %w", err)
	}
	return l.file.Close()
}

// Load reads the persisted session state. Returns nil, nil when no state
// has been saved yet.
func (s *Store) Load() (*State, error) {
	data, err := os.ReadFile(s.StatePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session state: %w", err)
	}

	state := &State{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing session state: %w", err)
	}

	return state, nil
}

// Save persists the session state atomically (write to temp file, rename
// into place).
func (s *Store) Save(state *State) error {
	if state == nil {
		return errors.New("cannot save nil state")
	}
	if state.Version == 0 {
		state.Version = stateVersion
	}
	state.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session state: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.Dir, "session-state-*.json")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}

	if err := tmpFile.Chmod(0o600); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpFile.Name())
		return fmt.Errorf("chmod temp state file: %w", err)
	}

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpFile.Name())
		return fmt.Errorf("writing temp state file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpFile.Name())
		return fmt.Errorf("closing temp state file: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), s.StatePath); err != nil {
		_ = os.Remove(tmpFile.Name())
		return fmt.Errorf("persisting state file: %w", err)
	}

	return nil
}

// SetConversation records the active conversation id, preserving the rest of
// the state.
func (s *Store) SetConversation(conversationID string) error {
	lock, err := s.Lock()
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	state, err := s.Load()
	if err != nil {
		return err
	}
	if state == nil {
		state = &State{}
	}

	state.ConversationID = conversationID
	return s.Save(state)
}

// Token returns the stored auth token, or empty when not logged in.
func (s *Store) Token() (string, error) {
	state, err := s.Load()
	if err != nil {
		return "", err
	}
	if state == nil {
		return "", nil
	}
	return state.AuthToken, nil
}

// Clear removes the persisted session state (logout).
func (s *Store) Clear() error {
	if err := os.Remove(s.StatePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing session state: %w", err)
	}
	return nil
}
