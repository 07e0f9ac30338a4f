package chat

import "sync"

// Manager owns one StreamBuffer per active conversation key and routes
// buffer lifecycle: lazy creation on first use, removal on completion or
// error, and unconditional replacement when a new question supersedes an
// in-flight response.
//
// Buffers for different keys are fully independent. The key→buffer map is
// guarded by a mutex so transports may run read loops for different
// conversations on separate goroutines.
type Manager struct {
	mu      sync.Mutex
	buffers map[string]*StreamBuffer
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{
		buffers: make(map[string]*StreamBuffer),
	}
}

// Buffer returns the buffer for key, creating and registering a fresh one if
// none exists.
func (m *Manager) Buffer(key string) *StreamBuffer {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buffers[key]
	if !ok {
		b = NewStreamBuffer()
		m.buffers[key] = b
	}
	return b
}

// Remove discards the buffer for key. Removing a nonexistent key is a no-op,
// not an error — stale or duplicate terminal events are expected traffic.
func (m *Manager) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.buffers, key)
}

// Supersede discards any in-flight buffer for key and registers a fresh one,
// returning it. There is no attempt to reconcile the abandoned stream's
// partial output into the new buffer.
func (m *Manager) Supersede(key string) *StreamBuffer {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := NewStreamBuffer()
	m.buffers[key] = b
	return b
}

// Active returns the number of registered buffers.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.buffers)
}
