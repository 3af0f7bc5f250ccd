package conversation

import (
	"sync"

	"github.com/imagechat/imagechat/internal/lightbox"
)

// Session holds all per-browser state: the transcript and the lightbox.
type Session struct {
	Transcript *Transcript
	Lightbox   *lightbox.State
}

// newSession creates a session with an empty transcript and a closed
// lightbox.
func newSession() *Session {
	return &Session{
		Transcript: NewTranscript(),
		Lightbox:   lightbox.NewState(),
	}
}

// Manager provides thread-safe session isolation. Each browser session
// gets its own transcript, busy flag, and lightbox. Sessions are never
// cleaned up; they die with the process, like the page state they
// stand in for.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for the given ID, creating it if needed.
func (m *Manager) Get(sessionID string) *Session {
	// Fast path: read lock for existing sessions.
	m.mu.RLock()
	s, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check: another goroutine may have created it between the
	// two lock acquisitions.
	if s, ok := m.sessions[sessionID]; ok {
		return s
	}

	s = newSession()
	m.sessions[sessionID] = s
	return s
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
