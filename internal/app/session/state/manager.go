package state

import (
	"sync"
	"time"
)

// Manager manages session state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	// Session identity
	sessionID string
	startedAt time.Time

	// Catalog
	phase      Phase
	source     string
	trackCount int
	failure    string
}

// New creates a new state manager.
func New(sessionID string) *Manager {
	return &Manager{
		sessionID: sessionID,
		startedAt: time.Now(),
		phase:     PhaseLoading,
	}
}

// GetPhase returns the current phase.
func (m *Manager) GetPhase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// GetSessionID returns the session ID.
func (m *Manager) GetSessionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionID
}

// StartedAt returns when the session was created.
func (m *Manager) StartedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.startedAt
}

// SetLoading records a catalog fetch from source.
func (m *Manager) SetLoading(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = PhaseLoading
	m.source = source
	m.trackCount = 0
	m.failure = ""
}

// SetLoaded records a successful load. An empty catalog moves to PhaseEmpty.
func (m *Manager) SetLoaded(trackCount int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trackCount = trackCount
	m.failure = ""
	if trackCount == 0 {
		m.phase = PhaseEmpty
		return
	}
	m.phase = PhaseReady
}

// SetFailed records a failed load.
func (m *Manager) SetFailed(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = PhaseFailed
	m.trackCount = 0
	m.failure = message
}

// CanPlay returns true if the catalog has tracks to play.
func (m *Manager) CanPlay() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase == PhaseReady
}

// Info returns a copy of the session state.
func (m *Manager) Info() Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Info{
		SessionID:  m.sessionID,
		Phase:      m.phase,
		Source:     m.source,
		TrackCount: m.trackCount,
		Failure:    m.failure,
	}
}
