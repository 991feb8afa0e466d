package track

import (
	"errors"
	"sync"

	"github.com/stridelab/pacequest/internal/model"
)

var (
	ErrSessionExists = errors.New("an active session already exists")
	ErrNoSession     = errors.New("no active session")
	ErrBadActivity   = errors.New("unknown activity type")
)

// Manager holds at most one active recorder per user. Discarding a session
// simply drops the in-memory recorder; nothing has been persisted, so there
// is nothing to compensate.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Recorder
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Recorder)}
}

// Start creates a recorder for the user. A user can only track one session
// at a time.
func (m *Manager) Start(userID string, activityType model.ActivityType) (*Recorder, error) {
	if !activityType.Valid() {
		return nil, ErrBadActivity
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[userID]; ok {
		return nil, ErrSessionExists
	}
	r := NewRecorder(activityType)
	m.sessions[userID] = r
	return r, nil
}

// Get returns the user's active recorder.
func (m *Manager) Get(userID string) (*Recorder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.sessions[userID]
	if !ok {
		return nil, ErrNoSession
	}
	return r, nil
}

// Stop finishes the user's session and removes it from the manager,
// returning the final snapshot for the award flow.
func (m *Manager) Stop(userID string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.sessions[userID]
	if !ok {
		return Snapshot{}, ErrNoSession
	}
	delete(m.sessions, userID)
	return r.Stop(), nil
}

// Discard drops the user's session without producing a snapshot.
func (m *Manager) Discard(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[userID]; !ok {
		return ErrNoSession
	}
	delete(m.sessions, userID)
	return nil
}
