package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/liuyint/policydesk/internal/model/scenario"
)

var ErrSessionNotFound = errors.New("session not found")

// Handle pairs a session with its public identifier.
type Handle struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participantId"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Manager owns the live sessions created by the HTTP shell. Every
// participant gets an independent session over the shared catalog;
// the shared record log serializes its own appends.
type Manager struct {
	mu       sync.RWMutex
	catalog  *scenario.Catalog
	teammate Teammate
	records  RecordLog
	sessions map[string]*Session
}

// NewManager bootstraps the in-memory session registry.
func NewManager(catalog *scenario.Catalog, teammate Teammate, records RecordLog) *Manager {
	return &Manager{
		catalog:  catalog,
		teammate: teammate,
		records:  records,
		sessions: make(map[string]*Session),
	}
}

// Create provisions a session for the participant and registers it
// under a fresh identifier.
func (m *Manager) Create(participantID string) (Handle, *Session) {
	sess := New(participantID, m.catalog, m.teammate, m.records)
	handle := Handle{
		ID:            uuid.NewString(),
		ParticipantID: sess.ParticipantID(),
		CreatedAt:     time.Now().UTC(),
	}

	m.mu.Lock()
	m.sessions[handle.ID] = sess
	m.mu.Unlock()

	return handle, sess
}

// Get retrieves a session by identifier.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}
