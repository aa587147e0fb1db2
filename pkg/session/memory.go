// Package session contains the stores for login challenges and sessions
package session // import "github.com/w3licence/licence-gateway/pkg/session"

import (
	"context"
	"sync"
	"time"

	"github.com/w3licence/licence-gateway/pkg/model"
)

// NewMemoryStore returns a MemoryStore using the wall clock
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:        time.Now,
		sessions:   map[string]*model.Session{},
		challenges: map[string]*model.LoginChallenge{},
	}
}

// MemoryStore implements model.SessionStore and model.ChallengeStore in
// process memory. Expired entries are dropped lazily on access and by Sweep.
type MemoryStore struct {
	now        func() time.Time
	mutex      sync.RWMutex
	sessions   map[string]*model.Session
	challenges map[string]*model.LoginChallenge
}

// SetClock replaces the clock used to check expiry
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.now = now
}

// SaveSession implements model.SessionStore
func (m *MemoryStore) SaveSession(ctx context.Context, session *model.Session) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

// Session implements model.SessionStore
func (m *MemoryStore) Session(ctx context.Context, id string) (*model.Session, error) {
	m.mutex.RLock()
	session, ok := m.sessions[id]
	now := m.now()
	m.mutex.RUnlock()
	if !ok {
		return nil, model.ErrPersisterNoResults
	}
	if session.Expired(now) {
		_ = m.DeleteSession(ctx, id) // nolint: errcheck
		return nil, model.ErrPersisterNoResults
	}
	copied := *session
	return &copied, nil
}

// DeleteSession implements model.SessionStore
func (m *MemoryStore) DeleteSession(ctx context.Context, id string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, id)
	return nil
}

// SaveChallenge implements model.ChallengeStore
func (m *MemoryStore) SaveChallenge(ctx context.Context, challenge *model.LoginChallenge) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	copied := *challenge
	m.challenges[challenge.Nonce] = &copied
	return nil
}

// ConsumeChallenge implements model.ChallengeStore
func (m *MemoryStore) ConsumeChallenge(ctx context.Context, nonce string) (*model.LoginChallenge, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	challenge, ok := m.challenges[nonce]
	if !ok {
		return nil, model.ErrPersisterNoResults
	}
	delete(m.challenges, nonce)
	if challenge.Expired(m.now()) {
		return nil, model.ErrPersisterNoResults
	}
	return challenge, nil
}

// Sweep drops expired sessions and challenges and returns how many were removed
func (m *MemoryStore) Sweep() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	now := m.now()
	removed := 0
	for id, session := range m.sessions {
		if session.Expired(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	for nonce, challenge := range m.challenges {
		if challenge.Expired(now) {
			delete(m.challenges, nonce)
			removed++
		}
	}
	return removed
}
