// Package session stores client sessions. Sessions are short-lived and bound
// to their access token, so an in-memory store is the only implementation;
// restarting the process invalidates tokens, which is acceptable for this
// service.
package session

import (
	"context"
	"sync"

	"tally/internal/auth/models"
	id "tally/pkg/domain"
	"tally/pkg/platform/sentinel"
)

var ErrNotFound = sentinel.ErrNotFound

type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]*models.Session
}

func New() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[id.SessionID]*models.Session)}
}

func (s *InMemorySessionStore) Create(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *session
	s.sessions[session.ID] = &clone
	return nil
}

func (s *InMemorySessionStore) FindByID(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if session, ok := s.sessions[sessionID]; ok {
		clone := *session
		return &clone, nil
	}
	return nil, ErrNotFound
}

// Execute runs validate then mutate on the session under the store lock.
func (s *InMemorySessionStore) Execute(_ context.Context, sessionID id.SessionID,
	validate func(*models.Session) error,
	mutate func(*models.Session)) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	working := *stored
	if err := validate(&working); err != nil {
		return nil, err
	}
	mutate(&working)
	s.sessions[sessionID] = &working
	clone := working
	return &clone, nil
}

func (s *InMemorySessionStore) ListByUser(_ context.Context, userID id.UserID) ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sessions []*models.Session
	for _, session := range s.sessions {
		if session.UserID == userID {
			clone := *session
			sessions = append(sessions, &clone)
		}
	}
	return sessions, nil
}
