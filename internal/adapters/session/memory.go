package session

import (
	"context"
	"sync"

	"cryptoJournal/internal/domain"
	"cryptoJournal/internal/ports"
)

// MemoryStore keeps sessions in process memory. Sessions are lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	clock    ports.Clock
}

var _ ports.SessionStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store. A nil clock uses the wall clock.
func NewMemoryStore(clock ports.Clock) *MemoryStore {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &MemoryStore{sessions: make(map[string]domain.Session), clock: clock}
}

func (s *MemoryStore) Save(ctx context.Context, session *domain.Session) error {
	if !session.ExpiresAt.After(s.clock.Now()) {
		return ErrSessionExpired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = *session
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !session.ExpiresAt.After(s.clock.Now()) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, nil
	}
	return &session, nil
}

func (s *MemoryStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *MemoryStore) DeleteByUserID(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, token)
		}
	}
	return nil
}

// Len reports the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
