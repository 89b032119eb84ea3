package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memSession struct {
	userID    uuid.UUID
	expiresAt time.Time
	hasTTL    bool
}

func (e memSession) isExpired(now time.Time) bool {
	return e.hasTTL && now.After(e.expiresAt)
}

type memorySessionStore struct {
	mu      sync.RWMutex
	entries map[string]memSession
	now     func() time.Time
}

func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{
		entries: make(map[string]memSession),
		now:     time.Now,
	}
}

func (s *memorySessionStore) Remember(_ context.Context, jti string, userID uuid.UUID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memSession{userID: userID}
	if ttl > 0 {
		entry.hasTTL = true
		entry.expiresAt = s.now().Add(ttl)
	}
	s.entries[sessionKey(jti)] = entry
	return nil
}

func (s *memorySessionStore) Lookup(_ context.Context, jti string) (uuid.UUID, bool, error) {
	key := sessionKey(jti)

	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return uuid.Nil, false, nil
	}
	if entry.isExpired(s.now()) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return uuid.Nil, false, nil
	}
	return entry.userID, true, nil
}

func (s *memorySessionStore) Forget(_ context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionKey(jti))
	return nil
}
