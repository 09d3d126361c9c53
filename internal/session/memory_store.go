package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string]memoryRecord
}

type memoryRecord struct {
	userID string
	exp    time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]memoryRecord)}
}

func (s *MemoryStore) Set(_ context.Context, token, userID string, ttl time.Duration) error {
	s.mu.Lock()
	s.m[token] = memoryRecord{userID: userID, exp: time.Now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (string, bool, error) {
	s.mu.RLock()
	rec, ok := s.m[token]
	s.mu.RUnlock()

	if !ok {
		return "", false, nil
	}

	// lazily expire, same signal as an unknown token
	if time.Now().After(rec.exp) {
		s.mu.Lock()
		delete(s.m, token)
		s.mu.Unlock()
		return "", false, nil
	}

	return rec.userID, true, nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.m, token)
	s.mu.Unlock()
	return nil
}
