package session

import (
	"context"
	"sync"
)

// MemoryStore is the process-local backend for tests and ephemeral runs. It
// offers no durability across restarts.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]map[string]any
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]map[string]map[string]any{}}
}

func (s *MemoryStore) Get(_ context.Context, userID, sessionID string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[userID][sessionID]
	if !ok {
		return map[string]any{}, nil
	}
	return cloneMap(data), nil
}

func (s *MemoryStore) Set(_ context.Context, userID, sessionID string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions, ok := s.data[userID]
	if !ok {
		sessions = map[string]map[string]any{}
		s.data[userID] = sessions
	}
	sessions[sessionID] = cloneMap(data)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, userID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[userID], sessionID)
	return nil
}

func (s *MemoryStore) ClearAll(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, userID)
	return nil
}

func cloneMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
