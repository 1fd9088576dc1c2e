package state

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store for tests and ephemeral runs.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]Record{}}
}

func (s *MemoryStore) Load(_ context.Context, userID string) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.data[userID]
	if !ok {
		return Record{}, false, nil
	}
	return cloneRecord(rec), true, nil
}

func (s *MemoryStore) Save(_ context.Context, userID string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[userID] = cloneRecord(rec)
	return nil
}

func cloneRecord(rec Record) Record {
	out := Record{Label: rec.Label}
	if rec.Scratch != nil {
		out.Scratch = make(map[string]any, len(rec.Scratch))
		for k, v := range rec.Scratch {
			out.Scratch[k] = v
		}
	}
	return out
}
