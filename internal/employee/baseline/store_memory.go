package baseline

import (
	"context"
	"sync"

	"personnel/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]Entry)}
}

func (s *InMemoryStore) Save(_ context.Context, e Entry) error {
	if err := e.validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.Stage] = e
	return nil
}

func (s *InMemoryStore) Last(_ context.Context, stage string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[stage]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &e, nil
}
