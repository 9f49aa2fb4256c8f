package store

import (
	"context"
	"sync"

	"tally/internal/settings/models"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	settings models.Settings
	seeded   bool
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Get(_ context.Context) (models.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.seeded {
		return models.Settings{}, ErrNotFound
	}
	return s.settings, nil
}

func (s *InMemoryStore) SeedIfEmpty(_ context.Context, settings models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seeded {
		return nil
	}
	s.settings = settings
	s.seeded = true
	return nil
}

func (s *InMemoryStore) ReplaceIfVersion(_ context.Context, settings models.Settings, expected int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.seeded {
		return ErrNotFound
	}
	if s.settings.Version != expected {
		return ErrConflict
	}
	s.settings = settings
	return nil
}
