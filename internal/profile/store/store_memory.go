package store

import (
	"context"
	"sync"

	"donorhub/internal/profile/models"
	id "donorhub/pkg/domain"
)

// MemoryStore keeps profiles in a map. It backs unit tests and local
// development; it intentionally favors clarity over performance.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[id.UserID]*models.Profile
	closed   bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[id.UserID]*models.Profile)}
}

func (s *MemoryStore) FindByID(_ context.Context, userID id.UserID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.profiles[userID]; ok {
		return p.Clone(), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) Create(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[profile.ID]; ok {
		return ErrAlreadyExists
	}
	s.profiles[profile.ID] = profile.Clone()
	return nil
}

func (s *MemoryStore) Update(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[profile.ID]; !ok {
		return ErrNotFound
	}
	s.profiles[profile.ID] = profile.Clone()
	return nil
}

func (s *MemoryStore) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close has been called; used by shutdown tests.
func (s *MemoryStore) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
