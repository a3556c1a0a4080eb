package audit

import (
	"context"
	"sync"

	id "donorhub/pkg/domain"
)

// Store is an append-only event sink with per-user retrieval.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
	Close(ctx context.Context) error
}

// MemoryStore keeps events in memory. Used in tests and when Postgres is not
// configured.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.UserID == userID.String() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }

// All returns every stored event. Test helper.
func (s *MemoryStore) All() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
