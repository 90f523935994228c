package ctxstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a plain in-process map. No TTL or eviction; entries live
// until cleared.
type MemoryStore struct {
	mu       sync.RWMutex
	contexts map[uuid.UUID]Context
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		contexts: make(map[uuid.UUID]Context),
	}
}

func (s *MemoryStore) Get(_ context.Context, conversationID uuid.UUID) (Context, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.contexts[conversationID]
	if !ok {
		return nil, false, nil
	}

	// Hand out a copy so callers cannot mutate stored state in place.
	copied := make(Context, len(value))
	for key, item := range value {
		copied[key] = item
	}

	return copied, true, nil
}

func (s *MemoryStore) Put(_ context.Context, conversationID uuid.UUID, value Context) error {
	copied := make(Context, len(value))
	for key, item := range value {
		copied[key] = item
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.contexts[conversationID] = copied

	return nil
}

func (s *MemoryStore) Clear(_ context.Context, conversationID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contexts[conversationID]; !ok {
		return false, nil
	}

	delete(s.contexts, conversationID)

	return true, nil
}
