package identity

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory partition store useful for tests.
// It is not intended for production use.
type MemoryStore struct {
	mu        sync.Mutex
	partition Partition
	byUser    map[string]Account
	byID      map[string]Account
}

func NewMemoryStore(p Partition) *MemoryStore {
	return &MemoryStore{
		partition: p,
		byUser:    make(map[string]Account),
		byID:      make(map[string]Account),
	}
}

func (s *MemoryStore) Partition() Partition { return s.partition }

func (s *MemoryStore) FindByUsername(ctx context.Context, username string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byUser[username]
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

func (s *MemoryStore) Create(ctx context.Context, a Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byUser[a.Username]; exists {
		return ErrUsernameTaken
	}
	a.Partition = s.partition
	if len(a.Roles) == 0 {
		a.Roles = []string{s.partition.Role()}
	}
	s.byUser[a.Username] = a
	s.byID[a.ID] = a
	return nil
}
