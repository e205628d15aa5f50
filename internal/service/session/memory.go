package session

import (
	"context"
	"sync"

	"marketpulse/internal/domain/models"
)

// MemoryStore holds the credential in process memory only.
type MemoryStore struct {
	mu   sync.Mutex
	cred models.Credential
	set  bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (models.Credential, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred, s.set, nil
}

func (s *MemoryStore) Save(_ context.Context, cred models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = cred
	s.set = true
	return nil
}
