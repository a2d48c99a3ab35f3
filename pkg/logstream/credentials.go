package logstream

import (
	"context"
	"sync"
)

// CredentialStore keeps connection secrets keyed by connection id.
type CredentialStore interface {
	// LoadSecret returns the secret and whether one was stored.
	LoadSecret(ctx context.Context, id string) (string, bool, error)
	SaveSecret(ctx context.Context, id, secret string) error
	// DeleteSecret succeeds when nothing is stored.
	DeleteSecret(ctx context.Context, id string) error
}

// MemoryCredentialStore is a process-local CredentialStore.
type MemoryCredentialStore struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// NewMemoryCredentialStore returns an empty store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{secrets: make(map[string]string)}
}

func (s *MemoryCredentialStore) LoadSecret(ctx context.Context, id string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	secret, ok := s.secrets[id]

	return secret, ok, nil
}

func (s *MemoryCredentialStore) SaveSecret(ctx context.Context, id, secret string) error {
	s.mu.Lock()
	s.secrets[id] = secret
	s.mu.Unlock()

	return nil
}

func (s *MemoryCredentialStore) DeleteSecret(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.secrets, id)
	s.mu.Unlock()

	return nil
}

// StaticCredentials serves one fixed secret for every id. Handy for scripts
// that already hold the password.
type StaticCredentials string

func (s StaticCredentials) LoadSecret(ctx context.Context, id string) (string, bool, error) {
	return string(s), true, nil
}

func (s StaticCredentials) SaveSecret(ctx context.Context, id, secret string) error {
	return nil
}

func (s StaticCredentials) DeleteSecret(ctx context.Context, id string) error {
	return nil
}
