// Package session owns the process-wide bearer-token slot. The store is
// constructed once and injected; callers never reach for ad hoc globals.
//
// Lifecycle: Save on successful authentication, Read on every
// authenticated request, Clear on logout or when the server reports the
// token dead. No expiry timer runs locally; expiry is discovered
// reactively through 401 responses.
package session

import (
	"context"
	"sync"
)

// Store is the token slot. Read is side-effect-free and must be safe to
// call before any backend is available: it returns "" instead of failing.
type Store interface {
	Save(ctx context.Context, token string) error
	Read(ctx context.Context) string
	Clear(ctx context.Context) error
}

// MemoryStore keeps the token in process memory. Used by tests and
// ephemeral runs where survival across restarts does not matter.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryStore) Read(_ context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
