// Package sessiontoken holds the bearer token for the signed-in user.
//
// The token is kept in memory and mirrored to a persistent key-value store
// so that a restarted portal resumes the exact prior session.
package sessiontoken

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"aiga/internal/adapters/storage/keyvalue"
)

// Key is the well-known storage key for the session token.
const Key = "session_token"

// Store is the single source of truth for the session token.
type Store struct {
	mu      sync.RWMutex
	backing keyvalue.Store
	token   string
}

// New creates a Store backed by kv. The in-memory value starts absent
// until Load is called.
func New(kv keyvalue.Store) *Store {
	return &Store{backing: kv}
}

// Load restores the in-memory token from the backing store.
// PRE: none
// POST: Get reflects the persisted value; an unreadable sealed value is removed and treated as absent
func (s *Store) Load(ctx context.Context) error {
	token, err := s.backing.Get(ctx, Key)
	switch {
	case errors.Is(err, keyvalue.ErrNotFound):
		token = ""
	case errors.Is(err, keyvalue.ErrUnsealable):
		slog.Warn("session_token_discarded", "reason", "unsealable")
		if err := s.backing.Delete(ctx, Key); err != nil {
			return fmt.Errorf("discard session token: %w", err)
		}
		token = ""
	case err != nil:
		return fmt.Errorf("load session token: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// Get returns the current token and whether one is present.
func (s *Store) Get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// Set stores token in memory and in the backing store.
// PRE: token is non-empty
// POST: Get returns token; a restart restores token
func (s *Store) Set(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("session token is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backing.Set(ctx, Key, token); err != nil {
		return fmt.Errorf("persist session token: %w", err)
	}
	s.token = token
	return nil
}

// Clear removes the token from memory and the backing store.
// POST: Get reports absent; a restart restores no token
// INVARIANT: The in-memory value is cleared even when the backing delete fails
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	if err := s.backing.Delete(ctx, Key); err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}
	return nil
}
