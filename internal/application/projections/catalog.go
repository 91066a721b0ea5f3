package projections

import (
	"sync"

	"aiga/internal/domain/training"
)

// SessionCatalog remembers the most recent session listing so that user
// actions can be checked against what was last shown.
type SessionCatalog struct {
	mu       sync.RWMutex
	sessions []training.Session
}

// NewSessionCatalog returns an empty catalog.
func NewSessionCatalog() *SessionCatalog {
	return &SessionCatalog{}
}

// Replace swaps in a fresh listing.
// POST: Lookup only finds sessions from this listing
func (c *SessionCatalog) Replace(sessions []training.Session) {
	next := make([]training.Session, len(sessions))
	copy(next, sessions)
	c.mu.Lock()
	c.sessions = next
	c.mu.Unlock()
}

// Lookup returns the last listed state of a session.
func (c *SessionCatalog) Lookup(sessionID string) (training.Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return training.Find(c.sessions, sessionID)
}
