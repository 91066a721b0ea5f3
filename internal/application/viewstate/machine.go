// Package viewstate owns the portal's active screen. A Machine is the only
// thing that changes it; everyone else reads snapshots.
package viewstate

import (
	"errors"
	"sync"

	"aiga/internal/domain/failure"
	"aiga/internal/domain/profile"
	"aiga/internal/domain/view"
)

// ErrNotRegistering is returned when a profile is submitted outside the
// registration screen.
var ErrNotRegistering = errors.New("profile can only be completed from registration")

// Machine holds the active screen and the loaded user.
// INVARIANT: user is non-nil exactly when state is registration or dashboard
type Machine struct {
	mu    sync.RWMutex
	state view.State
	user  *profile.Profile
}

// New returns a Machine in the cold-start loading state.
func New() *Machine {
	return &Machine{state: view.StateLoading}
}

// Snapshot returns a copy of the current state.
// INVARIANT: Later transitions never change a returned snapshot
func (m *Machine) Snapshot() view.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() view.Snapshot {
	snap := view.Snapshot{State: m.state}
	if m.user != nil {
		u := *m.user
		snap.User = &u
	}
	return snap
}

// RequireReady returns failure.ErrNotReady while startup is in progress.
func (m *Machine) RequireReady() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == view.StateLoading {
		return failure.ErrNotReady
	}
	return nil
}

// Begin enters loading for a new credential check.
// POST: State is loading; the loaded user is dropped
func (m *Machine) Begin() view.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = view.StateLoading
	m.user = nil
	return m.snapshotLocked()
}

// Settle ends a credential check.
// PRE: user is non-nil when in.Outcome is view.OutcomeSuccess
// POST: State is view.Resolve(in), with ProfileCompleted taken from user
func (m *Machine) Settle(in view.Inputs, user *profile.Profile) view.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	if in.Outcome == view.OutcomeSuccess && user == nil {
		in.Outcome = view.OutcomeFailure
	}
	if user != nil {
		in.ProfileCompleted = user.ProfileCompleted
	}
	m.state = view.Resolve(in)

	switch m.state {
	case view.StateRegistration, view.StateDashboard:
		u := *user
		m.user = &u
	default:
		m.user = nil
	}
	return m.snapshotLocked()
}

// CompleteProfile merges an accepted submission into the loaded user and
// moves to the dashboard without re-fetching.
// PRE: State is registration
// POST: State is dashboard; user has ProfileCompleted=true
func (m *Machine) CompleteProfile(s profile.Submission) (view.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != view.StateRegistration || m.user == nil {
		return m.snapshotLocked(), ErrNotRegistering
	}
	merged := m.user.Merge(s)
	m.user = &merged
	m.state = view.ForUser(merged)
	return m.snapshotLocked(), nil
}

// SignOut drops the user and shows the landing screen. It is used both
// for an explicit logout and when the academy rejects the token.
// POST: State is landing; no user is loaded
func (m *Machine) SignOut() view.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = view.StateLanding
	m.user = nil
	return m.snapshotLocked()
}

// User returns a copy of the loaded user.
func (m *Machine) User() (profile.Profile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return profile.Profile{}, false
	}
	return *m.user, true
}
