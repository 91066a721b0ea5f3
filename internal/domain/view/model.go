// Package view holds the portal's screen states and the pure function that
// picks the active screen from what is known about the session.
package view

import "aiga/internal/domain/profile"

// State is the active screen.
type State string

// Screen states
const (
	StateLoading      State = "loading"
	StateLanding      State = "landing"
	StateRegistration State = "registration"
	StateDashboard    State = "dashboard"
)

// Outcome is the result of the credential check run at startup: a profile
// fetch when a token is stored, otherwise a code exchange.
type Outcome int

const (
	// OutcomePending means the check has not finished (or not started).
	OutcomePending Outcome = iota
	// OutcomeSuccess means a user was obtained.
	OutcomeSuccess
	// OutcomeFailure means the check failed for any reason.
	OutcomeFailure
)

// Inputs is everything the screen depends on.
type Inputs struct {
	TokenPresent     bool
	CodePresent      bool
	Outcome          Outcome
	ProfileCompleted bool
}

// Resolve returns the screen for the given inputs.
// A stored token takes precedence over a fragment code; with neither the
// visitor is anonymous and no outcome is consulted.
// INVARIANT: Resolve is total and has no side effects
func Resolve(in Inputs) State {
	if !in.TokenPresent && !in.CodePresent {
		return StateLanding
	}
	switch in.Outcome {
	case OutcomeSuccess:
		if in.ProfileCompleted {
			return StateDashboard
		}
		return StateRegistration
	case OutcomeFailure:
		return StateLanding
	default:
		return StateLoading
	}
}

// ForUser returns the screen for an authenticated user.
func ForUser(p profile.Profile) State {
	if p.ProfileCompleted {
		return StateDashboard
	}
	return StateRegistration
}

// Snapshot is a read-only copy of the view state handed to renderers.
type Snapshot struct {
	State State
	User  *profile.Profile // nil unless authenticated
}

// Authenticated reports whether a user is known.
func (s Snapshot) Authenticated() bool {
	return s.User != nil
}

// IsTerminal reports whether startup has settled.
func (s Snapshot) IsTerminal() bool {
	return s.State != StateLoading
}
