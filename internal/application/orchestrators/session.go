package orchestrators

import (
	"context"
	"log/slog"

	"aiga/internal/application/viewstate"
	"aiga/internal/domain/failure"
	"aiga/internal/domain/profile"
	"aiga/internal/domain/view"
)

// SessionTokens is the Session Store as seen by the auth flows.
type SessionTokens interface {
	Get() (string, bool)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// InvalidateSessionDeps holds dependencies for InvalidateSession.
type InvalidateSessionDeps struct {
	Tokens  SessionTokens
	Machine *viewstate.Machine
}

// ExecuteInvalidateSession ends the session after the academy rejected the token.
// PRE: cause is the error that revealed the rejection
// POST: Token is cleared from memory and storage; state is landing
func ExecuteInvalidateSession(ctx context.Context, cause error, deps InvalidateSessionDeps) view.Snapshot {
	if err := deps.Tokens.Clear(ctx); err != nil {
		slog.Error("auth_event", "event", "token_clear_failed", "error", err)
	}
	slog.Info("auth_event", "event", "session_invalidated", "reason", string(failure.KindOf(cause)))
	return deps.Machine.SignOut()
}

// requireUser returns the loaded user once startup has settled.
func requireUser(m *viewstate.Machine) (profile.Profile, error) {
	if err := m.RequireReady(); err != nil {
		return profile.Profile{}, err
	}
	user, ok := m.User()
	if !ok {
		return profile.Profile{}, profile.ErrNoUser
	}
	return user, nil
}

// requireToken returns the stored token or a KindUnauthorized failure.
func requireToken(op string, tokens SessionTokens) (string, error) {
	token, ok := tokens.Get()
	if !ok {
		return "", failure.Unauthorized(op, 0, "no session token")
	}
	return token, nil
}
