package orchestrators

import (
	"context"
	"fmt"
	"log/slog"

	"aiga/internal/application/viewstate"
	"aiga/internal/domain/view"
)

// LogoutDeps holds dependencies for Logout.
type LogoutDeps struct {
	Tokens  SessionTokens
	Machine *viewstate.Machine
}

// ExecuteLogout signs the user out.
// PRE: Startup has settled
// POST: State is landing and no user is loaded, even when clearing storage fails
func ExecuteLogout(ctx context.Context, deps LogoutDeps) (view.Snapshot, error) {
	if err := deps.Machine.RequireReady(); err != nil {
		return deps.Machine.Snapshot(), err
	}

	clearErr := deps.Tokens.Clear(ctx)
	snap := deps.Machine.SignOut()
	slog.Info("auth_event", "event", "logout")
	if clearErr != nil {
		return snap, fmt.Errorf("clear session token: %w", clearErr)
	}
	return snap, nil
}
