package orchestrators

import (
	"context"
	"log/slog"

	"aiga/internal/application/viewstate"
	"aiga/internal/domain/failure"
	"aiga/internal/domain/profile"
	"aiga/internal/domain/view"
)

// ProfileSubmitter sends the registration form to the academy.
type ProfileSubmitter interface {
	CompleteProfile(ctx context.Context, token string, s profile.Submission) error
}

// CompleteProfileInput carries the raw registration form.
type CompleteProfileInput struct {
	Form profile.Form
}

// CompleteProfileDeps holds dependencies for CompleteProfile.
type CompleteProfileDeps struct {
	Tokens    SessionTokens
	Submitter ProfileSubmitter
	Machine   *viewstate.Machine
}

// ExecuteCompleteProfile validates and submits the registration form.
// PRE: State is registration
// POST: On success state is dashboard with the submitted fields merged, without re-fetch
// POST: On a rejected token the session is cleared and state is landing
// INVARIANT: Malformed input never reaches the academy
func ExecuteCompleteProfile(ctx context.Context, input CompleteProfileInput, deps CompleteProfileDeps) (view.Snapshot, error) {
	if err := deps.Machine.RequireReady(); err != nil {
		return deps.Machine.Snapshot(), err
	}
	if snap := deps.Machine.Snapshot(); snap.State != view.StateRegistration {
		return snap, viewstate.ErrNotRegistering
	}

	submission, err := profile.ParseForm(input.Form)
	if err != nil {
		return deps.Machine.Snapshot(), err
	}

	token, err := requireToken("complete_profile", deps.Tokens)
	if err != nil {
		return ExecuteInvalidateSession(ctx, err, InvalidateSessionDeps{Tokens: deps.Tokens, Machine: deps.Machine}), err
	}

	if err := deps.Submitter.CompleteProfile(ctx, token, submission); err != nil {
		if failure.IsUnauthorized(err) {
			return ExecuteInvalidateSession(ctx, err, InvalidateSessionDeps{Tokens: deps.Tokens, Machine: deps.Machine}), err
		}
		slog.Warn("profile_submit_failed", "kind", string(failure.KindOf(err)), "error", err)
		return deps.Machine.Snapshot(), err
	}

	snap, err := deps.Machine.CompleteProfile(submission)
	if err != nil {
		return snap, err
	}
	slog.Info("profile_completed", "user_id", snap.User.UserID, "role", snap.User.Role)
	return snap, nil
}
