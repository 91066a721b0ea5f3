package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"aiga/internal/adapters/academy"
	"aiga/internal/adapters/storage/exchange"
	"aiga/internal/application/viewstate"
	"aiga/internal/domain/failure"
	"aiga/internal/domain/navigation"
	"aiga/internal/domain/profile"
	"aiga/internal/domain/view"
)

// ProfileFetcher loads the current user for a token.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, token string) (profile.Profile, error)
}

// CodeExchanger trades a one-time auth code for a session.
type CodeExchanger interface {
	ExchangeSession(ctx context.Context, code string) (academy.Exchange, error)
}

// ExchangeLedger records which codes have been exchanged.
type ExchangeLedger interface {
	Claim(ctx context.Context, code string) error
	Settle(ctx context.Context, code, outcome string) error
}

// StartupInput carries the navigation fragment, if any.
type StartupInput struct {
	Fragment string // raw location.hash; empty on a cold start
}

// StartupResult carries the settled view and what happened to get there.
type StartupResult struct {
	Snapshot  view.Snapshot
	Exchanged bool // a code was traded for a new token
}

// StartupDeps holds dependencies for Startup.
type StartupDeps struct {
	Tokens    SessionTokens
	Profiles  ProfileFetcher
	Exchanger CodeExchanger
	Ledger    ExchangeLedger
	Machine   *viewstate.Machine
}

// ExecuteStartup runs the credential check and settles the view.
// A stored token wins over a fragment code. With neither, no network call
// is made. Any failure ends on landing with no user-visible error.
// PRE: deps.Machine is the portal's single state owner
// POST: Machine is settled (never loading); a rejected stored token is cleared
// INVARIANT: A code reaches the academy at most once
func ExecuteStartup(ctx context.Context, input StartupInput, deps StartupDeps) (StartupResult, error) {
	deps.Machine.Begin()

	if token, ok := deps.Tokens.Get(); ok {
		in := view.Inputs{TokenPresent: true}
		user, err := deps.Profiles.FetchProfile(ctx, token)
		if err != nil {
			slog.Info("auth_event", "event", "profile_fetch_failed", "kind", string(failure.KindOf(err)))
			snap := ExecuteInvalidateSession(ctx, err, InvalidateSessionDeps{Tokens: deps.Tokens, Machine: deps.Machine})
			return StartupResult{Snapshot: snap}, nil
		}
		in.Outcome = view.OutcomeSuccess
		slog.Info("auth_event", "event", "session_restored", "user_id", user.UserID)
		return StartupResult{Snapshot: deps.Machine.Settle(in, &user)}, nil
	}

	fragment := navigation.ParseFragment(input.Fragment)
	if !fragment.HasCode() {
		return StartupResult{Snapshot: deps.Machine.Settle(view.Inputs{}, nil)}, nil
	}
	code := fragment.Code()

	in := view.Inputs{CodePresent: true}
	user, err := exchangeCode(ctx, code, deps)
	if err != nil {
		in.Outcome = view.OutcomeFailure
		snap := deps.Machine.Settle(in, nil)
		if errors.Is(err, exchange.ErrAlreadyClaimed) || failure.KindOf(err) != "" {
			return StartupResult{Snapshot: snap}, nil
		}
		return StartupResult{Snapshot: snap}, err
	}
	in.Outcome = view.OutcomeSuccess
	return StartupResult{Snapshot: deps.Machine.Settle(in, &user), Exchanged: true}, nil
}

// exchangeCode claims code, exchanges it, and stores the new token.
// POST: On success the token is persisted and the returned user is known
func exchangeCode(ctx context.Context, code string, deps StartupDeps) (profile.Profile, error) {
	if err := deps.Ledger.Claim(ctx, code); err != nil {
		if errors.Is(err, exchange.ErrAlreadyClaimed) {
			slog.Info("auth_event", "event", "exchange_skipped", "reason", "already_claimed")
			return profile.Profile{}, err
		}
		return profile.Profile{}, fmt.Errorf("claim code: %w", err)
	}

	ex, err := deps.Exchanger.ExchangeSession(ctx, code)
	if err != nil {
		settle(ctx, deps.Ledger, code, exchange.OutcomeFailed)
		slog.Info("auth_event", "event", "exchange_failed", "kind", string(failure.KindOf(err)))
		return profile.Profile{}, err
	}

	if err := deps.Tokens.Set(ctx, ex.Token); err != nil {
		settle(ctx, deps.Ledger, code, exchange.OutcomeFailed)
		return profile.Profile{}, fmt.Errorf("store session token: %w", err)
	}
	settle(ctx, deps.Ledger, code, exchange.OutcomeSucceeded)

	user := ex.User
	if !ex.CompletionKnown {
		// The exchange does not say whether a returning user already
		// registered; the profile endpoint does.
		if fetched, err := deps.Profiles.FetchProfile(ctx, ex.Token); err == nil {
			user = fetched
		} else {
			slog.Info("auth_event", "event", "profile_fetch_failed", "kind", string(failure.KindOf(err)), "after", "exchange")
		}
	}

	slog.Info("auth_event", "event", "exchange_success", "user_id", user.UserID, "profile_completed", user.ProfileCompleted)
	return user, nil
}

func settle(ctx context.Context, ledger ExchangeLedger, code, outcome string) {
	if err := ledger.Settle(ctx, code, outcome); err != nil {
		slog.Error("auth_event", "event", "ledger_settle_failed", "error", err)
	}
}
