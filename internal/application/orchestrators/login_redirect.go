package orchestrators

import (
	"context"
	"fmt"
	"log/slog"

	"aiga/internal/domain/navigation"
)

// LoginURLSource asks the academy where its identity provider lives.
type LoginURLSource interface {
	LoginURL(ctx context.Context) (string, error)
}

// LoginRedirectDeps holds dependencies for LoginRedirect.
type LoginRedirectDeps struct {
	AuthURL   string // configured identity provider URL; preferred when set
	PublicURL string // portal base URL the provider returns to
	Source    LoginURLSource
}

// ExecuteLoginRedirect returns the URL the browser must navigate to for login.
// The provider comes back to <PublicURL>/profile#session_id=<code>.
// PRE: PublicURL is the portal's externally reachable base URL
// POST: Returns an absolute URL whose redirect parameter targets the callback page
// INVARIANT: No session state changes
func ExecuteLoginRedirect(ctx context.Context, deps LoginRedirectDeps) (string, error) {
	authURL := deps.AuthURL
	if authURL == "" {
		if deps.Source == nil {
			return "", navigation.ErrEmptyAuthURL
		}
		fromAPI, err := deps.Source.LoginURL(ctx)
		if err != nil {
			return "", fmt.Errorf("discover auth url: %w", err)
		}
		authURL = fromAPI
	}

	target, err := navigation.LoginURL(authURL, deps.PublicURL)
	if err != nil {
		return "", err
	}
	slog.Info("auth_event", "event", "login_redirect")
	return target, nil
}
