package academy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"aiga/internal/domain/failure"
	"aiga/internal/domain/profile"
)

// Exchange is the result of trading a one-time code for a session.
type Exchange struct {
	Token string
	User  profile.Profile
	// CompletionKnown is false when the academy omitted profile_completed
	// from the exchanged user, so User.ProfileCompleted is only a default.
	CompletionKnown bool
}

type exchangeBody struct {
	Token string          `json:"session_token"`
	User  json.RawMessage `json:"user"`
}

// ExchangeSession trades a one-time auth code for a session token.
// PRE: code is the non-empty session_id from the navigation fragment
// POST: Returns a non-empty token and the user, or a *failure.Error
func (cl *Client) ExchangeSession(ctx context.Context, code string) (Exchange, error) {
	const op = "exchange_session"
	code = strings.TrimSpace(code)
	if code == "" {
		return Exchange{}, failure.Validation(op, map[string]string{"session_id": "is required"})
	}
	var body exchangeBody
	err := cl.do(ctx, call{
		op:     op,
		method: http.MethodPost,
		path:   "/api/auth/session",
		body:   map[string]string{"session_id": code},
		out:    &body,
	})
	if err != nil {
		return Exchange{}, err
	}
	if body.Token == "" {
		return Exchange{}, failure.Rejected(op, http.StatusOK, "no session token in response")
	}

	out := Exchange{Token: body.Token}
	if len(body.User) > 0 && string(body.User) != "null" {
		if err := json.Unmarshal(body.User, &out.User); err != nil {
			return Exchange{}, failure.Transport(op, fmt.Errorf("decode user: %w", err))
		}
		var keys map[string]json.RawMessage
		if err := json.Unmarshal(body.User, &keys); err == nil {
			_, out.CompletionKnown = keys["profile_completed"]
		}
	}
	return out, nil
}

// FetchProfile loads the current user for token.
// POST: A 401 is KindUnauthorized; any other failure keeps its own kind
func (cl *Client) FetchProfile(ctx context.Context, token string) (profile.Profile, error) {
	const op = "fetch_profile"
	if err := requireToken(op, token); err != nil {
		return profile.Profile{}, err
	}
	var out profile.Profile
	err := cl.do(ctx, call{
		op:     op,
		method: http.MethodGet,
		path:   "/api/users/profile",
		token:  token,
		out:    &out,
	})
	return out, err
}

// CompleteProfile submits the registration form for the current user.
// PRE: s came from profile.ParseForm
func (cl *Client) CompleteProfile(ctx context.Context, token string, s profile.Submission) error {
	const op = "complete_profile"
	if err := requireToken(op, token); err != nil {
		return err
	}
	return cl.do(ctx, call{
		op:     op,
		method: http.MethodPost,
		path:   "/api/users/complete-profile",
		token:  token,
		body:   s,
	})
}

// LoginURL asks the academy for the identity provider URL.
// The returned URL already carries the academy's own redirect target.
func (cl *Client) LoginURL(ctx context.Context) (string, error) {
	const op = "login_url"
	var out struct {
		AuthURL string `json:"auth_url"`
	}
	if err := cl.do(ctx, call{op: op, method: http.MethodGet, path: "/api/auth/login", out: &out}); err != nil {
		return "", err
	}
	if out.AuthURL == "" {
		return "", failure.Rejected(op, http.StatusOK, "no auth_url in response")
	}
	return out.AuthURL, nil
}
