// Package navigation models the redirect hand-off with the external identity
// provider: the login URL we send the browser to and the fragment it comes
// back with.
package navigation

import (
	"errors"
	"net/url"
	"strings"
)

// SessionIDParam is the fragment parameter carrying the one-time code.
const SessionIDParam = "session_id"

// CallbackPath is the portal path the identity provider returns to.
const CallbackPath = "/profile"

// ErrEmptyAuthURL is returned when no identity provider URL is known.
var ErrEmptyAuthURL = errors.New("auth URL cannot be empty")

// Fragment is the parsed navigation fragment of the returning URL.
type Fragment struct {
	values url.Values
}

// ParseFragment parses "#a=b&session_id=x" or "a=b&session_id=x".
// Malformed pairs are skipped; the well-formed ones are kept.
func ParseFragment(raw string) Fragment {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "#")
	values, _ := url.ParseQuery(raw)
	if values == nil {
		values = url.Values{}
	}
	return Fragment{values: values}
}

// Code returns the one-time auth code, or "" when none is present.
func (f Fragment) Code() string {
	if f.values == nil {
		return ""
	}
	return strings.TrimSpace(f.values.Get(SessionIDParam))
}

// HasCode reports whether a one-time code is present.
func (f Fragment) HasCode() bool {
	return f.Code() != ""
}

// LoginURL builds the identity provider URL that returns to the portal's
// callback page. The provider appends "#session_id=..." to the callback.
// PRE: authURL is an absolute URL; publicURL is the portal's external base URL
// POST: Returns authURL with a redirect query parameter
func LoginURL(authURL, publicURL string) (string, error) {
	if strings.TrimSpace(authURL) == "" {
		return "", ErrEmptyAuthURL
	}
	u, err := url.Parse(authURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("redirect", strings.TrimRight(publicURL, "/")+CallbackPath)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
