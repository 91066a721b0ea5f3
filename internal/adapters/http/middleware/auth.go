package middleware

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"aiga/internal/domain/view"
)

// ViewSource exposes the portal's current view.
type ViewSource interface {
	Snapshot() view.Snapshot
}

// Flash kinds
const (
	FlashError   = "error"
	FlashSuccess = "success"
)

// Flash is a one-shot message shown on the next render.
type Flash struct {
	Kind    string `json:"k"`
	Message string `json:"m"`
}

const flashCookieName = "aiga_flash"

// SetFlash stores a message for the next render.
func SetFlash(w http.ResponseWriter, f Flash) {
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   60,
	})
}

// PopFlash returns the pending message, if any, and clears it.
func PopFlash(w http.ResponseWriter, r *http.Request) (Flash, bool) {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return Flash{}, false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return Flash{}, false
	}
	var f Flash
	if err := json.Unmarshal(raw, &f); err != nil || f.Message == "" {
		return Flash{}, false
	}
	return f, true
}

// RequireReady holds user actions back until startup has settled.
// Blocked requests are sent home, where the loading view refreshes itself.
func RequireReady(src ViewSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !src.Snapshot().IsTerminal() {
				SetFlash(w, Flash{Kind: FlashError, Message: "Still signing you in. Please try again in a moment."})
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireView blocks requests unless the active view is one of states.
func RequireView(src ViewSource, states ...view.State) func(http.Handler) http.Handler {
	allowed := make(map[view.State]bool, len(states))
	for _, s := range states {
		allowed[s] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowed[src.Snapshot().State] {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCoach blocks requests from users without the coach role.
func RequireCoach(src ViewSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := src.Snapshot()
			if !snap.Authenticated() {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			if !snap.User.IsCoach() {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
