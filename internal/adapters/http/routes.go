package web

import (
	"net/http"

	"aiga/internal/adapters/http/middleware"
	"aiga/internal/domain/view"
)

// registerRoutes binds every portal route.
// User actions wait for startup to settle and are only reachable from the
// screen that offers them.
func registerRoutes(mux *http.ServeMux) {
	m := services.Machine
	ready := middleware.RequireReady(m)

	mux.HandleFunc("GET /{$}", handleHome)
	mux.HandleFunc("GET /login", handleLogin)
	mux.HandleFunc("GET /profile", handleCallbackPage)
	mux.HandleFunc("POST /auth/callback", handleAuthCallback)
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /debug/perf", handlePerf)

	mux.Handle("POST /register", middleware.Chain(http.HandlerFunc(handleRegister),
		middleware.RequireView(m, view.StateRegistration), ready))
	mux.Handle("POST /bookings", middleware.Chain(http.HandlerFunc(handleBook),
		middleware.RequireView(m, view.StateDashboard), ready))
	mux.Handle("POST /coach/sessions", middleware.Chain(http.HandlerFunc(handleCreateSession),
		middleware.RequireCoach(m), middleware.RequireView(m, view.StateDashboard), ready))
	mux.Handle("POST /logout", middleware.Chain(http.HandlerFunc(handleLogout), ready))
}
