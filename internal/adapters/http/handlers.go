package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"aiga/internal/application/orchestrators"
	"aiga/internal/application/projections"
	"aiga/internal/domain/failure"
	"aiga/internal/domain/profile"
	"aiga/internal/domain/training"
	"aiga/internal/domain/view"
)

// handleHome renders whichever screen is active.
func handleHome(w http.ResponseWriter, r *http.Request) {
	snap := services.Machine.Snapshot()
	switch snap.State {
	case view.StateLoading:
		renderTemplate(w, r, http.StatusOK, "loading.html", nil)
	case view.StateRegistration:
		renderTemplate(w, r, http.StatusOK, "registration.html", map[string]any{
			"Form":   profile.FormFrom(*snap.User),
			"Fields": map[string]string{},
		})
	case view.StateDashboard:
		renderDashboard(w, r, *snap.User)
	default:
		landing := projections.QueryGetLanding(r.Context(), projections.GetLandingDeps{Stats: services.Academy})
		renderTemplate(w, r, http.StatusOK, "landing.html", map[string]any{
			"Stats": landing.Stats,
		})
	}
}

func renderDashboard(w http.ResponseWriter, r *http.Request, user profile.Profile) {
	token, ok := services.Tokens.Get()
	if !ok {
		orchestrators.ExecuteInvalidateSession(r.Context(), failure.Unauthorized("dashboard", 0, "no stored token"),
			orchestrators.InvalidateSessionDeps{Tokens: services.Tokens, Machine: services.Machine})
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	result, err := projections.QueryGetDashboard(r.Context(), projections.GetDashboardQuery{
		Token: token,
		User:  user,
	}, projections.GetDashboardDeps{
		Sessions: services.Academy,
		Bookings: services.Academy,
		Catalog:  services.Catalog,
	})
	if failure.IsUnauthorized(err) {
		orchestrators.ExecuteInvalidateSession(r.Context(), err,
			orchestrators.InvalidateSessionDeps{Tokens: services.Tokens, Machine: services.Machine})
		flashError(w, err)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}

	renderTemplate(w, r, http.StatusOK, "dashboard.html", map[string]any{
		"Dashboard": result,
	})
}

// handleLogin sends the browser to the identity provider.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	target, err := orchestrators.ExecuteLoginRedirect(r.Context(), orchestrators.LoginRedirectDeps{
		AuthURL:   options.AuthURL,
		PublicURL: options.PublicURL,
		Source:    services.Academy,
	})
	if err != nil {
		slog.Warn("login_redirect_failed", "error", err.Error())
		flashError(w, err)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// handleCallbackPage serves the page the identity provider returns to.
// The code lives in the fragment, which only the browser can read, so the
// page forwards it to POST /auth/callback.
func handleCallbackPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	renderTemplate(w, r, http.StatusOK, "callback.html", nil)
}

// handleAuthCallback runs the startup transition with the forwarded fragment.
func handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	input := orchestrators.StartupInput{Fragment: r.FormValue("fragment")}
	if _, err := orchestrators.ExecuteStartup(r.Context(), input, startupDeps()); err != nil {
		internalError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleRegister submits the registration form.
func handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	form := profile.Form{
		Name:                  r.FormValue("name"),
		Email:                 r.FormValue("email"),
		Phone:                 r.FormValue("phone"),
		Age:                   r.FormValue("age"),
		Weight:                r.FormValue("weight"),
		Height:                r.FormValue("height"),
		Role:                  r.FormValue("role"),
		MartialArtsExperience: r.FormValue("martial_arts_experience"),
		Goals:                 r.FormValue("goals"),
		MedicalConditions:     r.FormValue("medical_conditions"),
		EmergencyContact:      r.FormValue("emergency_contact"),
	}

	_, err := orchestrators.ExecuteCompleteProfile(r.Context(), orchestrators.CompleteProfileInput{Form: form},
		orchestrators.CompleteProfileDeps{
			Tokens:    services.Tokens,
			Submitter: services.Academy,
			Machine:   services.Machine,
		})
	switch {
	case err == nil:
		flashSuccess(w, "Profile saved. Welcome to AIGA!")
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case failure.IsUnauthorized(err):
		flashError(w, err)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case failure.IsValidation(err), failure.IsRejected(err), failure.KindOf(err) == failure.KindTransport:
		status := http.StatusUnprocessableEntity
		if !failure.IsValidation(err) {
			status = http.StatusBadGateway
			if failure.IsRejected(err) {
				status = http.StatusBadRequest
			}
		}
		renderTemplate(w, r, status, "registration.html", map[string]any{
			"Form":   form,
			"Fields": fieldsOf(err),
			"Error":  userMessage(err),
		})
	default:
		flashError(w, err)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// handleBook books the selected session. The outcome is shown on the
// re-rendered dashboard, which re-fetches both lists.
func handleBook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	result, err := orchestrators.ExecuteBookSession(r.Context(), orchestrators.BookSessionInput{
		SessionID: r.FormValue("session_id"),
	}, orchestrators.BookSessionDeps{
		Tokens:   services.Tokens,
		Bookings: services.Academy,
		Catalog:  services.Catalog,
		Machine:  services.Machine,
		Mailer:   services.Mailer,
		Now:      timeNow,
	})
	if err != nil {
		flashError(w, err)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	msg := "Booking confirmed"
	if title := result.Booking.Session.Title; title != "" {
		msg += ": " + title
	}
	flashSuccess(w, msg)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleCreateSession publishes a training session from the coach form.
func handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	ns, fields := parseNewSession(r)
	if len(fields) > 0 {
		flashError(w, failure.Validation("parse_training_session", fields))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	created, err := orchestrators.ExecuteCreateTrainingSession(r.Context(),
		orchestrators.CreateTrainingSessionInput{Session: ns},
		orchestrators.CreateTrainingSessionDeps{
			Tokens:    services.Tokens,
			Publisher: services.Academy,
			Machine:   services.Machine,
		})
	if err != nil {
		flashError(w, err)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	flashSuccess(w, "Session published: "+created.Title)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// parseNewSession reads the coach form. Numeric fields that do not parse
// are reported per field; a blank price means free.
func parseNewSession(r *http.Request) (training.NewSession, map[string]string) {
	fields := map[string]string{}
	ns := training.NewSession{
		Title:        r.FormValue("title"),
		Description:  r.FormValue("description"),
		TrainingType: r.FormValue("training_type"),
		CoachName:    r.FormValue("coach_name"),
		Date:         r.FormValue("date"),
		Time:         r.FormValue("time"),
		Location:     r.FormValue("location"),
	}

	var err error
	if ns.DurationMinutes, err = strconv.Atoi(strings.TrimSpace(r.FormValue("duration_minutes"))); err != nil {
		fields["duration_minutes"] = "must be a whole number"
	}
	if ns.MaxParticipants, err = strconv.Atoi(strings.TrimSpace(r.FormValue("max_participants"))); err != nil {
		fields["max_participants"] = "must be a whole number"
	}
	if raw := strings.TrimSpace(r.FormValue("price")); raw != "" {
		if ns.Price, err = strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64); err != nil {
			fields["price"] = "must be a number"
		}
	}
	return ns, fields
}

// handleLogout signs the user out.
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if _, err := orchestrators.ExecuteLogout(r.Context(), orchestrators.LogoutDeps{
		Tokens:  services.Tokens,
		Machine: services.Machine,
	}); err != nil {
		slog.Error("logout_clear_failed", "error", err.Error())
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleHealthz reports liveness and the current screen.
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"view":   services.Machine.Snapshot().State,
	})
}

// handlePerf returns the last five minutes of timings.
func handlePerf(w http.ResponseWriter, r *http.Request) {
	if perfCollector == nil {
		http.Error(w, "perf collection disabled", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, perfCollector.Snapshot(timeNow().Add(-5*time.Minute), 10))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json_encode_failed", "error", err.Error())
	}
}
