package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"aiga/internal/adapters/http/middleware"
	"aiga/internal/application/orchestrators"
	"aiga/internal/application/viewstate"
	"aiga/internal/domain/failure"
	"aiga/internal/domain/navigation"
	"aiga/internal/domain/profile"
	"aiga/internal/domain/training"
)

//go:embed templates/*.html
var templatesFS embed.FS

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func renderTemplate(w http.ResponseWriter, r *http.Request, status int, templateName string, data map[string]any) {
	snap := services.Machine.Snapshot()
	if data == nil {
		data = map[string]any{}
	}
	data["View"] = snap
	if f, ok := middleware.PopFlash(w, r); ok {
		data["Flash"] = f
	}

	funcMap := template.FuncMap{
		"csrfField":  func() template.HTML { return csrf.TemplateField(r) },
		"isLoggedIn": func() bool { return snap.Authenticated() },
		"isCoach":    func() bool { return snap.Authenticated() && snap.User.IsCoach() },
		"renderMarkdown": func(md string) template.HTML {
			var buf bytes.Buffer
			if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(md))
			}
			return template.HTML(buf.String())
		},
		"price":           func(p float64) string { return fmt.Sprintf("%.0f ₸", p) },
		"roles":           func() []string { return profile.ValidRoles },
		"experiences":     func() []string { return profile.ValidExperience },
		"trainingTypes":   func() []string { return training.ValidTypes },
		"defaultLocation": func() string { return training.DefaultLocation },
		"fieldError": func(fields map[string]string, name string) string {
			return fields[name]
		},
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templatesFS, "templates/layout.html", "templates/"+templateName)
	if err != nil {
		internalError(w, fmt.Errorf("parse %s: %w", templateName, err))
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, fmt.Errorf("render %s: %w", templateName, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// userMessage turns an action error into text for the next render.
// Failure kinds get distinct messages so that an expired session never reads
// like a full class.
func userMessage(err error) string {
	switch {
	case errors.Is(err, failure.ErrNotReady):
		return "Still signing you in. Please try again in a moment."
	case errors.Is(err, training.ErrSessionFull):
		return "This session is full."
	case errors.Is(err, training.ErrNotCoach):
		return "Only coaches can create training sessions."
	case errors.Is(err, profile.ErrNoUser):
		return "Please sign in first."
	case errors.Is(err, orchestrators.ErrBookingUnavailable), errors.Is(err, viewstate.ErrNotRegistering):
		return "That action is not available right now."
	case errors.Is(err, navigation.ErrEmptyAuthURL):
		return "Sign-in is not configured."
	}

	switch failure.KindOf(err) {
	case failure.KindUnauthorized:
		return "Your session has expired. Please sign in again."
	case failure.KindValidation:
		return "Please check the form: " + fieldSummary(err)
	case failure.KindRejected:
		if d := failure.DetailOf(err); d != "" {
			return d
		}
		return "The academy could not accept this request."
	case failure.KindTransport:
		return "Could not reach the academy. Please try again."
	}
	return "Something went wrong. Please try again."
}

// fieldSummary lists per-field validation messages in a stable order.
func fieldSummary(err error) string {
	var fe *failure.Error
	if !errors.As(err, &fe) || len(fe.Fields) == 0 {
		return "invalid input"
	}
	names := make([]string, 0, len(fe.Fields))
	for name := range fe.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+fe.Fields[name])
	}
	return strings.Join(parts, "; ")
}

// fieldsOf returns the per-field messages carried by a validation failure.
func fieldsOf(err error) map[string]string {
	var fe *failure.Error
	if errors.As(err, &fe) {
		return fe.Fields
	}
	return nil
}

func flashError(w http.ResponseWriter, err error) {
	middleware.SetFlash(w, middleware.Flash{Kind: middleware.FlashError, Message: userMessage(err)})
}

func flashSuccess(w http.ResponseWriter, msg string) {
	middleware.SetFlash(w, middleware.Flash{Kind: middleware.FlashSuccess, Message: msg})
}
