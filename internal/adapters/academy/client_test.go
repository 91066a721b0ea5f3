package academy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aiga/internal/adapters/http/perf"
	"aiga/internal/domain/booking"
	"aiga/internal/domain/failure"
	"aiga/internal/domain/profile"
	"aiga/internal/domain/training"
)

// recordedRequest captures what the fake academy received.
type recordedRequest struct {
	Method    string
	Path      string
	Auth      string
	RequestID string
	Body      map[string]any
}

// newFakeAcademy starts a server that answers every request with
// status and body, and records the last request.
func newFakeAcademy(t *testing.T, status int, body string) (*Client, *recordedRequest, *perf.Collector) {
	t.Helper()
	got := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Method = r.Method
		got.Path = r.URL.Path
		got.Auth = r.Header.Get("Authorization")
		got.RequestID = r.Header.Get(RequestIDHeader)
		got.Body = nil
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&got.Body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	collector := perf.NewCollector(64)
	return New(Config{BaseURL: srv.URL + "/", Collector: collector}), got, collector
}

func TestExchangeSession_Success(t *testing.T) {
	c, got, collector := newFakeAcademy(t, http.StatusOK,
		`{"session_token":"tok-1","user":{"user_id":"u1","email":"a@b.kz","name":"Aruzhan","picture":"p.png"}}`)

	ex, err := c.ExchangeSession(context.Background(), "abc")
	if err != nil {
		t.Fatalf("ExchangeSession: %v", err)
	}
	if ex.Token != "tok-1" || ex.User.UserID != "u1" || ex.User.ProfileCompleted {
		t.Errorf("unexpected exchange: %+v", ex)
	}
	if ex.CompletionKnown {
		t.Error("profile_completed was absent, CompletionKnown should be false")
	}
	if got.Method != http.MethodPost || got.Path != "/api/auth/session" {
		t.Errorf("request = %s %s", got.Method, got.Path)
	}
	if got.Body["session_id"] != "abc" {
		t.Errorf("body session_id = %v", got.Body["session_id"])
	}
	if got.Auth != "" {
		t.Errorf("exchange must not send a bearer token, got %q", got.Auth)
	}
	if got.RequestID == "" {
		t.Error("missing request id header")
	}
	if collector.TotalRecorded() != 1 {
		t.Errorf("TotalRecorded = %d, want 1", collector.TotalRecorded())
	}
}

func TestExchangeSession_CompletionFlagPresent(t *testing.T) {
	c, _, _ := newFakeAcademy(t, http.StatusOK,
		`{"session_token":"tok-1","user":{"user_id":"u1","profile_completed":false}}`)

	ex, err := c.ExchangeSession(context.Background(), "abc")
	if err != nil {
		t.Fatalf("ExchangeSession: %v", err)
	}
	if !ex.CompletionKnown || ex.User.ProfileCompleted {
		t.Errorf("unexpected exchange: %+v", ex)
	}
}

func TestExchangeSession_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   string
		want   failure.Kind
	}{
		{"invalid session", http.StatusUnauthorized, `{"detail":"Invalid session"}`, "abc", failure.KindUnauthorized},
		{"missing id", http.StatusBadRequest, `{"detail":"Session ID required"}`, "abc", failure.KindRejected},
		{"server error", http.StatusInternalServerError, `oops`, "abc", failure.KindTransport},
		{"no token in body", http.StatusOK, `{"user":{"user_id":"u1"}}`, "abc", failure.KindRejected},
		{"garbage body", http.StatusOK, `not json`, "abc", failure.KindTransport},
		{"empty code", http.StatusOK, `{}`, "  ", failure.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newFakeAcademy(t, tt.status, tt.body)
			_, err := c.ExchangeSession(context.Background(), tt.code)
			if got := failure.KindOf(err); got != tt.want {
				t.Errorf("kind = %q, want %q (err=%v)", got, tt.want, err)
			}
		})
	}
}

func TestFetchProfile(t *testing.T) {
	c, got, _ := newFakeAcademy(t, http.StatusOK,
		`{"user_id":"u1","name":"Aruzhan","email":"a@b.kz","role":"coach","age":30,"weight":70.5,"profile_completed":true}`)

	p, err := c.FetchProfile(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("FetchProfile: %v", err)
	}
	if got.Auth != "Bearer tok-1" {
		t.Errorf("Authorization = %q", got.Auth)
	}
	if !p.ProfileCompleted || !p.IsCoach() || p.Weight != 70.5 {
		t.Errorf("unexpected profile: %+v", p)
	}
}

func TestFetchProfile_Unauthorized(t *testing.T) {
	c, _, _ := newFakeAcademy(t, http.StatusUnauthorized, `{"detail":"Session expired"}`)

	_, err := c.FetchProfile(context.Background(), "stale")
	if !failure.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if failure.DetailOf(err) != "Session expired" {
		t.Errorf("detail = %q", failure.DetailOf(err))
	}
}

func TestAuthenticatedCalls_RequireToken(t *testing.T) {
	c, got, collector := newFakeAcademy(t, http.StatusOK, `[]`)
	ctx := context.Background()

	if _, err := c.FetchProfile(ctx, ""); !failure.IsUnauthorized(err) {
		t.Errorf("FetchProfile: %v", err)
	}
	if _, err := c.ListMyBookings(ctx, ""); !failure.IsUnauthorized(err) {
		t.Errorf("ListMyBookings: %v", err)
	}
	if _, err := c.CreateBooking(ctx, "", booking.Request{SessionID: "s1"}); !failure.IsUnauthorized(err) {
		t.Errorf("CreateBooking: %v", err)
	}
	if err := c.CompleteProfile(ctx, "", profile.Submission{}); !failure.IsUnauthorized(err) {
		t.Errorf("CompleteProfile: %v", err)
	}
	if got.Path != "" || collector.TotalRecorded() != 0 {
		t.Error("no request should reach the academy without a token")
	}
}

func TestListTrainingSessions(t *testing.T) {
	c, got, _ := newFakeAcademy(t, http.StatusOK, `[
		{"session_id":"s1","title":"BJJ Fundamentals","current_participants":3,"max_participants":10,"price":5000},
		{"session_id":"s2","title":"Open Mat","current_participants":20,"max_participants":20}
	]`)

	sessions, err := c.ListTrainingSessions(context.Background())
	if err != nil {
		t.Fatalf("ListTrainingSessions: %v", err)
	}
	if got.Auth != "" {
		t.Error("session listing is public and must not send a token")
	}
	if len(sessions) != 2 || sessions[0].SessionID != "s1" || !sessions[1].IsFull() {
		t.Errorf("unexpected sessions: %+v", sessions)
	}
}

func TestListTrainingSessions_NullBody(t *testing.T) {
	c, _, _ := newFakeAcademy(t, http.StatusOK, `null`)
	sessions, err := c.ListTrainingSessions(context.Background())
	if err != nil {
		t.Fatalf("ListTrainingSessions: %v", err)
	}
	if sessions == nil || len(sessions) != 0 {
		t.Errorf("want empty non-nil slice, got %#v", sessions)
	}
}

func TestListMyBookings(t *testing.T) {
	c, got, _ := newFakeAcademy(t, http.StatusOK, `[
		{"booking_id":"b1","session_id":"s1","booking_date":"2026-10-01T10:00:00","status":"confirmed",
		 "session":{"title":"BJJ","date":"2026-10-02","time":"18:00","coach_name":"Erlan","location":"Hall A","price":5000}}
	]`)

	bookings, err := c.ListMyBookings(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("ListMyBookings: %v", err)
	}
	if got.Path != "/api/bookings/my" || got.Auth != "Bearer tok-1" {
		t.Errorf("request = %s auth=%q", got.Path, got.Auth)
	}
	if len(bookings) != 1 || !bookings[0].IsConfirmed() || bookings[0].Session.CoachName != "Erlan" {
		t.Errorf("unexpected bookings: %+v", bookings)
	}
}

func TestListMyBookings_UnauthorizedIsNotEmptyList(t *testing.T) {
	c, _, _ := newFakeAcademy(t, http.StatusUnauthorized, `{"detail":"Invalid session token"}`)
	bookings, err := c.ListMyBookings(context.Background(), "tok-1")
	if !failure.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if bookings != nil {
		t.Errorf("bookings = %#v, want nil", bookings)
	}
}

func TestCreateBooking(t *testing.T) {
	c, got, _ := newFakeAcademy(t, http.StatusOK,
		`{"booking_id":"b1","session_id":"s1","student_id":"u1","booking_date":"2026-10-01T10:00:00","status":"confirmed"}`)

	req, err := booking.NewRequest("s1", "u1", time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	b, err := c.CreateBooking(context.Background(), "tok-1", req)
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if b.BookingID != "b1" || !b.IsConfirmed() {
		t.Errorf("unexpected booking: %+v", b)
	}
	if got.Body["session_id"] != "s1" || got.Body["student_id"] != "u1" || got.Body["booking_date"] != "2026-10-01T10:00:00Z" {
		t.Errorf("unexpected body: %v", got.Body)
	}
}

func TestCreateBooking_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   failure.Kind
		wantDetail string
	}{
		{"full", http.StatusBadRequest, `{"detail":"Session is full"}`, failure.KindRejected, "Session is full"},
		{"duplicate", http.StatusBadRequest, `{"detail":"Already booked this session"}`, failure.KindRejected, "Already booked this session"},
		{"not found", http.StatusNotFound, `{"detail":"Training session not found"}`, failure.KindRejected, "Training session not found"},
		{"schema", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","booking_date"],"msg":"field required"}]}`, failure.KindRejected, "booking_date: field required"},
		{"expired", http.StatusUnauthorized, `{"detail":"Session expired"}`, failure.KindUnauthorized, "Session expired"},
		{"bad gateway", http.StatusBadGateway, `<html>`, failure.KindTransport, "<html>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newFakeAcademy(t, tt.status, tt.body)
			_, err := c.CreateBooking(context.Background(), "tok-1", booking.Request{SessionID: "s1"})
			if got := failure.KindOf(err); got != tt.wantKind {
				t.Errorf("kind = %q, want %q", got, tt.wantKind)
			}
			if got := failure.DetailOf(err); got != tt.wantDetail {
				t.Errorf("detail = %q, want %q", got, tt.wantDetail)
			}
		})
	}
}

func TestCompleteProfile(t *testing.T) {
	c, got, _ := newFakeAcademy(t, http.StatusOK, `{"message":"ok"}`)
	s, err := profile.ParseForm(profile.Form{
		Name: "Aruzhan", Email: "a@b.kz", Phone: "+7 700 000 0000",
		Age: "27", Weight: "61,5", Height: "168",
		MartialArtsExperience: "beginner", Goals: "compete", EmergencyContact: "mom",
	})
	if err != nil {
		t.Fatalf("ParseForm: %v", err)
	}
	if err := c.CompleteProfile(context.Background(), "tok-1", s); err != nil {
		t.Fatalf("CompleteProfile: %v", err)
	}
	if got.Path != "/api/users/complete-profile" {
		t.Errorf("path = %q", got.Path)
	}
	if got.Body["age"] != float64(27) || got.Body["weight"] != 61.5 || got.Body["role"] != "student" {
		t.Errorf("numeric fields not sent as numbers: %v", got.Body)
	}
	if v, present := got.Body["medical_conditions"]; !present || v != nil {
		t.Errorf("medical_conditions = %v (present=%v), want null", v, present)
	}
}

func TestCreateTrainingSession_Forbidden(t *testing.T) {
	c, _, _ := newFakeAcademy(t, http.StatusForbidden, `{"detail":"Only coaches can create training sessions"}`)
	_, err := c.CreateTrainingSession(context.Background(), "tok-1", training.NewSession{Title: "x"})
	if !failure.IsRejected(err) {
		t.Fatalf("expected rejected, got %v", err)
	}
	var fe *failure.Error
	if !errors.As(err, &fe) || fe.Status != http.StatusForbidden {
		t.Errorf("status = %v", fe)
	}
}

func TestStatsAndLoginURL(t *testing.T) {
	c, _, _ := newFakeAcademy(t, http.StatusOK, `{"total_users":12,"total_sessions":4,"total_bookings":30,"auth_url":"https://auth.example/?redirect=x"}`)
	ctx := context.Background()

	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalUsers != 12 || stats.TotalBookings != 30 {
		t.Errorf("stats = %+v", stats)
	}
	u, err := c.LoginURL(ctx)
	if err != nil {
		t.Fatalf("LoginURL: %v", err)
	}
	if !strings.HasPrefix(u, "https://auth.example/") {
		t.Errorf("auth url = %q", u)
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	collector := perf.NewCollector(8)
	c := New(Config{BaseURL: base, Collector: collector})
	_, err := c.ListTrainingSessions(context.Background())
	if failure.KindOf(err) != failure.KindTransport {
		t.Fatalf("expected transport failure, got %v", err)
	}
	if collector.TotalRecorded() != 1 {
		t.Errorf("failed calls should still be recorded")
	}
}

func TestTimeoutIsTransportFailure(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	c := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := c.FetchProfile(context.Background(), "tok-1")
	if failure.KindOf(err) != failure.KindTransport {
		t.Fatalf("expected transport failure on timeout, got %v", err)
	}
}

func TestDetailFrom(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"detail":"Session is full"}`, "Session is full"},
		{`{"message":"done"}`, "done"},
		{`{"detail":[{"loc":["body","age"],"msg":"value is not a valid integer"},{"loc":[],"msg":"bad"}]}`, "age: value is not a valid integer; bad"},
		{`plain text`, "plain text"},
		{``, ""},
	}
	for _, tt := range tests {
		if got := detailFrom([]byte(tt.body)); got != tt.want {
			t.Errorf("detailFrom(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestRequestIDFromContext(t *testing.T) {
	c, got, _ := newFakeAcademy(t, http.StatusOK, `{"total_users":1,"total_sessions":2,"total_bookings":3}`)

	ctx := perf.WithRequestID(context.Background(), "portal-req-7")
	if _, err := c.Stats(ctx); err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if got.RequestID != "portal-req-7" {
		t.Errorf("X-Request-ID = %q, want portal-req-7", got.RequestID)
	}
}
