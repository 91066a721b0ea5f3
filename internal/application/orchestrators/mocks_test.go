package orchestrators

import (
	"context"
	"sync"
	"time"

	"aiga/internal/adapters/academy"
	"aiga/internal/adapters/email"
	"aiga/internal/adapters/storage/exchange"
	"aiga/internal/application/viewstate"
	"aiga/internal/domain/booking"
	"aiga/internal/domain/profile"
	"aiga/internal/domain/training"
	"aiga/internal/domain/view"
)

// memTokens is an in-memory SessionTokens.
type memTokens struct {
	token    string
	setErr   error
	clearErr error
	sets     int
	clears   int
}

func (m *memTokens) Get() (string, bool) { return m.token, m.token != "" }

func (m *memTokens) Set(_ context.Context, token string) error {
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	m.token = token
	return nil
}

func (m *memTokens) Clear(_ context.Context) error {
	m.clears++
	m.token = ""
	return m.clearErr
}

// fakeAcademy records calls and answers with canned results.
type fakeAcademy struct {
	mu sync.Mutex

	profile    profile.Profile
	profileErr error

	exchange    academy.Exchange
	exchangeErr error

	submitErr error
	submitted []profile.Submission

	booking    booking.Booking
	bookingErr error
	booked     []booking.Request

	created    training.Session
	createdErr error
	published  []training.NewSession

	loginURL string

	fetchCalls    int
	exchangeCalls int
	tokensSeen    []string
}

func (f *fakeAcademy) FetchProfile(_ context.Context, token string) (profile.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	f.tokensSeen = append(f.tokensSeen, token)
	return f.profile, f.profileErr
}

func (f *fakeAcademy) ExchangeSession(_ context.Context, _ string) (academy.Exchange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchangeCalls++
	return f.exchange, f.exchangeErr
}

func (f *fakeAcademy) CompleteProfile(_ context.Context, token string, s profile.Submission) error {
	f.tokensSeen = append(f.tokensSeen, token)
	f.submitted = append(f.submitted, s)
	return f.submitErr
}

func (f *fakeAcademy) CreateBooking(_ context.Context, token string, req booking.Request) (booking.Booking, error) {
	f.tokensSeen = append(f.tokensSeen, token)
	f.booked = append(f.booked, req)
	return f.booking, f.bookingErr
}

func (f *fakeAcademy) CreateTrainingSession(_ context.Context, token string, s training.NewSession) (training.Session, error) {
	f.tokensSeen = append(f.tokensSeen, token)
	f.published = append(f.published, s)
	return f.created, f.createdErr
}

func (f *fakeAcademy) LoginURL(_ context.Context) (string, error) {
	return f.loginURL, nil
}

// memLedger mirrors the SQLite ledger's claim semantics.
type memLedger struct {
	mu       sync.Mutex
	outcomes map[string]string
}

func newMemLedger() *memLedger { return &memLedger{outcomes: map[string]string{}} }

func (l *memLedger) Claim(_ context.Context, code string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.outcomes[code]; ok {
		return exchange.ErrAlreadyClaimed
	}
	l.outcomes[code] = exchange.OutcomePending
	return nil
}

func (l *memLedger) Settle(_ context.Context, code, outcome string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.outcomes[code]; !ok {
		return exchange.ErrUnknownCode
	}
	l.outcomes[code] = outcome
	return nil
}

// mapCatalog is a fixed SessionLookup.
type mapCatalog map[string]training.Session

func (c mapCatalog) Lookup(id string) (training.Session, bool) {
	s, ok := c[id]
	return s, ok
}

// recordingMailer captures sent e-mails.
type recordingMailer struct {
	sent []email.SendRequest
	err  error
}

func (r *recordingMailer) Send(_ context.Context, req email.SendRequest) (email.SendResult, error) {
	r.sent = append(r.sent, req)
	return email.SendResult{MessageID: "m1"}, r.err
}

var fixedTime = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

// dashboardMachine returns a machine settled on the dashboard for user.
func dashboardMachine(user profile.Profile) *viewstate.Machine {
	user.ProfileCompleted = true
	m := viewstate.New()
	m.Settle(view.Inputs{TokenPresent: true, Outcome: view.OutcomeSuccess}, &user)
	return m
}

// registrationMachine returns a machine settled on registration for user.
func registrationMachine(user profile.Profile) *viewstate.Machine {
	user.ProfileCompleted = false
	m := viewstate.New()
	m.Settle(view.Inputs{TokenPresent: true, Outcome: view.OutcomeSuccess}, &user)
	return m
}
