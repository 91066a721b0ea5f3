package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"aiga/internal/adapters/email"
	"aiga/internal/application/viewstate"
	"aiga/internal/domain/booking"
	"aiga/internal/domain/failure"
	"aiga/internal/domain/profile"
	"aiga/internal/domain/training"
	"aiga/internal/domain/view"
)

// BookingCreator submits booking requests to the academy.
type BookingCreator interface {
	CreateBooking(ctx context.Context, token string, req booking.Request) (booking.Booking, error)
}

// SessionLookup returns the last listed state of a training session.
type SessionLookup interface {
	Lookup(sessionID string) (training.Session, bool)
}

// BookSessionInput carries the session to book.
type BookSessionInput struct {
	SessionID string
}

// BookSessionResult carries the created booking.
type BookSessionResult struct {
	Booking booking.Booking
}

// BookSessionDeps holds dependencies for BookSession.
type BookSessionDeps struct {
	Tokens   SessionTokens
	Bookings BookingCreator
	Catalog  SessionLookup
	Machine  *viewstate.Machine
	Mailer   email.Sender // optional; receipts are skipped when nil
	Now      func() time.Time
}

// ErrBookingUnavailable is returned when booking is attempted off the dashboard.
var ErrBookingUnavailable = errors.New("booking is only available from the dashboard")

// ExecuteBookSession books a place in a training session.
// Nothing is changed locally on success; the caller re-fetches sessions
// and bookings for the next render.
// PRE: State is dashboard
// POST: Returns the academy's booking, or a classified failure
// INVARIANT: A session known to be full is refused without a network call
func ExecuteBookSession(ctx context.Context, input BookSessionInput, deps BookSessionDeps) (BookSessionResult, error) {
	user, err := requireUser(deps.Machine)
	if err != nil {
		return BookSessionResult{}, err
	}
	if deps.Machine.Snapshot().State != view.StateDashboard {
		return BookSessionResult{}, ErrBookingUnavailable
	}

	known, isKnown := training.Session{SessionID: input.SessionID}, false
	if deps.Catalog != nil {
		known, isKnown = deps.Catalog.Lookup(input.SessionID)
	}
	if isKnown && known.IsFull() {
		slog.Info("booking_refused", "session_id", input.SessionID, "reason", "full")
		return BookSessionResult{}, training.ErrSessionFull
	}

	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	req, err := booking.NewRequest(input.SessionID, user.UserID, now())
	if err != nil {
		return BookSessionResult{}, err
	}

	token, err := requireToken("create_booking", deps.Tokens)
	if err != nil {
		ExecuteInvalidateSession(ctx, err, InvalidateSessionDeps{Tokens: deps.Tokens, Machine: deps.Machine})
		return BookSessionResult{}, err
	}

	created, err := deps.Bookings.CreateBooking(ctx, token, req)
	if err != nil {
		if failure.IsUnauthorized(err) {
			ExecuteInvalidateSession(ctx, err, InvalidateSessionDeps{Tokens: deps.Tokens, Machine: deps.Machine})
			return BookSessionResult{}, err
		}
		slog.Warn("booking_failed", "session_id", input.SessionID, "kind", string(failure.KindOf(err)), "detail", failure.DetailOf(err))
		return BookSessionResult{}, err
	}
	slog.Info("booking_created", "booking_id", created.BookingID, "session_id", input.SessionID, "status", created.Status)

	if deps.Mailer != nil {
		if !isKnown {
			known = training.Session{SessionID: input.SessionID, Title: created.Session.Title}
		}
		sendReceipt(ctx, deps.Mailer, user, known, created)
	}
	return BookSessionResult{Booking: created}, nil
}

func sendReceipt(ctx context.Context, mailer email.Sender, user profile.Profile, s training.Session, b booking.Booking) {
	req, err := email.BookingReceipt(user, s, b)
	if err != nil {
		slog.Info("booking_receipt_skipped", "booking_id", b.BookingID, "reason", err.Error())
		return
	}
	if _, err := mailer.Send(ctx, req); err != nil {
		slog.Warn("booking_receipt_failed", "booking_id", b.BookingID, "error", err)
	}
}
