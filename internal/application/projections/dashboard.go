package projections

import (
	"context"
	"log/slog"

	"aiga/internal/domain/booking"
	"aiga/internal/domain/failure"
	"aiga/internal/domain/profile"
	"aiga/internal/domain/training"
)

// SessionLister lists published training sessions.
type SessionLister interface {
	ListTrainingSessions(ctx context.Context) ([]training.Session, error)
}

// BookingLister lists the caller's bookings.
type BookingLister interface {
	ListMyBookings(ctx context.Context, token string) ([]booking.Booking, error)
}

// GetDashboardQuery carries query parameters.
type GetDashboardQuery struct {
	Token string
	User  profile.Profile
}

// SessionRow is a training session as shown on the dashboard.
type SessionRow struct {
	Session   training.Session
	SpotsLeft int
	Booked    bool // the user already holds a booking for it
	Bookable  bool // false when full or already booked
}

// GetDashboardResult carries the query result.
type GetDashboardResult struct {
	User                profile.Profile
	Sessions            []SessionRow
	Bookings            []booking.Booking
	SessionsUnavailable bool
	BookingsUnavailable bool
}

// GetDashboardDeps holds dependencies for GetDashboard.
type GetDashboardDeps struct {
	Sessions SessionLister
	Bookings BookingLister
	Catalog  *SessionCatalog // optional; refreshed with every listing
}

// QueryGetDashboard fetches sessions and bookings for the dashboard.
// Both lists are fetched fresh on every call.
// PRE: query.Token is the stored session token
// POST: Returns a KindUnauthorized error when the academy rejects the token
// INVARIANT: A full session is never bookable
func QueryGetDashboard(ctx context.Context, query GetDashboardQuery, deps GetDashboardDeps) (GetDashboardResult, error) {
	result := GetDashboardResult{User: query.User}

	bookings, err := deps.Bookings.ListMyBookings(ctx, query.Token)
	switch {
	case failure.IsUnauthorized(err):
		return GetDashboardResult{}, err
	case err != nil:
		slog.Warn("dashboard_bookings_unavailable", "kind", string(failure.KindOf(err)), "error", err)
		result.BookingsUnavailable = true
		bookings = []booking.Booking{}
	}
	result.Bookings = bookings

	sessions, err := deps.Sessions.ListTrainingSessions(ctx)
	if err != nil {
		slog.Warn("dashboard_sessions_unavailable", "kind", string(failure.KindOf(err)), "error", err)
		result.SessionsUnavailable = true
		sessions = []training.Session{}
	} else if deps.Catalog != nil {
		deps.Catalog.Replace(sessions)
	}

	result.Sessions = make([]SessionRow, 0, len(sessions))
	for _, s := range sessions {
		booked := booking.HasSession(bookings, s.SessionID)
		result.Sessions = append(result.Sessions, SessionRow{
			Session:   s,
			SpotsLeft: s.SpotsLeft(),
			Booked:    booked,
			Bookable:  !s.IsFull() && !booked,
		})
	}
	return result, nil
}
