package academy

import (
	"context"
	"net/http"

	"aiga/internal/domain/booking"
	"aiga/internal/domain/failure"
	"aiga/internal/domain/training"
)

// Stats is the academy-wide summary shown to anonymous visitors.
type Stats struct {
	TotalUsers    int `json:"total_users"`
	TotalSessions int `json:"total_sessions"`
	TotalBookings int `json:"total_bookings"`
}

// ListTrainingSessions returns the published sessions in server order.
// POST: Returns a non-nil slice on success
func (cl *Client) ListTrainingSessions(ctx context.Context) ([]training.Session, error) {
	var out []training.Session
	err := cl.do(ctx, call{
		op:     "list_training_sessions",
		method: http.MethodGet,
		path:   "/api/training-sessions",
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []training.Session{}
	}
	return out, nil
}

// ListMyBookings returns the caller's bookings in server order.
// POST: An auth failure is a KindUnauthorized error, never an empty list
func (cl *Client) ListMyBookings(ctx context.Context, token string) ([]booking.Booking, error) {
	const op = "list_my_bookings"
	if err := requireToken(op, token); err != nil {
		return nil, err
	}
	var out []booking.Booking
	err := cl.do(ctx, call{
		op:     op,
		method: http.MethodGet,
		path:   "/api/bookings/my",
		token:  token,
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []booking.Booking{}
	}
	return out, nil
}

// CreateBooking reserves a place. Capacity and duplicate rejections come
// back as KindRejected carrying the academy's detail message.
func (cl *Client) CreateBooking(ctx context.Context, token string, req booking.Request) (booking.Booking, error) {
	const op = "create_booking"
	if err := requireToken(op, token); err != nil {
		return booking.Booking{}, err
	}
	if req.SessionID == "" {
		return booking.Booking{}, failure.Validation(op, map[string]string{"session_id": "is required"})
	}
	var out booking.Booking
	err := cl.do(ctx, call{
		op:     op,
		method: http.MethodPost,
		path:   "/api/bookings",
		token:  token,
		body:   req,
		out:    &out,
	})
	return out, err
}

// CreateTrainingSession publishes a new session. Only coaches may do
// this; the academy answers 403 otherwise.
func (cl *Client) CreateTrainingSession(ctx context.Context, token string, s training.NewSession) (training.Session, error) {
	const op = "create_training_session"
	if err := requireToken(op, token); err != nil {
		return training.Session{}, err
	}
	var out training.Session
	err := cl.do(ctx, call{
		op:     op,
		method: http.MethodPost,
		path:   "/api/training-sessions",
		token:  token,
		body:   s,
		out:    &out,
	})
	return out, err
}

// Stats returns academy-wide counters.
func (cl *Client) Stats(ctx context.Context) (Stats, error) {
	var out Stats
	err := cl.do(ctx, call{op: "stats", method: http.MethodGet, path: "/api/stats", out: &out})
	return out, err
}
