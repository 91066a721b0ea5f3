package booking

import (
	"errors"
	"time"
)

// Status constants
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
)

// ErrEmptySessionID is returned when a booking request names no session.
var ErrEmptySessionID = errors.New("session ID cannot be empty")

// SessionSummary is the subset of a training session embedded in a booking.
type SessionSummary struct {
	Title     string  `json:"title"`
	Date      string  `json:"date"`
	Time      string  `json:"time"`
	CoachName string  `json:"coach_name"`
	Location  string  `json:"location"`
	Price     float64 `json:"price"`
}

// Booking is a place reserved by the caller. Status is never changed
// locally; the list is re-fetched after every submission.
type Booking struct {
	BookingID   string         `json:"booking_id"`
	SessionID   string         `json:"session_id"`
	StudentID   string         `json:"student_id,omitempty"`
	BookingDate string         `json:"booking_date"`
	Status      string         `json:"status"`
	Session     SessionSummary `json:"session"`
}

// IsConfirmed returns true if the backend confirmed the booking.
// INVARIANT: Booking fields are not mutated
func (b Booking) IsConfirmed() bool {
	return b.Status == StatusConfirmed
}

// IsPending returns true while the backend has not decided on the booking.
// Unknown statuses are neither pending nor confirmed.
// INVARIANT: Booking fields are not mutated
func (b Booking) IsPending() bool {
	return b.Status == StatusPending
}

// Request is the body of POST /api/bookings.
type Request struct {
	SessionID   string `json:"session_id"`
	StudentID   string `json:"student_id"`
	BookingDate string `json:"booking_date"`
}

// NewRequest builds a booking request stamped with the given time in RFC 3339.
// PRE: sessionID is non-empty
// POST: BookingDate is set from now in UTC
func NewRequest(sessionID, studentID string, now time.Time) (Request, error) {
	if sessionID == "" {
		return Request{}, ErrEmptySessionID
	}
	return Request{
		SessionID:   sessionID,
		StudentID:   studentID,
		BookingDate: now.UTC().Format(time.RFC3339),
	}, nil
}

// HasSession reports whether any booking in the list is for the given session.
func HasSession(bookings []Booking, sessionID string) bool {
	for _, b := range bookings {
		if b.SessionID == sessionID {
			return true
		}
	}
	return false
}
