package email

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"aiga/internal/domain/booking"
	"aiga/internal/domain/profile"
	"aiga/internal/domain/training"
)

// ErrNoRecipient is returned when the user has no e-mail address on file.
var ErrNoRecipient = errors.New("user has no email address")

var receiptTmpl = template.Must(template.New("receipt").Parse(`<p>Hello, {{.Name}}!</p>
<p>Your place is {{.Status}} for <strong>{{.Title}}</strong>.</p>
<table>
<tr><td>Date</td><td>{{.Date}} {{.Time}}</td></tr>
<tr><td>Coach</td><td>{{.Coach}}</td></tr>
<tr><td>Location</td><td>{{.Location}}</td></tr>
<tr><td>Price</td><td>{{.Price}}</td></tr>
<tr><td>Booking</td><td>{{.BookingID}}</td></tr>
</table>
<p>AIGA Connect</p>
`))

type receiptData struct {
	Name      string
	Status    string
	Title     string
	Date      string
	Time      string
	Coach     string
	Location  string
	Price     string
	BookingID string
}

// BookingReceipt composes the confirmation e-mail for a new booking.
// PRE: b was returned by the academy for s
// POST: Returns a request addressed to the user, or ErrNoRecipient
func BookingReceipt(user profile.Profile, s training.Session, b booking.Booking) (SendRequest, error) {
	to := strings.TrimSpace(user.Email)
	if to == "" {
		return SendRequest{}, ErrNoRecipient
	}
	status := b.Status
	if status == "" {
		status = booking.StatusPending
	}
	data := receiptData{
		Name:      user.Name,
		Status:    status,
		Title:     s.Title,
		Date:      s.Date,
		Time:      s.Time,
		Coach:     s.CoachName,
		Location:  s.Location,
		Price:     fmt.Sprintf("%.0f ₸", s.Price),
		BookingID: b.BookingID,
	}

	var buf bytes.Buffer
	if err := receiptTmpl.Execute(&buf, data); err != nil {
		return SendRequest{}, fmt.Errorf("render receipt: %w", err)
	}
	text := fmt.Sprintf("%s: %s on %s %s with %s at %s (%s). Booking %s.",
		status, data.Title, data.Date, data.Time, data.Coach, data.Location, data.Price, data.BookingID)

	return SendRequest{
		To:      []string{to},
		Subject: "Booking " + status + ": " + s.Title,
		HTML:    buf.String(),
		Text:    text,
		Tags:    map[string]string{"category": "booking_receipt", "session_id": s.SessionID},
	}, nil
}
