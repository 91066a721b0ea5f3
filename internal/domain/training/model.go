package training

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultLocation is used when a coach does not name a venue.
const DefaultLocation = "AIGA Academy, г. Астана, ул. Ахмедьярова, 3"

// Training type constants offered by the academy.
const (
	TypeGrappling = "grappling"
	TypeBJJ       = "bjj"
	TypeMMA       = "mma"
	TypeKids      = "kids"
	TypeOpenMat   = "open_mat"
)

// ValidTypes contains all valid training type values.
var ValidTypes = []string{TypeGrappling, TypeBJJ, TypeMMA, TypeKids, TypeOpenMat}

// Domain errors
var (
	ErrSessionFull = errors.New("session is full")
	ErrNotCoach    = errors.New("only coaches can create training sessions")
)

// Session is a scheduled class published by the academy.
// Participant counts are owned by the backend; the client only reads them.
type Session struct {
	SessionID           string  `json:"session_id"`
	Title               string  `json:"title"`
	Description         string  `json:"description"`
	TrainingType        string  `json:"training_type,omitempty"`
	CoachName           string  `json:"coach_name"`
	Date                string  `json:"date"` // YYYY-MM-DD
	Time                string  `json:"time"` // HH:MM
	DurationMinutes     int     `json:"duration_minutes"`
	CurrentParticipants int     `json:"current_participants"`
	MaxParticipants     int     `json:"max_participants"`
	Price               float64 `json:"price"`
	Location            string  `json:"location"`
	Status              string  `json:"status,omitempty"`
}

// IsFull returns true when no places remain.
// INVARIANT: Session fields are not mutated
func (s Session) IsFull() bool {
	return s.CurrentParticipants >= s.MaxParticipants
}

// SpotsLeft returns the number of free places, never negative.
// INVARIANT: Session fields are not mutated
func (s Session) SpotsLeft() int {
	if s.IsFull() {
		return 0
	}
	return s.MaxParticipants - s.CurrentParticipants
}

// Find returns the session with the given ID from a listing.
func Find(sessions []Session, id string) (Session, bool) {
	for _, s := range sessions {
		if s.SessionID == id {
			return s, true
		}
	}
	return Session{}, false
}

// NewSession is the body of POST /api/training-sessions.
type NewSession struct {
	Title           string  `json:"title" validate:"required,max=200"`
	Description     string  `json:"description" validate:"required"`
	TrainingType    string  `json:"training_type" validate:"required,oneof=grappling bjj mma kids open_mat"`
	CoachName       string  `json:"coach_name" validate:"required"`
	Date            string  `json:"date" validate:"required,datetime=2006-01-02"`
	Time            string  `json:"time" validate:"required,datetime=15:04"`
	DurationMinutes int     `json:"duration_minutes" validate:"gt=0,lte=480"`
	MaxParticipants int     `json:"max_participants" validate:"gt=0,lte=500"`
	Price           float64 `json:"price" validate:"gte=0"`
	Location        string  `json:"location" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})
	return v
}

// Normalize trims text fields and fills the default location.
// POST: Location is non-empty
func (n NewSession) Normalize() NewSession {
	n.Title = strings.TrimSpace(n.Title)
	n.Description = strings.TrimSpace(n.Description)
	n.TrainingType = strings.TrimSpace(n.TrainingType)
	n.CoachName = strings.TrimSpace(n.CoachName)
	n.Date = strings.TrimSpace(n.Date)
	n.Time = strings.TrimSpace(n.Time)
	n.Location = strings.TrimSpace(n.Location)
	if n.Location == "" {
		n.Location = DefaultLocation
	}
	return n
}

// Validate checks the session against the academy's rules and returns a
// field-name to message map. An empty map means valid.
// PRE: n has been normalized
func (n NewSession) Validate() map[string]string {
	fields := map[string]string{}
	err := validate.Struct(n)
	if err == nil {
		return fields
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields["_"] = err.Error()
		return fields
	}
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			fields[fe.Field()] = "is required"
		case "datetime":
			fields[fe.Field()] = "must match " + fe.Param()
		case "oneof":
			fields[fe.Field()] = "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
		default:
			fields[fe.Field()] = "is out of range"
		}
	}
	return fields
}
