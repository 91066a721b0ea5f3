package profile

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"aiga/internal/domain/failure"
)

// Role constants
const (
	RoleStudent = "student"
	RoleCoach   = "coach"
	RoleParent  = "parent"
)

// Experience level constants
const (
	ExperienceBeginner     = "beginner"
	ExperienceIntermediate = "intermediate"
	ExperienceAdvanced     = "advanced"
	ExperienceExpert       = "expert"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleStudent, RoleCoach, RoleParent}

// ValidExperience contains all valid experience values, least to most.
var ValidExperience = []string{ExperienceBeginner, ExperienceIntermediate, ExperienceAdvanced, ExperienceExpert}

// ErrNoUser is returned when an operation needs a loaded user and there is none.
var ErrNoUser = errors.New("no user is loaded")

// Profile is the academy user as returned by the backend.
// New users returned by the auth exchange carry only identity fields.
type Profile struct {
	UserID                string  `json:"user_id"`
	Name                  string  `json:"name"`
	Email                 string  `json:"email"`
	Picture               string  `json:"picture,omitempty"`
	Phone                 string  `json:"phone,omitempty"`
	Age                   int     `json:"age,omitempty"`
	Weight                float64 `json:"weight,omitempty"`
	Height                float64 `json:"height,omitempty"`
	Role                  string  `json:"role,omitempty"`
	MartialArtsExperience string  `json:"martial_arts_experience,omitempty"`
	Goals                 string  `json:"goals,omitempty"`
	MedicalConditions     string  `json:"medical_conditions,omitempty"`
	EmergencyContact      string  `json:"emergency_contact,omitempty"`
	ProfileCompleted      bool    `json:"profile_completed"`
}

// IsCoach returns true if the profile has the coach role.
// INVARIANT: Profile fields are not mutated
func (p Profile) IsCoach() bool {
	return p.Role == RoleCoach
}

// Form holds the raw registration form values, all as typed by the user.
type Form struct {
	Name                  string
	Email                 string
	Phone                 string
	Age                   string
	Weight                string
	Height                string
	Role                  string
	MartialArtsExperience string
	Goals                 string
	MedicalConditions     string
	EmergencyContact      string
}

// Submission is the parsed, validated body of POST /api/users/complete-profile.
type Submission struct {
	Name                  string  `json:"name" validate:"required,max=200"`
	Email                 string  `json:"email" validate:"required,email,max=254"`
	Phone                 string  `json:"phone" validate:"required,max=40"`
	Age                   int     `json:"age" validate:"gt=0,lte=120"`
	Weight                float64 `json:"weight" validate:"gt=0,lte=400"`
	Height                float64 `json:"height" validate:"gt=0,lte=260"`
	MartialArtsExperience string  `json:"martial_arts_experience" validate:"required,oneof=beginner intermediate advanced expert"`
	Goals                 string  `json:"goals" validate:"required"`
	MedicalConditions     *string `json:"medical_conditions"`
	EmergencyContact      string  `json:"emergency_contact" validate:"required"`
	Role                  string  `json:"role" validate:"required,oneof=student coach parent"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseForm converts raw form values into a Submission.
// Numeric fields are parsed before any other rule runs; every problem is
// reported per field in a single validation failure.
// PRE: none
// POST: Returns a valid Submission, or a failure.KindValidation error
func ParseForm(f Form) (Submission, error) {
	fields := map[string]string{}

	age, err := strconv.Atoi(strings.TrimSpace(f.Age))
	if err != nil {
		fields["age"] = "must be a whole number"
	}
	weight, err := parseDecimal(f.Weight)
	if err != nil {
		fields["weight"] = "must be a number"
	}
	height, err := parseDecimal(f.Height)
	if err != nil {
		fields["height"] = "must be a number"
	}

	role := strings.TrimSpace(f.Role)
	if role == "" {
		role = RoleStudent
	}

	s := Submission{
		Name:                  strings.TrimSpace(f.Name),
		Email:                 strings.TrimSpace(f.Email),
		Phone:                 strings.TrimSpace(f.Phone),
		Age:                   age,
		Weight:                weight,
		Height:                height,
		MartialArtsExperience: strings.TrimSpace(f.MartialArtsExperience),
		Goals:                 strings.TrimSpace(f.Goals),
		EmergencyContact:      strings.TrimSpace(f.EmergencyContact),
		Role:                  role,
	}
	if mc := strings.TrimSpace(f.MedicalConditions); mc != "" {
		s.MedicalConditions = &mc
	}

	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Submission{}, err
		}
		for _, fe := range verrs {
			if _, already := fields[fe.Field()]; already {
				continue
			}
			fields[fe.Field()] = messageFor(fe)
		}
	}

	if len(fields) > 0 {
		return Submission{}, failure.Validation("parse_profile", fields)
	}
	return s, nil
}

// Merge applies a successful submission to the locally known profile and
// marks it completed. Identity fields the form does not carry are kept.
// PRE: s was accepted by the backend
// POST: Returned profile has ProfileCompleted=true
func (p Profile) Merge(s Submission) Profile {
	p.Name = s.Name
	p.Email = s.Email
	p.Phone = s.Phone
	p.Age = s.Age
	p.Weight = s.Weight
	p.Height = s.Height
	p.Role = s.Role
	p.MartialArtsExperience = s.MartialArtsExperience
	p.Goals = s.Goals
	p.MedicalConditions = ""
	if s.MedicalConditions != nil {
		p.MedicalConditions = *s.MedicalConditions
	}
	p.EmergencyContact = s.EmergencyContact
	p.ProfileCompleted = true
	return p
}

// FormFrom pre-fills a registration form from what the backend already knows.
func FormFrom(p Profile) Form {
	return Form{
		Name:  p.Name,
		Email: p.Email,
		Role:  RoleStudent,
	}
}

// parseDecimal accepts both "72.5" and "72,5".
func parseDecimal(raw string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."), 64)
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gt":
		return "must be greater than " + fe.Param()
	case "lte", "max":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}
