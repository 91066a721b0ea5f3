package orchestrators

import (
	"context"
	"log/slog"

	"aiga/internal/application/viewstate"
	"aiga/internal/domain/failure"
	"aiga/internal/domain/training"
)

// SessionPublisher publishes new training sessions.
type SessionPublisher interface {
	CreateTrainingSession(ctx context.Context, token string, s training.NewSession) (training.Session, error)
}

// CreateTrainingSessionInput carries the coach's form.
type CreateTrainingSessionInput struct {
	Session training.NewSession
}

// CreateTrainingSessionDeps holds dependencies for CreateTrainingSession.
type CreateTrainingSessionDeps struct {
	Tokens    SessionTokens
	Publisher SessionPublisher
	Machine   *viewstate.Machine
}

// ExecuteCreateTrainingSession publishes a session on behalf of a coach.
// PRE: The loaded user has the coach role
// POST: Returns the academy's stored session; CoachName defaults to the coach's name
func ExecuteCreateTrainingSession(ctx context.Context, input CreateTrainingSessionInput, deps CreateTrainingSessionDeps) (training.Session, error) {
	user, err := requireUser(deps.Machine)
	if err != nil {
		return training.Session{}, err
	}
	if !user.IsCoach() {
		return training.Session{}, training.ErrNotCoach
	}

	ns := input.Session
	if ns.CoachName == "" {
		ns.CoachName = user.Name
	}
	ns = ns.Normalize()
	if fields := ns.Validate(); len(fields) > 0 {
		return training.Session{}, failure.Validation("create_training_session", fields)
	}

	token, err := requireToken("create_training_session", deps.Tokens)
	if err != nil {
		ExecuteInvalidateSession(ctx, err, InvalidateSessionDeps{Tokens: deps.Tokens, Machine: deps.Machine})
		return training.Session{}, err
	}

	created, err := deps.Publisher.CreateTrainingSession(ctx, token, ns)
	if err != nil {
		if failure.IsUnauthorized(err) {
			ExecuteInvalidateSession(ctx, err, InvalidateSessionDeps{Tokens: deps.Tokens, Machine: deps.Machine})
		}
		return training.Session{}, err
	}
	slog.Info("training_session_created", "session_id", created.SessionID, "coach_id", user.UserID)
	return created, nil
}
