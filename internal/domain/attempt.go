package domain

import (
	"context"
	"encoding/json"
	"time"

	"quiz-class/internal/dto"
)

// AttemptStatus tracks the attempt lifecycle. completed is terminal.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "in_progress"
	AttemptStatusCompleted  AttemptStatus = "completed"
)

// Attempt represents one run of a learner through a quiz.
type Attempt struct {
	ID           string
	QuizID       string
	UserID       string
	AssignmentID *string // nil for self-started attempts
	Status       AttemptStatus
	StartedAt    time.Time
	CompletedAt  *time.Time
	TotalScore   *float64 // set at completion
	MaxScore     *float64
	Percentage   *float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAttempt creates an in-progress attempt for the given quiz and user.
func NewAttempt(quizID, userID string, assignmentID *string) *Attempt {
	now := time.Now()
	return &Attempt{
		QuizID:       quizID,
		UserID:       userID,
		AssignmentID: assignmentID,
		Status:       AttemptStatusInProgress,
		StartedAt:    now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsCompleted reports whether the attempt reached its terminal state.
func (a *Attempt) IsCompleted() bool {
	return a.Status == AttemptStatusCompleted
}

// Complete transitions the attempt to its terminal state with final scores.
// Percentage is 0 when the quiz carries no points.
func (a *Attempt) Complete(now time.Time, totalScore, maxScore float64) {
	percentage := 0.0
	if maxScore > 0 {
		percentage = totalScore / maxScore * 100
	}
	a.Status = AttemptStatusCompleted
	a.CompletedAt = &now
	a.TotalScore = &totalScore
	a.MaxScore = &maxScore
	a.Percentage = &percentage
	a.UpdatedAt = now
}

// Response is a learner's stored answer to one question of an attempt.
// Answered distinguishes a real answer from a skip; a skip stores the
// question type's empty payload with Answered=false. IsCorrect and
// PointsEarned stay nil until the attempt completes.
type Response struct {
	ID           string
	AttemptID    string
	QuestionID   string
	Payload      json.RawMessage
	Answered     bool
	IsCorrect    *bool
	PointsEarned *float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AttemptRepository defines the interface for attempt persistence
type AttemptRepository interface {
	// CreateAttempt persists a new attempt. A unique index on the open
	// (quiz, user, assignment) triple rejects a second in-progress row;
	// implementations surface that as ErrDuplicateAttempt.
	CreateAttempt(ctx context.Context, attempt *Attempt) error

	// GetAttemptByID retrieves an attempt by ID. Returns (nil, nil) when absent.
	GetAttemptByID(ctx context.Context, id string) (*Attempt, error)

	// GetInProgressAttempt finds the open attempt for the triple.
	// Returns (nil, nil) when absent.
	GetInProgressAttempt(ctx context.Context, quizID, userID string, assignmentID *string) (*Attempt, error)

	// CountCompletedAttempts counts terminal attempts for the triple.
	CountCompletedAttempts(ctx context.Context, quizID, userID string, assignmentID *string) (int, error)

	// CountAttemptsByAssignment returns completed and in-progress counts for
	// one assignment, feeding status computation and quota checks.
	CountAttemptsByAssignment(ctx context.Context, assignmentID string) (completed int, inProgress int, err error)

	// GetAttemptsByUserID returns the user's attempts plus the unpaginated
	// total, newest first.
	GetAttemptsByUserID(ctx context.Context, userID string, filters dto.AttemptFilters, pagination dto.Pagination) ([]*Attempt, int, error)

	// UpdateAttempt persists lifecycle changes (completion scores and status).
	UpdateAttempt(ctx context.Context, attempt *Attempt) error
}

// ErrDuplicateAttempt is returned by CreateAttempt when another in-progress
// attempt already holds the (quiz, user, assignment) slot.
var ErrDuplicateAttempt = NewError(CodeInvalidInput, "an in-progress attempt already exists", nil)

// ResponseRepository defines the interface for response persistence
type ResponseRepository interface {
	// UpsertResponse inserts or replaces the response for
	// (attempt, question), keyed by the unique pair index.
	UpsertResponse(ctx context.Context, response *Response) error

	// GetResponse fetches one response. Returns (nil, nil) when absent.
	GetResponse(ctx context.Context, attemptID, questionID string) (*Response, error)

	// GetResponsesByAttemptID returns all responses of an attempt.
	GetResponsesByAttemptID(ctx context.Context, attemptID string) ([]*Response, error)

	// UpdateGrades writes is_correct and points_earned for graded responses.
	UpdateGrades(ctx context.Context, responses []*Response) error
}
