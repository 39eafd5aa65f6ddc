package domain

import (
	"context"
	"time"

	"quiz-class/internal/dto"
)

// AssignmentStatus is always derived, never stored. Precedence when several
// conditions hold: cancelled > completed > overdue > in_progress > assigned.
type AssignmentStatus string

const (
	AssignmentStatusAssigned   AssignmentStatus = "assigned"
	AssignmentStatusInProgress AssignmentStatus = "in_progress"
	AssignmentStatusCompleted  AssignmentStatus = "completed"
	AssignmentStatusOverdue    AssignmentStatus = "overdue"
	AssignmentStatusCancelled  AssignmentStatus = "cancelled"
)

// Assignment links a quiz to a learner with taking conditions.
type Assignment struct {
	ID          string
	QuizID      string
	LearnerID   string
	AssignedBy  string
	DueAt       *time.Time // nil = no deadline
	MaxAttempts *int       // nil = unlimited
	IsMandatory bool
	Notes       string
	CancelledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// NewAssignment creates a new Assignment instance
func NewAssignment(quizID, learnerID, assignedBy string) *Assignment {
	now := time.Now()
	return &Assignment{
		QuizID:     quizID,
		LearnerID:  learnerID,
		AssignedBy: assignedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Validate validates the assignment
func (a *Assignment) Validate() error {
	if a.QuizID == "" {
		return NewValidationError("quiz_id is required")
	}
	if a.LearnerID == "" {
		return NewValidationError("learner_id is required")
	}
	if a.AssignedBy == "" {
		return NewValidationError("assigned_by is required")
	}
	if a.MaxAttempts != nil && *a.MaxAttempts < 1 {
		return NewValidationError("max_attempts must be at least 1 when set")
	}
	return nil
}

// IsCancelled reports whether the assignment was cancelled.
func (a *Assignment) IsCancelled() bool {
	return a.CancelledAt != nil
}

// ComputeStatus derives the assignment status from its cancellation mark, the
// learner's attempt history and the due date.
func (a *Assignment) ComputeStatus(now time.Time, hasCompletedAttempt, hasInProgressAttempt bool) AssignmentStatus {
	if a.IsCancelled() {
		return AssignmentStatusCancelled
	}
	if hasCompletedAttempt {
		return AssignmentStatusCompleted
	}
	if a.DueAt != nil && now.After(*a.DueAt) {
		return AssignmentStatusOverdue
	}
	if hasInProgressAttempt {
		return AssignmentStatusInProgress
	}
	return AssignmentStatusAssigned
}

// QuotaExhausted reports whether completedAttempts used up the attempt quota.
// An unlimited assignment never exhausts.
func (a *Assignment) QuotaExhausted(completedAttempts int) bool {
	if a.MaxAttempts == nil {
		return false
	}
	return completedAttempts >= *a.MaxAttempts
}

// AssignmentRepository defines the interface for assignment persistence
type AssignmentRepository interface {
	// CreateAssignment persists a new assignment.
	CreateAssignment(ctx context.Context, assignment *Assignment) error

	// GetAssignmentByID retrieves an assignment by ID. Returns (nil, nil) when absent.
	GetAssignmentByID(ctx context.Context, id string) (*Assignment, error)

	// GetAssignmentsByLearnerID returns the learner's assignments plus the
	// unpaginated total, newest first.
	GetAssignmentsByLearnerID(ctx context.Context, learnerID string, filters dto.AssignmentFilters, pagination dto.Pagination) ([]*Assignment, int, error)

	// GetAssignmentsByAssignerID returns assignments created by the assigner.
	GetAssignmentsByAssignerID(ctx context.Context, assignerID string, filters dto.AssignmentFilters, pagination dto.Pagination) ([]*Assignment, int, error)

	// GetAssignmentByQuizAndLearner finds an active (non-cancelled) assignment
	// for the pair. Returns (nil, nil) when absent.
	GetAssignmentByQuizAndLearner(ctx context.Context, quizID, learnerID string) (*Assignment, error)

	// UpdateAssignment updates due date, quota, mandatory flag, notes and
	// cancellation mark.
	UpdateAssignment(ctx context.Context, assignment *Assignment) error
}
