package dto

import "time"

// AssignmentFilters defines parameters for filtering assignment lists.
// These are typically query parameters.
type AssignmentFilters struct {
	QuizID           string `query:"quiz_id"`
	LearnerID        string `query:"learner_id"` // assigner view only
	IncludeCancelled bool   `query:"include_cancelled"`
}

// CreateAssignmentRequest creates one assignment.
// @Description Request body for assigning a quiz to a learner
type CreateAssignmentRequest struct {
	QuizID      string     `json:"quiz_id"`
	LearnerID   string     `json:"learner_id"`
	DueAt       *time.Time `json:"due_at,omitempty"`        // null = no deadline
	MaxAttempts *int       `json:"max_attempts,omitempty"`  // null = unlimited
	IsMandatory bool       `json:"is_mandatory"`
	Notes       string     `json:"notes,omitempty"`
}

// BulkCreateAssignmentsRequest assigns one quiz to many learners at once.
// @Description Request body for bulk assignment creation
type BulkCreateAssignmentsRequest struct {
	QuizID      string     `json:"quiz_id"`
	LearnerIDs  []string   `json:"learner_ids"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	MaxAttempts *int       `json:"max_attempts,omitempty"`
	IsMandatory bool       `json:"is_mandatory"`
	Notes       string     `json:"notes,omitempty"`
}

// UpdateAssignmentRequest updates the mutable assignment fields. Pointer
// fields distinguish "leave unchanged" (absent) from explicit values; ClearDueAt
// and ClearMaxAttempts reset a field to null.
type UpdateAssignmentRequest struct {
	DueAt            *time.Time `json:"due_at,omitempty"`
	ClearDueAt       bool       `json:"clear_due_at,omitempty"`
	MaxAttempts      *int       `json:"max_attempts,omitempty"`
	ClearMaxAttempts bool       `json:"clear_max_attempts,omitempty"`
	IsMandatory      *bool      `json:"is_mandatory,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
}

// AssignmentResponse represents an assignment in the API response. Status is
// computed at read time; attempts_used counts completed attempts.
// @Description Assignment with computed status and attempt usage
type AssignmentResponse struct {
	ID           string        `json:"id"`
	QuizID       string        `json:"quiz_id"`
	LearnerID    string        `json:"learner_id"`
	AssignedBy   string        `json:"assigned_by"`
	DueAt        *time.Time    `json:"due_at,omitempty"`
	MaxAttempts  *int          `json:"max_attempts,omitempty"`
	IsMandatory  bool          `json:"is_mandatory"`
	Notes        string        `json:"notes,omitempty"`
	Status       string        `json:"status"`
	AttemptsUsed int           `json:"attempts_used"`
	CreatedAt    time.Time     `json:"created_at"`
	Quiz         *QuizResponse `json:"quiz,omitempty"`
}

// AssignmentListResponse is a paginated assignment list.
type AssignmentListResponse struct {
	Assignments    []AssignmentResponse `json:"assignments"`
	PaginationInfo PaginationInfo       `json:"pagination"`
}

// BulkAssignmentResult reports the outcome per learner of a bulk create.
// Learners that already hold an active assignment for the quiz are listed as
// skipped rather than failing the batch.
type BulkAssignmentResult struct {
	Created []AssignmentResponse `json:"created"`
	Skipped []BulkSkipped        `json:"skipped,omitempty"`
}

// BulkSkipped names a learner left out of a bulk create and why.
type BulkSkipped struct {
	LearnerID string `json:"learner_id"`
	Reason    string `json:"reason"`
}
