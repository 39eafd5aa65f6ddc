package client

import (
	"encoding/json"
	"time"
)

// The wire types mirror the server's DTOs with snake_case tags. Responses are
// key-normalized before unmarshalling, so a camelCase-emitting proxy or an
// older server build decodes into the same structs.

// Question type and status values as the server emits them.
const (
	QuestionTypeSingleChoice        = "single_choice"
	QuestionTypeMultiChoice         = "multi_choice"
	QuestionTypeFillInBlank         = "fill_in_blank"
	QuestionTypeFillInBlankDragDrop = "fill_in_blank_drag_drop"
	QuestionTypeMatching            = "matching"
	QuestionTypeOrdering            = "ordering"

	AttemptStatusInProgress = "in_progress"
	AttemptStatusCompleted  = "completed"

	AssignmentStatusAssigned   = "assigned"
	AssignmentStatusInProgress = "in_progress"
	AssignmentStatusCompleted  = "completed"
	AssignmentStatusOverdue    = "overdue"
	AssignmentStatusCancelled  = "cancelled"
)

// Quiz is one quiz of the catalog.
type Quiz struct {
	ID               string   `json:"id"`
	SubjectID        string   `json:"subject_id"`
	SubjectName      string   `json:"subject_name,omitempty"`
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	Difficulty       string   `json:"difficulty"`
	Tags             []string `json:"tags"`
	MinAge           int      `json:"min_age,omitempty"`
	MaxAge           int      `json:"max_age,omitempty"`
	EstimatedMinutes int      `json:"estimated_minutes,omitempty"`
	Published        bool     `json:"published"`
	QuestionCount    int      `json:"question_count,omitempty"`
}

// Question is one question of a quiz. Content is the type-specific body with
// the answer keys already stripped by the server.
type Question struct {
	ID       string          `json:"id"`
	QuizID   string          `json:"quiz_id"`
	Type     string          `json:"type"`
	Prompt   string          `json:"prompt"`
	Points   float64         `json:"points"`
	Position int             `json:"position"`
	Content  json.RawMessage `json:"content"`
}

// QuizQuestions is the ordered question list of one quiz.
type QuizQuestions struct {
	QuizID    string     `json:"quiz_id"`
	Questions []Question `json:"questions"`
}

// Attempt is one run of a learner through a quiz. The score fields stay nil
// until the attempt completes.
type Attempt struct {
	ID           string     `json:"id"`
	QuizID       string     `json:"quiz_id"`
	UserID       string     `json:"user_id"`
	AssignmentID *string    `json:"assignment_id,omitempty"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	TotalScore   *float64   `json:"total_score,omitempty"`
	MaxScore     *float64   `json:"max_score,omitempty"`
	Percentage   *float64   `json:"percentage,omitempty"`
}

// ResponseItem is the stored answer for one question of an attempt.
type ResponseItem struct {
	QuestionID   string          `json:"question_id"`
	Payload      json.RawMessage `json:"payload"`
	Answered     bool            `json:"answered"`
	IsCorrect    *bool           `json:"is_correct,omitempty"`
	PointsEarned *float64        `json:"points_earned,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// AttemptResponses is every stored response of one attempt.
type AttemptResponses struct {
	AttemptID string         `json:"attempt_id"`
	Responses []ResponseItem `json:"responses"`
}

// Assignment links a learner to a quiz with due-date and quota terms. Status
// is computed by the server at read time.
type Assignment struct {
	ID           string     `json:"id"`
	QuizID       string     `json:"quiz_id"`
	LearnerID    string     `json:"learner_id"`
	AssignedBy   string     `json:"assigned_by"`
	DueAt        *time.Time `json:"due_at,omitempty"`
	MaxAttempts  *int       `json:"max_attempts,omitempty"`
	IsMandatory  bool       `json:"is_mandatory"`
	Notes        string     `json:"notes,omitempty"`
	Status       string     `json:"status"`
	AttemptsUsed int        `json:"attempts_used"`
	CreatedAt    time.Time  `json:"created_at"`
	Quiz         *Quiz      `json:"quiz,omitempty"`
}

// Pagination describes one page of a list response.
type Pagination struct {
	TotalItems  int64 `json:"total_items"`
	Limit       int   `json:"limit"`
	Offset      int   `json:"offset"`
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
}

// AttemptList is one page of attempts.
type AttemptList struct {
	Attempts   []Attempt  `json:"attempts"`
	Pagination Pagination `json:"pagination"`
}

// AssignmentList is one page of assignments.
type AssignmentList struct {
	Assignments []Assignment `json:"assignments"`
	Pagination  Pagination   `json:"pagination"`
}

// BulkSkipped names a learner the bulk create left out and why.
type BulkSkipped struct {
	LearnerID string `json:"learner_id"`
	Reason    string `json:"reason"`
}

// BulkAssignmentResult reports what a bulk create achieved.
type BulkAssignmentResult struct {
	Created []Assignment  `json:"created"`
	Skipped []BulkSkipped `json:"skipped,omitempty"`
}

// StartAttemptRequest asks for the open attempt of a quiz, creating it when
// none exists.
type StartAttemptRequest struct {
	QuizID       string  `json:"quiz_id"`
	AssignmentID *string `json:"assignment_id,omitempty"`
}

// SubmitAnswerRequest stores one response. answered=false with the
// type-specific empty payload records a skip.
type SubmitAnswerRequest struct {
	QuestionID string          `json:"question_id"`
	Payload    json.RawMessage `json:"payload"`
	Answered   bool            `json:"answered"`
}

// CreateAssignmentRequest assigns a quiz to one learner.
type CreateAssignmentRequest struct {
	QuizID      string     `json:"quiz_id"`
	LearnerID   string     `json:"learner_id"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	MaxAttempts *int       `json:"max_attempts,omitempty"`
	IsMandatory bool       `json:"is_mandatory"`
	Notes       string     `json:"notes,omitempty"`
}

// BulkCreateAssignmentsRequest assigns a quiz to many learners at once.
type BulkCreateAssignmentsRequest struct {
	QuizID      string     `json:"quiz_id"`
	LearnerIDs  []string   `json:"learner_ids"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	MaxAttempts *int       `json:"max_attempts,omitempty"`
	IsMandatory bool       `json:"is_mandatory"`
	Notes       string     `json:"notes,omitempty"`
}

// UpdateAssignmentRequest patches assignment terms. Absent fields stay
// unchanged; the clear flags reset their nullable counterparts.
type UpdateAssignmentRequest struct {
	DueAt            *time.Time `json:"due_at,omitempty"`
	ClearDueAt       bool       `json:"clear_due_at,omitempty"`
	MaxAttempts      *int       `json:"max_attempts,omitempty"`
	ClearMaxAttempts bool       `json:"clear_max_attempts,omitempty"`
	IsMandatory      *bool      `json:"is_mandatory,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
}

// ListAttemptsOptions filter and paginate GetUserAttempts. Zero values are
// omitted from the query.
type ListAttemptsOptions struct {
	QuizID       string
	AssignmentID string
	Status       string
	StartDate    string // YYYY-MM-DD
	EndDate      string // YYYY-MM-DD
	Limit        int
	Page         int
}

// ListAssignmentsOptions filter and paginate GetMyAssignments.
type ListAssignmentsOptions struct {
	QuizID           string
	IncludeCancelled bool
	Limit            int
	Page             int
}
