package dto

import (
	"encoding/json"
	"time"
)

// AttemptFilters defines parameters for filtering lists of attempts.
// These are typically query parameters.
type AttemptFilters struct {
	QuizID       string `query:"quiz_id"`
	AssignmentID string `query:"assignment_id"`
	Status       string `query:"status"`     // in_progress or completed
	StartDate    string `query:"start_date"` // Format: YYYY-MM-DD
	EndDate      string `query:"end_date"`   // Format: YYYY-MM-DD
}

// StartAttemptRequest starts (or resumes) an attempt on a quiz.
// @Description Request body for starting an attempt
type StartAttemptRequest struct {
	QuizID       string  `json:"quiz_id"`
	AssignmentID *string `json:"assignment_id,omitempty"`
}

// AttemptResponse represents an attempt in the API response. Score fields are
// null until the attempt completes.
// @Description Attempt with lifecycle state and final scores
type AttemptResponse struct {
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

// AttemptListResponse is a paginated attempt history.
type AttemptListResponse struct {
	Attempts       []AttemptResponse `json:"attempts"`
	PaginationInfo PaginationInfo    `json:"pagination"`
}

// SubmitAnswerRequest upserts the response for one question of an attempt.
// Answered false is the skip path: the payload must then be the question
// type's empty value.
// @Description Request body for submitting or skipping an answer
type SubmitAnswerRequest struct {
	QuestionID string          `json:"question_id"`
	Payload    json.RawMessage `json:"payload"`
	Answered   bool            `json:"answered"`
}

// ResponseItem is one stored response of an attempt. Correctness fields stay
// null until the attempt completes.
// @Description Stored response with grading outcome after completion
type ResponseItem struct {
	QuestionID   string          `json:"question_id"`
	Payload      json.RawMessage `json:"payload"`
	Answered     bool            `json:"answered"`
	IsCorrect    *bool           `json:"is_correct,omitempty"`
	PointsEarned *float64        `json:"points_earned,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// AttemptResponsesResponse lists every stored response of an attempt.
type AttemptResponsesResponse struct {
	AttemptID string         `json:"attempt_id"`
	Responses []ResponseItem `json:"responses"`
}
