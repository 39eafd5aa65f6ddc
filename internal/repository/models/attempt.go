package models

import (
	"database/sql"
	"time"
)

// Attempt is a row of the attempts table. Score columns stay NULL until the
// attempt completes.
type Attempt struct {
	ID           string          `db:"ID"` // ULID
	QuizID       string          `db:"QUIZ_ID"`
	UserID       string          `db:"USER_ID"`
	AssignmentID sql.NullString  `db:"ASSIGNMENT_ID"`
	Status       string          `db:"STATUS"` // in_progress or completed
	StartedAt    time.Time       `db:"STARTED_AT"`
	CompletedAt  sql.NullTime    `db:"COMPLETED_AT"`
	TotalScore   sql.NullFloat64 `db:"TOTAL_SCORE"`
	MaxScore     sql.NullFloat64 `db:"MAX_SCORE"`
	Percentage   sql.NullFloat64 `db:"PERCENTAGE"`
	CreatedAt    time.Time       `db:"CREATED_AT"`
	UpdatedAt    time.Time       `db:"UPDATED_AT"`
}

// Response is a row of the responses table, unique per
// (ATTEMPT_ID, QUESTION_ID). The payload CLOB keeps the learner's answer
// bytes untouched. ANSWERED distinguishes answers from skips; grading
// columns stay NULL until completion.
type Response struct {
	ID           string          `db:"ID"` // ULID
	AttemptID    string          `db:"ATTEMPT_ID"`
	QuestionID   string          `db:"QUESTION_ID"`
	Payload      JSONClob        `db:"PAYLOAD"`
	Answered     bool            `db:"ANSWERED"`
	IsCorrect    sql.NullBool    `db:"IS_CORRECT"`
	PointsEarned sql.NullFloat64 `db:"POINTS_EARNED"`
	CreatedAt    time.Time       `db:"CREATED_AT"`
	UpdatedAt    time.Time       `db:"UPDATED_AT"`
}
