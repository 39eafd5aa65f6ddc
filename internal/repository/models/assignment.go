package models

import (
	"database/sql"
	"time"
)

// Assignment is a row of the assignments table. NULL DUE_AT means no
// deadline, NULL MAX_ATTEMPTS means unlimited. Cancellation is a timestamp,
// not a status column: assignment status is always derived.
type Assignment struct {
	ID          string         `db:"ID"` // ULID
	QuizID      string         `db:"QUIZ_ID"`
	LearnerID   string         `db:"LEARNER_ID"`
	AssignedBy  string         `db:"ASSIGNED_BY"`
	DueAt       sql.NullTime   `db:"DUE_AT"`
	MaxAttempts sql.NullInt64  `db:"MAX_ATTEMPTS"`
	IsMandatory bool           `db:"IS_MANDATORY"`
	Notes       sql.NullString `db:"NOTES"`
	CancelledAt sql.NullTime   `db:"CANCELLED_AT"`
	CreatedAt   time.Time      `db:"CREATED_AT"`
	UpdatedAt   time.Time      `db:"UPDATED_AT"`
	DeletedAt   sql.NullTime   `db:"DELETED_AT"`
}
