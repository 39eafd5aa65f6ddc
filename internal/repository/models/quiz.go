package models

import (
	"database/sql"
	"time"
)

// Subject is a row of the subjects table.
type Subject struct {
	ID          string         `db:"ID"` // ULID
	Name        string         `db:"NAME"`
	Description sql.NullString `db:"DESCRIPTION"`
	CreatedAt   time.Time      `db:"CREATED_AT"`
	UpdatedAt   time.Time      `db:"UPDATED_AT"`
	DeletedAt   sql.NullTime   `db:"DELETED_AT"`
}

// Quiz is a row of the quizzes table. Tags are a JSON array in a CLOB.
type Quiz struct {
	ID               string         `db:"ID"` // ULID
	SubjectID        string         `db:"SUBJECT_ID"`
	Title            string         `db:"TITLE"`
	Description      sql.NullString `db:"DESCRIPTION"`
	Difficulty       int            `db:"DIFFICULTY"` // 1=easy 2=medium 3=hard
	Tags             StringSlice    `db:"TAGS"`
	MinAge           int            `db:"MIN_AGE"`
	MaxAge           int            `db:"MAX_AGE"`
	EstimatedMinutes int            `db:"ESTIMATED_MINUTES"`
	Published        bool           `db:"PUBLISHED"`
	CreatedBy        sql.NullString `db:"CREATED_BY"`
	CreatedAt        time.Time      `db:"CREATED_AT"`
	UpdatedAt        time.Time      `db:"UPDATED_AT"`
	DeletedAt        sql.NullTime   `db:"DELETED_AT"`
}

// Question is a row of the questions table. Content is the type-specific
// authoring payload stored as JSON in a CLOB, answer keys included.
type Question struct {
	ID        string       `db:"ID"` // ULID
	QuizID    string       `db:"QUIZ_ID"`
	QType     string       `db:"QTYPE"`
	Prompt    string       `db:"PROMPT"`
	Points    float64      `db:"POINTS"`
	Position  int          `db:"POSITION"`
	Content   JSONClob     `db:"CONTENT"`
	CreatedAt time.Time    `db:"CREATED_AT"`
	UpdatedAt time.Time    `db:"UPDATED_AT"`
	DeletedAt sql.NullTime `db:"DELETED_AT"`
}
