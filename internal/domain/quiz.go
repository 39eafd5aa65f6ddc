package domain

import (
	"context"
	"time"

	"quiz-class/internal/dto"
)

// Subject is the catalog taxonomy a quiz belongs to.
type Subject struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// NewSubject creates a new Subject instance
func NewSubject(name, description string) *Subject {
	now := time.Now()
	return &Subject{
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate validates the subject
func (s *Subject) Validate() error {
	if s.Name == "" {
		return NewValidationError("name is required")
	}
	return nil
}

// Difficulty levels are stored as integers.
const (
	DifficultyEasy   = 1
	DifficultyMedium = 2
	DifficultyHard   = 3
)

// DifficultyToInt converts a difficulty label to its stored integer form.
// Unknown labels map to 0, which Validate rejects.
func DifficultyToInt(difficulty string) int {
	switch difficulty {
	case "easy":
		return DifficultyEasy
	case "medium":
		return DifficultyMedium
	case "hard":
		return DifficultyHard
	default:
		return 0
	}
}

// DifficultyToString converts the stored integer difficulty to its label.
func DifficultyToString(difficulty int) string {
	switch difficulty {
	case DifficultyEasy:
		return "easy"
	case DifficultyMedium:
		return "medium"
	case DifficultyHard:
		return "hard"
	default:
		return "unknown"
	}
}

// Quiz represents a quiz in the catalog.
type Quiz struct {
	ID               string
	SubjectID        string
	Title            string
	Description      string
	Difficulty       int
	Tags             []string
	MinAge           int
	MaxAge           int
	EstimatedMinutes int
	Published        bool
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
}

// NewQuiz creates a new Quiz instance
func NewQuiz(subjectID, title string, difficulty int) *Quiz {
	now := time.Now()
	return &Quiz{
		SubjectID:  subjectID,
		Title:      title,
		Difficulty: difficulty,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Validate validates the quiz
func (q *Quiz) Validate() error {
	if q.SubjectID == "" {
		return NewValidationError("subject_id is required")
	}
	if q.Title == "" {
		return NewValidationError("title is required")
	}
	if q.Difficulty < DifficultyEasy || q.Difficulty > DifficultyHard {
		return NewValidationError("difficulty must be easy, medium or hard")
	}
	if q.MinAge < 0 || q.MaxAge < 0 {
		return NewValidationError("age range must not be negative")
	}
	if q.MaxAge > 0 && q.MinAge > q.MaxAge {
		return NewValidationError("min_age must not exceed max_age")
	}
	if q.EstimatedMinutes < 0 {
		return NewValidationError("estimated_minutes must not be negative")
	}
	return nil
}

// SuitableForAge reports whether the quiz targets the given learner age.
// A zero bound means that side of the range is open.
func (q *Quiz) SuitableForAge(age int) bool {
	if q.MinAge > 0 && age < q.MinAge {
		return false
	}
	if q.MaxAge > 0 && age > q.MaxAge {
		return false
	}
	return true
}

// SubjectRepository defines the interface for subject persistence
type SubjectRepository interface {
	GetAllSubjects(ctx context.Context) ([]*Subject, error)
	GetSubjectByID(ctx context.Context, id string) (*Subject, error)
	SaveSubject(ctx context.Context, subject *Subject) error
}

// QuizRepository defines the interface for quiz persistence
type QuizRepository interface {
	// GetQuizByID retrieves a quiz by its ID. Returns (nil, nil) when absent.
	GetQuizByID(ctx context.Context, id string) (*Quiz, error)

	// ListQuizzes returns quizzes matching the filters plus the unpaginated total.
	ListQuizzes(ctx context.Context, filters dto.QuizFilters, pagination dto.Pagination) ([]*Quiz, int, error)

	// SaveQuiz persists a new quiz
	SaveQuiz(ctx context.Context, quiz *Quiz) error

	// UpdateQuiz updates an existing quiz
	UpdateQuiz(ctx context.Context, quiz *Quiz) error
}

// QuestionRepository defines the interface for question persistence
type QuestionRepository interface {
	// GetQuestionsByQuizID returns the quiz's questions ordered by position.
	GetQuestionsByQuizID(ctx context.Context, quizID string) ([]*Question, error)

	// GetQuestionByID retrieves a question by its ID. Returns (nil, nil) when absent.
	GetQuestionByID(ctx context.Context, id string) (*Question, error)

	// SaveQuestion persists a new question
	SaveQuestion(ctx context.Context, question *Question) error
}
