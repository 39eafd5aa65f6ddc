package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quiz-class/internal/domain"
	"quiz-class/internal/repository/models"

	"github.com/jmoiron/sqlx"
)

// sqlxQuestionRepository implements domain.QuestionRepository using sqlx.
type sqlxQuestionRepository struct {
	db *sqlx.DB
}

// NewSQLXQuestionRepository creates a new instance of sqlxQuestionRepository.
func NewSQLXQuestionRepository(db *sqlx.DB) domain.QuestionRepository {
	return &sqlxQuestionRepository{db: db}
}

func toDomainQuestion(modelQuestion *models.Question) (*domain.Question, error) {
	if modelQuestion == nil {
		return nil, nil
	}
	var content domain.QuestionContent
	if len(modelQuestion.Content) > 0 {
		if err := json.Unmarshal(modelQuestion.Content, &content); err != nil {
			return nil, fmt.Errorf("failed to unmarshal question content for %s: %w", modelQuestion.ID, err)
		}
	}
	var deletedAt *time.Time
	if modelQuestion.DeletedAt.Valid {
		deletedAt = &modelQuestion.DeletedAt.Time
	}
	return &domain.Question{
		ID:        modelQuestion.ID,
		QuizID:    modelQuestion.QuizID,
		Type:      domain.QuestionType(modelQuestion.QType),
		Prompt:    modelQuestion.Prompt,
		Points:    modelQuestion.Points,
		Position:  modelQuestion.Position,
		Content:   content,
		CreatedAt: modelQuestion.CreatedAt,
		UpdatedAt: modelQuestion.UpdatedAt,
		DeletedAt: deletedAt,
	}, nil
}

func fromDomainQuestion(domainQuestion *domain.Question) (*models.Question, error) {
	if domainQuestion == nil {
		return nil, nil
	}
	contentJSON, err := json.Marshal(domainQuestion.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal question content: %w", err)
	}
	return &models.Question{
		ID:        domainQuestion.ID,
		QuizID:    domainQuestion.QuizID,
		QType:     string(domainQuestion.Type),
		Prompt:    domainQuestion.Prompt,
		Points:    domainQuestion.Points,
		Position:  domainQuestion.Position,
		Content:   models.JSONClob(contentJSON),
		CreatedAt: domainQuestion.CreatedAt,
		UpdatedAt: domainQuestion.UpdatedAt,
	}, nil
}

// GetQuestionsByQuizID returns the quiz's questions ordered by position.
func (r *sqlxQuestionRepository) GetQuestionsByQuizID(ctx context.Context, quizID string) ([]*domain.Question, error) {
	var modelQuestions []models.Question
	query := `SELECT * FROM questions WHERE quiz_id = :1 AND deleted_at IS NULL ORDER BY position`

	executor := GetExecutor(ctx, r.db)
	if err := executor.SelectContext(ctx, &modelQuestions, query, quizID); err != nil {
		return nil, fmt.Errorf("failed to get questions for quiz %s: %w", quizID, err)
	}

	questions := make([]*domain.Question, 0, len(modelQuestions))
	for i := range modelQuestions {
		question, err := toDomainQuestion(&modelQuestions[i])
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	return questions, nil
}

// GetQuestionByID retrieves a question by its ID. Returns (nil, nil) when absent.
func (r *sqlxQuestionRepository) GetQuestionByID(ctx context.Context, id string) (*domain.Question, error) {
	var modelQuestion models.Question
	query := `SELECT * FROM questions WHERE id = :1 AND deleted_at IS NULL`

	executor := GetExecutor(ctx, r.db)
	err := executor.GetContext(ctx, &modelQuestion, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get question by id: %w", err)
	}
	return toDomainQuestion(&modelQuestion)
}

// SaveQuestion persists a new question.
func (r *sqlxQuestionRepository) SaveQuestion(ctx context.Context, question *domain.Question) error {
	now := time.Now()
	if question.CreatedAt.IsZero() {
		question.CreatedAt = now
	}
	question.UpdatedAt = now
	modelQuestion, err := fromDomainQuestion(question)
	if err != nil {
		return err
	}

	query := `INSERT INTO questions (id, quiz_id, qtype, prompt, points, position, content, created_at, updated_at)
	          VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9)`

	executor := GetExecutor(ctx, r.db)
	_, err = executor.ExecContext(ctx, query,
		modelQuestion.ID,
		modelQuestion.QuizID,
		modelQuestion.QType,
		modelQuestion.Prompt,
		modelQuestion.Points,
		modelQuestion.Position,
		modelQuestion.Content,
		modelQuestion.CreatedAt,
		modelQuestion.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save question: %w", err)
	}
	return nil
}
