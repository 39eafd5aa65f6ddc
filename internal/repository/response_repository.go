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

// sqlxResponseRepository implements domain.ResponseRepository using sqlx.
type sqlxResponseRepository struct {
	db *sqlx.DB
}

// NewSQLXResponseRepository creates a new instance of sqlxResponseRepository.
func NewSQLXResponseRepository(db *sqlx.DB) domain.ResponseRepository {
	return &sqlxResponseRepository{db: db}
}

func toDomainResponse(modelResponse *models.Response) *domain.Response {
	if modelResponse == nil {
		return nil
	}
	var isCorrect *bool
	if modelResponse.IsCorrect.Valid {
		v := modelResponse.IsCorrect.Bool
		isCorrect = &v
	}
	var pointsEarned *float64
	if modelResponse.PointsEarned.Valid {
		v := modelResponse.PointsEarned.Float64
		pointsEarned = &v
	}
	return &domain.Response{
		ID:           modelResponse.ID,
		AttemptID:    modelResponse.AttemptID,
		QuestionID:   modelResponse.QuestionID,
		Payload:      json.RawMessage(modelResponse.Payload),
		Answered:     modelResponse.Answered,
		IsCorrect:    isCorrect,
		PointsEarned: pointsEarned,
		CreatedAt:    modelResponse.CreatedAt,
		UpdatedAt:    modelResponse.UpdatedAt,
	}
}

// UpsertResponse inserts or replaces the response for (attempt, question).
// A MERGE keeps the write atomic under the unique pair index, so two racing
// submits for the same question cannot both insert.
func (r *sqlxResponseRepository) UpsertResponse(ctx context.Context, response *domain.Response) error {
	now := time.Now()
	if response.CreatedAt.IsZero() {
		response.CreatedAt = now
	}
	response.UpdatedAt = now
	payload := models.JSONClob(response.Payload)

	query := `MERGE INTO responses tgt
	          USING (SELECT :1 AS attempt_id, :2 AS question_id FROM dual) src
	          ON (tgt.attempt_id = src.attempt_id AND tgt.question_id = src.question_id)
	          WHEN MATCHED THEN UPDATE SET
	            tgt.payload = :3,
	            tgt.answered = :4,
	            tgt.updated_at = :5
	          WHEN NOT MATCHED THEN INSERT (id, attempt_id, question_id, payload, answered, created_at, updated_at)
	          VALUES (:6, :7, :8, :9, :10, :11, :12)`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		response.AttemptID,
		response.QuestionID,
		payload,
		response.Answered,
		response.UpdatedAt,
		response.ID,
		response.AttemptID,
		response.QuestionID,
		payload,
		response.Answered,
		response.CreatedAt,
		response.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert response: %w", err)
	}
	return nil
}

// GetResponse fetches one response. Returns (nil, nil) when absent.
func (r *sqlxResponseRepository) GetResponse(ctx context.Context, attemptID, questionID string) (*domain.Response, error) {
	var modelResponse models.Response
	query := `SELECT * FROM responses WHERE attempt_id = :1 AND question_id = :2`

	executor := GetExecutor(ctx, r.db)
	err := executor.GetContext(ctx, &modelResponse, query, attemptID, questionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get response: %w", err)
	}
	return toDomainResponse(&modelResponse), nil
}

// GetResponsesByAttemptID returns all responses of an attempt, oldest first.
func (r *sqlxResponseRepository) GetResponsesByAttemptID(ctx context.Context, attemptID string) ([]*domain.Response, error) {
	var modelResponses []models.Response
	query := `SELECT * FROM responses WHERE attempt_id = :1 ORDER BY created_at`

	executor := GetExecutor(ctx, r.db)
	if err := executor.SelectContext(ctx, &modelResponses, query, attemptID); err != nil {
		return nil, fmt.Errorf("failed to get responses for attempt %s: %w", attemptID, err)
	}

	responses := make([]*domain.Response, 0, len(modelResponses))
	for i := range modelResponses {
		responses = append(responses, toDomainResponse(&modelResponses[i]))
	}
	return responses, nil
}

// UpdateGrades writes is_correct and points_earned for graded responses.
// Callers run this inside the completion transaction.
func (r *sqlxResponseRepository) UpdateGrades(ctx context.Context, responses []*domain.Response) error {
	query := `UPDATE responses SET is_correct = :1, points_earned = :2, updated_at = :3 WHERE id = :4`

	executor := GetExecutor(ctx, r.db)
	now := time.Now()
	for _, response := range responses {
		var isCorrect sql.NullBool
		if response.IsCorrect != nil {
			isCorrect = sql.NullBool{Bool: *response.IsCorrect, Valid: true}
		}
		var pointsEarned sql.NullFloat64
		if response.PointsEarned != nil {
			pointsEarned = sql.NullFloat64{Float64: *response.PointsEarned, Valid: true}
		}
		if _, err := executor.ExecContext(ctx, query, isCorrect, pointsEarned, now, response.ID); err != nil {
			return fmt.Errorf("failed to update grades for response %s: %w", response.ID, err)
		}
	}
	return nil
}
