package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"quiz-class/internal/domain"
	"quiz-class/internal/dto"
	"quiz-class/internal/repository/models"

	"github.com/jmoiron/sqlx"
)

// sqlxAttemptRepository implements domain.AttemptRepository using sqlx.
type sqlxAttemptRepository struct {
	db *sqlx.DB
}

// NewSQLXAttemptRepository creates a new instance of sqlxAttemptRepository.
func NewSQLXAttemptRepository(db *sqlx.DB) domain.AttemptRepository {
	return &sqlxAttemptRepository{db: db}
}

func toDomainAttempt(modelAttempt *models.Attempt) *domain.Attempt {
	if modelAttempt == nil {
		return nil
	}
	var assignmentID *string
	if modelAttempt.AssignmentID.Valid {
		v := modelAttempt.AssignmentID.String
		assignmentID = &v
	}
	var completedAt *time.Time
	if modelAttempt.CompletedAt.Valid {
		completedAt = &modelAttempt.CompletedAt.Time
	}
	var totalScore, maxScore, percentage *float64
	if modelAttempt.TotalScore.Valid {
		v := modelAttempt.TotalScore.Float64
		totalScore = &v
	}
	if modelAttempt.MaxScore.Valid {
		v := modelAttempt.MaxScore.Float64
		maxScore = &v
	}
	if modelAttempt.Percentage.Valid {
		v := modelAttempt.Percentage.Float64
		percentage = &v
	}
	return &domain.Attempt{
		ID:           modelAttempt.ID,
		QuizID:       modelAttempt.QuizID,
		UserID:       modelAttempt.UserID,
		AssignmentID: assignmentID,
		Status:       domain.AttemptStatus(modelAttempt.Status),
		StartedAt:    modelAttempt.StartedAt,
		CompletedAt:  completedAt,
		TotalScore:   totalScore,
		MaxScore:     maxScore,
		Percentage:   percentage,
		CreatedAt:    modelAttempt.CreatedAt,
		UpdatedAt:    modelAttempt.UpdatedAt,
	}
}

func fromDomainAttempt(domainAttempt *domain.Attempt) *models.Attempt {
	if domainAttempt == nil {
		return nil
	}
	modelAttempt := &models.Attempt{
		ID:        domainAttempt.ID,
		QuizID:    domainAttempt.QuizID,
		UserID:    domainAttempt.UserID,
		Status:    string(domainAttempt.Status),
		StartedAt: domainAttempt.StartedAt,
		CreatedAt: domainAttempt.CreatedAt,
		UpdatedAt: domainAttempt.UpdatedAt,
	}
	if domainAttempt.AssignmentID != nil {
		modelAttempt.AssignmentID = sql.NullString{String: *domainAttempt.AssignmentID, Valid: true}
	}
	if domainAttempt.CompletedAt != nil {
		modelAttempt.CompletedAt = sql.NullTime{Time: *domainAttempt.CompletedAt, Valid: true}
	}
	if domainAttempt.TotalScore != nil {
		modelAttempt.TotalScore = sql.NullFloat64{Float64: *domainAttempt.TotalScore, Valid: true}
	}
	if domainAttempt.MaxScore != nil {
		modelAttempt.MaxScore = sql.NullFloat64{Float64: *domainAttempt.MaxScore, Valid: true}
	}
	if domainAttempt.Percentage != nil {
		modelAttempt.Percentage = sql.NullFloat64{Float64: *domainAttempt.Percentage, Valid: true}
	}
	return modelAttempt
}

// isUniqueViolation reports whether the driver error is Oracle's unique
// constraint violation (ORA-00001).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "ORA-00001")
}

// CreateAttempt persists a new attempt. The unique index over open
// (quiz, user, assignment) rows turns a concurrent double-create into
// ErrDuplicateAttempt so callers can re-read the winning row.
func (r *sqlxAttemptRepository) CreateAttempt(ctx context.Context, attempt *domain.Attempt) error {
	now := time.Now()
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = now
	}
	attempt.UpdatedAt = now
	modelAttempt := fromDomainAttempt(attempt)

	query := `INSERT INTO attempts (id, quiz_id, user_id, assignment_id, status, started_at, completed_at, total_score, max_score, percentage, created_at, updated_at)
	          VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9, :10, :11, :12)`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		modelAttempt.ID,
		modelAttempt.QuizID,
		modelAttempt.UserID,
		modelAttempt.AssignmentID,
		modelAttempt.Status,
		modelAttempt.StartedAt,
		modelAttempt.CompletedAt,
		modelAttempt.TotalScore,
		modelAttempt.MaxScore,
		modelAttempt.Percentage,
		modelAttempt.CreatedAt,
		modelAttempt.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateAttempt
		}
		return fmt.Errorf("failed to create attempt: %w", err)
	}
	return nil
}

// GetAttemptByID retrieves an attempt by ID. Returns (nil, nil) when absent.
func (r *sqlxAttemptRepository) GetAttemptByID(ctx context.Context, id string) (*domain.Attempt, error) {
	var modelAttempt models.Attempt
	query := `SELECT * FROM attempts WHERE id = :1`

	executor := GetExecutor(ctx, r.db)
	err := executor.GetContext(ctx, &modelAttempt, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attempt by id: %w", err)
	}
	return toDomainAttempt(&modelAttempt), nil
}

// GetInProgressAttempt finds the open attempt for the (quiz, user, assignment)
// triple. Returns (nil, nil) when absent.
func (r *sqlxAttemptRepository) GetInProgressAttempt(ctx context.Context, quizID, userID string, assignmentID *string) (*domain.Attempt, error) {
	var modelAttempt models.Attempt
	query := `SELECT * FROM attempts
	          WHERE quiz_id = :1 AND user_id = :2 AND status = :3 AND assignment_id IS NULL`
	args := []interface{}{quizID, userID, string(domain.AttemptStatusInProgress)}
	if assignmentID != nil {
		query = `SELECT * FROM attempts
	          WHERE quiz_id = :1 AND user_id = :2 AND status = :3 AND assignment_id = :4`
		args = append(args, *assignmentID)
	}

	executor := GetExecutor(ctx, r.db)
	err := executor.GetContext(ctx, &modelAttempt, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get in-progress attempt: %w", err)
	}
	return toDomainAttempt(&modelAttempt), nil
}

// CountCompletedAttempts counts terminal attempts for the triple.
func (r *sqlxAttemptRepository) CountCompletedAttempts(ctx context.Context, quizID, userID string, assignmentID *string) (int, error) {
	query := `SELECT COUNT(*) FROM attempts
	          WHERE quiz_id = :1 AND user_id = :2 AND status = :3 AND assignment_id IS NULL`
	args := []interface{}{quizID, userID, string(domain.AttemptStatusCompleted)}
	if assignmentID != nil {
		query = `SELECT COUNT(*) FROM attempts
	          WHERE quiz_id = :1 AND user_id = :2 AND status = :3 AND assignment_id = :4`
		args = append(args, *assignmentID)
	}

	var count int
	executor := GetExecutor(ctx, r.db)
	if err := executor.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count completed attempts: %w", err)
	}
	return count, nil
}

// CountAttemptsByAssignment returns completed and in-progress counts for one
// assignment in a single round trip.
func (r *sqlxAttemptRepository) CountAttemptsByAssignment(ctx context.Context, assignmentID string) (int, int, error) {
	query := `SELECT
	            COUNT(CASE WHEN status = 'completed' THEN 1 END),
	            COUNT(CASE WHEN status = 'in_progress' THEN 1 END)
	          FROM attempts WHERE assignment_id = :1`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, assignmentID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count attempts for assignment %s: %w", assignmentID, err)
	}
	defer rows.Close()

	var completed, inProgress int
	if rows.Next() {
		if err := rows.Scan(&completed, &inProgress); err != nil {
			return 0, 0, fmt.Errorf("failed to scan attempt counts: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, 0, fmt.Errorf("failed to read attempt counts: %w", err)
	}
	return completed, inProgress, nil
}

// buildAttemptsQuery constructs the attempt history SELECT for the given
// filters and pagination. It returns the results query, the count query and
// the ordered arguments slice. Oracle compatibility: positional parameters
// plus a ROW_NUMBER() window for paging.
func buildAttemptsQuery(userID string, filters dto.AttemptFilters, pagination dto.Pagination) (string, string, []interface{}) {
	var args []interface{}
	var whereClauses []string
	argIndex := 1

	whereClauses = append(whereClauses, fmt.Sprintf("att.user_id = :%d", argIndex))
	args = append(args, userID)
	argIndex++

	if filters.QuizID != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("att.quiz_id = :%d", argIndex))
		args = append(args, filters.QuizID)
		argIndex++
	}

	if filters.AssignmentID != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("att.assignment_id = :%d", argIndex))
		args = append(args, filters.AssignmentID)
		argIndex++
	}

	if filters.Status != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("att.status = :%d", argIndex))
		args = append(args, filters.Status)
		argIndex++
	}

	if filters.StartDate != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("att.started_at >= :%d", argIndex))
		args = append(args, filters.StartDate)
		argIndex++
	}
	if filters.EndDate != "" {
		parsedEndDate, err := time.Parse("2006-01-02", filters.EndDate)
		if err == nil {
			whereClauses = append(whereClauses, fmt.Sprintf("att.started_at <= :%d", argIndex))
			args = append(args, parsedEndDate.Add(24*time.Hour-1*time.Nanosecond))
		} else {
			whereClauses = append(whereClauses, fmt.Sprintf("att.started_at <= :%d", argIndex))
			args = append(args, filters.EndDate)
		}
		argIndex++
	}

	queryWhere := "WHERE " + strings.Join(whereClauses, " AND ")

	limit := pagination.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := pagination.Offset
	if offset < 0 {
		offset = 0
	}

	innerQuery := fmt.Sprintf("SELECT att.*, ROW_NUMBER() OVER (ORDER BY att.started_at DESC) as rn FROM attempts att %s", queryWhere)
	resultsQuery := fmt.Sprintf("SELECT * FROM (%s) WHERE rn > %d AND rn <= %d", innerQuery, offset, offset+limit)
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM attempts att %s", queryWhere)

	return resultsQuery, countQuery, args
}

// GetAttemptsByUserID returns the user's attempts plus the unpaginated total,
// newest first.
func (r *sqlxAttemptRepository) GetAttemptsByUserID(ctx context.Context, userID string, filters dto.AttemptFilters, pagination dto.Pagination) ([]*domain.Attempt, int, error) {
	resultsQuery, countQuery, args := buildAttemptsQuery(userID, filters, pagination)

	rows, err := r.db.QueryContext(ctx, resultsQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute query for GetAttemptsByUserID: %w. Query: %s, Args: %+v", err, resultsQuery, args)
	}
	defer rows.Close()

	var attempts []*domain.Attempt
	for rows.Next() {
		var ma models.Attempt
		var rn int // Row number column from ROW_NUMBER()
		if err := rows.Scan(
			&ma.ID,
			&ma.QuizID,
			&ma.UserID,
			&ma.AssignmentID,
			&ma.Status,
			&ma.StartedAt,
			&ma.CompletedAt,
			&ma.TotalScore,
			&ma.MaxScore,
			&ma.Percentage,
			&ma.CreatedAt,
			&ma.UpdatedAt,
			&rn,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan attempt: %w", err)
		}
		attempts = append(attempts, toDomainAttempt(&ma))
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate attempts: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count attempts: %w", err)
	}

	return attempts, total, nil
}

// UpdateAttempt persists lifecycle changes (completion scores and status).
func (r *sqlxAttemptRepository) UpdateAttempt(ctx context.Context, attempt *domain.Attempt) error {
	attempt.UpdatedAt = time.Now()
	modelAttempt := fromDomainAttempt(attempt)

	query := `UPDATE attempts SET
	            status = :1,
	            completed_at = :2,
	            total_score = :3,
	            max_score = :4,
	            percentage = :5,
	            updated_at = :6
	          WHERE id = :7`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		modelAttempt.Status,
		modelAttempt.CompletedAt,
		modelAttempt.TotalScore,
		modelAttempt.MaxScore,
		modelAttempt.Percentage,
		modelAttempt.UpdatedAt,
		modelAttempt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update attempt: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
