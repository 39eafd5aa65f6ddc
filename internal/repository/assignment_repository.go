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
	"quiz-class/internal/util"

	"github.com/jmoiron/sqlx"
)

// sqlxAssignmentRepository implements domain.AssignmentRepository using sqlx.
type sqlxAssignmentRepository struct {
	db *sqlx.DB
}

// NewSQLXAssignmentRepository creates a new instance of sqlxAssignmentRepository.
func NewSQLXAssignmentRepository(db *sqlx.DB) domain.AssignmentRepository {
	return &sqlxAssignmentRepository{db: db}
}

func toDomainAssignment(modelAssignment *models.Assignment) *domain.Assignment {
	if modelAssignment == nil {
		return nil
	}
	var dueAt *time.Time
	if modelAssignment.DueAt.Valid {
		dueAt = &modelAssignment.DueAt.Time
	}
	var maxAttempts *int
	if modelAssignment.MaxAttempts.Valid {
		v := int(modelAssignment.MaxAttempts.Int64)
		maxAttempts = &v
	}
	var cancelledAt *time.Time
	if modelAssignment.CancelledAt.Valid {
		cancelledAt = &modelAssignment.CancelledAt.Time
	}
	var deletedAt *time.Time
	if modelAssignment.DeletedAt.Valid {
		deletedAt = &modelAssignment.DeletedAt.Time
	}
	return &domain.Assignment{
		ID:          modelAssignment.ID,
		QuizID:      modelAssignment.QuizID,
		LearnerID:   modelAssignment.LearnerID,
		AssignedBy:  modelAssignment.AssignedBy,
		DueAt:       dueAt,
		MaxAttempts: maxAttempts,
		IsMandatory: modelAssignment.IsMandatory,
		Notes:       modelAssignment.Notes.String,
		CancelledAt: cancelledAt,
		CreatedAt:   modelAssignment.CreatedAt,
		UpdatedAt:   modelAssignment.UpdatedAt,
		DeletedAt:   deletedAt,
	}
}

func fromDomainAssignment(domainAssignment *domain.Assignment) *models.Assignment {
	if domainAssignment == nil {
		return nil
	}
	modelAssignment := &models.Assignment{
		ID:          domainAssignment.ID,
		QuizID:      domainAssignment.QuizID,
		LearnerID:   domainAssignment.LearnerID,
		AssignedBy:  domainAssignment.AssignedBy,
		IsMandatory: domainAssignment.IsMandatory,
		Notes:       util.StringToNullString(domainAssignment.Notes),
		CreatedAt:   domainAssignment.CreatedAt,
		UpdatedAt:   domainAssignment.UpdatedAt,
	}
	if domainAssignment.DueAt != nil {
		modelAssignment.DueAt = util.TimeToNullTime(*domainAssignment.DueAt)
	}
	if domainAssignment.MaxAttempts != nil {
		modelAssignment.MaxAttempts = sql.NullInt64{Int64: int64(*domainAssignment.MaxAttempts), Valid: true}
	}
	if domainAssignment.CancelledAt != nil {
		modelAssignment.CancelledAt = util.TimeToNullTime(*domainAssignment.CancelledAt)
	}
	if domainAssignment.DeletedAt != nil {
		modelAssignment.DeletedAt = util.TimeToNullTime(*domainAssignment.DeletedAt)
	}
	return modelAssignment
}

// CreateAssignment persists a new assignment.
func (r *sqlxAssignmentRepository) CreateAssignment(ctx context.Context, assignment *domain.Assignment) error {
	now := time.Now()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now
	modelAssignment := fromDomainAssignment(assignment)

	query := `INSERT INTO assignments (id, quiz_id, learner_id, assigned_by, due_at, max_attempts, is_mandatory, notes, created_at, updated_at)
	          VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9, :10)`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		modelAssignment.ID,
		modelAssignment.QuizID,
		modelAssignment.LearnerID,
		modelAssignment.AssignedBy,
		modelAssignment.DueAt,
		modelAssignment.MaxAttempts,
		modelAssignment.IsMandatory,
		modelAssignment.Notes,
		modelAssignment.CreatedAt,
		modelAssignment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

// GetAssignmentByID retrieves an assignment by ID. Returns (nil, nil) when absent.
func (r *sqlxAssignmentRepository) GetAssignmentByID(ctx context.Context, id string) (*domain.Assignment, error) {
	var modelAssignment models.Assignment
	query := `SELECT * FROM assignments WHERE id = :1 AND deleted_at IS NULL`

	executor := GetExecutor(ctx, r.db)
	err := executor.GetContext(ctx, &modelAssignment, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get assignment by id: %w", err)
	}
	return toDomainAssignment(&modelAssignment), nil
}

// buildAssignmentsQuery constructs the assignment list SELECT for one owner
// column (a.learner_id or a.assigned_by). It returns the results query, the
// count query and the ordered arguments slice. Oracle compatibility:
// positional parameters plus a ROW_NUMBER() window for paging.
func buildAssignmentsQuery(ownerColumn, ownerID string, filters dto.AssignmentFilters, pagination dto.Pagination) (string, string, []interface{}) {
	var args []interface{}
	whereClauses := []string{"a.deleted_at IS NULL"}
	argIndex := 1

	whereClauses = append(whereClauses, fmt.Sprintf("%s = :%d", ownerColumn, argIndex))
	args = append(args, ownerID)
	argIndex++

	if filters.QuizID != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("a.quiz_id = :%d", argIndex))
		args = append(args, filters.QuizID)
		argIndex++
	}

	if filters.LearnerID != "" && ownerColumn != "a.learner_id" {
		whereClauses = append(whereClauses, fmt.Sprintf("a.learner_id = :%d", argIndex))
		args = append(args, filters.LearnerID)
		argIndex++
	}

	if !filters.IncludeCancelled {
		whereClauses = append(whereClauses, "a.cancelled_at IS NULL")
	}

	queryWhere := "WHERE " + strings.Join(whereClauses, " AND ")

	limit := pagination.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := pagination.Offset
	if offset < 0 {
		offset = 0
	}

	innerQuery := fmt.Sprintf("SELECT a.*, ROW_NUMBER() OVER (ORDER BY a.created_at DESC) as rn FROM assignments a %s", queryWhere)
	resultsQuery := fmt.Sprintf("SELECT * FROM (%s) WHERE rn > %d AND rn <= %d", innerQuery, offset, offset+limit)
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM assignments a %s", queryWhere)

	return resultsQuery, countQuery, args
}

func (r *sqlxAssignmentRepository) listAssignments(ctx context.Context, ownerColumn, ownerID string, filters dto.AssignmentFilters, pagination dto.Pagination) ([]*domain.Assignment, int, error) {
	resultsQuery, countQuery, args := buildAssignmentsQuery(ownerColumn, ownerID, filters, pagination)

	rows, err := r.db.QueryContext(ctx, resultsQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute query for assignments: %w. Query: %s, Args: %+v", err, resultsQuery, args)
	}
	defer rows.Close()

	var assignments []*domain.Assignment
	for rows.Next() {
		var ma models.Assignment
		var rn int // Row number column from ROW_NUMBER()
		if err := rows.Scan(
			&ma.ID,
			&ma.QuizID,
			&ma.LearnerID,
			&ma.AssignedBy,
			&ma.DueAt,
			&ma.MaxAttempts,
			&ma.IsMandatory,
			&ma.Notes,
			&ma.CancelledAt,
			&ma.CreatedAt,
			&ma.UpdatedAt,
			&ma.DeletedAt,
			&rn,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, toDomainAssignment(&ma))
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate assignments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count assignments: %w", err)
	}

	return assignments, total, nil
}

// GetAssignmentsByLearnerID returns the learner's assignments plus the
// unpaginated total, newest first.
func (r *sqlxAssignmentRepository) GetAssignmentsByLearnerID(ctx context.Context, learnerID string, filters dto.AssignmentFilters, pagination dto.Pagination) ([]*domain.Assignment, int, error) {
	return r.listAssignments(ctx, "a.learner_id", learnerID, filters, pagination)
}

// GetAssignmentsByAssignerID returns assignments created by the assigner.
func (r *sqlxAssignmentRepository) GetAssignmentsByAssignerID(ctx context.Context, assignerID string, filters dto.AssignmentFilters, pagination dto.Pagination) ([]*domain.Assignment, int, error) {
	return r.listAssignments(ctx, "a.assigned_by", assignerID, filters, pagination)
}

// GetAssignmentByQuizAndLearner finds an active (non-cancelled) assignment for
// the pair, newest first. Returns (nil, nil) when absent.
func (r *sqlxAssignmentRepository) GetAssignmentByQuizAndLearner(ctx context.Context, quizID, learnerID string) (*domain.Assignment, error) {
	var modelAssignment models.Assignment
	query := `SELECT * FROM assignments
	          WHERE quiz_id = :1 AND learner_id = :2 AND cancelled_at IS NULL AND deleted_at IS NULL
	          ORDER BY created_at DESC
	          FETCH FIRST 1 ROWS ONLY`

	executor := GetExecutor(ctx, r.db)
	err := executor.GetContext(ctx, &modelAssignment, query, quizID, learnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get assignment for quiz %s and learner %s: %w", quizID, learnerID, err)
	}
	return toDomainAssignment(&modelAssignment), nil
}

// UpdateAssignment updates due date, quota, mandatory flag, notes and
// cancellation mark.
func (r *sqlxAssignmentRepository) UpdateAssignment(ctx context.Context, assignment *domain.Assignment) error {
	assignment.UpdatedAt = time.Now()
	modelAssignment := fromDomainAssignment(assignment)

	query := `UPDATE assignments SET
	            due_at = :1,
	            max_attempts = :2,
	            is_mandatory = :3,
	            notes = :4,
	            cancelled_at = :5,
	            updated_at = :6
	          WHERE id = :7 AND deleted_at IS NULL`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		modelAssignment.DueAt,
		modelAssignment.MaxAttempts,
		modelAssignment.IsMandatory,
		modelAssignment.Notes,
		modelAssignment.CancelledAt,
		modelAssignment.UpdatedAt,
		modelAssignment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
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
