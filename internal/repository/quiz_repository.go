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

// sqlxQuizRepository implements domain.QuizRepository using sqlx.
type sqlxQuizRepository struct {
	db *sqlx.DB
}

// NewSQLXQuizRepository creates a new instance of sqlxQuizRepository.
func NewSQLXQuizRepository(db *sqlx.DB) domain.QuizRepository {
	return &sqlxQuizRepository{db: db}
}

func toDomainQuiz(modelQuiz *models.Quiz) *domain.Quiz {
	if modelQuiz == nil {
		return nil
	}
	var deletedAt *time.Time
	if modelQuiz.DeletedAt.Valid {
		deletedAt = &modelQuiz.DeletedAt.Time
	}
	tags := []string(modelQuiz.Tags)
	if tags == nil {
		tags = []string{}
	}
	return &domain.Quiz{
		ID:               modelQuiz.ID,
		SubjectID:        modelQuiz.SubjectID,
		Title:            modelQuiz.Title,
		Description:      modelQuiz.Description.String,
		Difficulty:       modelQuiz.Difficulty,
		Tags:             tags,
		MinAge:           modelQuiz.MinAge,
		MaxAge:           modelQuiz.MaxAge,
		EstimatedMinutes: modelQuiz.EstimatedMinutes,
		Published:        modelQuiz.Published,
		CreatedBy:        modelQuiz.CreatedBy.String,
		CreatedAt:        modelQuiz.CreatedAt,
		UpdatedAt:        modelQuiz.UpdatedAt,
		DeletedAt:        deletedAt,
	}
}

func fromDomainQuiz(domainQuiz *domain.Quiz) *models.Quiz {
	if domainQuiz == nil {
		return nil
	}
	modelQuiz := &models.Quiz{
		ID:               domainQuiz.ID,
		SubjectID:        domainQuiz.SubjectID,
		Title:            domainQuiz.Title,
		Description:      util.StringToNullString(domainQuiz.Description),
		Difficulty:       domainQuiz.Difficulty,
		Tags:             models.StringSlice(domainQuiz.Tags),
		MinAge:           domainQuiz.MinAge,
		MaxAge:           domainQuiz.MaxAge,
		EstimatedMinutes: domainQuiz.EstimatedMinutes,
		Published:        domainQuiz.Published,
		CreatedBy:        util.StringToNullString(domainQuiz.CreatedBy),
		CreatedAt:        domainQuiz.CreatedAt,
		UpdatedAt:        domainQuiz.UpdatedAt,
	}
	if domainQuiz.DeletedAt != nil {
		modelQuiz.DeletedAt = util.TimeToNullTime(*domainQuiz.DeletedAt)
	}
	return modelQuiz
}

// GetQuizByID retrieves a quiz by its ID. Returns (nil, nil) when absent.
func (r *sqlxQuizRepository) GetQuizByID(ctx context.Context, id string) (*domain.Quiz, error) {
	var modelQuiz models.Quiz
	query := `SELECT * FROM quizzes WHERE id = :1 AND deleted_at IS NULL`

	executor := GetExecutor(ctx, r.db)
	err := executor.GetContext(ctx, &modelQuiz, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quiz by id: %w", err)
	}
	return toDomainQuiz(&modelQuiz), nil
}

// buildQuizzesQuery constructs the catalog SELECT for the given filters and
// pagination. It returns the results query, the count query and the ordered
// arguments slice. Oracle compatibility: positional parameters plus a
// ROW_NUMBER() window for paging.
func buildQuizzesQuery(filters dto.QuizFilters, pagination dto.Pagination) (string, string, []interface{}) {
	var args []interface{}
	whereClauses := []string{"q.deleted_at IS NULL", "q.published = 1"}
	argIndex := 1

	if filters.SubjectID != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("q.subject_id = :%d", argIndex))
		args = append(args, filters.SubjectID)
		argIndex++
	}

	if filters.Difficulty != "" {
		if difficulty := domain.DifficultyToInt(filters.Difficulty); difficulty > 0 {
			whereClauses = append(whereClauses, fmt.Sprintf("q.difficulty = :%d", argIndex))
			args = append(args, difficulty)
			argIndex++
		}
	}

	if filters.Age > 0 {
		// Zero bounds leave that side of the age range open.
		whereClauses = append(whereClauses, fmt.Sprintf("(q.min_age = 0 OR q.min_age <= :%d)", argIndex))
		args = append(args, filters.Age)
		argIndex++
		whereClauses = append(whereClauses, fmt.Sprintf("(q.max_age = 0 OR q.max_age >= :%d)", argIndex))
		args = append(args, filters.Age)
		argIndex++
	}

	if filters.Tag != "" {
		// Tags are stored as a JSON array; match the quoted element.
		whereClauses = append(whereClauses, fmt.Sprintf(`q.tags LIKE '%%"' || :%d || '"%%'`, argIndex))
		args = append(args, filters.Tag)
		argIndex++
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

	innerQuery := fmt.Sprintf("SELECT q.*, ROW_NUMBER() OVER (ORDER BY q.created_at DESC) as rn FROM quizzes q %s", queryWhere)
	resultsQuery := fmt.Sprintf("SELECT * FROM (%s) WHERE rn > %d AND rn <= %d", innerQuery, offset, offset+limit)
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM quizzes q %s", queryWhere)

	return resultsQuery, countQuery, args
}

// ListQuizzes returns published quizzes matching the filters plus the
// unpaginated total.
func (r *sqlxQuizRepository) ListQuizzes(ctx context.Context, filters dto.QuizFilters, pagination dto.Pagination) ([]*domain.Quiz, int, error) {
	resultsQuery, countQuery, args := buildQuizzesQuery(filters, pagination)

	rows, err := r.db.QueryContext(ctx, resultsQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute query for ListQuizzes: %w. Query: %s, Args: %+v", err, resultsQuery, args)
	}
	defer rows.Close()

	var quizzes []*domain.Quiz
	for rows.Next() {
		var mq models.Quiz
		var rn int // Row number column from ROW_NUMBER()
		if err := rows.Scan(
			&mq.ID,
			&mq.SubjectID,
			&mq.Title,
			&mq.Description,
			&mq.Difficulty,
			&mq.Tags,
			&mq.MinAge,
			&mq.MaxAge,
			&mq.EstimatedMinutes,
			&mq.Published,
			&mq.CreatedBy,
			&mq.CreatedAt,
			&mq.UpdatedAt,
			&mq.DeletedAt,
			&rn,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan quiz: %w", err)
		}
		quizzes = append(quizzes, toDomainQuiz(&mq))
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate quizzes: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count quizzes: %w", err)
	}

	return quizzes, total, nil
}

// SaveQuiz persists a new quiz.
func (r *sqlxQuizRepository) SaveQuiz(ctx context.Context, quiz *domain.Quiz) error {
	now := time.Now()
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = now
	}
	quiz.UpdatedAt = now
	modelQuiz := fromDomainQuiz(quiz)

	query := `INSERT INTO quizzes (id, subject_id, title, description, difficulty, tags, min_age, max_age, estimated_minutes, published, created_by, created_at, updated_at)
	          VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9, :10, :11, :12, :13)`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		modelQuiz.ID,
		modelQuiz.SubjectID,
		modelQuiz.Title,
		modelQuiz.Description,
		modelQuiz.Difficulty,
		modelQuiz.Tags,
		modelQuiz.MinAge,
		modelQuiz.MaxAge,
		modelQuiz.EstimatedMinutes,
		modelQuiz.Published,
		modelQuiz.CreatedBy,
		modelQuiz.CreatedAt,
		modelQuiz.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save quiz: %w", err)
	}
	return nil
}

// UpdateQuiz updates an existing quiz.
func (r *sqlxQuizRepository) UpdateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	quiz.UpdatedAt = time.Now()
	modelQuiz := fromDomainQuiz(quiz)

	query := `UPDATE quizzes SET
	            subject_id = :1,
	            title = :2,
	            description = :3,
	            difficulty = :4,
	            tags = :5,
	            min_age = :6,
	            max_age = :7,
	            estimated_minutes = :8,
	            published = :9,
	            updated_at = :10
	          WHERE id = :11 AND deleted_at IS NULL`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		modelQuiz.SubjectID,
		modelQuiz.Title,
		modelQuiz.Description,
		modelQuiz.Difficulty,
		modelQuiz.Tags,
		modelQuiz.MinAge,
		modelQuiz.MaxAge,
		modelQuiz.EstimatedMinutes,
		modelQuiz.Published,
		modelQuiz.UpdatedAt,
		modelQuiz.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update quiz: %w", err)
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
