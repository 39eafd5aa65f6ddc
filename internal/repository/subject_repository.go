package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quiz-class/internal/domain"
	"quiz-class/internal/repository/models"
	"quiz-class/internal/util"

	"github.com/jmoiron/sqlx"
)

// sqlxSubjectRepository implements domain.SubjectRepository using sqlx.
type sqlxSubjectRepository struct {
	db *sqlx.DB
}

// NewSQLXSubjectRepository creates a new instance of sqlxSubjectRepository.
func NewSQLXSubjectRepository(db *sqlx.DB) domain.SubjectRepository {
	return &sqlxSubjectRepository{db: db}
}

func toDomainSubject(modelSubject *models.Subject) *domain.Subject {
	if modelSubject == nil {
		return nil
	}
	var deletedAt *time.Time
	if modelSubject.DeletedAt.Valid {
		deletedAt = &modelSubject.DeletedAt.Time
	}
	return &domain.Subject{
		ID:          modelSubject.ID,
		Name:        modelSubject.Name,
		Description: modelSubject.Description.String,
		CreatedAt:   modelSubject.CreatedAt,
		UpdatedAt:   modelSubject.UpdatedAt,
		DeletedAt:   deletedAt,
	}
}

// GetAllSubjects returns every subject, alphabetically.
func (r *sqlxSubjectRepository) GetAllSubjects(ctx context.Context) ([]*domain.Subject, error) {
	var modelSubjects []models.Subject
	query := `SELECT * FROM subjects WHERE deleted_at IS NULL ORDER BY name`

	if err := r.db.SelectContext(ctx, &modelSubjects, query); err != nil {
		return nil, fmt.Errorf("failed to get subjects: %w", err)
	}

	subjects := make([]*domain.Subject, 0, len(modelSubjects))
	for i := range modelSubjects {
		subjects = append(subjects, toDomainSubject(&modelSubjects[i]))
	}
	return subjects, nil
}

// GetSubjectByID retrieves a subject by its ID. Returns (nil, nil) when absent.
func (r *sqlxSubjectRepository) GetSubjectByID(ctx context.Context, id string) (*domain.Subject, error) {
	var modelSubject models.Subject
	query := `SELECT * FROM subjects WHERE id = :1 AND deleted_at IS NULL`

	err := r.db.GetContext(ctx, &modelSubject, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subject by id: %w", err)
	}
	return toDomainSubject(&modelSubject), nil
}

// SaveSubject persists a new subject.
func (r *sqlxSubjectRepository) SaveSubject(ctx context.Context, subject *domain.Subject) error {
	now := time.Now()
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = now
	}
	subject.UpdatedAt = now

	query := `INSERT INTO subjects (id, name, description, created_at, updated_at)
	          VALUES (:1, :2, :3, :4, :5)`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		subject.ID,
		subject.Name,
		util.StringToNullString(subject.Description),
		subject.CreatedAt,
		subject.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save subject: %w", err)
	}
	return nil
}
