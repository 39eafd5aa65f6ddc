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

// sqlxUserRepository implements domain.UserRepository using sqlx.
type sqlxUserRepository struct {
	db *sqlx.DB
}

// NewSQLXUserRepository creates a new instance of sqlxUserRepository.
func NewSQLXUserRepository(db *sqlx.DB) domain.UserRepository {
	return &sqlxUserRepository{db: db}
}

func toDomainUser(modelUser *models.User) *domain.User {
	if modelUser == nil {
		return nil
	}
	var deletedAt *time.Time
	if modelUser.DeletedAt.Valid {
		deletedAt = &modelUser.DeletedAt.Time
	}
	role := domain.UserRole(modelUser.Role)
	if role == "" {
		role = domain.RoleLearner
	}
	return &domain.User{
		ID:                modelUser.ID,
		GoogleID:          modelUser.GoogleID,
		Email:             modelUser.Email,
		Name:              modelUser.Name.String,
		ProfilePictureURL: modelUser.ProfilePictureURL.String,
		Role:              role,
		CreatedAt:         modelUser.CreatedAt,
		UpdatedAt:         modelUser.UpdatedAt,
		DeletedAt:         deletedAt,
	}
}

func fromDomainUser(domainUser *domain.User) *models.User {
	if domainUser == nil {
		return nil
	}
	role := domainUser.Role
	if role == "" {
		role = domain.RoleLearner
	}
	modelUser := &models.User{
		ID:                domainUser.ID,
		GoogleID:          domainUser.GoogleID,
		Email:             domainUser.Email,
		Name:              util.StringToNullString(domainUser.Name),
		ProfilePictureURL: util.StringToNullString(domainUser.ProfilePictureURL),
		Role:              string(role),
		CreatedAt:         domainUser.CreatedAt,
		UpdatedAt:         domainUser.UpdatedAt,
	}
	if domainUser.DeletedAt != nil {
		modelUser.DeletedAt = util.TimeToNullTime(*domainUser.DeletedAt)
	}
	return modelUser
}

// CreateUser inserts a new user into the database.
func (r *sqlxUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	modelUser := fromDomainUser(user)

	query := `INSERT INTO users (id, google_id, email, name, profile_picture_url, role, created_at, updated_at)
	          VALUES (:1, :2, :3, :4, :5, :6, :7, :8)`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		modelUser.ID,
		modelUser.GoogleID,
		modelUser.Email,
		modelUser.Name,
		modelUser.ProfilePictureURL,
		modelUser.Role,
		modelUser.CreatedAt,
		modelUser.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByGoogleID retrieves a user by their Google ID.
func (r *sqlxUserRepository) GetUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	var user models.User
	query := `SELECT * FROM users WHERE google_id = :google_id AND deleted_at IS NULL`

	stmt, err := r.db.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare query for GetUserByGoogleID: %w", err)
	}
	defer stmt.Close()

	args := map[string]interface{}{"google_id": googleID}
	err = stmt.GetContext(ctx, &user, args)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by google_id: %w", err)
	}
	return toDomainUser(&user), nil
}

// GetUserByID retrieves a user by their internal ID.
func (r *sqlxUserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	var user models.User
	query := `SELECT * FROM users WHERE id = :id AND deleted_at IS NULL`

	stmt, err := r.db.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare query for GetUserByID: %w", err)
	}
	defer stmt.Close()

	args := map[string]interface{}{"id": userID}
	err = stmt.GetContext(ctx, &user, args)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return toDomainUser(&user), nil
}

// UpdateUser updates an existing user's profile fields.
func (r *sqlxUserRepository) UpdateUser(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now()
	modelUser := fromDomainUser(user)

	query := `UPDATE users SET
	            email = :1,
	            name = :2,
	            profile_picture_url = :3,
	            role = :4,
	            updated_at = :5
	          WHERE id = :6 AND deleted_at IS NULL`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		modelUser.Email,
		modelUser.Name,
		modelUser.ProfilePictureURL,
		modelUser.Role,
		modelUser.UpdatedAt,
		modelUser.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
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

// UpdateUserTokens stores the encrypted OAuth token pair for a user. Empty
// strings clear the corresponding column.
func (r *sqlxUserRepository) UpdateUserTokens(ctx context.Context, userID, encryptedAccessToken, encryptedRefreshToken string, tokenExpiresAt time.Time) error {
	query := `UPDATE users SET
	            encrypted_access_token = :1,
	            encrypted_refresh_token = :2,
	            token_expires_at = :3,
	            updated_at = :4
	          WHERE id = :5 AND deleted_at IS NULL`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		util.StringToNullString(encryptedAccessToken),
		util.StringToNullString(encryptedRefreshToken),
		util.TimeToNullTime(tokenExpiresAt),
		time.Now(),
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user tokens: %w", err)
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

// DeleteUser soft-deletes a user by setting deleted_at.
func (r *sqlxUserRepository) DeleteUser(ctx context.Context, userID string) error {
	query := `UPDATE users SET deleted_at = :1, updated_at = :2 WHERE id = :3 AND deleted_at IS NULL`

	now := time.Now()
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, now, now, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
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
