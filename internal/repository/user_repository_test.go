package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"quiz-class/internal/domain"
	"quiz-class/internal/repository/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

// setupTestDB creates a new sqlx.DB instance and sqlmock for repository testing.
func setupTestDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	sqlxDB := sqlx.NewDb(mockDB, "sqlmock")
	return sqlxDB, mock
}

func userColumns() []string {
	return []string{"ID", "GOOGLE_ID", "EMAIL", "NAME", "PROFILE_PICTURE_URL", "ROLE",
		"ENCRYPTED_ACCESS_TOKEN", "ENCRYPTED_REFRESH_TOKEN", "TOKEN_EXPIRES_AT",
		"CREATED_AT", "UPDATED_AT", "DELETED_AT"}
}

func TestToDomainUser(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	modelUser := &models.User{
		ID:                "user1",
		GoogleID:          "google123",
		Email:             "test@example.com",
		Name:              sql.NullString{String: "Test User", Valid: true},
		ProfilePictureURL: sql.NullString{String: "http://example.com/pic.jpg", Valid: true},
		Role:              "assigner",
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	domainUser := toDomainUser(modelUser)
	assert.NotNil(t, domainUser)
	assert.Equal(t, modelUser.ID, domainUser.ID)
	assert.Equal(t, modelUser.GoogleID, domainUser.GoogleID)
	assert.Equal(t, modelUser.Email, domainUser.Email)
	assert.Equal(t, modelUser.Name.String, domainUser.Name)
	assert.Equal(t, modelUser.ProfilePictureURL.String, domainUser.ProfilePictureURL)
	assert.Equal(t, domain.RoleAssigner, domainUser.Role)
	assert.Nil(t, domainUser.DeletedAt)

	// Null name and missing role fall back to empty string and learner.
	modelUser.Name.Valid = false
	modelUser.Role = ""
	domainUser = toDomainUser(modelUser)
	assert.Equal(t, "", domainUser.Name)
	assert.Equal(t, domain.RoleLearner, domainUser.Role)

	deletedTime := now.Add(-time.Hour)
	modelUser.DeletedAt = sql.NullTime{Time: deletedTime, Valid: true}
	domainUser = toDomainUser(modelUser)
	assert.NotNil(t, domainUser.DeletedAt)
	assert.True(t, deletedTime.Equal(*domainUser.DeletedAt))

	assert.Nil(t, toDomainUser(nil))
}

func TestFromDomainUser(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	domainUser := &domain.User{
		ID:                "user1",
		GoogleID:          "google123",
		Email:             "test@example.com",
		Name:              "Test User",
		ProfilePictureURL: "http://example.com/pic.jpg",
		Role:              domain.RoleLearner,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	modelUser := fromDomainUser(domainUser)
	assert.NotNil(t, modelUser)
	assert.Equal(t, domainUser.ID, modelUser.ID)
	assert.Equal(t, domainUser.Name, modelUser.Name.String)
	assert.True(t, modelUser.Name.Valid)
	assert.Equal(t, "learner", modelUser.Role)
	assert.False(t, modelUser.DeletedAt.Valid)

	// Empty strings for nullable fields become NULL.
	domainUser.Name = ""
	domainUser.ProfilePictureURL = ""
	modelUser = fromDomainUser(domainUser)
	assert.False(t, modelUser.Name.Valid)
	assert.False(t, modelUser.ProfilePictureURL.Valid)

	// A missing role defaults to learner at the model boundary.
	domainUser.Role = ""
	modelUser = fromDomainUser(domainUser)
	assert.Equal(t, "learner", modelUser.Role)

	assert.Nil(t, fromDomainUser(nil))
}

func TestSQLXUserRepository_GetUserByID_Success(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXUserRepository(db)
	defer db.Close()

	userID := "user-test-id"
	now := time.Now()

	rows := sqlmock.NewRows(userColumns()).
		AddRow(userID, "google-id", "test@example.com", "Test User", nil, "learner", nil, nil, nil, now, now, nil)

	// PrepareNamedContext rebinds the named parameter before preparing.
	mock.ExpectPrepare(`SELECT \* FROM users WHERE id = (.+) AND deleted_at IS NULL`).
		ExpectQuery().
		WithArgs(userID).
		WillReturnRows(rows)

	domainUser, err := repo.GetUserByID(context.Background(), userID)

	assert.NoError(t, err)
	assert.NotNil(t, domainUser)
	assert.Equal(t, userID, domainUser.ID)
	assert.Equal(t, "test@example.com", domainUser.Email)
	assert.Equal(t, domain.RoleLearner, domainUser.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXUserRepository_GetUserByID_NotFound(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXUserRepository(db)
	defer db.Close()

	mock.ExpectPrepare(`SELECT \* FROM users WHERE id = (.+) AND deleted_at IS NULL`).
		ExpectQuery().
		WithArgs("non-existent-id").
		WillReturnError(sql.ErrNoRows)

	domainUser, err := repo.GetUserByID(context.Background(), "non-existent-id")

	assert.NoError(t, err, "not found should surface as (nil, nil)")
	assert.Nil(t, domainUser)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXUserRepository_GetUserByGoogleID_Success(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXUserRepository(db)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(userColumns()).
		AddRow("user1", "google-123", "g@example.com", nil, nil, "admin", nil, nil, nil, now, now, nil)

	mock.ExpectPrepare(`SELECT \* FROM users WHERE google_id = (.+) AND deleted_at IS NULL`).
		ExpectQuery().
		WithArgs("google-123").
		WillReturnRows(rows)

	domainUser, err := repo.GetUserByGoogleID(context.Background(), "google-123")

	assert.NoError(t, err)
	assert.NotNil(t, domainUser)
	assert.Equal(t, domain.RoleAdmin, domainUser.Role)
	assert.Equal(t, "", domainUser.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXUserRepository_CreateUser_Success(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXUserRepository(db)
	defer db.Close()

	domainUser := &domain.User{
		ID:       "new-user-id",
		GoogleID: "new-google-id",
		Email:    "new@example.com",
		Name:     "New User",
		Role:     domain.RoleLearner,
	}

	mock.ExpectExec(`INSERT INTO users \(id, google_id, email, name, profile_picture_url, role, created_at, updated_at\)`).
		WithArgs("new-user-id", "new-google-id", "new@example.com", "New User", nil, "learner", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.CreateUser(context.Background(), domainUser)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXUserRepository_UpdateUserTokens(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXUserRepository(db)
	defer db.Close()

	expires := time.Now().Add(time.Hour)

	mock.ExpectExec(`UPDATE users SET`).
		WithArgs("enc-access", "enc-refresh", expires, sqlmock.AnyArg(), "user1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateUserTokens(context.Background(), "user1", "enc-access", "enc-refresh", expires)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXUserRepository_DeleteUser_NotFound(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXUserRepository(db)
	defer db.Close()

	mock.ExpectExec(`UPDATE users SET deleted_at = (.+), updated_at = (.+) WHERE id = (.+) AND deleted_at IS NULL`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
