package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"quiz-class/internal/domain"
	"quiz-class/internal/dto"
	"quiz-class/internal/repository/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func attemptColumns() []string {
	return []string{"ID", "QUIZ_ID", "USER_ID", "ASSIGNMENT_ID", "STATUS", "STARTED_AT",
		"COMPLETED_AT", "TOTAL_SCORE", "MAX_SCORE", "PERCENTAGE", "CREATED_AT", "UPDATED_AT"}
}

func TestToDomainAttempt(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	modelAttempt := &models.Attempt{
		ID:        "attempt1",
		QuizID:    "quiz1",
		UserID:    "user1",
		Status:    "in_progress",
		StartedAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}

	domainAttempt := toDomainAttempt(modelAttempt)
	assert.NotNil(t, domainAttempt)
	assert.Equal(t, domain.AttemptStatusInProgress, domainAttempt.Status)
	assert.Nil(t, domainAttempt.AssignmentID)
	assert.Nil(t, domainAttempt.TotalScore)
	assert.Nil(t, domainAttempt.CompletedAt)

	completedAt := now.Add(10 * time.Minute)
	modelAttempt.Status = "completed"
	modelAttempt.AssignmentID = sql.NullString{String: "assign1", Valid: true}
	modelAttempt.CompletedAt = sql.NullTime{Time: completedAt, Valid: true}
	modelAttempt.TotalScore = sql.NullFloat64{Float64: 7, Valid: true}
	modelAttempt.MaxScore = sql.NullFloat64{Float64: 10, Valid: true}
	modelAttempt.Percentage = sql.NullFloat64{Float64: 70, Valid: true}

	domainAttempt = toDomainAttempt(modelAttempt)
	assert.True(t, domainAttempt.IsCompleted())
	assert.Equal(t, "assign1", *domainAttempt.AssignmentID)
	assert.Equal(t, 7.0, *domainAttempt.TotalScore)
	assert.Equal(t, 10.0, *domainAttempt.MaxScore)
	assert.Equal(t, 70.0, *domainAttempt.Percentage)
	assert.True(t, completedAt.Equal(*domainAttempt.CompletedAt))

	assert.Nil(t, toDomainAttempt(nil))
}

func TestFromDomainAttempt_RoundTrip(t *testing.T) {
	assignmentID := "assign1"
	attempt := domain.NewAttempt("quiz1", "user1", &assignmentID)
	attempt.ID = "attempt1"

	modelAttempt := fromDomainAttempt(attempt)
	assert.Equal(t, "attempt1", modelAttempt.ID)
	assert.Equal(t, "in_progress", modelAttempt.Status)
	assert.True(t, modelAttempt.AssignmentID.Valid)
	assert.False(t, modelAttempt.TotalScore.Valid)

	back := toDomainAttempt(modelAttempt)
	assert.Equal(t, attempt.ID, back.ID)
	assert.Equal(t, attempt.Status, back.Status)
	assert.Equal(t, *attempt.AssignmentID, *back.AssignmentID)
}

func TestSQLXAttemptRepository_CreateAttempt_Success(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXAttemptRepository(db)
	defer db.Close()

	attempt := domain.NewAttempt("quiz1", "user1", nil)
	attempt.ID = "attempt1"

	mock.ExpectExec(`INSERT INTO attempts \(id, quiz_id, user_id, assignment_id, status, started_at`).
		WithArgs("attempt1", "quiz1", "user1", nil, "in_progress",
			sqlmock.AnyArg(), nil, nil, nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.CreateAttempt(context.Background(), attempt)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXAttemptRepository_CreateAttempt_DuplicateMapsToSentinel(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXAttemptRepository(db)
	defer db.Close()

	attempt := domain.NewAttempt("quiz1", "user1", nil)
	attempt.ID = "attempt2"

	// The unique index over open (quiz, user, assignment) rows fires for the
	// loser of a concurrent double-create.
	mock.ExpectExec(`INSERT INTO attempts`).
		WillReturnError(fmt.Errorf("ORA-00001: unique constraint (QUIZCLASS.UX_ATTEMPTS_OPEN) violated"))

	err := repo.CreateAttempt(context.Background(), attempt)
	assert.ErrorIs(t, err, domain.ErrDuplicateAttempt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXAttemptRepository_CreateAttempt_OtherErrorNotMapped(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXAttemptRepository(db)
	defer db.Close()

	attempt := domain.NewAttempt("quiz1", "user1", nil)
	attempt.ID = "attempt3"

	mock.ExpectExec(`INSERT INTO attempts`).
		WillReturnError(errors.New("ORA-12170: TNS:Connect timeout occurred"))

	err := repo.CreateAttempt(context.Background(), attempt)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDuplicateAttempt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXAttemptRepository_GetInProgressAttempt(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXAttemptRepository(db)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(attemptColumns()).
		AddRow("attempt1", "quiz1", "user1", nil, "in_progress", now, nil, nil, nil, nil, now, now)

	// Self-started attempts occupy the NULL-assignment slot.
	mock.ExpectQuery(`SELECT \* FROM attempts\s+WHERE quiz_id = (.+) AND user_id = (.+) AND status = (.+) AND assignment_id IS NULL`).
		WithArgs("quiz1", "user1", "in_progress").
		WillReturnRows(rows)

	attempt, err := repo.GetInProgressAttempt(context.Background(), "quiz1", "user1", nil)
	assert.NoError(t, err)
	assert.NotNil(t, attempt)
	assert.Equal(t, "attempt1", attempt.ID)

	assignmentID := "assign1"
	rows2 := sqlmock.NewRows(attemptColumns()).
		AddRow("attempt2", "quiz1", "user1", "assign1", "in_progress", now, nil, nil, nil, nil, now, now)

	mock.ExpectQuery(`SELECT \* FROM attempts\s+WHERE quiz_id = (.+) AND user_id = (.+) AND status = (.+) AND assignment_id = (.+)`).
		WithArgs("quiz1", "user1", "in_progress", "assign1").
		WillReturnRows(rows2)

	attempt, err = repo.GetInProgressAttempt(context.Background(), "quiz1", "user1", &assignmentID)
	assert.NoError(t, err)
	assert.NotNil(t, attempt)
	assert.Equal(t, "assign1", *attempt.AssignmentID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXAttemptRepository_GetInProgressAttempt_NotFound(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXAttemptRepository(db)
	defer db.Close()

	mock.ExpectQuery(`SELECT \* FROM attempts`).
		WillReturnError(sql.ErrNoRows)

	attempt, err := repo.GetInProgressAttempt(context.Background(), "quiz1", "user1", nil)
	assert.NoError(t, err)
	assert.Nil(t, attempt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXAttemptRepository_CountAttemptsByAssignment(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXAttemptRepository(db)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"COMPLETED", "IN_PROGRESS"}).AddRow(2, 1)

	mock.ExpectQuery(`SELECT\s+COUNT\(CASE WHEN status = 'completed' THEN 1 END\)`).
		WithArgs("assign1").
		WillReturnRows(rows)

	completed, inProgress, err := repo.CountAttemptsByAssignment(context.Background(), "assign1")
	assert.NoError(t, err)
	assert.Equal(t, 2, completed)
	assert.Equal(t, 1, inProgress)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildAttemptsQuery(t *testing.T) {
	filters := dto.AttemptFilters{
		QuizID: "quiz1",
		Status: "completed",
	}
	pagination := dto.Pagination{Limit: 5, Offset: 10}

	resultsQuery, countQuery, args := buildAttemptsQuery("user1", filters, pagination)

	assert.Contains(t, resultsQuery, "att.user_id = :1")
	assert.Contains(t, resultsQuery, "att.quiz_id = :2")
	assert.Contains(t, resultsQuery, "att.status = :3")
	assert.Contains(t, resultsQuery, "ROW_NUMBER() OVER (ORDER BY att.started_at DESC)")
	assert.Contains(t, resultsQuery, "rn > 10 AND rn <= 15")
	assert.Contains(t, countQuery, "COUNT(*)")
	assert.NotContains(t, countQuery, "ROW_NUMBER")
	assert.Equal(t, []interface{}{"user1", "quiz1", "completed"}, args)
}

func TestBuildAttemptsQuery_Defaults(t *testing.T) {
	resultsQuery, _, args := buildAttemptsQuery("user1", dto.AttemptFilters{}, dto.Pagination{})

	assert.Contains(t, resultsQuery, "rn > 0 AND rn <= 10")
	assert.Equal(t, []interface{}{"user1"}, args)
}

func TestBuildAttemptsQuery_EndDateCoversWholeDay(t *testing.T) {
	filters := dto.AttemptFilters{EndDate: "2026-03-01"}

	_, _, args := buildAttemptsQuery("user1", filters, dto.Pagination{})

	assert.Len(t, args, 2)
	endArg, ok := args[1].(time.Time)
	assert.True(t, ok)
	assert.Equal(t, 23, endArg.Hour())
	assert.Equal(t, 59, endArg.Minute())
}

func TestSQLXAttemptRepository_GetAttemptsByUserID(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXAttemptRepository(db)
	defer db.Close()

	now := time.Now()
	listColumns := append(attemptColumns(), "RN")
	rows := sqlmock.NewRows(listColumns).
		AddRow("attempt1", "quiz1", "user1", nil, "completed", now, now, 8.0, 10.0, 80.0, now, now, 1).
		AddRow("attempt2", "quiz1", "user1", "assign1", "in_progress", now, nil, nil, nil, nil, now, now, 2)

	mock.ExpectQuery(`SELECT \* FROM \(SELECT att\.\*, ROW_NUMBER\(\)`).
		WithArgs("user1").
		WillReturnRows(rows)

	countRows := sqlmock.NewRows([]string{"COUNT"}).AddRow(2)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM attempts att`).
		WithArgs("user1").
		WillReturnRows(countRows)

	attempts, total, err := repo.GetAttemptsByUserID(context.Background(), "user1", dto.AttemptFilters{}, dto.Pagination{Limit: 10})
	assert.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, attempts, 2)
	assert.True(t, attempts[0].IsCompleted())
	assert.Equal(t, 80.0, *attempts[0].Percentage)
	assert.Nil(t, attempts[0].AssignmentID)
	assert.Equal(t, "assign1", *attempts[1].AssignmentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXAttemptRepository_UpdateAttempt_Completion(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXAttemptRepository(db)
	defer db.Close()

	attempt := domain.NewAttempt("quiz1", "user1", nil)
	attempt.ID = "attempt1"
	attempt.Complete(time.Now(), 8, 10)

	mock.ExpectExec(`UPDATE attempts SET`).
		WithArgs("completed", sqlmock.AnyArg(), 8.0, 10.0, 80.0, sqlmock.AnyArg(), "attempt1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateAttempt(context.Background(), attempt)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
