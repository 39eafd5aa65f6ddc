package service

import (
	"context"
	"encoding/json"
	"time"

	"quiz-class/internal/domain"
	"quiz-class/internal/dto"
	"quiz-class/internal/port"

	"github.com/stretchr/testify/mock"
)

// --- MockQuizRepository ---

type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) GetQuizByID(ctx context.Context, id string) (*domain.Quiz, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quiz), args.Error(1)
}

func (m *MockQuizRepository) ListQuizzes(ctx context.Context, filters dto.QuizFilters, pagination dto.Pagination) ([]*domain.Quiz, int, error) {
	args := m.Called(ctx, filters, pagination)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.Quiz), args.Int(1), args.Error(2)
}

func (m *MockQuizRepository) SaveQuiz(ctx context.Context, quiz *domain.Quiz) error {
	args := m.Called(ctx, quiz)
	return args.Error(0)
}

func (m *MockQuizRepository) UpdateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	args := m.Called(ctx, quiz)
	return args.Error(0)
}

// --- MockQuestionRepository ---

type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) GetQuestionsByQuizID(ctx context.Context, quizID string) ([]*domain.Question, error) {
	args := m.Called(ctx, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Question), args.Error(1)
}

func (m *MockQuestionRepository) GetQuestionByID(ctx context.Context, id string) (*domain.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Question), args.Error(1)
}

func (m *MockQuestionRepository) SaveQuestion(ctx context.Context, question *domain.Question) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

// --- MockSubjectRepository ---

type MockSubjectRepository struct {
	mock.Mock
}

func (m *MockSubjectRepository) GetAllSubjects(ctx context.Context) ([]*domain.Subject, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Subject), args.Error(1)
}

func (m *MockSubjectRepository) GetSubjectByID(ctx context.Context, id string) (*domain.Subject, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subject), args.Error(1)
}

func (m *MockSubjectRepository) SaveSubject(ctx context.Context, subject *domain.Subject) error {
	args := m.Called(ctx, subject)
	return args.Error(0)
}

// --- MockAssignmentRepository ---

type MockAssignmentRepository struct {
	mock.Mock
}

func (m *MockAssignmentRepository) CreateAssignment(ctx context.Context, assignment *domain.Assignment) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

func (m *MockAssignmentRepository) GetAssignmentByID(ctx context.Context, id string) (*domain.Assignment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) GetAssignmentsByLearnerID(ctx context.Context, learnerID string, filters dto.AssignmentFilters, pagination dto.Pagination) ([]*domain.Assignment, int, error) {
	args := m.Called(ctx, learnerID, filters, pagination)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.Assignment), args.Int(1), args.Error(2)
}

func (m *MockAssignmentRepository) GetAssignmentsByAssignerID(ctx context.Context, assignerID string, filters dto.AssignmentFilters, pagination dto.Pagination) ([]*domain.Assignment, int, error) {
	args := m.Called(ctx, assignerID, filters, pagination)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.Assignment), args.Int(1), args.Error(2)
}

func (m *MockAssignmentRepository) GetAssignmentByQuizAndLearner(ctx context.Context, quizID, learnerID string) (*domain.Assignment, error) {
	args := m.Called(ctx, quizID, learnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) UpdateAssignment(ctx context.Context, assignment *domain.Assignment) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

// --- MockAttemptRepository ---

type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) CreateAttempt(ctx context.Context, attempt *domain.Attempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetAttemptByID(ctx context.Context, id string) (*domain.Attempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) GetInProgressAttempt(ctx context.Context, quizID, userID string, assignmentID *string) (*domain.Attempt, error) {
	args := m.Called(ctx, quizID, userID, assignmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) CountCompletedAttempts(ctx context.Context, quizID, userID string, assignmentID *string) (int, error) {
	args := m.Called(ctx, quizID, userID, assignmentID)
	return args.Int(0), args.Error(1)
}

func (m *MockAttemptRepository) CountAttemptsByAssignment(ctx context.Context, assignmentID string) (int, int, error) {
	args := m.Called(ctx, assignmentID)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockAttemptRepository) GetAttemptsByUserID(ctx context.Context, userID string, filters dto.AttemptFilters, pagination dto.Pagination) ([]*domain.Attempt, int, error) {
	args := m.Called(ctx, userID, filters, pagination)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.Attempt), args.Int(1), args.Error(2)
}

func (m *MockAttemptRepository) UpdateAttempt(ctx context.Context, attempt *domain.Attempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

// --- MockResponseRepository ---

type MockResponseRepository struct {
	mock.Mock
}

func (m *MockResponseRepository) UpsertResponse(ctx context.Context, response *domain.Response) error {
	args := m.Called(ctx, response)
	return args.Error(0)
}

func (m *MockResponseRepository) GetResponse(ctx context.Context, attemptID, questionID string) (*domain.Response, error) {
	args := m.Called(ctx, attemptID, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Response), args.Error(1)
}

func (m *MockResponseRepository) GetResponsesByAttemptID(ctx context.Context, attemptID string) ([]*domain.Response, error) {
	args := m.Called(ctx, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Response), args.Error(1)
}

func (m *MockResponseRepository) UpdateGrades(ctx context.Context, responses []*domain.Response) error {
	args := m.Called(ctx, responses)
	return args.Error(0)
}

// --- MockUserRepository ---

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	args := m.Called(ctx, googleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateUserTokens(ctx context.Context, userID, encryptedAccessToken, encryptedRefreshToken string, tokenExpiresAt time.Time) error {
	args := m.Called(ctx, userID, encryptedAccessToken, encryptedRefreshToken, tokenExpiresAt)
	return args.Error(0)
}

func (m *MockUserRepository) DeleteUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// --- MockTransactionManager ---

// MockTransactionManager runs the wrapped function with the given context so
// the transactional flow under test actually executes.
type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	args := m.Called(ctx, fn)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}

// --- MockCache ---

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- MockAnswerEvaluator ---

type MockAnswerEvaluator struct {
	mock.Mock
}

func (m *MockAnswerEvaluator) EvaluateAnswer(question *domain.Question, payload json.RawMessage) (bool, float64, error) {
	args := m.Called(question, payload)
	return args.Bool(0), args.Get(1).(float64), args.Error(2)
}

// --- MockEmbeddingService ---

type MockEmbeddingService struct {
	mock.Mock
}

func (m *MockEmbeddingService) Generate(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// --- MockQuestionGenerationService ---

type MockQuestionGenerationService struct {
	mock.Mock
}

func (m *MockQuestionGenerationService) GenerateQuestionDrafts(ctx context.Context, subjectName, quizTitle string, existingPrompts []string, numQuestions int) ([]*domain.QuestionDraft, error) {
	args := m.Called(ctx, subjectName, quizTitle, existingPrompts, numQuestions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.QuestionDraft), args.Error(1)
}

// --- MockQuizCacheInvalidator ---

type MockQuizCacheInvalidator struct {
	mock.Mock
}

func (m *MockQuizCacheInvalidator) InvalidateQuizCache(ctx context.Context, quizID string) error {
	args := m.Called(ctx, quizID)
	return args.Error(0)
}

// Ensure the mocks satisfy the interfaces they stand in for.
var _ domain.QuizRepository = (*MockQuizRepository)(nil)
var _ domain.QuestionRepository = (*MockQuestionRepository)(nil)
var _ domain.SubjectRepository = (*MockSubjectRepository)(nil)
var _ domain.AssignmentRepository = (*MockAssignmentRepository)(nil)
var _ domain.AttemptRepository = (*MockAttemptRepository)(nil)
var _ domain.ResponseRepository = (*MockResponseRepository)(nil)
var _ domain.UserRepository = (*MockUserRepository)(nil)
var _ domain.TransactionManager = (*MockTransactionManager)(nil)
var _ domain.Cache = (*MockCache)(nil)
var _ port.AnswerEvaluator = (*MockAnswerEvaluator)(nil)
var _ domain.EmbeddingService = (*MockEmbeddingService)(nil)
var _ domain.QuestionGenerationService = (*MockQuestionGenerationService)(nil)
var _ quizCacheInvalidator = (*MockQuizCacheInvalidator)(nil)
