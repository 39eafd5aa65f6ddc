package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quiz-class/internal/cache"
	"quiz-class/internal/config"
	"quiz-class/internal/domain"
	"quiz-class/internal/dto"
	"quiz-class/internal/logger"
	"quiz-class/internal/port"
	"quiz-class/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// selfStartedKey marks attempts without an assignment in singleflight keys.
const selfStartedKey = "self"

// AttemptService defines the interface for attempt lifecycle operations.
type AttemptService interface {
	// StartAttempt returns the open attempt for (quiz, user, assignment),
	// creating one when none exists. Concurrent calls for the same triple
	// collapse to a single creation and share the result.
	StartAttempt(ctx context.Context, userID string, req *dto.StartAttemptRequest) (*dto.AttemptResponse, error)

	// GetAttemptByID fetches one of the caller's attempts.
	GetAttemptByID(ctx context.Context, userID, attemptID string) (*dto.AttemptResponse, error)

	// GetUserAttempts returns the caller's attempt history, newest first.
	GetUserAttempts(ctx context.Context, userID string, filters dto.AttemptFilters, pagination dto.Pagination) (*dto.AttemptListResponse, error)

	// GetAttemptResponses returns every stored response of the attempt.
	GetAttemptResponses(ctx context.Context, userID, attemptID string) (*dto.AttemptResponsesResponse, error)

	// SubmitAnswer upserts the response for one question of an open attempt.
	SubmitAnswer(ctx context.Context, userID, attemptID string, req *dto.SubmitAnswerRequest) (*dto.ResponseItem, error)

	// CompleteAttempt grades the attempt and moves it to its terminal state.
	CompleteAttempt(ctx context.Context, userID, attemptID string) (*dto.AttemptResponse, error)
}

type attemptServiceImpl struct {
	attemptRepo    domain.AttemptRepository
	responseRepo   domain.ResponseRepository
	quizRepo       domain.QuizRepository
	questionRepo   domain.QuestionRepository
	assignmentRepo domain.AssignmentRepository
	evaluator      port.AnswerEvaluator
	txManager      domain.TransactionManager
	cache          domain.Cache
	cfg            *config.Config
	startGroup     singleflight.Group
}

// NewAttemptService creates a new instance of AttemptService.
func NewAttemptService(
	attemptRepo domain.AttemptRepository,
	responseRepo domain.ResponseRepository,
	quizRepo domain.QuizRepository,
	questionRepo domain.QuestionRepository,
	assignmentRepo domain.AssignmentRepository,
	evaluator port.AnswerEvaluator,
	txManager domain.TransactionManager,
	cacheClient domain.Cache,
	cfg *config.Config,
) AttemptService {
	return &attemptServiceImpl{
		attemptRepo:    attemptRepo,
		responseRepo:   responseRepo,
		quizRepo:       quizRepo,
		questionRepo:   questionRepo,
		assignmentRepo: assignmentRepo,
		evaluator:      evaluator,
		txManager:      txManager,
		cache:          cacheClient,
		cfg:            cfg,
	}
}

// StartAttempt implements AttemptService. The flow is get-or-create: an
// existing in-progress attempt is always returned as-is, so retries and
// concurrent navigation never open a second attempt. The partial unique index
// backstops races the singleflight group cannot see (other processes): a
// duplicate-key rejection triggers a re-read of the winning row.
func (s *attemptServiceImpl) StartAttempt(ctx context.Context, userID string, req *dto.StartAttemptRequest) (*dto.AttemptResponse, error) {
	if req.QuizID == "" {
		return nil, domain.NewValidationError("quiz_id is required")
	}
	if userID == "" {
		return nil, domain.NewUnauthorizedError("user is not authenticated")
	}

	assignmentKey := selfStartedKey
	if req.AssignmentID != nil {
		assignmentKey = *req.AssignmentID
	}
	flightKey := fmt.Sprintf("attempt:%s:%s:%s", req.QuizID, userID, assignmentKey)

	result, err, _ := s.startGroup.Do(flightKey, func() (interface{}, error) {
		return s.findOrCreateAttempt(ctx, userID, req.QuizID, req.AssignmentID)
	})
	if err != nil {
		return nil, err
	}

	attempt, ok := result.(*domain.Attempt)
	if !ok {
		return nil, domain.NewInternalError(fmt.Sprintf("unexpected type from attempt singleflight: %T", result), nil)
	}
	return toAttemptResponse(attempt), nil
}

func (s *attemptServiceImpl) findOrCreateAttempt(ctx context.Context, userID, quizID string, assignmentID *string) (*domain.Attempt, error) {
	quiz, err := s.quizRepo.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get quiz", err)
	}
	if quiz == nil {
		return nil, domain.NewQuizNotFoundError(quizID)
	}
	if !quiz.Published {
		return nil, domain.NewQuizNotPublishedError(quizID)
	}

	var assignment *domain.Assignment
	if assignmentID != nil {
		assignment, err = s.assignmentRepo.GetAssignmentByID(ctx, *assignmentID)
		if err != nil {
			return nil, domain.NewInternalError("Failed to get assignment", err)
		}
		if assignment == nil {
			return nil, domain.NewAssignmentNotFoundError(*assignmentID)
		}
		if assignment.LearnerID != userID {
			return nil, domain.NewForbiddenError("assignment belongs to another learner")
		}
		if assignment.QuizID != quizID {
			return nil, domain.NewValidationError("assignment does not reference this quiz")
		}
		if assignment.IsCancelled() {
			return nil, domain.NewAssignmentCancelledError(assignment.ID)
		}
	}

	existing, err := s.attemptRepo.GetInProgressAttempt(ctx, quizID, userID, assignmentID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to look up open attempt", err)
	}
	if existing != nil {
		return existing, nil
	}

	// Quota counts completed attempts only; the open attempt above, had there
	// been one, is the learner's to finish regardless.
	if assignment != nil && assignment.MaxAttempts != nil {
		completed, err := s.attemptRepo.CountCompletedAttempts(ctx, quizID, userID, assignmentID)
		if err != nil {
			return nil, domain.NewInternalError("Failed to count completed attempts", err)
		}
		if assignment.QuotaExhausted(completed) {
			return nil, domain.NewQuotaExceededError(assignment.ID, *assignment.MaxAttempts)
		}
	}

	attempt := domain.NewAttempt(quizID, userID, assignmentID)
	attempt.ID = util.NewULID()

	if err := s.attemptRepo.CreateAttempt(ctx, attempt); err != nil {
		if errors.Is(err, domain.ErrDuplicateAttempt) {
			// Another process won the race; its row is the attempt.
			winner, readErr := s.attemptRepo.GetInProgressAttempt(ctx, quizID, userID, assignmentID)
			if readErr != nil {
				return nil, domain.NewInternalError("Failed to read winning attempt after duplicate", readErr)
			}
			if winner != nil {
				return winner, nil
			}
		}
		return nil, domain.NewInternalError("Failed to create attempt", err)
	}

	logger.Get().Info("Attempt created",
		zap.String("attemptID", attempt.ID),
		zap.String("quizID", quizID),
		zap.String("userID", userID))
	return attempt, nil
}

// GetAttemptByID implements AttemptService. Completed attempts are immutable,
// so their responses are served from cache after the first read.
func (s *attemptServiceImpl) GetAttemptByID(ctx context.Context, userID, attemptID string) (*dto.AttemptResponse, error) {
	cacheKey := cache.GenerateCacheKey("attempt_service", "result", attemptID, userID)
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		var resp dto.AttemptResponse
		if err := json.Unmarshal([]byte(cached), &resp); err == nil {
			return &resp, nil
		}
	}

	attempt, err := s.loadOwnedAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}

	resp := toAttemptResponse(attempt)
	if attempt.IsCompleted() {
		s.cacheJSON(ctx, cacheKey, resp, s.cfg.CacheTTLs.AttemptResult)
	}
	return resp, nil
}

// GetUserAttempts implements AttemptService.
func (s *attemptServiceImpl) GetUserAttempts(ctx context.Context, userID string, filters dto.AttemptFilters, pagination dto.Pagination) (*dto.AttemptListResponse, error) {
	attempts, total, err := s.attemptRepo.GetAttemptsByUserID(ctx, userID, filters, pagination)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get user attempts", err)
	}

	items := make([]dto.AttemptResponse, len(attempts))
	for i, attempt := range attempts {
		items[i] = *toAttemptResponse(attempt)
	}

	return &dto.AttemptListResponse{
		Attempts:       items,
		PaginationInfo: dto.NewPaginationInfo(pagination, total),
	}, nil
}

// GetAttemptResponses implements AttemptService.
func (s *attemptServiceImpl) GetAttemptResponses(ctx context.Context, userID, attemptID string) (*dto.AttemptResponsesResponse, error) {
	attempt, err := s.loadOwnedAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}

	cacheKey := cache.GenerateCacheKey("attempt_service", "responses", attemptID, userID)
	if attempt.IsCompleted() {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
			var resp dto.AttemptResponsesResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return &resp, nil
			}
		}
	}

	responses, err := s.responseRepo.GetResponsesByAttemptID(ctx, attemptID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get attempt responses", err)
	}

	items := make([]dto.ResponseItem, len(responses))
	for i, r := range responses {
		items[i] = dto.ResponseItem{
			QuestionID:   r.QuestionID,
			Payload:      r.Payload,
			Answered:     r.Answered,
			IsCorrect:    r.IsCorrect,
			PointsEarned: r.PointsEarned,
			UpdatedAt:    r.UpdatedAt,
		}
	}

	resp := &dto.AttemptResponsesResponse{AttemptID: attemptID, Responses: items}
	if attempt.IsCompleted() {
		s.cacheJSON(ctx, cacheKey, resp, s.cfg.CacheTTLs.AttemptResult)
	}
	return resp, nil
}

// SubmitAnswer implements AttemptService. answered=false is the skip path:
// the stored payload is normalized to the question type's empty value, so a
// skip is indistinguishable from "never touched" at the payload level and
// only the answered flag tells them apart.
func (s *attemptServiceImpl) SubmitAnswer(ctx context.Context, userID, attemptID string, req *dto.SubmitAnswerRequest) (*dto.ResponseItem, error) {
	if req.QuestionID == "" {
		return nil, domain.NewValidationError("question_id is required")
	}

	attempt, err := s.loadOwnedAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.IsCompleted() {
		return nil, domain.NewAttemptCompletedError(attemptID)
	}

	question, err := s.questionRepo.GetQuestionByID(ctx, req.QuestionID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get question", err)
	}
	if question == nil {
		return nil, domain.NewQuestionNotFoundError(req.QuestionID)
	}
	if question.QuizID != attempt.QuizID {
		return nil, domain.NewValidationError("question does not belong to the attempt's quiz")
	}

	payload := req.Payload
	if req.Answered {
		if err := domain.ValidateAnswerShape(question.Type, payload); err != nil {
			return nil, err
		}
	} else {
		payload = domain.EmptyAnswerFor(question.Type)
	}

	now := time.Now()
	response := &domain.Response{
		ID:         util.NewULID(),
		AttemptID:  attemptID,
		QuestionID: req.QuestionID,
		Payload:    payload,
		Answered:   req.Answered,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.responseRepo.UpsertResponse(ctx, response); err != nil {
		return nil, domain.NewInternalError("Failed to store response", err)
	}

	return &dto.ResponseItem{
		QuestionID: response.QuestionID,
		Payload:    response.Payload,
		Answered:   response.Answered,
		UpdatedAt:  response.UpdatedAt,
	}, nil
}

// CompleteAttempt implements AttemptService. Grading, score writes and the
// status transition commit atomically; a failure anywhere leaves the attempt
// open and resumable.
func (s *attemptServiceImpl) CompleteAttempt(ctx context.Context, userID, attemptID string) (*dto.AttemptResponse, error) {
	attempt, err := s.loadOwnedAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.IsCompleted() {
		return nil, domain.NewAttemptCompletedError(attemptID)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		// Re-read inside the transaction: a concurrent completion may have
		// won between the guard above and the transaction start.
		current, err := s.attemptRepo.GetAttemptByID(txCtx, attemptID)
		if err != nil {
			return domain.NewInternalError("Failed to re-read attempt", err)
		}
		if current == nil {
			return domain.NewAttemptNotFoundError(attemptID)
		}
		if current.IsCompleted() {
			return domain.NewAttemptCompletedError(attemptID)
		}

		questions, err := s.questionRepo.GetQuestionsByQuizID(txCtx, attempt.QuizID)
		if err != nil {
			return domain.NewInternalError("Failed to load questions for grading", err)
		}
		responses, err := s.responseRepo.GetResponsesByAttemptID(txCtx, attemptID)
		if err != nil {
			return domain.NewInternalError("Failed to load responses for grading", err)
		}

		byQuestion := make(map[string]*domain.Response, len(responses))
		for _, r := range responses {
			byQuestion[r.QuestionID] = r
		}

		var totalScore, maxScore float64
		graded := make([]*domain.Response, 0, len(responses))
		for _, question := range questions {
			maxScore += question.Points

			response, ok := byQuestion[question.ID]
			if !ok {
				// Never touched: contributes zero, nothing to grade.
				continue
			}

			isCorrect, pointsEarned, err := s.evaluator.EvaluateAnswer(question, response.Payload)
			if err != nil {
				return domain.NewInternalError(fmt.Sprintf("Failed to grade question %s", question.ID), err)
			}

			correct := isCorrect
			points := pointsEarned
			response.IsCorrect = &correct
			response.PointsEarned = &points
			totalScore += points
			graded = append(graded, response)
		}

		if err := s.responseRepo.UpdateGrades(txCtx, graded); err != nil {
			return domain.NewInternalError("Failed to store grades", err)
		}

		attempt.Complete(time.Now(), totalScore, maxScore)
		if err := s.attemptRepo.UpdateAttempt(txCtx, attempt); err != nil {
			return domain.NewInternalError("Failed to finalize attempt", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Info("Attempt completed",
		zap.String("attemptID", attempt.ID),
		zap.String("userID", userID),
		zap.Float64p("totalScore", attempt.TotalScore),
		zap.Float64p("percentage", attempt.Percentage))
	return toAttemptResponse(attempt), nil
}

// loadOwnedAttempt fetches an attempt and verifies the caller owns it.
func (s *attemptServiceImpl) loadOwnedAttempt(ctx context.Context, userID, attemptID string) (*domain.Attempt, error) {
	attempt, err := s.attemptRepo.GetAttemptByID(ctx, attemptID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get attempt", err)
	}
	if attempt == nil {
		return nil, domain.NewAttemptNotFoundError(attemptID)
	}
	if attempt.UserID != userID {
		return nil, domain.NewForbiddenError("attempt belongs to another user")
	}
	return attempt, nil
}

func (s *attemptServiceImpl) cacheJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(data), ttl); err != nil {
		logger.Get().Warn("Failed to cache attempt data", zap.String("cacheKey", key), zap.Error(err))
	}
}

func toAttemptResponse(attempt *domain.Attempt) *dto.AttemptResponse {
	return &dto.AttemptResponse{
		ID:           attempt.ID,
		QuizID:       attempt.QuizID,
		UserID:       attempt.UserID,
		AssignmentID: attempt.AssignmentID,
		Status:       string(attempt.Status),
		StartedAt:    attempt.StartedAt,
		CompletedAt:  attempt.CompletedAt,
		TotalScore:   attempt.TotalScore,
		MaxScore:     attempt.MaxScore,
		Percentage:   attempt.Percentage,
	}
}
