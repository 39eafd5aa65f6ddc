package service

import (
	"context"
	"encoding/json"
	"time"

	"quiz-class/internal/cache"
	"quiz-class/internal/config"
	"quiz-class/internal/domain"
	"quiz-class/internal/dto"
	"quiz-class/internal/logger"

	"go.uber.org/zap"
)

// QuizService defines the interface for quiz catalog operations.
type QuizService interface {
	// GetQuizByID returns one quiz with subject name and question count.
	GetQuizByID(ctx context.Context, quizID string) (*dto.QuizResponse, error)

	// GetQuizQuestions returns the quiz's questions in taking order, with
	// every answer key stripped from the content.
	GetQuizQuestions(ctx context.Context, quizID string) (*dto.QuizQuestionsResponse, error)

	// ListQuizzes returns the published catalog matching the filters.
	ListQuizzes(ctx context.Context, filters dto.QuizFilters, pagination dto.Pagination) (*dto.QuizListResponse, error)

	// GetAllSubjects returns the subject taxonomy.
	GetAllSubjects(ctx context.Context) ([]dto.SubjectResponse, error)

	// InvalidateQuizCache drops the cached projections of one quiz. Called
	// after quiz or question writes.
	InvalidateQuizCache(ctx context.Context, quizID string) error
}

type quizServiceImpl struct {
	quizRepo     domain.QuizRepository
	questionRepo domain.QuestionRepository
	subjectRepo  domain.SubjectRepository
	cache        domain.Cache
	cfg          *config.Config
}

// NewQuizService creates a new instance of QuizService.
func NewQuizService(
	quizRepo domain.QuizRepository,
	questionRepo domain.QuestionRepository,
	subjectRepo domain.SubjectRepository,
	cacheClient domain.Cache,
	cfg *config.Config,
) QuizService {
	return &quizServiceImpl{
		quizRepo:     quizRepo,
		questionRepo: questionRepo,
		subjectRepo:  subjectRepo,
		cache:        cacheClient,
		cfg:          cfg,
	}
}

// GetQuizByID implements QuizService.
func (s *quizServiceImpl) GetQuizByID(ctx context.Context, quizID string) (*dto.QuizResponse, error) {
	cacheKey := cache.GenerateCacheKey("quiz_service", "quiz", quizID)
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		var resp dto.QuizResponse
		if err := json.Unmarshal([]byte(cached), &resp); err == nil {
			return &resp, nil
		}
	}

	quiz, err := s.quizRepo.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get quiz", err)
	}
	if quiz == nil {
		return nil, domain.NewQuizNotFoundError(quizID)
	}

	subjectName := ""
	if subject, err := s.subjectRepo.GetSubjectByID(ctx, quiz.SubjectID); err == nil && subject != nil {
		subjectName = subject.Name
	}

	questions, err := s.questionRepo.GetQuestionsByQuizID(ctx, quizID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to count questions", err)
	}

	resp := toQuizResponse(quiz, subjectName, len(questions))
	s.cacheJSON(ctx, cacheKey, resp, s.cfg.CacheTTLs.Quiz)
	return &resp, nil
}

// GetQuizQuestions implements QuizService. Only the public projection of
// each question's content ever leaves this method.
func (s *quizServiceImpl) GetQuizQuestions(ctx context.Context, quizID string) (*dto.QuizQuestionsResponse, error) {
	cacheKey := cache.GenerateCacheKey("quiz_service", "questions", quizID)
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		var resp dto.QuizQuestionsResponse
		if err := json.Unmarshal([]byte(cached), &resp); err == nil {
			return &resp, nil
		}
	}

	quiz, err := s.quizRepo.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get quiz", err)
	}
	if quiz == nil {
		return nil, domain.NewQuizNotFoundError(quizID)
	}

	questions, err := s.questionRepo.GetQuestionsByQuizID(ctx, quizID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get questions", err)
	}

	items := make([]dto.QuestionResponse, len(questions))
	for i, question := range questions {
		publicContent, err := json.Marshal(question.Content.Public())
		if err != nil {
			return nil, domain.NewInternalError("Failed to project question content", err)
		}
		items[i] = dto.QuestionResponse{
			ID:       question.ID,
			QuizID:   question.QuizID,
			Type:     string(question.Type),
			Prompt:   question.Prompt,
			Points:   question.Points,
			Position: question.Position,
			Content:  publicContent,
		}
	}

	resp := &dto.QuizQuestionsResponse{QuizID: quizID, Questions: items}
	s.cacheJSON(ctx, cacheKey, resp, s.cfg.CacheTTLs.Questions)
	return resp, nil
}

// ListQuizzes implements QuizService. The repository filters to published
// quizzes; the filter combinations make the list a poor cache candidate, so
// it always reads through.
func (s *quizServiceImpl) ListQuizzes(ctx context.Context, filters dto.QuizFilters, pagination dto.Pagination) (*dto.QuizListResponse, error) {
	quizzes, total, err := s.quizRepo.ListQuizzes(ctx, filters, pagination)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list quizzes", err)
	}

	items := make([]dto.QuizResponse, len(quizzes))
	for i, quiz := range quizzes {
		items[i] = toQuizResponse(quiz, "", 0)
	}

	return &dto.QuizListResponse{
		Quizzes:        items,
		PaginationInfo: dto.NewPaginationInfo(pagination, total),
	}, nil
}

// GetAllSubjects implements QuizService.
func (s *quizServiceImpl) GetAllSubjects(ctx context.Context) ([]dto.SubjectResponse, error) {
	subjects, err := s.subjectRepo.GetAllSubjects(ctx)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get subjects", err)
	}

	items := make([]dto.SubjectResponse, len(subjects))
	for i, subject := range subjects {
		items[i] = dto.SubjectResponse{
			ID:          subject.ID,
			Name:        subject.Name,
			Description: subject.Description,
		}
	}
	return items, nil
}

// InvalidateQuizCache implements QuizService.
func (s *quizServiceImpl) InvalidateQuizCache(ctx context.Context, quizID string) error {
	keys := []string{
		cache.GenerateCacheKey("quiz_service", "quiz", quizID),
		cache.GenerateCacheKey("quiz_service", "questions", quizID),
	}
	for _, key := range keys {
		if err := s.cache.Delete(ctx, key); err != nil {
			logger.Get().Error("Failed to invalidate quiz cache",
				zap.String("quizID", quizID),
				zap.String("cacheKey", key),
				zap.Error(err))
			return domain.NewInternalError("failed to invalidate cache for quiz", err)
		}
	}
	return nil
}

func (s *quizServiceImpl) cacheJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(data), ttl); err != nil {
		logger.Get().Warn("Failed to cache quiz data", zap.String("cacheKey", key), zap.Error(err))
	}
}

func toQuizResponse(quiz *domain.Quiz, subjectName string, questionCount int) dto.QuizResponse {
	tags := quiz.Tags
	if tags == nil {
		tags = []string{}
	}
	return dto.QuizResponse{
		ID:               quiz.ID,
		SubjectID:        quiz.SubjectID,
		SubjectName:      subjectName,
		Title:            quiz.Title,
		Description:      quiz.Description,
		Difficulty:       domain.DifficultyToString(quiz.Difficulty),
		Tags:             tags,
		MinAge:           quiz.MinAge,
		MaxAge:           quiz.MaxAge,
		EstimatedMinutes: quiz.EstimatedMinutes,
		Published:        quiz.Published,
		QuestionCount:    questionCount,
	}
}
