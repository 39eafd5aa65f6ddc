package service

import (
	"context"
	"fmt"

	"quiz-class/internal/config"
	"quiz-class/internal/domain"
	"quiz-class/internal/util"

	"go.uber.org/zap"
)

// GenerationSummary reports the outcome of one drafting run.
type GenerationSummary struct {
	QuizID     string
	Requested  int
	Drafted    int
	Duplicates int
	Saved      int
}

// quizCacheInvalidator is the slice of QuizService the drafting pipeline
// needs: dropping stale question projections after a save.
type quizCacheInvalidator interface {
	InvalidateQuizCache(ctx context.Context, quizID string) error
}

// GenerationService drafts new questions for a quiz and persists the ones
// that are not near-duplicates of what the quiz already asks.
type GenerationService interface {
	GenerateQuestions(ctx context.Context, quizID string, numQuestions int) (*GenerationSummary, error)
}

type generationServiceImpl struct {
	quizRepo         domain.QuizRepository
	questionRepo     domain.QuestionRepository
	subjectRepo      domain.SubjectRepository
	embeddingService domain.EmbeddingService
	quizGenSvc       domain.QuestionGenerationService
	quizCache        quizCacheInvalidator
	cfg              *config.Config
	logger           *zap.Logger
}

// NewGenerationService creates a new instance of GenerationService.
func NewGenerationService(
	quizRepo domain.QuizRepository,
	questionRepo domain.QuestionRepository,
	subjectRepo domain.SubjectRepository,
	embeddingService domain.EmbeddingService,
	quizGenSvc domain.QuestionGenerationService,
	quizCache quizCacheInvalidator,
	cfg *config.Config,
	logger *zap.Logger,
) GenerationService {
	return &generationServiceImpl{
		quizRepo:         quizRepo,
		questionRepo:     questionRepo,
		subjectRepo:      subjectRepo,
		embeddingService: embeddingService,
		quizGenSvc:       quizGenSvc,
		quizCache:        quizCache,
		cfg:              cfg,
		logger:           logger,
	}
}

// GenerateQuestions implements GenerationService.
func (s *generationServiceImpl) GenerateQuestions(ctx context.Context, quizID string, numQuestions int) (*GenerationSummary, error) {
	if numQuestions <= 0 {
		numQuestions = s.cfg.Generation.NumCandidates
	}

	quiz, err := s.quizRepo.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quiz %s: %w", quizID, err)
	}
	if quiz == nil {
		return nil, domain.NewQuizNotFoundError(quizID)
	}

	subjectName := quiz.SubjectID
	if subject, err := s.subjectRepo.GetSubjectByID(ctx, quiz.SubjectID); err == nil && subject != nil {
		subjectName = subject.Name
	}

	existing, err := s.questionRepo.GetQuestionsByQuizID(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch existing questions for quiz %s: %w", quizID, err)
	}

	existingPrompts := make([]string, len(existing))
	nextPosition := 0
	for i, question := range existing {
		existingPrompts[i] = question.Prompt
		if question.Position >= nextPosition {
			nextPosition = question.Position + 1
		}
	}

	s.logger.Info("Starting question drafting run",
		zap.String("quiz_id", quizID),
		zap.String("quiz_title", quiz.Title),
		zap.Int("existing_questions", len(existing)),
		zap.Int("num_requested", numQuestions),
	)

	drafts, err := s.quizGenSvc.GenerateQuestionDrafts(ctx, subjectName, quiz.Title, existingPrompts, numQuestions)
	if err != nil {
		s.logger.Error("Draft generation failed", zap.String("quiz_id", quizID), zap.Error(err))
		return nil, err
	}

	summary := &GenerationSummary{QuizID: quizID, Requested: numQuestions, Drafted: len(drafts)}
	if len(drafts) == 0 {
		s.logger.Info("Drafting run produced no usable drafts", zap.String("quiz_id", quizID))
		return summary, nil
	}

	// Prompt embeddings of the comparison set, lazily filled and keyed by
	// question ID. Saved drafts join the set so one run cannot save two
	// near-identical questions.
	embeddingsCache := make(map[string][]float32)

	for _, draft := range drafts {
		draftEmbedding, err := s.embeddingService.Generate(ctx, draft.Prompt)
		if err != nil {
			s.logger.Error("Failed to embed draft prompt",
				zap.String("draft_prompt", draft.Prompt),
				zap.Error(err),
			)
			continue
		}

		if s.isNearDuplicate(ctx, draft, draftEmbedding, existing, embeddingsCache) {
			summary.Duplicates++
			continue
		}

		question := questionFromDraft(quizID, draft, nextPosition)
		if err := question.Validate(); err != nil {
			s.logger.Warn("Draft failed validation, skipping",
				zap.String("draft_prompt", draft.Prompt),
				zap.Error(err),
			)
			continue
		}

		if err := s.questionRepo.SaveQuestion(ctx, question); err != nil {
			s.logger.Error("Failed to save drafted question",
				zap.String("draft_prompt", draft.Prompt),
				zap.Error(err),
			)
			continue
		}

		nextPosition++
		summary.Saved++
		embeddingsCache[question.ID] = draftEmbedding
		existing = append(existing, question)
		s.logger.Info("Saved drafted question",
			zap.String("quiz_id", quizID),
			zap.String("question_id", question.ID),
			zap.String("prompt", question.Prompt),
		)
	}

	if summary.Saved > 0 {
		if err := s.quizCache.InvalidateQuizCache(ctx, quizID); err != nil {
			s.logger.Warn("Failed to invalidate quiz cache after drafting",
				zap.String("quiz_id", quizID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Question drafting run completed",
		zap.String("quiz_id", quizID),
		zap.Int("drafted", summary.Drafted),
		zap.Int("duplicates", summary.Duplicates),
		zap.Int("saved", summary.Saved),
	)
	return summary, nil
}

// isNearDuplicate reports whether the draft's prompt embedding crosses the
// similarity threshold against any question in the comparison set. Embedding
// or similarity failures only disable the comparison for that pair.
func (s *generationServiceImpl) isNearDuplicate(
	ctx context.Context,
	draft *domain.QuestionDraft,
	draftEmbedding []float32,
	existing []*domain.Question,
	embeddingsCache map[string][]float32,
) bool {
	for _, question := range existing {
		questionEmbedding, found := embeddingsCache[question.ID]
		if !found {
			var err error
			questionEmbedding, err = s.embeddingService.Generate(ctx, question.Prompt)
			if err != nil {
				s.logger.Error("Failed to embed existing question prompt",
					zap.String("question_id", question.ID),
					zap.Error(err),
				)
				continue
			}
			embeddingsCache[question.ID] = questionEmbedding
		}

		similarity, err := util.CosineSimilarity(draftEmbedding, questionEmbedding)
		if err != nil {
			s.logger.Error("Failed to calculate similarity",
				zap.String("question_id", question.ID),
				zap.Error(err),
			)
			continue
		}

		if similarity >= s.cfg.Generation.SimilarityThreshold {
			s.logger.Info("Draft too similar to existing question",
				zap.String("draft_prompt", draft.Prompt),
				zap.String("existing_question_id", question.ID),
				zap.Float64("similarity", similarity),
				zap.Float64("threshold", s.cfg.Generation.SimilarityThreshold),
			)
			return true
		}
	}
	return false
}

func questionFromDraft(quizID string, draft *domain.QuestionDraft, position int) *domain.Question {
	content := domain.QuestionContent{Options: draft.Options}
	switch draft.Type {
	case domain.QuestionTypeSingleChoice:
		content.CorrectOptionID = draft.CorrectOptionID
	case domain.QuestionTypeMultiChoice:
		content.CorrectOptionIDs = draft.CorrectOptionIDs
	}
	return &domain.Question{
		ID:       util.NewULID(),
		QuizID:   quizID,
		Type:     draft.Type,
		Prompt:   draft.Prompt,
		Points:   draft.Points,
		Position: position,
		Content:  content,
	}
}
