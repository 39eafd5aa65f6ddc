package domain

import "context"

// QuestionDraft is a candidate question produced by the drafting pipeline.
// Drafts are reviewed by authors before publication; the pipeline only emits
// the choice-based types an LLM produces reliably.
type QuestionDraft struct {
	Prompt           string
	Type             QuestionType
	Options          []Option
	CorrectOptionID  string
	CorrectOptionIDs []string
	Points           float64
}

// QuestionGenerationService defines the interface for drafting candidate
// questions for a quiz.
type QuestionGenerationService interface {
	// GenerateQuestionDrafts produces numQuestions drafts for the quiz,
	// steering away from the prompts the quiz already covers.
	GenerateQuestionDrafts(
		ctx context.Context,
		subjectName string,
		quizTitle string,
		existingPrompts []string,
		numQuestions int,
	) ([]*QuestionDraft, error)
}
