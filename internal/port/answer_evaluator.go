package port

import (
	"encoding/json"

	"quiz-class/internal/domain"
)

// AnswerEvaluator defines the interface for grading a stored answer payload
// against a question's answer key. Payloads that do not decode into the
// question type's shape grade incorrect rather than erroring, so one broken
// response can never block completing an attempt.
type AnswerEvaluator interface {
	EvaluateAnswer(question *domain.Question, payload json.RawMessage) (isCorrect bool, pointsEarned float64, err error)
}
