// Package grading scores stored answer payloads against question answer keys.
// Every question type grades all-or-nothing: a fully correct answer earns the
// question's points, anything else earns zero.
package grading

import (
	"encoding/json"
	"fmt"
	"strings"

	"quiz-class/internal/domain"
	"quiz-class/internal/port"
)

// Grader is the deterministic port.AnswerEvaluator over the six question types.
type Grader struct{}

// NewGrader creates a new Grader.
func NewGrader() port.AnswerEvaluator {
	return &Grader{}
}

// EvaluateAnswer grades one payload. Malformed or empty payloads grade
// incorrect; only an unsupported question type is an error.
func (g *Grader) EvaluateAnswer(question *domain.Question, payload json.RawMessage) (bool, float64, error) {
	var correct bool
	switch question.Type {
	case domain.QuestionTypeSingleChoice:
		correct = gradeSingleChoice(&question.Content, payload)
	case domain.QuestionTypeMultiChoice:
		correct = gradeMultiChoice(&question.Content, payload)
	case domain.QuestionTypeFillInBlank:
		correct = gradeFillInBlank(&question.Content, payload)
	case domain.QuestionTypeFillInBlankDragDrop:
		correct = gradeFillInBlankDragDrop(&question.Content, payload)
	case domain.QuestionTypeMatching:
		correct = gradeMatching(&question.Content, payload)
	case domain.QuestionTypeOrdering:
		correct = gradeOrdering(&question.Content, payload)
	default:
		return false, 0, fmt.Errorf("unsupported question type: %s", question.Type)
	}

	if correct {
		return true, question.Points, nil
	}
	return false, 0, nil
}

// gradeSingleChoice expects the selected option ID as a JSON string.
func gradeSingleChoice(content *domain.QuestionContent, payload json.RawMessage) bool {
	var selected string
	if err := json.Unmarshal(payload, &selected); err != nil {
		return false
	}
	return selected != "" && selected == content.CorrectOptionID
}

// gradeMultiChoice expects the selected option IDs as a JSON array and
// compares them as a set against the answer key.
func gradeMultiChoice(content *domain.QuestionContent, payload json.RawMessage) bool {
	var selected []string
	if err := json.Unmarshal(payload, &selected); err != nil {
		return false
	}
	return stringSetEqual(selected, content.CorrectOptionIDs)
}

// gradeFillInBlank expects one typed answer per blank, positionally. Each
// answer matches its blank's accepted answers case-insensitively after
// trimming surrounding whitespace.
func gradeFillInBlank(content *domain.QuestionContent, payload json.RawMessage) bool {
	var answers []string
	if err := json.Unmarshal(payload, &answers); err != nil {
		return false
	}
	if len(answers) != len(content.Blanks) {
		return false
	}
	for i, blank := range content.Blanks {
		if !matchesAccepted(answers[i], blank.AcceptedAnswers) {
			return false
		}
	}
	return true
}

// gradeFillInBlankDragDrop expects a blank-to-token assignment object. Every
// blank must hold its correct token and no stray blanks may appear.
func gradeFillInBlankDragDrop(content *domain.QuestionContent, payload json.RawMessage) bool {
	var placements map[string]string
	if err := json.Unmarshal(payload, &placements); err != nil {
		return false
	}
	if len(placements) != len(content.Blanks) {
		return false
	}
	for _, blank := range content.Blanks {
		if placements[blank.ID] != blank.CorrectTokenID {
			return false
		}
	}
	return true
}

// gradeMatching expects prompt/match pairs and compares them as a set against
// the answer key.
func gradeMatching(content *domain.QuestionContent, payload json.RawMessage) bool {
	var pairs []domain.MatchPair
	if err := json.Unmarshal(payload, &pairs); err != nil {
		return false
	}
	if len(pairs) != len(content.CorrectPairs) {
		return false
	}
	assigned := make(map[string]string, len(pairs))
	for _, p := range pairs {
		if _, dup := assigned[p.PromptID]; dup {
			return false
		}
		assigned[p.PromptID] = p.MatchID
	}
	for _, want := range content.CorrectPairs {
		if assigned[want.PromptID] != want.MatchID {
			return false
		}
	}
	return true
}

// gradeOrdering expects the item IDs in the learner's order and requires the
// exact correct sequence.
func gradeOrdering(content *domain.QuestionContent, payload json.RawMessage) bool {
	var order []string
	if err := json.Unmarshal(payload, &order); err != nil {
		return false
	}
	if len(order) != len(content.CorrectOrder) {
		return false
	}
	for i, id := range content.CorrectOrder {
		if order[i] != id {
			return false
		}
	}
	return true
}

func matchesAccepted(answer string, accepted []string) bool {
	normalized := strings.ToLower(strings.TrimSpace(answer))
	if normalized == "" {
		return false
	}
	for _, a := range accepted {
		if normalized == strings.ToLower(strings.TrimSpace(a)) {
			return true
		}
	}
	return false
}

func stringSetEqual(got, want []string) bool {
	if len(want) == 0 {
		return false
	}
	gotSet := make(map[string]struct{}, len(got))
	for _, s := range got {
		gotSet[s] = struct{}{}
	}
	if len(gotSet) != len(want) {
		return false
	}
	for _, s := range want {
		if _, ok := gotSet[s]; !ok {
			return false
		}
	}
	return true
}
