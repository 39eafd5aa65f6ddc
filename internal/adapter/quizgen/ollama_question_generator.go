package quizgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"go.uber.org/zap"

	"quiz-class/internal/domain"
	"quiz-class/internal/logger"
	"quiz-class/internal/util"
)

// generationTimeout bounds a single drafting call. Drafting emits a full
// question batch, so it gets more room than a chat turn would.
const generationTimeout = 60 * time.Second

// completer is the slice of the langchaingo LLM surface the generator needs.
// *ollama.LLM satisfies it; tests substitute a canned implementation.
type completer interface {
	Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error)
}

// OllamaQuestionGenerator implements domain.QuestionGenerationService by
// prompting a local Ollama model for candidate questions. Drafts are choice
// questions only; the other types need hand-built content and go through the
// authoring UI instead.
type OllamaQuestionGenerator struct {
	llmClient completer
}

// NewOllamaQuestionGenerator creates a generator backed by the given Ollama
// server and model.
func NewOllamaQuestionGenerator(serverURL, modelName string) (*OllamaQuestionGenerator, error) {
	if serverURL == "" {
		return nil, fmt.Errorf("ollama server URL cannot be empty")
	}
	if modelName == "" {
		return nil, fmt.Errorf("ollama model name cannot be empty")
	}

	llm, err := ollama.New(
		ollama.WithModel(modelName),
		ollama.WithServerURL(serverURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama LLM client: %w", err)
	}

	return &OllamaQuestionGenerator{llmClient: llm}, nil
}

// draftPayload is the JSON shape the model is asked to produce for each
// candidate question.
type draftPayload struct {
	Prompt         string   `json:"prompt"`
	Type           string   `json:"type"`
	Options        []string `json:"options"`
	CorrectIndexes []int    `json:"correct_indexes"`
	Points         float64  `json:"points"`
}

// GenerateQuestionDrafts implements domain.QuestionGenerationService.
// Malformed entries in the model output are skipped with a warning rather
// than failing the whole batch.
func (g *OllamaQuestionGenerator) GenerateQuestionDrafts(ctx context.Context, subjectName, quizTitle string, existingPrompts []string, numQuestions int) ([]*domain.QuestionDraft, error) {
	l := logger.Get()

	if numQuestions <= 0 {
		return nil, fmt.Errorf("numQuestions must be positive, got %d", numQuestions)
	}

	prompt := buildDraftPrompt(subjectName, quizTitle, existingPrompts, numQuestions)

	rawResponse, err := g.callLLM(ctx, prompt)
	if err != nil {
		l.Error("LLM call failed during question drafting",
			zap.Error(err),
			zap.String("subject", subjectName),
			zap.String("quiz_title", quizTitle))
		return nil, domain.NewLLMServiceError(fmt.Errorf("question drafting call failed: %w", err))
	}

	payloads, err := parseDraftResponse(rawResponse)
	if err != nil {
		l.Error("Failed to parse LLM drafting response",
			zap.Error(err),
			zap.String("raw_response", rawResponse))
		return nil, domain.NewLLMServiceError(err)
	}

	drafts := make([]*domain.QuestionDraft, 0, len(payloads))
	for _, p := range payloads {
		draft, buildErr := buildDraft(p)
		if buildErr != nil {
			l.Warn("Skipping malformed question draft",
				zap.Error(buildErr),
				zap.String("draft_prompt", p.Prompt))
			continue
		}
		drafts = append(drafts, draft)
	}

	l.Info("Question drafting finished",
		zap.String("quiz_title", quizTitle),
		zap.Int("requested", numQuestions),
		zap.Int("usable", len(drafts)))
	return drafts, nil
}

func (g *OllamaQuestionGenerator) callLLM(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	response, err := g.llmClient.Call(ctx, prompt, llms.WithTemperature(0.7))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("LLM request timed out: %w", err)
		}
		return "", fmt.Errorf("LLM call failed: %w", err)
	}
	return response, nil
}

func buildDraftPrompt(subjectName, quizTitle string, existingPrompts []string, numQuestions int) string {
	var avoid string
	if len(existingPrompts) > 0 {
		avoid = fmt.Sprintf("\nThe quiz already covers these questions, do not repeat them or close variants:\n- %s\n",
			strings.Join(existingPrompts, "\n- "))
	}

	return fmt.Sprintf(`You are an assistant that drafts quiz questions for a learning platform.
Draft %d questions for the quiz "%s" in the subject "%s".
%s
Respond with ONLY a JSON array. Each element must have this shape:
{
    "prompt": "the question text",
    "type": "single_choice" or "multi_choice",
    "options": ["option text", "option text", ...],
    "correct_indexes": [0],
    "points": 1
}

Rules:
1. "options" must contain 2 to 6 entries.
2. "correct_indexes" are zero-based positions into "options". Use exactly one index for single_choice and at least one for multi_choice.
3. "points" must be a positive number, usually 1.
4. Questions must be answerable from general knowledge of the subject, without referring to any external material.`,
		numQuestions, quizTitle, subjectName, avoid)
}

// parseDraftResponse digs the JSON array out of the raw model output. Models
// often wrap the payload in prose or reasoning tags, so everything outside
// the outermost brackets is discarded.
func parseDraftResponse(rawResponse string) ([]draftPayload, error) {
	cleaned := strings.TrimSpace(rawResponse)

	if thinkStart := strings.Index(cleaned, "<think>"); thinkStart != -1 {
		if thinkEnd := strings.Index(cleaned, "</think>"); thinkEnd != -1 && thinkEnd > thinkStart {
			cleaned = strings.TrimSpace(cleaned[:thinkStart] + cleaned[thinkEnd+len("</think>"):])
		}
	}

	jsonStart := strings.Index(cleaned, "[")
	jsonEnd := strings.LastIndex(cleaned, "]")
	if jsonStart == -1 || jsonEnd == -1 || jsonEnd <= jsonStart {
		return nil, fmt.Errorf("no JSON array found in LLM response: %s", cleaned)
	}

	var payloads []draftPayload
	extracted := cleaned[jsonStart : jsonEnd+1]
	if err := json.Unmarshal([]byte(extracted), &payloads); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON from LLM response (tried to parse: '%s'): %w", extracted, err)
	}
	return payloads, nil
}

func buildDraft(p draftPayload) (*domain.QuestionDraft, error) {
	if strings.TrimSpace(p.Prompt) == "" {
		return nil, fmt.Errorf("draft has empty prompt")
	}

	qType := domain.QuestionType(p.Type)
	if qType != domain.QuestionTypeSingleChoice && qType != domain.QuestionTypeMultiChoice {
		return nil, fmt.Errorf("draft has unsupported type %q", p.Type)
	}
	if len(p.Options) < 2 {
		return nil, fmt.Errorf("draft needs at least 2 options, got %d", len(p.Options))
	}

	options := make([]domain.Option, len(p.Options))
	for i, text := range p.Options {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("draft option %d is empty", i)
		}
		options[i] = domain.Option{ID: util.NewULID(), Text: text}
	}

	seen := make(map[int]bool)
	correctIDs := make([]string, 0, len(p.CorrectIndexes))
	for _, idx := range p.CorrectIndexes {
		if idx < 0 || idx >= len(options) {
			return nil, fmt.Errorf("correct index %d out of range for %d options", idx, len(options))
		}
		if seen[idx] {
			continue
		}
		seen[idx] = true
		correctIDs = append(correctIDs, options[idx].ID)
	}

	points := p.Points
	if points <= 0 {
		points = 1
	}

	draft := &domain.QuestionDraft{
		Prompt:  strings.TrimSpace(p.Prompt),
		Type:    qType,
		Options: options,
		Points:  points,
	}

	switch qType {
	case domain.QuestionTypeSingleChoice:
		if len(correctIDs) != 1 {
			return nil, fmt.Errorf("single_choice draft needs exactly 1 correct index, got %d", len(correctIDs))
		}
		draft.CorrectOptionID = correctIDs[0]
	case domain.QuestionTypeMultiChoice:
		if len(correctIDs) == 0 {
			return nil, fmt.Errorf("multi_choice draft needs at least 1 correct index")
		}
		draft.CorrectOptionIDs = correctIDs
	}

	return draft, nil
}

var _ domain.QuestionGenerationService = (*OllamaQuestionGenerator)(nil)
