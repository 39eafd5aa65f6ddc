package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// attemptState tracks the lazy creation of the server-side attempt record.
type attemptState int

const (
	attemptNone attemptState = iota
	attemptCreating
	attemptReady
	attemptBlocked // quota exhausted, creation will not be tried again
)

type answerRecord struct {
	payload  json.RawMessage
	answered bool
}

type stagedAnswer struct {
	questionID string
	payload    json.RawMessage
}

// QuizSession drives one learner's pass through a quiz: it creates the
// attempt lazily on the first submission, keeps a local store of what has
// been answered, records skips with type-appropriate empty payloads, resumes
// an open attempt after a reload, and completes the attempt exactly once.
//
// All methods are safe for concurrent use; overlapping triggers (a double
// click, navigation racing an autosave) share one in-flight creation instead
// of producing duplicate attempts.
type QuizSession struct {
	api    *Client
	logger *zap.Logger

	quiz         *Quiz
	questions    []Question
	assignmentID string
	assignment   *Assignment

	flight singleflight.Group

	mu      sync.Mutex
	state   attemptState
	attempt *Attempt
	answers map[string]answerRecord
	staged  *stagedAnswer
	result  *Attempt
}

// SessionOption customizes NewQuizSession.
type SessionOption func(*QuizSession)

// WithAssignment ties the session to an assignment so its quota and due date
// apply. Without it the session is a free practice run.
func WithAssignment(assignmentID string) SessionOption {
	return func(s *QuizSession) { s.assignmentID = assignmentID }
}

// NewQuizSession loads the quiz and its questions, resolves the assignment
// terms when one is given, and resumes an open attempt if the learner has
// one: its stored responses repopulate the local answer store.
func NewQuizSession(ctx context.Context, api *Client, quizID string, opts ...SessionOption) (*QuizSession, error) {
	s := &QuizSession{
		api:     api,
		logger:  api.logger,
		answers: make(map[string]answerRecord),
	}
	for _, opt := range opts {
		opt(s)
	}

	quiz, err := api.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz: %w", err)
	}
	questions, err := api.GetQuizQuestions(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	s.quiz = quiz
	s.questions = questions.Questions
	sort.SliceStable(s.questions, func(i, j int) bool {
		return s.questions[i].Position < s.questions[j].Position
	})

	if s.assignmentID != "" {
		if err := s.loadAssignment(ctx); err != nil {
			return nil, err
		}
	}
	if err := s.resume(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *QuizSession) loadAssignment(ctx context.Context) error {
	list, err := s.api.GetMyAssignments(ctx, ListAssignmentsOptions{QuizID: s.quiz.ID})
	if err != nil {
		return fmt.Errorf("failed to load assignment: %w", err)
	}
	for i := range list.Assignments {
		if list.Assignments[i].ID == s.assignmentID {
			s.assignment = &list.Assignments[i]
			return nil
		}
	}
	return fmt.Errorf("assignment %s not found for quiz %s", s.assignmentID, s.quiz.ID)
}

// resume looks for an open attempt of this quiz and, when found, merges its
// stored responses into the answer store.
func (s *QuizSession) resume(ctx context.Context) error {
	list, err := s.api.GetUserAttempts(ctx, ListAttemptsOptions{
		QuizID: s.quiz.ID,
		Status: AttemptStatusInProgress,
	})
	if err != nil {
		return fmt.Errorf("failed to check for an open attempt: %w", err)
	}

	var open *Attempt
	for i := range list.Attempts {
		a := &list.Attempts[i]
		if s.assignmentID != "" && (a.AssignmentID == nil || *a.AssignmentID != s.assignmentID) {
			continue
		}
		open = a
		break
	}
	if open == nil {
		return nil
	}

	responses, err := s.api.GetAttemptResponses(ctx, open.ID)
	if err != nil {
		return fmt.Errorf("failed to load responses of attempt %s: %w", open.ID, err)
	}

	s.mu.Lock()
	s.attempt = open
	s.state = attemptReady
	for _, item := range responses.Responses {
		// Skips are stored with the type's empty value, so emptiness of the
		// payload decides "answered", not the mere presence of a row.
		s.answers[item.QuestionID] = answerRecord{
			payload:  item.Payload,
			answered: item.Answered && !isEmptyValue(item.Payload),
		}
	}
	s.mu.Unlock()

	s.logger.Info("resumed open attempt",
		zap.String("attempt_id", open.ID),
		zap.String("quiz_id", s.quiz.ID),
		zap.Int("responses", len(responses.Responses)),
	)
	return nil
}

// EnsureAttempt returns the attempt ID, creating the attempt on first use.
// Concurrent callers share one StartAttempt call and all observe the same
// identifier. When the assignment's quota is exhausted it returns
// ErrQuotaExhausted without contacting the server; a quota rejection from the
// server is remembered the same way, so the session never retries a start the
// server has refused.
func (s *QuizSession) EnsureAttempt(ctx context.Context) (string, error) {
	s.mu.Lock()
	switch s.state {
	case attemptReady:
		id := s.attempt.ID
		s.mu.Unlock()
		return id, nil
	case attemptBlocked:
		s.mu.Unlock()
		return "", ErrQuotaExhausted
	case attemptNone:
		if s.quotaExhaustedLocked() {
			s.state = attemptBlocked
			s.mu.Unlock()
			s.logger.Warn("attempt start blocked, quota exhausted",
				zap.String("quiz_id", s.quiz.ID),
				zap.String("assignment_id", s.assignmentID),
			)
			return "", ErrQuotaExhausted
		}
	}
	s.mu.Unlock()

	v, err, _ := s.flight.Do("start", func() (interface{}, error) {
		return s.startAttempt(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(*Attempt).ID, nil
}

func (s *QuizSession) startAttempt(ctx context.Context) (*Attempt, error) {
	s.mu.Lock()
	if s.state == attemptReady {
		attempt := s.attempt
		s.mu.Unlock()
		return attempt, nil
	}
	s.state = attemptCreating
	s.mu.Unlock()

	req := StartAttemptRequest{QuizID: s.quiz.ID}
	if s.assignmentID != "" {
		id := s.assignmentID
		req.AssignmentID = &id
	}
	attempt, err := s.api.StartAttempt(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if IsAPIErrorCode(err, CodeQuotaExceeded) {
			// The local pre-check ran on stale assignment data. Keep the
			// server's verdict so we stop asking.
			s.state = attemptBlocked
			s.logger.Warn("server refused attempt start, quota exhausted",
				zap.String("quiz_id", s.quiz.ID),
				zap.Error(err),
			)
			return nil, ErrQuotaExhausted
		}
		s.state = attemptNone
		return nil, err
	}
	s.attempt = attempt
	s.state = attemptReady
	return attempt, nil
}

// quotaExhaustedLocked reports whether the assignment leaves no room for a
// new attempt. Callers hold s.mu.
func (s *QuizSession) quotaExhaustedLocked() bool {
	if s.assignment == nil || s.assignment.MaxAttempts == nil {
		return false
	}
	return s.assignment.AttemptsUsed >= *s.assignment.MaxAttempts
}

// Touch is the navigation hook: it makes sure the attempt exists and swallows
// any failure, so moving between questions never blocks on a dead network.
// Quota exhaustion is not logged again here; it was logged when the session
// entered the blocked state.
func (s *QuizSession) Touch(ctx context.Context) {
	if _, err := s.EnsureAttempt(ctx); err != nil && !errors.Is(err, ErrQuotaExhausted) {
		s.logger.Warn("attempt init on navigation failed", zap.Error(err))
	}
}

// StageAnswer keeps a pending answer locally without contacting the server.
// The next SubmitAnswer for the question, or Complete, flushes it.
func (s *QuizSession) StageAnswer(questionID string, answer interface{}) error {
	data, err := json.Marshal(answer)
	if err != nil {
		return fmt.Errorf("failed to encode answer: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result != nil {
		return ErrAttemptCompleted
	}
	s.staged = &stagedAnswer{questionID: questionID, payload: data}
	return nil
}

// SubmitAnswer pushes one answer, creating the attempt first if needed. A
// non-empty payload marks the question answered in the local store; an empty
// one is recorded as a skip, so resume still lands on the question.
func (s *QuizSession) SubmitAnswer(ctx context.Context, questionID string, answer interface{}) error {
	data, err := json.Marshal(answer)
	if err != nil {
		return fmt.Errorf("failed to encode answer: %w", err)
	}
	return s.submit(ctx, questionID, data)
}

// SubmitSkipped records that the learner moved past the question without
// answering. The payload is the type-specific empty value, so the server
// keeps a row while the question stays unanswered.
func (s *QuizSession) SubmitSkipped(ctx context.Context, questionID string) error {
	q := s.questionByID(questionID)
	if q == nil {
		return fmt.Errorf("question %s is not part of quiz %s", questionID, s.quiz.ID)
	}
	return s.submit(ctx, questionID, emptyPayloadFor(q.Type))
}

func (s *QuizSession) submit(ctx context.Context, questionID string, payload json.RawMessage) error {
	s.mu.Lock()
	if s.result != nil {
		s.mu.Unlock()
		return ErrAttemptCompleted
	}
	s.mu.Unlock()

	attemptID, err := s.EnsureAttempt(ctx)
	if err != nil {
		return err
	}

	item, err := s.api.SubmitAnswer(ctx, attemptID, SubmitAnswerRequest{
		QuestionID: questionID,
		Payload:    payload,
		Answered:   !isEmptyValue(payload),
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.answers[questionID] = answerRecord{payload: item.Payload, answered: item.Answered}
	if s.staged != nil && s.staged.questionID == questionID {
		s.staged = nil
	}
	s.mu.Unlock()
	return nil
}

// ResumeIndex is where the learner picks up: the index of the first question
// without a recorded answer, or the last question when everything is
// answered.
func (s *QuizSession) ResumeIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, q := range s.questions {
		if rec, ok := s.answers[q.ID]; !ok || !rec.answered {
			return i
		}
	}
	if len(s.questions) == 0 {
		return 0
	}
	return len(s.questions) - 1
}

// Complete flushes any staged answer and finishes the attempt, which makes
// the server grade it. Completion is idempotent from the caller's side: after
// the first success the graded attempt is retained and returned without
// another network call.
func (s *QuizSession) Complete(ctx context.Context) (*Attempt, error) {
	s.mu.Lock()
	if s.result != nil {
		result := s.result
		s.mu.Unlock()
		return result, nil
	}
	staged := s.staged
	s.mu.Unlock()

	if staged != nil {
		if err := s.submit(ctx, staged.questionID, staged.payload); err != nil {
			return nil, fmt.Errorf("failed to flush pending answer: %w", err)
		}
	}

	attemptID, err := s.EnsureAttempt(ctx)
	if err != nil {
		return nil, err
	}

	v, err, _ := s.flight.Do("complete", func() (interface{}, error) {
		s.mu.Lock()
		if s.result != nil {
			result := s.result
			s.mu.Unlock()
			return result, nil
		}
		s.mu.Unlock()

		attempt, err := s.api.CompleteAttempt(ctx, attemptID)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.attempt = attempt
		s.result = attempt
		s.mu.Unlock()
		return attempt, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Attempt), nil
}

// Quiz returns the quiz being taken.
func (s *QuizSession) Quiz() *Quiz { return s.quiz }

// Questions returns the questions in taking order.
func (s *QuizSession) Questions() []Question { return s.questions }

// Assignment returns the assignment terms, or nil for a free practice run.
func (s *QuizSession) Assignment() *Assignment { return s.assignment }

// AttemptID returns the attempt identifier, or "" while no attempt exists.
func (s *QuizSession) AttemptID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempt == nil {
		return ""
	}
	return s.attempt.ID
}

// Answered reports whether the question has a recorded non-empty answer.
func (s *QuizSession) Answered(questionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.answers[questionID]
	return ok && rec.answered
}

func (s *QuizSession) questionByID(id string) *Question {
	for i := range s.questions {
		if s.questions[i].ID == id {
			return &s.questions[i]
		}
	}
	return nil
}

// emptyPayloadFor is the per-type value the server treats as "nothing
// submitted": "" for single choice, {} for drag-drop, [] for the list-shaped
// types.
func emptyPayloadFor(questionType string) json.RawMessage {
	switch questionType {
	case QuestionTypeSingleChoice:
		return json.RawMessage(`""`)
	case QuestionTypeFillInBlankDragDrop:
		return json.RawMessage(`{}`)
	default:
		return json.RawMessage(`[]`)
	}
}

// isEmptyValue reports whether a payload means "nothing submitted". Question
// types encode that differently (null, "", [], {}), so the check is
// shape-based.
func isEmptyValue(payload json.RawMessage) bool {
	trimmed := bytes.TrimSpace(payload)
	switch {
	case len(trimmed) == 0,
		bytes.Equal(trimmed, []byte("null")),
		bytes.Equal(trimmed, []byte(`""`)),
		bytes.Equal(trimmed, []byte("[]")),
		bytes.Equal(trimmed, []byte("{}")):
		return true
	}
	return false
}
