// Package client is the Go SDK for the quiz-class API. Client wraps the HTTP
// surface one method per operation; QuizSession layers the learner-side
// attempt flow (lazy attempt creation, answer staging, skip, resume,
// completion) on top of it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// Client is a thin HTTP client for the quiz-class API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	mu    sync.RWMutex
	token string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger attaches a logger. Without one the client is silent.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithToken sets the initial bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// NewClient creates a Client for the API at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token, e.g. after a refresh.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearerToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do runs one request. Responses are key-normalized to snake_case before
// decoding into out; error bodies become *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearerToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("API request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp.StatusCode, data)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(normalizeJSONKeys(data), out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, body []byte) error {
	var wire struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(normalizeJSONKeys(body), &wire); err != nil || wire.Code == "" {
		return &APIError{Status: status, Code: fmt.Sprintf("HTTP_%d", status), Message: strings.TrimSpace(string(body))}
	}
	return &APIError{Status: status, Code: wire.Code, Message: wire.Message}
}

// GetQuizByID retrieves one quiz.
func (c *Client) GetQuizByID(ctx context.Context, quizID string) (*Quiz, error) {
	var quiz Quiz
	if err := c.do(ctx, http.MethodGet, "/api/quizzes/"+url.PathEscape(quizID), nil, nil, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// GetQuizQuestions retrieves the quiz's questions in taking order.
func (c *Client) GetQuizQuestions(ctx context.Context, quizID string) (*QuizQuestions, error) {
	var questions QuizQuestions
	if err := c.do(ctx, http.MethodGet, "/api/quizzes/"+url.PathEscape(quizID)+"/questions", nil, nil, &questions); err != nil {
		return nil, err
	}
	return &questions, nil
}

// StartAttempt returns the open attempt for the quiz, creating it when none
// exists. Calling it again returns the same attempt.
func (c *Client) StartAttempt(ctx context.Context, req StartAttemptRequest) (*Attempt, error) {
	var attempt Attempt
	if err := c.do(ctx, http.MethodPost, "/api/attempts/start", nil, req, &attempt); err != nil {
		return nil, err
	}
	return &attempt, nil
}

// SubmitAnswer stores or replaces the response for one question of an open
// attempt.
func (c *Client) SubmitAnswer(ctx context.Context, attemptID string, req SubmitAnswerRequest) (*ResponseItem, error) {
	var item ResponseItem
	if err := c.do(ctx, http.MethodPost, "/api/attempts/"+url.PathEscape(attemptID)+"/answers", nil, req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CompleteAttempt grades the attempt and returns it with its totals.
func (c *Client) CompleteAttempt(ctx context.Context, attemptID string) (*Attempt, error) {
	var attempt Attempt
	if err := c.do(ctx, http.MethodPost, "/api/attempts/"+url.PathEscape(attemptID)+"/complete", nil, nil, &attempt); err != nil {
		return nil, err
	}
	return &attempt, nil
}

// GetUserAttempts lists the caller's attempts, newest first.
func (c *Client) GetUserAttempts(ctx context.Context, opts ListAttemptsOptions) (*AttemptList, error) {
	query := url.Values{}
	if opts.QuizID != "" {
		query.Set("quiz_id", opts.QuizID)
	}
	if opts.AssignmentID != "" {
		query.Set("assignment_id", opts.AssignmentID)
	}
	if opts.Status != "" {
		query.Set("status", opts.Status)
	}
	if opts.StartDate != "" {
		query.Set("start_date", opts.StartDate)
	}
	if opts.EndDate != "" {
		query.Set("end_date", opts.EndDate)
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}

	var list AttemptList
	if err := c.do(ctx, http.MethodGet, "/api/attempts", query, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetAttemptResponses retrieves every stored response of one attempt.
func (c *Client) GetAttemptResponses(ctx context.Context, attemptID string) (*AttemptResponses, error) {
	var responses AttemptResponses
	if err := c.do(ctx, http.MethodGet, "/api/attempts/"+url.PathEscape(attemptID)+"/responses", nil, nil, &responses); err != nil {
		return nil, err
	}
	return &responses, nil
}

// GetMyAssignments lists the caller's assignments with computed status.
func (c *Client) GetMyAssignments(ctx context.Context, opts ListAssignmentsOptions) (*AssignmentList, error) {
	query := url.Values{}
	if opts.QuizID != "" {
		query.Set("quiz_id", opts.QuizID)
	}
	if opts.IncludeCancelled {
		query.Set("include_cancelled", "true")
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}

	var list AssignmentList
	if err := c.do(ctx, http.MethodGet, "/api/assignments/my", query, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// CreateAssignment assigns a quiz to one learner. Requires the assigner role.
func (c *Client) CreateAssignment(ctx context.Context, req CreateAssignmentRequest) (*Assignment, error) {
	var assignment Assignment
	if err := c.do(ctx, http.MethodPost, "/api/assignments", nil, req, &assignment); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// CreateBulkAssignments assigns a quiz to many learners. Requires the
// assigner role.
func (c *Client) CreateBulkAssignments(ctx context.Context, req BulkCreateAssignmentsRequest) (*BulkAssignmentResult, error) {
	var result BulkAssignmentResult
	if err := c.do(ctx, http.MethodPost, "/api/assignments/bulk", nil, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateAssignment patches assignment terms. Requires the assigner role.
func (c *Client) UpdateAssignment(ctx context.Context, assignmentID string, req UpdateAssignmentRequest) (*Assignment, error) {
	var assignment Assignment
	if err := c.do(ctx, http.MethodPut, "/api/assignments/"+url.PathEscape(assignmentID), nil, req, &assignment); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// DeleteAssignment cancels an assignment. Requires the assigner role.
func (c *Client) DeleteAssignment(ctx context.Context, assignmentID string) error {
	return c.do(ctx, http.MethodDelete, "/api/assignments/"+url.PathEscape(assignmentID), nil, nil, nil)
}
