package integration

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-class/internal/cache"
	"quiz-class/internal/domain"
	"quiz-class/internal/util"

	"github.com/stretchr/testify/require"
)

// doRequest runs one request against the in-process app. A non-empty token
// goes out as a bearer header; a non-nil body is JSON-encoded.
func doRequest(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// decodeBody decodes a JSON response body into out and closes the body.
func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// readErrorCode pulls the machine-readable code out of an error response.
func readErrorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	decodeBody(t, resp, &body)
	return body.Code
}

func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// newTestLearner creates (or reuses) a learner account with a fresh access
// token. The label keys the account, so each test can have its own.
func newTestLearner(t *testing.T, label string) (*domain.User, string) {
	t.Helper()
	ctx := context.Background()
	user, err := getOrCreateUser(ctx, "it-google-"+label, label+"@integration.test", "Learner "+label, domain.RoleLearner)
	require.NoError(t, err)
	token, err := authSvc.CreateJWT(ctx, user, cfg.JWT.AccessTokenTTL, "access")
	require.NoError(t, err)
	return user, token
}

// newTestAssigner is newTestLearner for the assigner role.
func newTestAssigner(t *testing.T, label string) (*domain.User, string) {
	t.Helper()
	ctx := context.Background()
	user, err := getOrCreateUser(ctx, "it-google-"+label, label+"@integration.test", "Assigner "+label, domain.RoleAssigner)
	require.NoError(t, err)
	token, err := authSvc.CreateJWT(ctx, user, cfg.JWT.AccessTokenTTL, "access")
	require.NoError(t, err)
	return user, token
}

// mintRefreshToken issues a refresh token and plants its hash in the token
// cache the way the auth service does after a login, so the rotation endpoint
// accepts it. Passing a TTL shorter than the configured one keeps this token
// distinct from the one rotation mints in the same second.
func mintRefreshToken(t *testing.T, user *domain.User, ttl time.Duration) string {
	t.Helper()
	ctx := context.Background()

	token, err := authSvc.CreateJWT(ctx, user, ttl, "refresh")
	require.NoError(t, err)

	sum := sha256.Sum256([]byte(token))
	key := cache.GenerateCacheKey("auth_service", "refresh_token", user.ID)
	require.NoError(t, redisClient.Set(ctx, key, hex.EncodeToString(sum[:]), ttl).Err())
	return token
}

// newPublishedQuiz inserts a published quiz with the given questions so tests
// that mutate attempt state do not step on the shared seeded quiz.
func newPublishedQuiz(t *testing.T, title string, questions ...*domain.Question) *domain.Quiz {
	t.Helper()
	ctx := context.Background()

	quiz := domain.NewQuiz(seededSubjectID, title, domain.DifficultyEasy)
	quiz.ID = util.NewULID()
	quiz.Published = true
	quiz.CreatedBy = assigner.ID
	require.NoError(t, quizRepo.SaveQuiz(ctx, quiz))

	for i, q := range questions {
		q.QuizID = quiz.ID
		q.ID = util.NewULID()
		q.Position = i + 1
		require.NoError(t, q.Validate())
		require.NoError(t, questionRepo.SaveQuestion(ctx, q))
	}
	return quiz
}

func simpleChoiceQuestion(points float64) *domain.Question {
	return &domain.Question{
		Type:   domain.QuestionTypeSingleChoice,
		Prompt: "Pick the first option.",
		Points: points,
		Content: domain.QuestionContent{
			Options: []domain.Option{
				{ID: "o1", Text: "right"},
				{ID: "o2", Text: "wrong"},
			},
			CorrectOptionID: "o1",
		},
	}
}
