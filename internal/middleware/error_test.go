package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"quiz-class/internal/domain"
	"quiz-class/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newErrorApp(err error) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	app.Get("/boom", func(c *fiber.Ctx) error { return err })
	return app
}

func TestErrorHandler_DomainErrorMapping(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "quiz not found",
			err:            domain.NewQuizNotFoundError("quiz1"),
			expectedStatus: fiber.StatusNotFound,
			expectedCode:   "QUIZ_NOT_FOUND",
		},
		{
			name:           "attempt not found",
			err:            domain.NewAttemptNotFoundError("attempt1"),
			expectedStatus: fiber.StatusNotFound,
			expectedCode:   "ATTEMPT_NOT_FOUND",
		},
		{
			name:           "quota exceeded",
			err:            domain.NewQuotaExceededError("a1", 3),
			expectedStatus: fiber.StatusForbidden,
			expectedCode:   "QUOTA_EXCEEDED",
		},
		{
			name:           "attempt completed",
			err:            domain.NewAttemptCompletedError("attempt1"),
			expectedStatus: fiber.StatusConflict,
			expectedCode:   "ATTEMPT_COMPLETED",
		},
		{
			name:           "assignment cancelled",
			err:            domain.NewAssignmentCancelledError("a1"),
			expectedStatus: fiber.StatusConflict,
			expectedCode:   "ASSIGNMENT_CANCELLED",
		},
		{
			name:           "quiz not published",
			err:            domain.NewQuizNotPublishedError("quiz1"),
			expectedStatus: fiber.StatusConflict,
			expectedCode:   "QUIZ_NOT_PUBLISHED",
		},
		{
			name:           "invalid answer",
			err:            domain.NewInvalidAnswerError("answer must be a string"),
			expectedStatus: fiber.StatusBadRequest,
			expectedCode:   "INVALID_ANSWER",
		},
		{
			name:           "unauthorized",
			err:            domain.NewUnauthorizedError("refresh token has been revoked"),
			expectedStatus: fiber.StatusUnauthorized,
			expectedCode:   "UNAUTHORIZED",
		},
		{
			name:           "forbidden",
			err:            domain.NewForbiddenError("not yours"),
			expectedStatus: fiber.StatusForbidden,
			expectedCode:   "FORBIDDEN",
		},
		{
			name:           "llm failure",
			err:            domain.NewLLMServiceError(errors.New("connection refused")),
			expectedStatus: fiber.StatusServiceUnavailable,
			expectedCode:   "LLM_SERVICE_ERROR",
		},
		{
			name:           "internal error",
			err:            domain.NewInternalError("Failed to get quiz", errors.New("ORA-12170")),
			expectedStatus: fiber.StatusInternalServerError,
			expectedCode:   "INTERNAL_ERROR",
		},
		{
			name:           "unknown error",
			err:            errors.New("something broke"),
			expectedStatus: fiber.StatusInternalServerError,
			expectedCode:   "INTERNAL_ERROR",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := newErrorApp(tc.err)

			resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode)

			var body middleware.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.expectedCode, body.Code)
			assert.Equal(t, tc.expectedStatus, body.Status)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestErrorHandler_QuotaDetailsSurface(t *testing.T) {
	app := newErrorApp(domain.NewQuotaExceededError("a1", 3))

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body middleware.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "a1", body.Details["assignment_id"])
	assert.Equal(t, float64(3), body.Details["max_attempts"])
}

func TestErrorHandler_ValidationErrors(t *testing.T) {
	app := newErrorApp(domain.ValidationErrors{
		domain.NewMissingFieldError("quiz_id"),
		domain.NewInvalidFormatError("assignment_id", "not-a-ulid"),
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body middleware.ValidationErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	require.Len(t, body.Errors, 2)
	assert.Equal(t, "quiz_id", body.Errors[0].Field)
	assert.Equal(t, "assignment_id", body.Errors[1].Field)
}

func TestErrorHandler_FiberErrorsPassThrough(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	app.Get("/teapot", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/teapot", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)

	var body middleware.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "HTTP_ERROR", body.Code)
}

func TestValidateIDParam(t *testing.T) {
	vm := middleware.NewValidationMiddleware()
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	app.Get("/quizzes/:id", vm.ValidateIDParam("id"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	t.Run("well-formed id passes", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/quizzes/01HZXY3KQ2M4N5P6Q7R8S9T0VA", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("malformed id rejected", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/quizzes/short-id", nil), -1)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		var body middleware.ValidationErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body.Errors, 1)
		assert.Equal(t, "id", body.Errors[0].Field)
	})
}

func TestValidateQuizListParams(t *testing.T) {
	vm := middleware.NewValidationMiddleware()
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	app.Get("/quizzes", vm.ValidateQuizListParams(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	t.Run("valid filters pass", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/quizzes?difficulty=easy&age=10&limit=20", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("unknown difficulty rejected", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/quizzes?difficulty=brutal", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("oversized limit rejected", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/quizzes?limit=5000", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}
