package handler

import (
	"quiz-class/internal/dto"
	"quiz-class/internal/logger"
	"quiz-class/internal/middleware"
	"quiz-class/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AttemptHandler serves the attempt lifecycle. Every route requires an
// authenticated user; the attempt always belongs to the caller.
type AttemptHandler struct {
	attemptService service.AttemptService
}

// NewAttemptHandler creates a new AttemptHandler instance
func NewAttemptHandler(attemptService service.AttemptService) *AttemptHandler {
	return &AttemptHandler{attemptService: attemptService}
}

// StartAttempt returns the caller's open attempt for a quiz, creating one
// when none exists.
// @Summary Start Attempt
// @Description Returns the open attempt for the quiz (and assignment, if given), creating it when none exists. Safe to call repeatedly: concurrent calls share one attempt.
// @Tags attempts
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param body body dto.StartAttemptRequest true "Quiz and optional assignment to attempt"
// @Success 200 {object} dto.AttemptResponse
// @Failure 400 {object} middleware.ErrorResponse "Invalid request body"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 403 {object} middleware.ErrorResponse "Attempt quota exhausted"
// @Failure 404 {object} middleware.ErrorResponse "Quiz or assignment not found"
// @Failure 409 {object} middleware.ErrorResponse "Assignment cancelled or quiz not published"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /api/attempts/start [post]
func (h *AttemptHandler) StartAttempt(c *fiber.Ctx) error {
	appLogger := logger.Get()
	userID, ok := c.Locals(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		appLogger.Warn("User ID not found in context for StartAttempt", zap.String("path", c.Path()))
		return c.Status(fiber.StatusUnauthorized).JSON(middleware.ErrorResponse{
			Code: "INVALID_USER_CONTEXT", Message: "User ID not found in context", Status: fiber.StatusUnauthorized,
		})
	}

	var req dto.StartAttemptRequest
	if err := c.BodyParser(&req); err != nil {
		appLogger.Warn("Failed to parse start attempt request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(middleware.ErrorResponse{
			Code: "INVALID_REQUEST_BODY", Message: "Invalid request body", Status: fiber.StatusBadRequest,
		})
	}

	response, err := h.attemptService.StartAttempt(c.Context(), userID, &req)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// GetUserAttempts returns the caller's attempt history.
// @Summary Get My Attempts
// @Description Retrieves a paginated list of the logged-in user's attempts, newest first, with filtering options.
// @Tags attempts
// @Security ApiKeyAuth
// @Produce json
// @Param quiz_id query string false "Filter by quiz ID"
// @Param assignment_id query string false "Filter by assignment ID"
// @Param status query string false "Filter by status (in_progress, completed)"
// @Param start_date query string false "Filter by start date (YYYY-MM-DD)"
// @Param end_date query string false "Filter by end date (YYYY-MM-DD)"
// @Param limit query int false "Number of items per page (default 10)"
// @Param page query int false "Page number (default 1)"
// @Success 200 {object} dto.AttemptListResponse
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /api/attempts [get]
func (h *AttemptHandler) GetUserAttempts(c *fiber.Ctx) error {
	appLogger := logger.Get()
	userID, ok := c.Locals(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		appLogger.Warn("User ID not found in context for GetUserAttempts", zap.String("path", c.Path()))
		return c.Status(fiber.StatusUnauthorized).JSON(middleware.ErrorResponse{
			Code: "INVALID_USER_CONTEXT", Message: "User ID not found in context", Status: fiber.StatusUnauthorized,
		})
	}

	var filters dto.AttemptFilters
	if err := c.QueryParser(&filters); err != nil {
		appLogger.Warn("Failed to parse attempt filters", zap.Error(err))
		filters = dto.AttemptFilters{}
	}
	pagination := parsePagination(c)

	response, err := h.attemptService.GetUserAttempts(c.Context(), userID, filters, pagination)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// GetAttemptByID returns one of the caller's attempts.
// @Summary Get Attempt
// @Description Retrieves a single attempt of the logged-in user.
// @Tags attempts
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} dto.AttemptResponse
// @Failure 400 {object} middleware.ValidationErrorResponse "Invalid attempt ID"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 404 {object} middleware.ErrorResponse "Attempt not found"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /api/attempts/{id} [get]
func (h *AttemptHandler) GetAttemptByID(c *fiber.Ctx) error {
	appLogger := logger.Get()
	userID, ok := c.Locals(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		appLogger.Warn("User ID not found in context for GetAttemptByID", zap.String("path", c.Path()))
		return c.Status(fiber.StatusUnauthorized).JSON(middleware.ErrorResponse{
			Code: "INVALID_USER_CONTEXT", Message: "User ID not found in context", Status: fiber.StatusUnauthorized,
		})
	}

	response, err := h.attemptService.GetAttemptByID(c.Context(), userID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// GetAttemptResponses returns the stored responses of an attempt.
// @Summary Get Attempt Responses
// @Description Retrieves every stored response of one of the logged-in user's attempts. Correctness fields are null until the attempt completes.
// @Tags attempts
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} dto.AttemptResponsesResponse
// @Failure 400 {object} middleware.ValidationErrorResponse "Invalid attempt ID"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 404 {object} middleware.ErrorResponse "Attempt not found"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /api/attempts/{id}/responses [get]
func (h *AttemptHandler) GetAttemptResponses(c *fiber.Ctx) error {
	appLogger := logger.Get()
	userID, ok := c.Locals(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		appLogger.Warn("User ID not found in context for GetAttemptResponses", zap.String("path", c.Path()))
		return c.Status(fiber.StatusUnauthorized).JSON(middleware.ErrorResponse{
			Code: "INVALID_USER_CONTEXT", Message: "User ID not found in context", Status: fiber.StatusUnauthorized,
		})
	}

	response, err := h.attemptService.GetAttemptResponses(c.Context(), userID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// SubmitAnswer upserts the response for one question of an open attempt.
// @Summary Submit Answer
// @Description Stores or replaces the response for one question of an open attempt. Skipped questions are submitted with answered=false and an empty payload.
// @Tags attempts
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path string true "Attempt ID"
// @Param body body dto.SubmitAnswerRequest true "Question, payload and answered flag"
// @Success 200 {object} dto.ResponseItem
// @Failure 400 {object} middleware.ErrorResponse "Invalid request body or payload shape"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 404 {object} middleware.ErrorResponse "Attempt or question not found"
// @Failure 409 {object} middleware.ErrorResponse "Attempt already completed"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /api/attempts/{id}/answers [post]
func (h *AttemptHandler) SubmitAnswer(c *fiber.Ctx) error {
	appLogger := logger.Get()
	userID, ok := c.Locals(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		appLogger.Warn("User ID not found in context for SubmitAnswer", zap.String("path", c.Path()))
		return c.Status(fiber.StatusUnauthorized).JSON(middleware.ErrorResponse{
			Code: "INVALID_USER_CONTEXT", Message: "User ID not found in context", Status: fiber.StatusUnauthorized,
		})
	}

	var req dto.SubmitAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		appLogger.Warn("Failed to parse submit answer request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(middleware.ErrorResponse{
			Code: "INVALID_REQUEST_BODY", Message: "Invalid request body", Status: fiber.StatusBadRequest,
		})
	}

	response, err := h.attemptService.SubmitAnswer(c.Context(), userID, c.Params("id"), &req)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// CompleteAttempt grades the attempt and moves it to its terminal state.
// @Summary Complete Attempt
// @Description Grades every response of the attempt, stores the totals and marks the attempt completed. An attempt completes exactly once.
// @Tags attempts
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} dto.AttemptResponse
// @Failure 400 {object} middleware.ValidationErrorResponse "Invalid attempt ID"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 404 {object} middleware.ErrorResponse "Attempt not found"
// @Failure 409 {object} middleware.ErrorResponse "Attempt already completed"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /api/attempts/{id}/complete [post]
func (h *AttemptHandler) CompleteAttempt(c *fiber.Ctx) error {
	appLogger := logger.Get()
	userID, ok := c.Locals(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		appLogger.Warn("User ID not found in context for CompleteAttempt", zap.String("path", c.Path()))
		return c.Status(fiber.StatusUnauthorized).JSON(middleware.ErrorResponse{
			Code: "INVALID_USER_CONTEXT", Message: "User ID not found in context", Status: fiber.StatusUnauthorized,
		})
	}

	attemptID := c.Params("id")
	response, err := h.attemptService.CompleteAttempt(c.Context(), userID, attemptID)
	if err != nil {
		return err
	}
	appLogger.Info("Attempt completed",
		zap.String("userID", userID),
		zap.String("attemptID", attemptID))
	return c.JSON(response)
}
