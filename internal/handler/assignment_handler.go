package handler

import (
	"quiz-class/internal/dto"
	"quiz-class/internal/logger"
	"quiz-class/internal/middleware"
	"quiz-class/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AssignmentHandler serves assignment management for assigners and the
// learner-facing assignment list.
type AssignmentHandler struct {
	assignmentService service.AssignmentService
}

// NewAssignmentHandler creates a new AssignmentHandler instance
func NewAssignmentHandler(assignmentService service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService}
}

// GetMyAssignments returns the caller's assignments as a learner.
// @Summary Get My Assignments
// @Description Retrieves a paginated list of the logged-in learner's assignments with computed status.
// @Tags assignments
// @Security ApiKeyAuth
// @Produce json
// @Param quiz_id query string false "Filter by quiz ID"
// @Param include_cancelled query bool false "Include cancelled assignments (default false)"
// @Param limit query int false "Number of items per page (default 10)"
// @Param page query int false "Page number (default 1)"
// @Success 200 {object} dto.AssignmentListResponse
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /api/assignments/my [get]
func (h *AssignmentHandler) GetMyAssignments(c *fiber.Ctx) error {
	appLogger := logger.Get()
	userID, ok := c.Locals(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		appLogger.Warn("User ID not found in context for GetMyAssignments", zap.String("path", c.Path()))
		return c.Status(fiber.StatusUnauthorized).JSON(middleware.ErrorResponse{
			Code: "INVALID_USER_CONTEXT", Message: "User ID not found in context", Status: fiber.StatusUnauthorized,
		})
	}

	var filters dto.AssignmentFilters
	if err := c.QueryParser(&filters); err != nil {
		appLogger.Warn("Failed to parse assignment filters", zap.Error(err))
		filters = dto.AssignmentFilters{}
	}
	filters.LearnerID = "" // learner view is always scoped to the caller
	pagination := parsePagination(c)

	response, err := h.assignmentService.GetMyAssignments(c.Context(), userID, filters, pagination)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// ListCreatedAssignments returns the assignments the caller handed out.
// @Summary List Created Assignments
// @Description Retrieves a paginated list of the assignments the logged-in assigner created, with filtering options.
// @Tags assignments
// @Security ApiKeyAuth
// @Produce json
// @Param quiz_id query string false "Filter by quiz ID"
// @Param learner_id query string false "Filter by learner ID"
// @Param include_cancelled query bool false "Include cancelled assignments (default false)"
// @Param limit query int false "Number of items per page (default 10)"
// @Param page query int false "Page number (default 1)"
// @Success 200 {object} dto.AssignmentListResponse
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 403 {object} middleware.ErrorResponse "Caller is not an assigner"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /api/assignments [get]
func (h *AssignmentHandler) ListCreatedAssignments(c *fiber.Ctx) error {
	appLogger := logger.Get()
	userID, ok := c.Locals(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		appLogger.Warn("User ID not found in context for ListCreatedAssignments", zap.String("path", c.Path()))
		return c.Status(fiber.StatusUnauthorized).JSON(middleware.ErrorResponse{
			Code: "INVALID_USER_CONTEXT", Message: "User ID not found in context", Status: fiber.StatusUnauthorized,
		})
	}

	var filters dto.AssignmentFilters
	if err := c.QueryParser(&filters); err != nil {
		appLogger.Warn("Failed to parse assignment filters", zap.Error(err))
		filters = dto.AssignmentFilters{}
	}
	pagination := parsePagination(c)

	response, err := h.assignmentService.ListCreatedAssignments(c.Context(), userID, filters, pagination)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// CreateAssignment assigns a quiz to one learner.
// @Summary Create Assignment
// @Description Assigns a published quiz to a learner with an optional due date and attempt quota.
// @Tags assignments
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param body body dto.CreateAssignmentRequest true "Quiz, learner and assignment terms"
// @Success 201 {object} dto.AssignmentResponse
// @Failure 400 {object} middleware.ErrorResponse "Invalid request body or assignment terms"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 403 {object} middleware.ErrorResponse "Caller is not an assigner"
// @Failure 404 {object} middleware.ErrorResponse "Quiz or learner not found"
// @Failure 409 {object} middleware.ErrorResponse "Quiz not published"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /api/assignments [post]
func (h *AssignmentHandler) CreateAssignment(c *fiber.Ctx) error {
	appLogger := logger.Get()
	userID, ok := c.Locals(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		appLogger.Warn("User ID not found in context for CreateAssignment", zap.String("path", c.Path()))
		return c.Status(fiber.StatusUnauthorized).JSON(middleware.ErrorResponse{
			Code: "INVALID_USER_CONTEXT", Message: "User ID not found in context", Status: fiber.StatusUnauthorized,
		})
	}

	var req dto.CreateAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		appLogger.Warn("Failed to parse create assignment request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(middleware.ErrorResponse{
			Code: "INVALID_REQUEST_BODY", Message: "Invalid request body", Status: fiber.StatusBadRequest,
		})
	}

	response, err := h.assignmentService.CreateAssignment(c.Context(), userID, &req)
	if err != nil {
		return err
	}
	appLogger.Info("Assignment created",
		zap.String("assignerID", userID),
		zap.String("assignmentID", response.ID),
		zap.String("quizID", response.QuizID),
		zap.String("learnerID", response.LearnerID))
	return c.Status(fiber.StatusCreated).JSON(response)
}

// CreateBulkAssignments assigns one quiz to many learners.
// @Summary Create Bulk Assignments
// @Description Assigns one quiz to many learners in a single transaction. Learners that cannot receive the assignment are reported as skipped instead of failing the batch.
// @Tags assignments
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param body body dto.BulkCreateAssignmentsRequest true "Quiz, learners and assignment terms"
// @Success 201 {object} dto.BulkAssignmentResult
// @Failure 400 {object} middleware.ErrorResponse "Invalid request body or empty learner list"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 403 {object} middleware.ErrorResponse "Caller is not an assigner"
// @Failure 404 {object} middleware.ErrorResponse "Quiz not found"
// @Failure 409 {object} middleware.ErrorResponse "Quiz not published"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /api/assignments/bulk [post]
func (h *AssignmentHandler) CreateBulkAssignments(c *fiber.Ctx) error {
	appLogger := logger.Get()
	userID, ok := c.Locals(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		appLogger.Warn("User ID not found in context for CreateBulkAssignments", zap.String("path", c.Path()))
		return c.Status(fiber.StatusUnauthorized).JSON(middleware.ErrorResponse{
			Code: "INVALID_USER_CONTEXT", Message: "User ID not found in context", Status: fiber.StatusUnauthorized,
		})
	}

	var req dto.BulkCreateAssignmentsRequest
	if err := c.BodyParser(&req); err != nil {
		appLogger.Warn("Failed to parse bulk assignment request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(middleware.ErrorResponse{
			Code: "INVALID_REQUEST_BODY", Message: "Invalid request body", Status: fiber.StatusBadRequest,
		})
	}

	result, err := h.assignmentService.CreateBulkAssignments(c.Context(), userID, &req)
	if err != nil {
		return err
	}
	appLogger.Info("Bulk assignments created",
		zap.String("assignerID", userID),
		zap.String("quizID", req.QuizID),
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", len(result.Skipped)))
	return c.Status(fiber.StatusCreated).JSON(result)
}

// UpdateAssignment patches the mutable fields of an assignment.
// @Summary Update Assignment
// @Description Updates due date, attempt quota, mandatory flag or notes of an assignment. Absent fields stay unchanged; clear flags reset due date and quota to null.
// @Tags assignments
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param body body dto.UpdateAssignmentRequest true "Fields to update"
// @Success 200 {object} dto.AssignmentResponse
// @Failure 400 {object} middleware.ErrorResponse "Invalid request body or assignment terms"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 403 {object} middleware.ErrorResponse "Caller did not create the assignment"
// @Failure 404 {object} middleware.ErrorResponse "Assignment not found"
// @Failure 409 {object} middleware.ErrorResponse "Assignment cancelled"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /api/assignments/{id} [put]
func (h *AssignmentHandler) UpdateAssignment(c *fiber.Ctx) error {
	appLogger := logger.Get()
	userID, ok := c.Locals(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		appLogger.Warn("User ID not found in context for UpdateAssignment", zap.String("path", c.Path()))
		return c.Status(fiber.StatusUnauthorized).JSON(middleware.ErrorResponse{
			Code: "INVALID_USER_CONTEXT", Message: "User ID not found in context", Status: fiber.StatusUnauthorized,
		})
	}

	var req dto.UpdateAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		appLogger.Warn("Failed to parse update assignment request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(middleware.ErrorResponse{
			Code: "INVALID_REQUEST_BODY", Message: "Invalid request body", Status: fiber.StatusBadRequest,
		})
	}

	response, err := h.assignmentService.UpdateAssignment(c.Context(), userID, c.Params("id"), &req)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// DeleteAssignment cancels an assignment.
// @Summary Delete Assignment
// @Description Cancels the assignment instead of deleting it. Attempts made under it keep their history. Cancelling twice is a no-op.
// @Tags assignments
// @Security ApiKeyAuth
// @Param id path string true "Assignment ID"
// @Success 204 "Assignment cancelled"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 403 {object} middleware.ErrorResponse "Caller did not create the assignment"
// @Failure 404 {object} middleware.ErrorResponse "Assignment not found"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /api/assignments/{id} [delete]
func (h *AssignmentHandler) DeleteAssignment(c *fiber.Ctx) error {
	appLogger := logger.Get()
	userID, ok := c.Locals(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		appLogger.Warn("User ID not found in context for DeleteAssignment", zap.String("path", c.Path()))
		return c.Status(fiber.StatusUnauthorized).JSON(middleware.ErrorResponse{
			Code: "INVALID_USER_CONTEXT", Message: "User ID not found in context", Status: fiber.StatusUnauthorized,
		})
	}

	assignmentID := c.Params("id")
	if err := h.assignmentService.DeleteAssignment(c.Context(), userID, assignmentID); err != nil {
		return err
	}
	appLogger.Info("Assignment cancelled",
		zap.String("callerID", userID),
		zap.String("assignmentID", assignmentID))
	return c.SendStatus(fiber.StatusNoContent)
}
