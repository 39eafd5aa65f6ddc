package handler

import (
	"quiz-class/internal/dto"
	"quiz-class/internal/logger"
	"quiz-class/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// QuizHandler serves the read-only quiz catalog. Service errors are returned
// as-is; the error handler middleware maps them to HTTP statuses.
type QuizHandler struct {
	quizService service.QuizService
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(quizService service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// ListQuizzes returns the published quiz catalog.
// @Summary List Quizzes
// @Description Retrieves a paginated list of published quizzes, with filtering options.
// @Tags quizzes
// @Produce json
// @Param subject_id query string false "Filter by subject ID"
// @Param difficulty query string false "Filter by difficulty (easy, medium, hard)"
// @Param age query int false "Filter by learner age the quiz must suit"
// @Param tag query string false "Filter by tag"
// @Param limit query int false "Number of items per page (default 10)"
// @Param page query int false "Page number (default 1)"
// @Success 200 {object} dto.QuizListResponse
// @Failure 400 {object} middleware.ValidationErrorResponse "Invalid query parameters"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /api/quizzes [get]
func (h *QuizHandler) ListQuizzes(c *fiber.Ctx) error {
	var filters dto.QuizFilters
	if err := c.QueryParser(&filters); err != nil {
		logger.Get().Warn("Failed to parse quiz list filters", zap.Error(err))
		filters = dto.QuizFilters{}
	}
	pagination := parsePagination(c)

	response, err := h.quizService.ListQuizzes(c.Context(), filters, pagination)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// GetQuizByID returns one quiz.
// @Summary Get Quiz
// @Description Retrieves a single quiz by its ID.
// @Tags quizzes
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} dto.QuizResponse
// @Failure 400 {object} middleware.ValidationErrorResponse "Invalid quiz ID"
// @Failure 404 {object} middleware.ErrorResponse "Quiz not found"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /api/quizzes/{id} [get]
func (h *QuizHandler) GetQuizByID(c *fiber.Ctx) error {
	quizID := c.Params("id")

	response, err := h.quizService.GetQuizByID(c.Context(), quizID)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// GetQuizQuestions returns the questions of a quiz for taking, with answer
// keys stripped.
// @Summary Get Quiz Questions
// @Description Retrieves the questions of a quiz in taking order. Answer keys are never included.
// @Tags quizzes
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} dto.QuizQuestionsResponse
// @Failure 400 {object} middleware.ValidationErrorResponse "Invalid quiz ID"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 404 {object} middleware.ErrorResponse "Quiz not found"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /api/quizzes/{id}/questions [get]
func (h *QuizHandler) GetQuizQuestions(c *fiber.Ctx) error {
	quizID := c.Params("id")

	response, err := h.quizService.GetQuizQuestions(c.Context(), quizID)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// GetAllSubjects returns the subject taxonomy.
// @Summary List Subjects
// @Description Retrieves all subjects quizzes are organized under.
// @Tags quizzes
// @Produce json
// @Success 200 {array} dto.SubjectResponse
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /api/subjects [get]
func (h *QuizHandler) GetAllSubjects(c *fiber.Ctx) error {
	subjects, err := h.quizService.GetAllSubjects(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(subjects)
}
