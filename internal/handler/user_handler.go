package handler

import (
	"quiz-class/internal/dto"
	"quiz-class/internal/logger"
	"quiz-class/internal/middleware"
	"quiz-class/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetMyProfile retrieves the profile of the currently authenticated user.
// @Summary Get My Profile
// @Description Retrieves the profile information of the logged-in user.
// @Tags users
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} dto.UserProfileResponse
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 404 {object} middleware.ErrorResponse "User not found"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /users/me [get]
func (h *UserHandler) GetMyProfile(c *fiber.Ctx) error {
	appLogger := logger.Get()
	userID, ok := c.Locals(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		appLogger.Warn("User ID not found in context for GetMyProfile", zap.String("path", c.Path()))
		return c.Status(fiber.StatusUnauthorized).JSON(middleware.ErrorResponse{
			Code: "INVALID_USER_CONTEXT", Message: "User ID not found in context", Status: fiber.StatusUnauthorized,
		})
	}

	profile, err := h.userService.GetUserProfile(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

// UpdateMyProfile updates the profile of the currently authenticated user.
// @Summary Update My Profile
// @Description Updates the display name of the logged-in user.
// @Tags users
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param body body dto.UpdateProfileRequest true "Profile fields to update"
// @Success 200 {object} dto.UserProfileResponse
// @Failure 400 {object} middleware.ErrorResponse "Invalid request body or blank name"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 404 {object} middleware.ErrorResponse "User not found"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /users/me/profile [put]
func (h *UserHandler) UpdateMyProfile(c *fiber.Ctx) error {
	appLogger := logger.Get()
	userID, ok := c.Locals(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		appLogger.Warn("User ID not found in context for UpdateMyProfile", zap.String("path", c.Path()))
		return c.Status(fiber.StatusUnauthorized).JSON(middleware.ErrorResponse{
			Code: "INVALID_USER_CONTEXT", Message: "User ID not found in context", Status: fiber.StatusUnauthorized,
		})
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		appLogger.Warn("Failed to parse update profile request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(middleware.ErrorResponse{
			Code: "INVALID_REQUEST_BODY", Message: "Invalid request body", Status: fiber.StatusBadRequest,
		})
	}

	profile, err := h.userService.UpdateProfile(c.Context(), userID, &req)
	if err != nil {
		return err
	}
	appLogger.Info("User profile updated", zap.String("userID", userID))
	return c.JSON(profile)
}

// DeleteMyAccount soft-deletes the account of the currently authenticated user.
// @Summary Delete My Account
// @Description Soft-deletes the logged-in user's account. Attempt history is retained.
// @Tags users
// @Security ApiKeyAuth
// @Success 204 "Account deleted"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 404 {object} middleware.ErrorResponse "User not found"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /users/me [delete]
func (h *UserHandler) DeleteMyAccount(c *fiber.Ctx) error {
	appLogger := logger.Get()
	userID, ok := c.Locals(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		appLogger.Warn("User ID not found in context for DeleteMyAccount", zap.String("path", c.Path()))
		return c.Status(fiber.StatusUnauthorized).JSON(middleware.ErrorResponse{
			Code: "INVALID_USER_CONTEXT", Message: "User ID not found in context", Status: fiber.StatusUnauthorized,
		})
	}

	if err := h.userService.DeleteUser(c.Context(), userID); err != nil {
		return err
	}
	appLogger.Info("User account deleted", zap.String("userID", userID))
	return c.SendStatus(fiber.StatusNoContent)
}
