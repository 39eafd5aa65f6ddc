package service

import (
	"context"
	"strings"
	"time"

	"quiz-class/internal/domain"
	"quiz-class/internal/dto"
	"quiz-class/internal/logger"

	"go.uber.org/zap"
)

// UserService defines the interface for user profile operations.
type UserService interface {
	GetUserProfile(ctx context.Context, userID string) (*dto.UserProfileResponse, error)
	UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*dto.UserProfileResponse, error)
	DeleteUser(ctx context.Context, userID string) error
}

type userServiceImpl struct {
	userRepo domain.UserRepository
}

// NewUserService creates a new instance of UserService.
func NewUserService(userRepo domain.UserRepository) UserService {
	return &userServiceImpl{userRepo: userRepo}
}

// GetUserProfile retrieves a user's profile information.
func (s *userServiceImpl) GetUserProfile(ctx context.Context, userID string) (*dto.UserProfileResponse, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toUserProfileResponse(user), nil
}

// UpdateProfile updates the caller's display name.
func (s *userServiceImpl) UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*dto.UserProfileResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.NewValidationError("name must not be empty")
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Name = name
	user.UpdatedAt = time.Now()
	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return nil, domain.NewInternalError("Failed to update user", err)
	}

	return toUserProfileResponse(user), nil
}

// DeleteUser soft-deletes the user's account.
func (s *userServiceImpl) DeleteUser(ctx context.Context, userID string) error {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.userRepo.DeleteUser(ctx, user.ID); err != nil {
		return domain.NewInternalError("Failed to delete user", err)
	}

	logger.Get().Info("User account deleted", zap.String("userID", user.ID))
	return nil
}

func (s *userServiceImpl) loadUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get user", err)
	}
	if user == nil {
		return nil, domain.NewNotFoundError("User not found with ID: " + userID)
	}
	return user, nil
}

func toUserProfileResponse(user *domain.User) *dto.UserProfileResponse {
	return &dto.UserProfileResponse{
		ID:                user.ID,
		Email:             user.Email,
		Name:              user.Name,
		ProfilePictureURL: user.ProfilePictureURL,
		Role:              string(user.Role),
	}
}
