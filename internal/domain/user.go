package domain

import (
	"context"
	"time"
)

// UserRole controls what a user may do with assignments.
type UserRole string

const (
	RoleLearner  UserRole = "learner"
	RoleAssigner UserRole = "assigner"
	RoleAdmin    UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleLearner, RoleAssigner, RoleAdmin:
		return true
	}
	return false
}

// CanAssign reports whether the role may create or manage assignments.
func (r UserRole) CanAssign() bool {
	return r == RoleAssigner || r == RoleAdmin
}

// User represents a domain user object
type User struct {
	ID                string
	GoogleID          string
	Email             string
	Name              string
	ProfilePictureURL string
	Role              UserRole
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         *time.Time
}

// NewUser creates a new User instance with the default learner role.
func NewUser(googleID, email string) *User {
	now := time.Now()
	return &User{
		GoogleID:  googleID,
		Email:     email,
		Role:      RoleLearner,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate validates the user
func (u *User) Validate() error {
	if u.GoogleID == "" {
		return NewValidationError("google_id is required")
	}
	if u.Email == "" {
		return NewValidationError("email is required")
	}
	if u.Role != "" && !u.Role.Valid() {
		return NewValidationError("role must be one of learner, assigner, admin")
	}
	return nil
}

// UserRepository defines the interface for user data persistence.
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByGoogleID(ctx context.Context, googleID string) (*User, error)
	GetUserByID(ctx context.Context, userID string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error

	// UpdateUserTokens stores the encrypted OAuth tokens for a user. Token
	// material never travels on the User struct.
	UpdateUserTokens(ctx context.Context, userID, encryptedAccessToken, encryptedRefreshToken string, tokenExpiresAt time.Time) error

	DeleteUser(ctx context.Context, userID string) error
}
