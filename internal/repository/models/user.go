package models

import (
	"database/sql"
	"time"
)

// User represents a user in the system.
type User struct {
	ID                    string         `db:"ID"`                      // ULID
	GoogleID              string         `db:"GOOGLE_ID"`               // Google's unique identifier for the user
	Email                 string         `db:"EMAIL"`                   // User's email address
	Name                  sql.NullString `db:"NAME"`                    // User's full name
	ProfilePictureURL     sql.NullString `db:"PROFILE_PICTURE_URL"`     // URL of the user's profile picture
	Role                  string         `db:"ROLE"`                    // learner, assigner or admin
	EncryptedAccessToken  sql.NullString `db:"ENCRYPTED_ACCESS_TOKEN"`  // Encrypted Google OAuth access token
	EncryptedRefreshToken sql.NullString `db:"ENCRYPTED_REFRESH_TOKEN"` // Encrypted Google OAuth refresh token
	TokenExpiresAt        sql.NullTime   `db:"TOKEN_EXPIRES_AT"`        // Expiry time for the access token
	CreatedAt             time.Time      `db:"CREATED_AT"`
	UpdatedAt             time.Time      `db:"UPDATED_AT"`
	DeletedAt             sql.NullTime   `db:"DELETED_AT"`
}
