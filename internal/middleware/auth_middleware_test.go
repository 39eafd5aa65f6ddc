package middleware_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-class/internal/domain"
	"quiz-class/internal/dto"
	"quiz-class/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

// ManualMockAuthService implements service.AuthService for middleware tests.
// Only ValidateJWT is exercised here.
type ManualMockAuthService struct {
	ValidateJWTFunc func(ctx context.Context, tokenString string) (*dto.AuthClaims, error)
}

func (m *ManualMockAuthService) GetGoogleLoginURL(state string) string {
	panic("not implemented in mock")
}

func (m *ManualMockAuthService) HandleGoogleCallback(ctx context.Context, code, receivedState, expectedState string) (string, string, *domain.User, error) {
	panic("not implemented in mock")
}

func (m *ManualMockAuthService) ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
	if m.ValidateJWTFunc != nil {
		return m.ValidateJWTFunc(ctx, tokenString)
	}
	return nil, errors.New("ValidateJWTFunc not set on mock")
}

func (m *ManualMockAuthService) CreateJWT(ctx context.Context, user *domain.User, ttl time.Duration, tokenType string) (string, error) {
	panic("not implemented in mock")
}

func (m *ManualMockAuthService) RefreshToken(ctx context.Context, refreshTokenString string) (string, string, error) {
	panic("not implemented in mock")
}

func (m *ManualMockAuthService) Logout(ctx context.Context, userID string) error {
	panic("not implemented in mock")
}

func (m *ManualMockAuthService) EncryptToken(token string) (string, error) {
	panic("not implemented in mock")
}

func (m *ManualMockAuthService) DecryptToken(encryptedToken string) (string, error) {
	panic("not implemented in mock")
}

func accessClaims(userID, role string) *dto.AuthClaims {
	return &dto.AuthClaims{
		UserID:    userID,
		Role:      role,
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		},
	}
}

func TestProtected(t *testing.T) {
	tests := []struct {
		name           string
		authHeader     string
		setupMock      func(mockSvc *ManualMockAuthService)
		expectedStatus int
		expectedUserID interface{}
		expectedRole   interface{}
	}{
		{
			name:           "No Auth Header",
			authHeader:     "",
			setupMock:      func(mockSvc *ManualMockAuthService) {},
			expectedStatus: fiber.StatusUnauthorized,
		},
		{
			name:           "Wrong Scheme",
			authHeader:     "Basic some_token",
			setupMock:      func(mockSvc *ManualMockAuthService) {},
			expectedStatus: fiber.StatusUnauthorized,
		},
		{
			name:           "Empty Token",
			authHeader:     "Bearer ",
			setupMock:      func(mockSvc *ManualMockAuthService) {},
			expectedStatus: fiber.StatusUnauthorized,
		},
		{
			name:       "Invalid Token",
			authHeader: "Bearer invalid_token",
			setupMock: func(mockSvc *ManualMockAuthService) {
				mockSvc.ValidateJWTFunc = func(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
					assert.Equal(t, "invalid_token", tokenString)
					return nil, errors.New("invalid token")
				}
			},
			expectedStatus: fiber.StatusUnauthorized,
		},
		{
			name:       "Refresh Token Rejected",
			authHeader: "Bearer refresh_token",
			setupMock: func(mockSvc *ManualMockAuthService) {
				mockSvc.ValidateJWTFunc = func(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
					claims := accessClaims("user123", "learner")
					claims.TokenType = "refresh"
					return claims, nil
				}
			},
			expectedStatus: fiber.StatusForbidden,
		},
		{
			name:       "Valid Access Token",
			authHeader: "Bearer valid_access_token",
			setupMock: func(mockSvc *ManualMockAuthService) {
				mockSvc.ValidateJWTFunc = func(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
					assert.Equal(t, "valid_access_token", tokenString)
					return accessClaims("user123", "assigner"), nil
				}
			},
			expectedStatus: fiber.StatusOK,
			expectedUserID: "user123",
			expectedRole:   "assigner",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			mockAuthSvc := &ManualMockAuthService{}
			tc.setupMock(mockAuthSvc)

			var userIDLocal, roleLocal interface{}
			app.Get("/protected", middleware.Protected(mockAuthSvc), func(c *fiber.Ctx) error {
				userIDLocal = c.Locals(middleware.UserIDKey)
				roleLocal = c.Locals(middleware.UserRoleKey)
				return c.SendStatus(fiber.StatusOK)
			})

			req := httptest.NewRequest("GET", "/protected", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}

			resp, err := app.Test(req, -1)

			assert.NoError(t, err)
			assert.Equal(t, tc.expectedStatus, resp.StatusCode)
			assert.Equal(t, tc.expectedUserID, userIDLocal)
			assert.Equal(t, tc.expectedRole, roleLocal)
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	tests := []struct {
		name                string
		authHeader          string
		setupMock           func(mockSvc *ManualMockAuthService)
		expectedUserIDLocal interface{}
	}{
		{
			name:       "No Auth Header",
			authHeader: "",
			setupMock:  func(mockSvc *ManualMockAuthService) {},
		},
		{
			name:       "Valid Access Token",
			authHeader: "Bearer valid_access_token",
			setupMock: func(mockSvc *ManualMockAuthService) {
				mockSvc.ValidateJWTFunc = func(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
					return accessClaims("user123", "learner"), nil
				}
			},
			expectedUserIDLocal: "user123",
		},
		{
			name:       "Invalid Token Proceeds Anonymously",
			authHeader: "Bearer invalid_token",
			setupMock: func(mockSvc *ManualMockAuthService) {
				mockSvc.ValidateJWTFunc = func(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
					return nil, errors.New("invalid token")
				}
			},
		},
		{
			name:       "Refresh Token Proceeds Anonymously",
			authHeader: "Bearer valid_refresh_token",
			setupMock: func(mockSvc *ManualMockAuthService) {
				mockSvc.ValidateJWTFunc = func(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
					claims := accessClaims("user456", "learner")
					claims.TokenType = "refresh"
					return claims, nil
				}
			},
		},
		{
			name:       "Wrong Scheme Proceeds Anonymously",
			authHeader: "Basic some_token",
			setupMock:  func(mockSvc *ManualMockAuthService) {},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			mockAuthSvc := &ManualMockAuthService{}
			tc.setupMock(mockAuthSvc)

			nextHandlerCalled := false
			var userIDLocalValue interface{}
			app.Get("/optional", middleware.OptionalAuth(mockAuthSvc), func(c *fiber.Ctx) error {
				nextHandlerCalled = true
				userIDLocalValue = c.Locals(middleware.UserIDKey)
				return c.SendStatus(fiber.StatusOK)
			})

			req := httptest.NewRequest("GET", "/optional", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}

			resp, err := app.Test(req, -1)

			assert.NoError(t, err)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			assert.True(t, nextHandlerCalled, "next handler was not called")
			assert.Equal(t, tc.expectedUserIDLocal, userIDLocalValue)
		})
	}
}

func TestRequireRole(t *testing.T) {
	newApp := func(role string) *fiber.App {
		app := fiber.New()
		mockAuthSvc := &ManualMockAuthService{
			ValidateJWTFunc: func(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
				return accessClaims("user123", role), nil
			},
		}
		app.Post("/assignments",
			middleware.Protected(mockAuthSvc),
			middleware.RequireRole(domain.RoleAssigner, domain.RoleAdmin),
			func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) },
		)
		return app
	}

	t.Run("assigner allowed", func(t *testing.T) {
		app := newApp("assigner")
		req := httptest.NewRequest("POST", "/assignments", nil)
		req.Header.Set("Authorization", "Bearer token")

		resp, err := app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	})

	t.Run("admin allowed", func(t *testing.T) {
		app := newApp("admin")
		req := httptest.NewRequest("POST", "/assignments", nil)
		req.Header.Set("Authorization", "Bearer token")

		resp, err := app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	})

	t.Run("learner forbidden", func(t *testing.T) {
		app := newApp("learner")
		req := httptest.NewRequest("POST", "/assignments", nil)
		req.Header.Set("Authorization", "Bearer token")

		resp, err := app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("no auth context forbidden", func(t *testing.T) {
		app := fiber.New()
		app.Post("/bare",
			middleware.RequireRole(domain.RoleAdmin),
			func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) },
		)
		req := httptest.NewRequest("POST", "/bare", nil)

		resp, err := app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})
}
