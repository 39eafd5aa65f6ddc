package middleware

import (
	"fmt"
	"strings"

	"quiz-class/internal/domain"
	"quiz-class/internal/logger"
	"quiz-class/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	AuthorizationHeader = "Authorization"
	BearerSchema        = "Bearer "
	UserIDKey           = "userID"   // Key for storing UserID in fiber.Ctx locals
	UserRoleKey         = "userRole" // Key for storing the caller's role in fiber.Ctx locals
)

// Protected is a middleware function that protects routes by requiring a valid JWT.
// It validates the token using the provided AuthService and sets the userID and
// role in the context.
func Protected(authService service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(AuthorizationHeader)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "MISSING_AUTH_HEADER",
				Message: "Authorization header is missing",
				Status:  fiber.StatusUnauthorized,
			})
		}

		if !strings.HasPrefix(authHeader, BearerSchema) {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "INVALID_AUTH_SCHEME",
				Message: "Authorization scheme is not Bearer",
				Status:  fiber.StatusUnauthorized,
			})
		}

		tokenString := strings.TrimPrefix(authHeader, BearerSchema)
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "EMPTY_TOKEN",
				Message: "Token is empty",
				Status:  fiber.StatusUnauthorized,
			})
		}

		claims, err := authService.ValidateJWT(c.Context(), tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "INVALID_TOKEN",
				Message: err.Error(),
				Status:  fiber.StatusUnauthorized,
			})
		}

		// Refresh tokens authenticate against /auth/refresh only, never here.
		if claims.TokenType != "access" {
			return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
				Code:    "INVALID_TOKEN_TYPE",
				Message: fmt.Sprintf("Invalid token type: expected access, got %s", claims.TokenType),
				Status:  fiber.StatusForbidden,
			})
		}

		c.Locals(UserIDKey, claims.UserID)
		c.Locals(UserRoleKey, claims.Role)

		return c.Next()
	}
}

// OptionalAuth is a middleware function that optionally authenticates a user.
// If a valid access token is provided, it sets the userID and role in the
// context. Otherwise, it proceeds without them, allowing for anonymous access.
func OptionalAuth(authService service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(AuthorizationHeader)
		if authHeader == "" {
			return c.Next()
		}

		if !strings.HasPrefix(authHeader, BearerSchema) {
			logger.Get().Debug("OptionalAuth: authorization scheme is not Bearer, proceeding as anonymous")
			return c.Next()
		}

		tokenString := strings.TrimPrefix(authHeader, BearerSchema)
		if tokenString == "" {
			return c.Next()
		}

		claims, err := authService.ValidateJWT(c.Context(), tokenString)
		if err != nil {
			logger.Get().Debug("OptionalAuth: JWT validation failed, proceeding as anonymous", zap.Error(err))
			return c.Next()
		}
		if claims.TokenType != "access" {
			logger.Get().Debug("OptionalAuth: not an access token, proceeding as anonymous",
				zap.String("tokenType", claims.TokenType))
			return c.Next()
		}

		c.Locals(UserIDKey, claims.UserID)
		c.Locals(UserRoleKey, claims.Role)

		return c.Next()
	}
}

// RequireRole gates a route to callers holding one of the given roles. It must
// run after Protected, which stores the role from the verified token.
func RequireRole(roles ...domain.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roleValue, ok := c.Locals(UserRoleKey).(string)
		if !ok || roleValue == "" {
			return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
				Code:    string(domain.CodeForbidden),
				Message: "Caller role is not established",
				Status:  fiber.StatusForbidden,
			})
		}

		callerRole := domain.UserRole(roleValue)
		for _, role := range roles {
			if callerRole == role {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Code:    string(domain.CodeForbidden),
			Message: fmt.Sprintf("Role %s may not access this resource", callerRole),
			Status:  fiber.StatusForbidden,
		})
	}
}
