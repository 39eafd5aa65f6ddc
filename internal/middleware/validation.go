package middleware

import (
	"quiz-class/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(),
	}
}

// ValidateIDParam validates that the named path parameter is ULID-shaped
// before the handler touches storage with it.
func (vm *ValidationMiddleware) ValidateIDParam(paramName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		value := c.Params(paramName)
		if errors := vm.validator.ValidateID(paramName, value); len(errors) > 0 {
			return errors // This will be handled by ErrorHandler middleware
		}
		return c.Next()
	}
}

// ValidateQuizListParams validates quiz catalog query parameters.
func (vm *ValidationMiddleware) ValidateQuizListParams() fiber.Handler {
	return func(c *fiber.Ctx) error {
		difficulty := c.Query("difficulty")
		age := c.QueryInt("age")

		if errors := vm.validator.ValidateQuizFilters(difficulty, age); len(errors) > 0 {
			return errors
		}
		if errors := vm.validator.ValidatePagination(c.QueryInt("limit"), c.QueryInt("offset")); len(errors) > 0 {
			return errors
		}
		return c.Next()
	}
}
