package validation

import (
	"regexp"
	"strings"

	"quiz-class/internal/domain"
)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateID checks a required ULID-shaped identifier.
func (v *Validator) ValidateID(field, value string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(value) == "" {
		errors = append(errors, domain.NewMissingFieldError(field))
	} else if !isValidULID(value) {
		errors = append(errors, domain.NewInvalidFormatError(field, value))
	}

	return errors
}

// ValidateOptionalID checks a ULID-shaped identifier that may be absent.
func (v *Validator) ValidateOptionalID(field, value string) domain.ValidationErrors {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return v.ValidateID(field, value)
}

// ValidateQuizFilters validates quiz catalog query parameters.
func (v *Validator) ValidateQuizFilters(difficulty string, age int) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if difficulty != "" {
		switch difficulty {
		case "easy", "medium", "hard":
		default:
			errors = append(errors, domain.NewInvalidValueError("difficulty", "must be easy, medium or hard"))
		}
	}

	if age != 0 && (age < 1 || age > 100) {
		errors = append(errors, domain.NewOutOfRangeError("age", age, 1, 100))
	}

	return errors
}

// ValidatePagination validates limit and offset query parameters. A zero limit
// is allowed; it falls back to the server default.
func (v *Validator) ValidatePagination(limit, offset int) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if limit < 0 || limit > 100 {
		errors = append(errors, domain.NewOutOfRangeError("limit", limit, 0, 100))
	}
	if offset < 0 {
		errors = append(errors, domain.NewInvalidValueError("offset", "must not be negative"))
	}

	return errors
}

// isValidULID checks if the string is a valid ULID format
func isValidULID(s string) bool {
	// ULID is 26 characters long, base32 encoded
	if len(s) != 26 {
		return false
	}
	// Check if all characters are valid base32 (Crockford's Base32)
	validULID := regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)
	return validULID.MatchString(s)
}
