package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeForbidden    ErrorCode = "FORBIDDEN"

	// Validation errors
	CodeValidation    ErrorCode = "VALIDATION_ERROR"
	CodeMissingField  ErrorCode = "MISSING_FIELD"
	CodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	CodeOutOfRange    ErrorCode = "OUT_OF_RANGE"

	// Resource errors
	CodeQuizNotFound       ErrorCode = "QUIZ_NOT_FOUND"
	CodeQuestionNotFound   ErrorCode = "QUESTION_NOT_FOUND"
	CodeAssignmentNotFound ErrorCode = "ASSIGNMENT_NOT_FOUND"
	CodeAttemptNotFound    ErrorCode = "ATTEMPT_NOT_FOUND"

	// Attempt lifecycle errors
	CodeQuotaExceeded       ErrorCode = "QUOTA_EXCEEDED"
	CodeAttemptCompleted    ErrorCode = "ATTEMPT_COMPLETED"
	CodeAssignmentCancelled ErrorCode = "ASSIGNMENT_CANCELLED"
	CodeQuizNotPublished    ErrorCode = "QUIZ_NOT_PUBLISHED"
	CodeInvalidAnswer       ErrorCode = "INVALID_ANSWER"

	// External services
	CodeLLMServiceError ErrorCode = "LLM_SERVICE_ERROR"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key/value pair surfaced in the error response details.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Helper constructors for common errors

func NewNotFoundError(message string) *DomainError {
	return NewError(CodeNotFound, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, cause error) *DomainError {
	return NewError(CodeInternal, message, cause)
}

func NewUnauthorizedError(message string) *DomainError {
	return NewError(CodeUnauthorized, message, nil)
}

func NewForbiddenError(message string) *DomainError {
	return NewError(CodeForbidden, message, nil)
}

func NewQuizNotFoundError(quizID string) *DomainError {
	return NewError(CodeQuizNotFound, fmt.Sprintf("Quiz not found with ID: %s", quizID), nil)
}

func NewQuestionNotFoundError(questionID string) *DomainError {
	return NewError(CodeQuestionNotFound, fmt.Sprintf("Question not found with ID: %s", questionID), nil)
}

func NewAssignmentNotFoundError(assignmentID string) *DomainError {
	return NewError(CodeAssignmentNotFound, fmt.Sprintf("Assignment not found with ID: %s", assignmentID), nil)
}

func NewAttemptNotFoundError(attemptID string) *DomainError {
	return NewError(CodeAttemptNotFound, fmt.Sprintf("Attempt not found with ID: %s", attemptID), nil)
}

// NewQuotaExceededError signals that the assignment's attempt quota is used up.
func NewQuotaExceededError(assignmentID string, maxAttempts int) *DomainError {
	e := NewError(CodeQuotaExceeded,
		fmt.Sprintf("Attempt quota of %d exhausted for assignment %s", maxAttempts, assignmentID), nil)
	return e.WithContext("assignment_id", assignmentID).WithContext("max_attempts", maxAttempts)
}

// NewAttemptCompletedError signals a write against a terminal attempt.
func NewAttemptCompletedError(attemptID string) *DomainError {
	return NewError(CodeAttemptCompleted,
		fmt.Sprintf("Attempt %s is already completed", attemptID), nil)
}

func NewAssignmentCancelledError(assignmentID string) *DomainError {
	return NewError(CodeAssignmentCancelled,
		fmt.Sprintf("Assignment %s is cancelled", assignmentID), nil)
}

func NewQuizNotPublishedError(quizID string) *DomainError {
	return NewError(CodeQuizNotPublished,
		fmt.Sprintf("Quiz %s is not published", quizID), nil)
}

func NewInvalidAnswerError(message string) *DomainError {
	return NewError(CodeInvalidAnswer, message, nil)
}

func NewLLMServiceError(cause error) *DomainError {
	return NewError(CodeLLMServiceError, "Failed to process with LLM service", cause)
}

// ValidationError represents a single field-level validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates field validation failures for one request.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return strings.Join(msgs, "; ")
}

func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

func NewValidationError(message string) *DomainError {
	return NewError(CodeValidation, message, nil)
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{Field: field, Message: "is required"}
}

func NewInvalidFormatError(field, value string) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("has invalid format: %q", value)}
}

func NewOutOfRangeError(field string, value, min, max int) ValidationError {
	return ValidationError{
		Field:   field,
		Message: fmt.Sprintf("value %d is out of range [%d, %d]", value, min, max),
	}
}

func NewInvalidValueError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}
