package client

import (
	"errors"
	"fmt"
)

// ErrQuotaExhausted is returned when the assignment's attempt quota leaves no
// room for another attempt. The session detects this locally where it can and
// maps the server's rejection onto it where it cannot.
var ErrQuotaExhausted = errors.New("attempt quota exhausted")

// ErrAttemptCompleted is returned when a submission arrives after the attempt
// has been completed. Completion is terminal; the session rejects further
// writes locally without asking the server.
var ErrAttemptCompleted = errors.New("attempt already completed")

// APIError is a non-2xx answer from the server, carrying the machine-readable
// code the error handler middleware emits.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
}

// IsAPIErrorCode reports whether err is an APIError with the given code.
func IsAPIErrorCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// Error codes the session layer reacts to. The server defines more; these are
// the ones with client-side behavior attached.
const (
	CodeQuotaExceeded    = "QUOTA_EXCEEDED"
	CodeAttemptCompleted = "ATTEMPT_COMPLETED"
)
