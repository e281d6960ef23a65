package httpclient

import (
	goerrors "errors"
	"fmt"

	ierr "github.com/shopbench/shopbench/internal/errors"
)

// Error is a non-2xx response. The raw body is kept so callers can
// decode the processor's error envelope.
type Error struct {
	StatusCode int
	Response   []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("http client error: status %d", e.StatusCode)
}

// Is lets errors.Is(err, ierr.ErrHTTPClient) match
func (e *Error) Is(target error) bool {
	return target == ierr.ErrHTTPClient
}

// NewError creates a new HTTP client error
func NewError(statusCode int, response []byte) *Error {
	return &Error{
		StatusCode: statusCode,
		Response:   response,
	}
}

// IsHTTPError checks if an error is an HTTP client error
func IsHTTPError(err error) (*Error, bool) {
	var httpErr *Error
	if goerrors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}
