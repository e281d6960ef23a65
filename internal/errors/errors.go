package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Sentinels used with the builder's Mark. Each maps to exactly one HTTP status.
var (
	ErrNotFound          = new(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists     = new(ErrCodeAlreadyExists, "resource already exists")
	ErrValidation        = new(ErrCodeValidation, "validation error")
	ErrInvalidOperation  = new(ErrCodeInvalidOperation, "invalid operation")
	ErrConfiguration     = new(ErrCodeConfiguration, "configuration error")
	ErrPaymentProcessing = new(ErrCodePaymentProcessing, "payment processing error")
	ErrPermissionDenied  = new(ErrCodePermissionDenied, "permission denied")
	ErrHTTPClient        = new(ErrCodeHTTPClient, "http client error")
	ErrDatabase          = new(ErrCodeDatabase, "database error")
	ErrSystem            = new(ErrCodeSystemError, "system error")

	// maps errors to http status codes, client errors first so a business
	// classification wins over the transport error it wraps
	statusCodes = []struct {
		err    error
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrAlreadyExists, http.StatusConflict},
		{ErrValidation, http.StatusBadRequest},
		{ErrInvalidOperation, http.StatusBadRequest},
		{ErrConfiguration, http.StatusBadRequest},
		{ErrPaymentProcessing, http.StatusBadRequest},
		{ErrPermissionDenied, http.StatusForbidden},
		{ErrHTTPClient, http.StatusInternalServerError},
		{ErrDatabase, http.StatusInternalServerError},
		{ErrSystem, http.StatusInternalServerError},
	}
)

const (
	ErrCodeHTTPClient        = "http_client_error"
	ErrCodeSystemError       = "system_error"
	ErrCodeNotFound          = "not_found"
	ErrCodeAlreadyExists     = "already_exists"
	ErrCodeValidation        = "validation_error"
	ErrCodeInvalidOperation  = "invalid_operation"
	ErrCodeConfiguration     = "configuration_error"
	ErrCodePaymentProcessing = "payment_processing_error"
	ErrCodePermissionDenied  = "permission_denied"
	ErrCodeDatabase          = "database_error"
)

// InternalError is the sentinel type behind every marked error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Is(err, reference error) bool {
	return errors.Is(err, reference)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidOperation checks if an error is an invalid operation error
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsConfiguration checks if an error is a payment or integration configuration error
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsPaymentProcessing checks if an error was raised by a payment processor
func IsPaymentProcessing(err error) bool {
	return errors.Is(err, ErrPaymentProcessing)
}

// IsPermissionDenied checks if an error is a permission denied error
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsHTTPClient checks if an error is an http client error
func IsHTTPClient(err error) bool {
	return errors.Is(err, ErrHTTPClient)
}

func HTTPStatusFromErr(err error) int {
	for _, sc := range statusCodes {
		if errors.Is(err, sc.err) {
			return sc.status
		}
	}
	return http.StatusInternalServerError
}

// DisplayMessage returns the first user facing hint attached to err.
func DisplayMessage(err error) string {
	for _, hint := range errors.GetAllHints(err) {
		if hint != "" {
			return hint
		}
	}
	return ""
}
