package apperrors

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the service layer wraps exactly one of these.
var (
	// Resource errors
	ErrResourceNotFound = errors.New("resource not found")
	ErrConflict         = errors.New("conflict")

	// Authentication errors
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenInvalid  = errors.New("invalid token")
	ErrInvalidFormat = errors.New("invalid token format")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")

	// Workflow errors
	ErrInvalidState     = errors.New("invalid state transition")
	ErrIncompleteWeight = errors.New("assessment weightage incomplete")
	ErrMissingScheme    = errors.New("grading scheme missing")
)

// Stable error codes exposed to clients
const (
	CodeValidation       = "VAL_001"
	CodeIncompleteWeight = "VAL_002"
	CodeMissingScheme    = "VAL_003"
	CodeForbidden        = "AUTHZ_001"
	CodeNotFound         = "RES_001"
	CodeConflict         = "RES_004"
	CodeInvalidState     = "STATE_001"
)

// FieldError describes a validation failure of one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
	Fields  []FieldError
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// WithFields attaches per-field validation failures
func (e *CustomError) WithFields(fields ...FieldError) *CustomError {
	e.Fields = append(e.Fields, fields...)
	return e
}

// NewValidationError creates a validation error with a message
func NewValidationError(message string, fields ...FieldError) *CustomError {
	return NewCustomError(ErrValidationFailed, message).WithCode(CodeValidation).WithFields(fields...)
}

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) *CustomError {
	return NewCustomError(ErrResourceNotFound, message).WithCode(CodeNotFound)
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) *CustomError {
	return NewCustomError(ErrConflict, message).WithCode(CodeConflict)
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) *CustomError {
	return NewCustomError(ErrPermissionDenied, message).WithCode(CodeForbidden)
}

// NewStateError creates an error for an illegal state transition
func NewStateError(message string) *CustomError {
	return NewCustomError(ErrInvalidState, message).WithCode(CodeInvalidState)
}

// NewIncompleteWeightError reports that assessment weightages do not total 100
func NewIncompleteWeightError(total int) *CustomError {
	return NewCustomError(ErrIncompleteWeight,
		fmt.Sprintf("assessment weightages total %d%%, must be exactly 100%%", total)).
		WithCode(CodeIncompleteWeight).
		WithDetails(map[string]interface{}{"totalWeight": total})
}

// NewMissingSchemeError reports that a section has no grading scheme
func NewMissingSchemeError() *CustomError {
	return NewCustomError(ErrMissingScheme, "no grading scheme defined").WithCode(CodeMissingScheme)
}

// Is returns whether target matches any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// Code returns the stable code carried by err, or "" when it has none.
func Code(err error) string {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
