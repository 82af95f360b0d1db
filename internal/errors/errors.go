package errors

import "fmt"

// ErrorCode represents an Engram error code.
type ErrorCode string

const (
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404: resolution matched zero refs
	ErrAmbiguous      ErrorCode = "AMBIGUOUS"       // 400: resolution matched more than one ref
	ErrDecode         ErrorCode = "DECODE"          // 422: a sub-document failed to parse
	ErrStore          ErrorCode = "STORE"           // 500: the underlying git store failed
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotInitialized ErrorCode = "NOT_INITIALIZED" // 412: repo missing [engram] config
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// EngramError represents a structured error with code, status, and details.
type EngramError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	Err     error // wrapped cause, if any
}

// Error implements the error interface.
func (e *EngramError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause.
func (e *EngramError) Unwrap() error {
	return e.Err
}

// NewNotFound creates a 404 error for when no engram matches an ID or prefix.
func NewNotFound(idOrPrefix string) *EngramError {
	return &EngramError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("engram not found: %s", idOrPrefix),
		Details: map[string]any{"id": idOrPrefix},
	}
}

// NewAmbiguous creates a 400 error for when a prefix matches multiple engrams.
// The match count is carried in Details for diagnostics.
func NewAmbiguous(prefix string, count int) *EngramError {
	return &EngramError{
		Code:    ErrAmbiguous,
		Status:  400,
		Message: fmt.Sprintf("ambiguous engram ID prefix %q: %d matches", prefix, count),
		Details: map[string]any{"prefix": prefix, "matches": count},
	}
}

// NewDecode creates a 422 error for a sub-document that failed to parse.
// The sub-document name is carried in Details.
func NewDecode(subDocument string, err error) *EngramError {
	msg := fmt.Sprintf("failed to decode %s", subDocument)
	if err != nil {
		msg = fmt.Sprintf("failed to decode %s: %v", subDocument, err)
	}
	return &EngramError{
		Code:    ErrDecode,
		Status:  422,
		Message: msg,
		Details: map[string]any{"sub_document": subDocument},
		Err:     err,
	}
}

// NewStore creates a 500 error wrapping a failure from the underlying git
// object store. The cause is propagated verbatim, not reinterpreted.
func NewStore(err error) *EngramError {
	msg := "git store error"
	if err != nil {
		msg = fmt.Sprintf("git store error: %v", err)
	}
	return &EngramError{
		Code:    ErrStore,
		Status:  500,
		Message: msg,
		Err:     err,
	}
}

// NewInvalidRequest creates a 400 error for invalid parameters.
func NewInvalidRequest(msg string) *EngramError {
	return &EngramError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotInitialized creates a 412 error for repos without engram config.
func NewNotInitialized() *EngramError {
	return &EngramError{
		Code:    ErrNotInitialized,
		Status:  412,
		Message: "engram is not initialized in this repository (run `engram init`)",
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *EngramError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &EngramError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		Err:     err,
	}
}

// Is checks if an error is an EngramError with the given code.
func Is(err error, code ErrorCode) bool {
	if eErr, ok := err.(*EngramError); ok {
		return eErr.Code == code
	}
	return false
}
