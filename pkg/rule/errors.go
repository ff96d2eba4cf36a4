package rule

import (
	"errors"
	"fmt"
)

// Error codes used across jsonlogicui.
const (
	// ErrCodeParse marks malformed rule or data documents.
	ErrCodeParse = "PARSE_ERROR"
	// ErrCodeValidation marks rules that decode but violate operator contracts.
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeEval marks failures in an expression-evaluation backend.
	ErrCodeEval = "EVAL_ERROR"
	// ErrCodeNotFound marks lookups of unknown rules, renderers or engines.
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeConflict marks duplicate registrations and name collisions.
	ErrCodeConflict = "CONFLICT"
	// ErrCodeStore marks rule-library persistence failures.
	ErrCodeStore = "STORE_ERROR"
	// ErrCodeRender marks failures while producing an output document.
	ErrCodeRender = "RENDER_ERROR"
)

// Error is a structured error with a stable code, a human-readable message
// and optional structured details. The zero Details map is lazily created
// by WithDetail.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError creates an Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorf creates an Error with a formatted message.
func NewErrorf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause attaches an underlying cause and returns the receiver.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithDetail attaches a single detail entry and returns the receiver.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithDetails merges detail entries and returns the receiver.
func (e *Error) WithDetails(details map[string]any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsCode reports whether err is (or wraps) an Error with the given code.
func IsCode(err error, code string) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}
