package errors

import (
	"fmt"
	"net/http"
)

// Error codes. Messages are English and meant for logs and operators;
// callers must branch on the code only.

// Agent error codes.
const (
	CodeAgentNotFound     = "AGENT_NOT_FOUND"
	CodeDuplicateCodename = "DUPLICATE_CODENAME"
)

// Validation error codes.
const (
	CodeInvalidInput = "INVALID_INPUT"

	// Field-level reason codes carried in FieldError.Code.
	ReasonRequired     = "REQUIRED"
	ReasonTooLong      = "TOO_LONG"
	ReasonInvalidChars = "INVALID_CHARACTERS"
	ReasonInvalidEnum  = "INVALID_VALUE"
	ReasonOutOfRange   = "OUT_OF_RANGE"
	ReasonBadFormat    = "INVALID_FORMAT"
)

// Store error codes.
const (
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
)

// Convenience constructors using predefined codes.

// ErrAgentNotFoundf creates an agent not found error keyed by id.
func ErrAgentNotFoundf(id int64) *AppError {
	return NotFound(CodeAgentNotFound, fmt.Sprintf("agent with id %d not found", id)).
		WithParams(map[string]interface{}{"id": id})
}

// ErrCodenameNotFoundf creates an agent not found error keyed by codename.
func ErrCodenameNotFoundf(codename string) *AppError {
	return NotFound(CodeAgentNotFound, fmt.Sprintf("agent with codename %s not found", codename)).
		WithParams(map[string]interface{}{"codename": codename})
}

// ErrDuplicateCodenamef creates a codename uniqueness violation. The HTTP
// surface reports it as 400, matching the public API contract.
func ErrDuplicateCodenamef(codename string) *AppError {
	return BadRequest(CodeDuplicateCodename, fmt.Sprintf("agent with codename %s already exists", codename)).
		WithParams(map[string]interface{}{"codename": codename})
}

// ErrInvalidInput creates a validation failure naming every offending field.
func ErrInvalidInput(fieldErrors ...FieldError) *AppError {
	msg := "invalid input"
	if len(fieldErrors) > 0 {
		msg = fmt.Sprintf("invalid %s: %s", fieldErrors[0].Field, fieldErrors[0].Message)
	}
	return BadRequest(CodeInvalidInput, msg).WithFieldErrors(fieldErrors)
}

// ErrStoreUnavailable wraps an unexpected record store failure.
func ErrStoreUnavailable(err error) *AppError {
	return Wrap(err, CodeStoreUnavailable, "record store unavailable", http.StatusServiceUnavailable)
}
