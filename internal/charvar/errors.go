package charvar

import (
	"errors"
	"fmt"
)

// Sentinel errors for registry and entity operations.
var (
	ErrNotFound      = errors.New("character not found")
	ErrUnauthorized  = errors.New("character not owned by requester")
	ErrNotModifiable = errors.New("character var is not modifiable")
	ErrUnknownVar    = errors.New("unknown character var")
	ErrMalformedRow  = errors.New("malformed character row")
	ErrSealed        = errors.New("var registry is sealed")
)

// ValidationError is returned when a var's validate hook rejects a creation
// payload. Code is machine-readable and travels to the client together with
// Args for localized display.
type ValidationError struct {
	Var  string
	Code string
	Args []any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation rejected for %q: %s %v", e.Var, e.Code, e.Args)
}

// Reject builds a ValidationError for use inside validate hooks. The var name
// is stamped by the pipeline.
func Reject(code string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Args: args}
}

// PolicyError is returned when an extension point vetoes a request before or
// after per-field validation. Same abort contract as ValidationError.
type PolicyError struct {
	Code string
	Args []any
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("policy rejected: %s %v", e.Code, e.Args)
}
