package schema

import "fmt"

// ValidationError reports a violated data invariant. The session is never left
// partially mutated when one is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
