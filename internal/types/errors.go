// README: Shared validation error type.
package types

import "fmt"

// ValidationError reports a missing field or an exceeded limit. It is never
// fatal; callers turn it into a clarification question or a failed modification.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
