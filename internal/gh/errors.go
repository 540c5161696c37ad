package gh

import (
	"fmt"
	"strings"
)

// APIError wraps a failed gh invocation together with the raw output the
// CLI produced, so sync failures list the exact API error payload.
type APIError struct {
	Op     string
	Output []byte
	Err    error
}

func (e *APIError) Error() string {
	out := strings.TrimSpace(string(e.Output))
	if out == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s failed: %v\nAPI response: %s", e.Op, e.Err, out)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// PrereqError reports a missing prerequisite together with the exact
// command that remedies it. Prerequisite failures abort before any
// mutation is made.
type PrereqError struct {
	Problem string
	Remedy  string
}

func (e *PrereqError) Error() string {
	if e.Remedy == "" {
		return e.Problem
	}
	return fmt.Sprintf("%s (run: %s)", e.Problem, e.Remedy)
}

// IsAlreadyExists reports whether gh output indicates the resource
// already exists. Label creation treats this as success.
func IsAlreadyExists(output []byte) bool {
	return strings.Contains(strings.ToLower(string(output)), "already exists")
}
