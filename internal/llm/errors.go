package llm

import (
	"fmt"
	"strings"
)

// TransportError represents a failure reaching or reading from a provider
// API: network errors, HTTP failures, empty candidate sets. Transport errors
// are retryable at the orchestrator level.
type TransportError struct {
	Provider Provider
	Message  string
	Cause    error
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s API call failed: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s API call failed: %s", e.Provider, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// FieldError records a single schema or invariant violation at a field path.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError represents a model response that reached us but does not
// satisfy the expected structured contract: unparseable JSON, missing or
// mistyped fields, out-of-range enums, or a violated domain invariant.
// Distinct from TransportError; retrying the same prompt rarely helps.
type ValidationError struct {
	Stage   string
	Message string
	Fields  []FieldError
	Cause   error
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	if e.Stage != "" {
		sb.WriteString(e.Stage)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)
	for _, fe := range e.Fields {
		sb.WriteString(fmt.Sprintf("\n  %s: %s", fe.Field, fe.Message))
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}
