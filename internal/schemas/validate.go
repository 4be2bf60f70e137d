// Package schemas provides JSON Schema validation for structured stage outputs.
// Schema documents are embedded at compile time, one per stage result type.
package schemas

import (
	"embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed *.schema.json
var schemaFiles embed.FS

// Schema names for the structured results produced by the evaluation stages
// and the job-description generator.
const (
	Comparison     = "comparison"
	Revaluation    = "revaluation"
	Classification = "classification"
	JobDescription = "jobdesc"
)

// ValidationError represents a schema validation failure with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Name    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Name, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Name, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// MustSchema returns the embedded schema document by name, panicking if it is
// missing. Schema names are compile-time constants, so a miss is a build bug.
func MustSchema(name string) string {
	data, err := schemaFiles.ReadFile(name + ".schema.json")
	if err != nil {
		panic(fmt.Sprintf("embedded schema %q not found: %v", name, err))
	}
	return string(data)
}

// Validate validates JSON content against the named embedded schema.
// Returns *ValidationError on contract violations, *SchemaLoadError when the
// schema itself cannot be processed, nil when the document conforms.
func Validate(name, jsonContent string) error {
	return ValidateJSONString(MustSchema(name), jsonContent)
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaContent)
	documentLoader := gojsonschema.NewStringLoader(jsonContent)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Name:    "(string schema)",
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}

	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}
