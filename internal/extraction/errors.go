package extraction

import "fmt"

// ExtractionError indicates that a document's text could not be obtained.
// It is not retryable; the caller must surface it to the user.
type ExtractionError struct {
	Path    string
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to extract text from %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to extract text from %s: %s", e.Path, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
