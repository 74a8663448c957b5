package seek

import "fmt"

// ValidationError reports unusable user-supplied search input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid search input %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid search input: %s", e.Message)
}

// ExtractionError reports that a page could not be parsed at all. Individual
// malformed job cards never raise this; they are skipped and logged.
type ExtractionError struct {
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("listing extraction error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("listing extraction error: %s", e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
