package llm

import "fmt"

// MalformedResponseError indicates the model returned output that could not
// be parsed or validated, even after a retry with stricter instructions.
type MalformedResponseError struct {
	Stage   string // "profile" or "scoring"
	Message string
	Cause   error
}

func (e *MalformedResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed %s response: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("malformed %s response: %s", e.Stage, e.Message)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Cause
}
