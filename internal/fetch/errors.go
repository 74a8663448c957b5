package fetch

import "fmt"

// Error represents a failed fetch after the retry budget is exhausted, or
// an immediate non-retryable failure. It carries the URL and attempt count
// so callers can report what to retry without exposing request identity.
type Error struct {
	URL       string
	Attempts  int
	Message   string
	Cause     error
	Retryable bool
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("fetch failed for %s after %d attempt(s): %s", e.URL, e.Attempts, e.Message)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// RateLimitedError signals that the source responded 429 on the final
// attempt. It is distinct from Error so callers can back off session-wide.
type RateLimitedError struct {
	URL      string
	Attempts int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited by source for %s after %d attempt(s)", e.URL, e.Attempts)
}
