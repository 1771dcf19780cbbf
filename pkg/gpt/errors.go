package gpt

import (
	"errors"
	"fmt"
)

// ErrAPI matches every *APIError. It is the retryable error kind for
// generation calls.
var ErrAPI = errors.New("gpt api error")

// APIError reports a failed request to a generation engine. Body holds the
// raw upstream response when one was received.
type APIError struct {
	Engine     string
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("Encountered the following error while sending an API request to %s: %v", e.Engine, e.Err)
	default:
		return fmt.Sprintf("Encountered the following error while sending an API request to %s: Error Code: %d Error message: %s",
			e.Engine, e.StatusCode, e.Body)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Is(target error) bool { return target == ErrAPI }

// Kind is the identifier reported in error_type columns.
func (e *APIError) Kind() string { return "gpt.APIError" }
