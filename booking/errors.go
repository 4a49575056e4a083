package booking

import (
	"errors"
	"fmt"
)

// ErrSubmissionInFlight guards against a second Book call while one is
// still submitting.
var ErrSubmissionInFlight = errors.New("a booking submission is already in flight")

// ValidationError means a required field is missing. The caller corrects
// the input and retries; nothing was sent to the API.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// ClientProfileNotFoundError means a client-role session has no matching
// entry in the client directory. This surfaces to the user as-is; a
// silent fallback to another client would route the ticket to the wrong
// account.
type ClientProfileNotFoundError struct {
	Email string
}

func (e *ClientProfileNotFoundError) Error() string {
	return fmt.Sprintf("no client profile matches %q", e.Email)
}
