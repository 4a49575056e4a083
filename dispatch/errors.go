package dispatch

import (
	"errors"
	"fmt"
)

// TransportError wraps a failure that happened before the API produced a
// response: dial errors, timeouts, dropped connections. These are the
// retryable failures; the user may simply try again.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a non-2xx response from the dispatch API. A 4xx means the
// request itself was rejected and retrying without changes is pointless.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: api returned status %d: %s", e.Op, e.StatusCode, e.Body)
}

// IsRetryable reports whether err is worth retrying as-is: transport
// failures and server-side 5xx responses.
func IsRetryable(err error) bool {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return false
}
