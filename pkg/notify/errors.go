package notify

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedDestination means --notify named nothing we can deliver to.
	ErrUnsupportedDestination = errors.New("unsupported notification destination")

	// ErrMissingCredentials indicates a transport is selected but not configured.
	ErrMissingCredentials = errors.New("notification transport not configured")

	// ErrAPIError indicates the remote API accepted the request but rejected the message.
	ErrAPIError = errors.New("notification API error")
)

// HTTPError is returned when a webhook answers with a non-2xx status.
type HTTPError struct {
	Transport  string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s webhook failed: %d, response: %s", e.Transport, e.StatusCode, e.Body)
}

// APIError carries the error code of a WeChat or Telegram response body.
type APIError struct {
	Transport string
	Code      int
	Message   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: %d %s", e.Transport, e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return ErrAPIError
}
