package friendzone

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport wraps network-level failures (connection refused, timeouts).
	ErrTransport = errors.New("friendzone: transport failure")
	// ErrMalformed marks responses that do not match the expected schema.
	ErrMalformed = errors.New("friendzone: malformed response")
	// ErrUnauthenticated is returned when no bearer token is available.
	ErrUnauthenticated = errors.New("friendzone: missing bearer token")
)

// APIError is a non-2xx or success:false response carrying the server's message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("friendzone: api error (status %d)", e.Status)
	}
	return fmt.Sprintf("friendzone: %s (status %d)", e.Message, e.Status)
}

// MessageOf extracts the user-facing message from an API error, falling back to fallback.
func MessageOf(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
