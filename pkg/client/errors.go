package client

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when a response body does not have the
// expected shape.
var ErrMalformedResponse = errors.New("client: malformed response")

// APIError is a request the backend rejected with the standard error
// envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error %s (%d): %s", e.Code, e.Status, e.Message)
}

// ValidationError is an input the client refused before sending anything.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsCode reports whether err is an APIError with the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// UserMessage returns the text to show for err: the backend or validation
// message when there is one, fallback otherwise.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) && valErr.Message != "" {
		return valErr.Message
	}
	return fallback
}
