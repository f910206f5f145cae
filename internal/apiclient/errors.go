package apiclient

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned after a 401. The session has already been
// invalidated when the caller sees it.
var ErrUnauthorized = errors.New("Unauthorized")

// RequestError is a non-2xx response other than 401.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return e.Message
}

const networkErrorMessage = "Network error"

// TransportError covers failures below the API contract: the request never
// got a response, or a success response could not be decoded.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return networkErrorMessage
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// Message returns the text to show a user for an error returned by any API
// call, without the wrapping context added on the way up.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrUnauthorized) {
		return ErrUnauthorized.Error()
	}
	var re *RequestError
	if errors.As(err, &re) {
		return re.Message
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Error()
	}
	return err.Error()
}

func statusMessage(code int, text string) string {
	if text != "" {
		return text
	}
	return fmt.Sprintf("Error: %d", code)
}
