package fetch

import (
	"errors"
	"fmt"
)

// Kind classifies why a load failed. The set is closed.
type Kind int

const (
	KindUnknown   Kind = iota
	KindTransport      // request sent, no response received
	KindServer         // response received with a non-2xx status
	KindSetup          // request could not be built or sent
	KindMalformed      // body is not a JSON array of products
)

// String returns a short name for logs.
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindServer:
		return "server"
	case KindSetup:
		return "setup"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// FetchError is the only error type a Source returns.
type FetchError struct {
	Kind       Kind
	StatusCode int    // KindServer only
	Status     string // KindServer only, e.g. "500 Internal Server Error"
	Err        error
}

// Message is the single user-visible string for the failure.
func (e *FetchError) Message() string {
	switch e.Kind {
	case KindServer:
		return fmt.Sprintf("Server responded with status code %d: %s", e.StatusCode, e.Status)
	case KindTransport:
		return "The request was made but no response was received"
	case KindSetup:
		return "An error occurred while setting up the request"
	case KindMalformed:
		return "Unexpected response format"
	case KindUnknown:
		return "An unexpected error occurred"
	}
	return "An unexpected error occurred"
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return e.Message()
	}
	return fmt.Sprintf("%s: %v", e.Message(), e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Classify converts any error into a *FetchError. Errors that already are
// one (anywhere in the chain) keep their kind; everything else is unknown.
// A nil error yields nil.
func Classify(err error) *FetchError {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return &FetchError{Kind: KindUnknown, Err: err}
}

func transportError(err error) *FetchError {
	return &FetchError{Kind: KindTransport, Err: err}
}

func setupError(err error) *FetchError {
	return &FetchError{Kind: KindSetup, Err: err}
}

func malformedError(err error) *FetchError {
	return &FetchError{Kind: KindMalformed, Err: err}
}

func serverError(code int, status string) *FetchError {
	return &FetchError{Kind: KindServer, StatusCode: code, Status: status}
}
