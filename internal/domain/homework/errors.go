// internal/domain/homework/errors.go
package homework

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the poll loop can decide how to report it
// without inspecting concrete error types itself.
type Kind string

const (
	KindConfiguration  Kind = "configuration"
	KindTransport      Kind = "transport"
	KindRemote         Kind = "remote"
	KindShape          Kind = "shape"
	KindEmptyResult    Kind = "empty_result"
	KindUnknownVerdict Kind = "unknown_verdict"
	KindDelivery       Kind = "delivery"
	KindUnknown        Kind = "unknown"
)

// Classified is implemented by every error kind defined in this package and
// by config.ConfigurationError.
type Classified interface {
	error
	Kind() Kind
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var c Classified
	if errors.As(err, &c) {
		return c.Kind()
	}
	return KindUnknown
}

// TransportError is a network-level failure talking to the status endpoint:
// DNS, refused connection, timeout.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("status endpoint is unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
func (e *TransportError) Kind() Kind    { return KindTransport }

// RemoteError means the endpoint answered with a non-200 status code.
type RemoteError struct {
	StatusCode int
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("unexpected status code in response: %d", e.StatusCode)
}

func (e *RemoteError) Kind() Kind { return KindRemote }

// ShapeError means the response body does not have the expected structure.
type ShapeError struct {
	Reason string
}

func (e *ShapeError) Error() string {
	return "unexpected response from the status endpoint: " + e.Reason
}

func (e *ShapeError) Kind() Kind { return KindShape }

// EmptyResultError means the response was well formed but listed no homeworks.
type EmptyResultError struct{}

func (e *EmptyResultError) Error() string {
	return "no homeworks found in the response"
}

func (e *EmptyResultError) Kind() Kind { return KindEmptyResult }

// UnknownVerdictError reports a status value missing from Verdicts.
type UnknownVerdictError struct {
	Status string
}

func (e *UnknownVerdictError) Error() string {
	return fmt.Sprintf("unknown homework status %q", e.Status)
}

func (e *UnknownVerdictError) Kind() Kind { return KindUnknownVerdict }

// DeliveryError wraps a failure of the messaging channel.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver notification: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
func (e *DeliveryError) Kind() Kind    { return KindDelivery }
