package rpcpost

import (
	"context"
	"fmt"
	"strings"
)

// Transport moves JSON-RPC requests to a server and returns the server's
// responses.
//
// A transport does not interpret the JSON-RPC semantics of the messages it
// carries; matching responses to requests and handling JSON-RPC errors is the
// responsibility of the Client.
//
// Implementations must be safe for concurrent use.
type Transport interface {
	// SendRequest sends a single request and returns the server's response.
	SendRequest(ctx context.Context, req Request) (Response, error)

	// SendBatch sends a batch of requests and returns the server's responses
	// in the order that the server produced them.
	//
	// It returns an error if the number of responses differs from the number
	// of requests. Responses are never reordered.
	SendBatch(ctx context.Context, reqs []Request) ([]Response, error)

	// Target returns a human-readable description of the server endpoint,
	// suitable for use in log messages and errors. It never includes
	// credentials.
	Target() string
}

// ErrorKind is the category of a TransportError.
type ErrorKind int

const (
	// KindInvalidEndpoint indicates that the endpoint URL could not be parsed.
	KindInvalidEndpoint ErrorKind = iota + 1

	// KindSerialization indicates that a request could not be encoded.
	KindSerialization

	// KindTransport indicates a failure of the underlying exchange, such as a
	// connection failure, a timeout or an unexpected HTTP status.
	KindTransport

	// KindDeserialization indicates that the response body was not valid JSON
	// or did not have the expected shape.
	KindDeserialization
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidEndpoint:
		return "invalid endpoint"
	case KindSerialization:
		return "serialization"
	case KindTransport:
		return "transport"
	case KindDeserialization:
		return "deserialization"
	default:
		return fmt.Sprintf("unknown (%d)", int(k))
	}
}

// TransportError is an error produced by a Transport.
//
// Use errors.Is() with ErrInvalidEndpoint, ErrSerialization, ErrTransport or
// ErrDeserialization to test for a specific kind.
type TransportError struct {
	// Kind is the category of the error.
	Kind ErrorKind

	// Target describes the endpoint involved, if known.
	Target string

	// StatusCode is the HTTP status code of the response, if one was received.
	StatusCode int

	// IsTimeout is true if the exchange was aborted because its deadline was
	// exceeded.
	IsTimeout bool

	// Cause is the underlying error, if any.
	Cause error
}

var (
	// ErrInvalidEndpoint matches any TransportError of kind KindInvalidEndpoint.
	ErrInvalidEndpoint = &TransportError{Kind: KindInvalidEndpoint}

	// ErrSerialization matches any TransportError of kind KindSerialization.
	ErrSerialization = &TransportError{Kind: KindSerialization}

	// ErrTransport matches any TransportError of kind KindTransport.
	ErrTransport = &TransportError{Kind: KindTransport}

	// ErrDeserialization matches any TransportError of kind
	// KindDeserialization.
	ErrDeserialization = &TransportError{Kind: KindDeserialization}
)

// Error returns a description of the error.
func (e *TransportError) Error() string {
	var w strings.Builder

	w.WriteString(e.Kind.String())
	w.WriteString(" error")

	if e.Target != "" {
		w.WriteString(" (")
		w.WriteString(e.Target)
		w.WriteString(")")
	}

	if e.IsTimeout {
		w.WriteString(": deadline exceeded")
	}

	if e.StatusCode != 0 {
		fmt.Fprintf(&w, ": unexpected HTTP status %d", e.StatusCode)
	}

	if e.Cause != nil {
		w.WriteString(": ")
		w.WriteString(e.Cause.Error())
	}

	return w.String()
}

// Unwrap returns the cause of e, if known.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// Is returns true if target is one of the sentinel errors for e's kind.
func (e *TransportError) Is(target error) bool {
	switch target {
	case ErrInvalidEndpoint,
		ErrSerialization,
		ErrTransport,
		ErrDeserialization:
		return target.(*TransportError).Kind == e.Kind
	default:
		return false
	}
}

// Timeout returns true if the exchange was aborted because its deadline was
// exceeded.
//
// It allows TransportError to be inspected using the same interface as
// net.Error.
func (e *TransportError) Timeout() bool {
	return e.IsTimeout
}
