package rpcpost

import "fmt"

// ErrorCode is a JSON-RPC error code.
//
// As per the JSON-RPC specification, the error codes from and including -32768
// to -32000 are reserved for pre-defined errors.
type ErrorCode int

const (
	// ParseErrorCode indicates that the server failed to parse the request.
	ParseErrorCode ErrorCode = -32700

	// InvalidRequestCode indicates that the request was well-formed JSON but
	// not a valid JSON-RPC request.
	InvalidRequestCode ErrorCode = -32600

	// MethodNotFoundCode indicates that the requested method does not exist.
	MethodNotFoundCode ErrorCode = -32601

	// InvalidParametersCode indicates that the request contained malformed or
	// invalid parameters.
	InvalidParametersCode ErrorCode = -32602

	// InternalErrorCode indicates that some other error condition was raised
	// within the RPC server.
	InternalErrorCode ErrorCode = -32603
)

// IsReserved returns true if c falls within the range of error codes reserved
// for pre-defined errors.
func (c ErrorCode) IsReserved() bool {
	return c >= -32768 && c <= -32000
}

// IsServerError returns true if c falls within the range that JSON-RPC
// reserves for implementation-defined server errors.
func (c ErrorCode) IsServerError() bool {
	return c >= -32099 && c <= -32000
}

// IsPredefined returns true if c is an error code defined by the JSON-RPC
// specification.
func (c ErrorCode) IsPredefined() bool {
	switch c {
	case ParseErrorCode,
		InvalidRequestCode,
		MethodNotFoundCode,
		InvalidParametersCode,
		InternalErrorCode:
		return true
	default:
		return false
	}
}

// String returns a brief description of the error.
func (c ErrorCode) String() string {
	switch c {
	case ParseErrorCode:
		return "parse error"
	case InvalidRequestCode:
		return "invalid request"
	case MethodNotFoundCode:
		return "method not found"
	case InvalidParametersCode:
		return "invalid parameters"
	case InternalErrorCode:
		return "internal server error"
	}

	if c.IsServerError() {
		return "server error"
	}

	if c.IsReserved() {
		return "undefined reserved error"
	}

	return "unknown error"
}

// describeError returns a short string containing the most useful information
// from an error code and a message.
func describeError(code ErrorCode, message string) string {
	if message == "" || message == code.String() {
		return fmt.Sprintf("[%d] %s", code, code)
	}

	if code.IsPredefined() {
		return fmt.Sprintf("[%d] %s: %s", code, code, message)
	}

	// The description of a code that is not predefined is meaningless, so only
	// the message is shown.
	return fmt.Sprintf("[%d] %s", code, message)
}
