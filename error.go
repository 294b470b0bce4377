package rpcpost

import (
	"encoding/json"
)

// Error is a Go error that describes a JSON-RPC error returned by a server.
type Error struct {
	code    ErrorCode
	message string
	data    json.RawMessage
}

// NewClientSideError returns a new JSON-RPC error that represents an error
// response received from a server, or an error detected before a request is
// sent.
//
// data is the JSON representation of the user-defined data associated with the
// error, it may be nil.
func NewClientSideError(
	code ErrorCode,
	message string,
	data json.RawMessage,
) *Error {
	return &Error{
		code:    code,
		message: message,
		data:    data,
	}
}

// Code returns the JSON-RPC error code.
func (e *Error) Code() ErrorCode {
	return e.code
}

// Message returns the error message.
func (e *Error) Message() string {
	if e.message != "" {
		return e.message
	}

	return e.code.String()
}

// Data returns the JSON representation of the user-defined data associated
// with the error, or nil if there is none.
func (e *Error) Data() json.RawMessage {
	return e.data
}

// UnmarshalData unmarshals the user-defined data into v.
//
// ok is false if there is no user-defined data associated with the error.
func (e *Error) UnmarshalData(v any) (ok bool, _ error) {
	if len(e.data) == 0 {
		return false, nil
	}

	return true, json.Unmarshal(e.data, v)
}

// Error returns the error message.
func (e *Error) Error() string {
	return describeError(e.code, e.message)
}
