package rpcpost

import (
	"encoding/json"
	"fmt"

	"github.com/dogmatiq/rpcpost/internal/jsonx"
)

// Response encapsulates a JSON-RPC response, whether it indicates a success or
// an error.
//
// Both JSON-RPC 2.0 responses and the older 1.0 form, in which the "result" and
// "error" fields are always present and one of them is null, are accepted.
type Response struct {
	// Version is the JSON-RPC version. It is empty for JSON-RPC 1.0 responses.
	Version string `json:"jsonrpc,omitempty"`

	// RequestID is the ID of the request that produced this response.
	RequestID json.RawMessage `json:"id"`

	// Result is the result value produced in response to the request. It is
	// nil or the JSON null literal if the response indicates an error.
	Result json.RawMessage `json:"result,omitempty"`

	// Error describes the error produced in response to the request. It is nil
	// if the response indicates a success.
	Error *ErrorInfo `json:"error,omitempty"`
}

// IsError returns true if the response describes a JSON-RPC error.
func (r Response) IsError() bool {
	return r.Error != nil
}

// Err returns the JSON-RPC error described by the response, or nil if the
// response indicates a success.
func (r Response) Err() error {
	if r.Error == nil {
		return nil
	}

	return NewClientSideError(
		r.Error.Code,
		r.Error.Message,
		r.Error.Data,
	)
}

// UnmarshalRequestID unmarshals the request ID in the response into v.
func (r Response) UnmarshalRequestID(v any) error {
	return json.Unmarshal(r.RequestID, v)
}

// UnmarshalResult unmarshals the result value into v.
//
// It returns an error if the response describes a JSON-RPC error.
func (r Response) UnmarshalResult(v any, options ...UnmarshalOption) error {
	if r.Error != nil {
		return r.Err()
	}

	if len(r.Result) == 0 {
		return fmt.Errorf("response does not contain a result")
	}

	return jsonx.Unmarshal(r.Result, v, options...)
}

// ErrorInfo describes a JSON-RPC error. It is included in a Response, but it is
// not a Go error.
type ErrorInfo struct {
	Code    ErrorCode       `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e ErrorInfo) String() string {
	return describeError(e.Code, e.Message)
}
