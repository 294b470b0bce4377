package rpcpost

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// JSONRPCVersion is the version that must appear in the "jsonrpc" field of
// JSON-RPC 2.0 requests and responses.
const JSONRPCVersion = "2.0"

// Request encapsulates a JSON-RPC request.
type Request struct {
	// Version is the JSON-RPC version.
	//
	// As per the JSON-RPC specification it MUST be exactly "2.0".
	Version string `json:"jsonrpc"`

	// ID uniquely identifies requests that expect a response, that is RPC calls
	// as opposed to notifications.
	//
	// As per the JSON-RPC specification, it MUST be a JSON string, number, or
	// null value. It SHOULD NOT normally not be null. Numbers SHOULD NOT
	// contain fractional parts.
	//
	// If the ID field itself is nil, the request is a notification.
	ID json.RawMessage `json:"id,omitempty"`

	// Method is the name of the RPC method to be invoked.
	Method string `json:"method"`

	// Parameters holds the parameter values to be used during the invocation of
	// the method.
	//
	// As per the JSON-RPC specification it MUST be a structured value, that is
	// either a JSON array or object.
	Parameters json.RawMessage `json:"params,omitempty"`
}

// NewCallRequest returns a new JSON-RPC "call" request, that is a request
// that expects a response.
//
// params is marshaled to JSON. It returns an error if params can not be
// represented as JSON. It does not validate the resulting request, see
// Request.ValidateClientSide().
func NewCallRequest(
	id json.RawMessage,
	method string,
	params any,
) (Request, error) {
	req := Request{
		Version: JSONRPCVersion,
		ID:      id,
		Method:  method,
	}

	if params != nil {
		var err error
		req.Parameters, err = json.Marshal(params)
		if err != nil {
			return Request{}, fmt.Errorf("unable to marshal request parameters: %w", err)
		}
	}

	return req, nil
}

// IsNotification returns true if r is a notification, as opposed to an RPC call
// that expects a response.
func (r Request) IsNotification() bool {
	return r.ID == nil
}

// ValidateClientSide checks that the request conforms to the JSON-RPC
// specification.
//
// It is intended to be called before sending the request to a server; if the
// request is invalid it returns the error that a server would return upon
// receiving the request. It returns nil if the request is valid.
func (r Request) ValidateClientSide() *Error {
	if r.Version != JSONRPCVersion {
		return NewClientSideError(
			InvalidRequestCode,
			`request version must be "2.0"`,
			nil,
		)
	}

	if len(r.ID) != 0 {
		if err := validateRequestID(r.ID); err != nil {
			return err
		}
	}

	// Validate the type of the parameters without fully unmarshaling them.
	if len(r.Parameters) == 0 {
		return nil
	}

	if bytes.EqualFold(r.Parameters, []byte(`null`)) {
		return nil
	}

	if len(r.Parameters) < 2 || (r.Parameters[0] != '{' && r.Parameters[0] != '[') {
		return NewClientSideError(
			InvalidParametersCode,
			`parameters must be an array, an object, or null`,
			nil,
		)
	}

	return nil
}

// validateRequestID checks that id is a valid request ID according to the
// JSON-RPC specification.
func validateRequestID(id json.RawMessage) *Error {
	var value any
	if err := json.Unmarshal(id, &value); err != nil {
		return NewClientSideError(
			ParseErrorCode,
			err.Error(),
			nil,
		)
	}

	switch value.(type) {
	case string, float64, nil:
		return nil
	default:
		return NewClientSideError(
			InvalidRequestCode,
			`request ID must be a JSON string, number or null`,
			nil,
		)
	}
}
