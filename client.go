package rpcpost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
)

// Client is a JSON-RPC client that sends requests using a Transport.
//
// It is responsible for the JSON-RPC semantics that a Transport ignores:
// generating request IDs, checking that responses carry the expected IDs and
// converting JSON-RPC error responses into Go errors.
type Client struct {
	transport        Transport
	ids              RequestIDGenerator
	unmarshalOptions []UnmarshalOption
}

// ClientOption is an option that changes the behavior of a Client.
type ClientOption func(*Client)

// WithRequestIDs is a ClientOption that sets the generator used to produce
// request IDs.
//
// By default, IDs are sequential integers starting at 1.
func WithRequestIDs(g RequestIDGenerator) ClientOption {
	return func(c *Client) {
		c.ids = g
	}
}

// WithUnmarshalOptions is a ClientOption that sets the options used when
// unmarshaling result values.
func WithUnmarshalOptions(options ...UnmarshalOption) ClientOption {
	return func(c *Client) {
		c.unmarshalOptions = options
	}
}

// NewClient returns a new client that uses t to send requests.
func NewClient(t Transport, options ...ClientOption) *Client {
	c := &Client{
		transport: t,
	}

	for _, opt := range options {
		opt(c)
	}

	if c.ids == nil {
		c.ids = &SequentialRequestIDs{}
	}

	return c
}

// Transport returns the transport used by the client.
func (c *Client) Transport() Transport {
	return c.transport
}

// Target returns a human-readable description of the server endpoint.
func (c *Client) Target() string {
	return c.transport.Target()
}

// Call invokes a JSON-RPC method.
//
// params is marshaled to JSON; it must be an array, slice, struct, map or nil.
// result must be a non-nil pointer into which the result value is unmarshaled.
//
// If the server responds with a JSON-RPC error, it returns an *Error.
func (c *Client) Call(
	ctx context.Context,
	method string,
	params, result any,
) error {
	if !validateResultParameter(result) {
		panic(fmt.Sprintf(
			"unable to call JSON-RPC method (%s): result must be a non-nil pointer",
			method,
		))
	}

	req, err := c.newRequest(method, params)
	if err != nil {
		return fmt.Errorf("unable to call JSON-RPC method (%s): %w", method, err)
	}

	res, err := c.transport.SendRequest(ctx, req)
	if err != nil {
		return fmt.Errorf("unable to call JSON-RPC method (%s): %w", method, err)
	}

	if err := c.processResponse(req, res, result); err != nil {
		return fmt.Errorf("unable to process JSON-RPC response (%s): %w", method, err)
	}

	return nil
}

// BatchCall is a single JSON-RPC method invocation within a batch.
type BatchCall struct {
	// Method is the name of the method to invoke.
	Method string

	// Params is the parameter value, it is marshaled to JSON.
	Params any

	// Result is a non-nil pointer into which the result value is unmarshaled.
	Result any

	// Err is populated by Client.Batch() if this specific call failed, for
	// example if the server produced a JSON-RPC error in response.
	Err error
}

// Batch invokes several JSON-RPC methods using a single batch request.
//
// Responses are correlated with calls by their position in the batch. The
// returned error is non-nil if the batch as a whole failed. Otherwise, the
// outcome of each call is available in its Err field.
func (c *Client) Batch(ctx context.Context, calls ...*BatchCall) error {
	if len(calls) == 0 {
		panic("unable to send JSON-RPC batch: batches must contain at least one request")
	}

	reqs := make([]Request, len(calls))

	for i, call := range calls {
		if !validateResultParameter(call.Result) {
			panic(fmt.Sprintf(
				"unable to send JSON-RPC batch: call #%d (%s): result must be a non-nil pointer",
				i,
				call.Method,
			))
		}

		req, err := c.newRequest(call.Method, call.Params)
		if err != nil {
			return fmt.Errorf("unable to send JSON-RPC batch: call #%d (%s): %w", i, call.Method, err)
		}

		reqs[i] = req
	}

	responses, err := c.transport.SendBatch(ctx, reqs)
	if err != nil {
		return fmt.Errorf("unable to send JSON-RPC batch: %w", err)
	}

	if len(responses) != len(reqs) {
		return fmt.Errorf(
			"unable to process JSON-RPC batch response: expected %d responses, got %d",
			len(reqs),
			len(responses),
		)
	}

	// No results are delivered unless every ID matches its position.
	for i, res := range responses {
		if !isNullID(res.RequestID) && !sameID(res.RequestID, reqs[i].ID) {
			return fmt.Errorf(
				"unable to process JSON-RPC batch response: request ID in response #%d (%s) does not match the actual request ID (%s)",
				i,
				res.RequestID,
				reqs[i].ID,
			)
		}
	}

	for i, call := range calls {
		call.Err = c.processResponse(reqs[i], responses[i], call.Result)
	}

	return nil
}

// newRequest builds and validates a call request.
func (c *Client) newRequest(method string, params any) (Request, error) {
	req, err := NewCallRequest(
		c.ids.NextRequestID(),
		method,
		params,
	)
	if err != nil {
		return Request{}, &TransportError{
			Kind:   KindSerialization,
			Target: c.transport.Target(),
			Cause:  err,
		}
	}

	if err := req.ValidateClientSide(); err != nil {
		panic(fmt.Sprintf(
			"unable to call JSON-RPC method (%s): %s",
			method,
			err.Message(),
		))
	}

	return req, nil
}

// processResponse checks that res is the response to req and unmarshals its
// result into result.
func (c *Client) processResponse(req Request, res Response, result any) error {
	if res.Error != nil && isNullID(res.RequestID) {
		// The server could not determine the request ID, typically because it
		// could not parse the request.
		return res.Err()
	}

	if !sameID(res.RequestID, req.ID) {
		return fmt.Errorf(
			"request ID in response (%s) does not match the actual request ID (%s)",
			res.RequestID,
			req.ID,
		)
	}

	if res.Error != nil {
		return res.Err()
	}

	if err := res.UnmarshalResult(result, c.unmarshalOptions...); err != nil {
		return fmt.Errorf("unable to unmarshal result: %w", err)
	}

	return nil
}

// sameID returns true if a and b are the same JSON request ID.
func sameID(a, b json.RawMessage) bool {
	var ca, cb bytes.Buffer

	if err := json.Compact(&ca, a); err != nil {
		return false
	}

	if err := json.Compact(&cb, b); err != nil {
		return false
	}

	return bytes.Equal(ca.Bytes(), cb.Bytes())
}

// isNullID returns true if id is absent or the JSON null literal.
func isNullID(id json.RawMessage) bool {
	return len(bytes.TrimSpace(id)) == 0 || bytes.Equal(bytes.TrimSpace(id), []byte(`null`))
}

// validateResultParameter returns true if v is a valid variable into which a
// JSON-RPC result value can be written.
func validateResultParameter(v any) bool {
	if v == nil {
		return false
	}

	rv := reflect.ValueOf(v)

	return rv.Kind() == reflect.Ptr && !rv.IsNil()
}
