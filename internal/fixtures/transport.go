package fixtures

import (
	"context"

	"github.com/dogmatiq/rpcpost"
)

// TransportStub is a test implementation of the rpcpost.Transport interface.
//
// By default it behaves like a server that echoes the parameters of each
// request back as its result.
type TransportStub struct {
	SendRequestFunc func(context.Context, rpcpost.Request) (rpcpost.Response, error)
	SendBatchFunc   func(context.Context, []rpcpost.Request) ([]rpcpost.Response, error)
	TargetFunc      func() string
}

var _ rpcpost.Transport = (*TransportStub)(nil)

// SendRequest sends a single request and returns the server's response.
func (s *TransportStub) SendRequest(ctx context.Context, req rpcpost.Request) (rpcpost.Response, error) {
	if s.SendRequestFunc != nil {
		return s.SendRequestFunc(ctx, req)
	}

	return Echo(req), nil
}

// SendBatch sends a batch of requests and returns the server's responses.
func (s *TransportStub) SendBatch(ctx context.Context, reqs []rpcpost.Request) ([]rpcpost.Response, error) {
	if s.SendBatchFunc != nil {
		return s.SendBatchFunc(ctx, reqs)
	}

	responses := make([]rpcpost.Response, len(reqs))
	for i, req := range reqs {
		responses[i] = Echo(req)
	}

	return responses, nil
}

// Target returns a description of the endpoint.
func (s *TransportStub) Target() string {
	if s.TargetFunc != nil {
		return s.TargetFunc()
	}

	return "stub://transport"
}

// Echo returns a success response to req that contains req's parameters as
// its result.
func Echo(req rpcpost.Request) rpcpost.Response {
	result := req.Parameters
	if len(result) == 0 {
		result = []byte(`null`)
	}

	return rpcpost.Response{
		Version:   rpcpost.JSONRPCVersion,
		RequestID: req.ID,
		Result:    result,
	}
}
