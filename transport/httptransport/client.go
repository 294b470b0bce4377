package httptransport

import (
	"github.com/dogmatiq/rpcpost"
)

// NewClient returns a JSON-RPC client that sends requests to the server at the
// given URL.
//
// If user is non-empty, HTTP basic authentication is used with the given user
// and password. All other settings use their default values; use a Builder
// for finer control.
func NewClient(
	url, user, password string,
	options ...rpcpost.ClientOption,
) (*rpcpost.Client, error) {
	b, err := NewBuilder().URL(url)
	if err != nil {
		return nil, err
	}

	if user != "" {
		b.Auth(user, password)
	}

	return rpcpost.NewClient(b.Build(), options...), nil
}
