package rpcpost

import (
	"github.com/dogmatiq/rpcpost/internal/jsonx"
)

// UnmarshalOption is an option that changes the behavior of JSON unmarshaling.
type UnmarshalOption = jsonx.UnmarshalOption

// AllowUnknownFields is an UnmarshalOption that controls whether results and
// responses may contain unknown fields.
//
// Unknown fields are disallowed by default.
func AllowUnknownFields(allow bool) UnmarshalOption {
	return func(opts *jsonx.UnmarshalOptions) {
		opts.AllowUnknownFields = allow
	}
}
