package jsonx

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// errTrailingData is returned when a JSON value is followed by anything other
// than whitespace.
var errTrailingData = errors.New("json: unexpected data after top-level value")

// Decode unmarshals JSON content from r into v.
//
// r must contain exactly one JSON value.
func Decode[O ~UnmarshalOption](
	r io.Reader,
	v any,
	options ...O,
) error {
	var opts UnmarshalOptions
	for _, fn := range options {
		fn(&opts)
	}

	dec := json.NewDecoder(r)
	if !opts.AllowUnknownFields {
		dec.DisallowUnknownFields()
	}

	if err := dec.Decode(v); err != nil {
		return err
	}

	if _, err := dec.Token(); err != io.EOF {
		return errTrailingData
	}

	return nil
}

// Unmarshal unmarshals JSON content from data into v.
func Unmarshal[O ~UnmarshalOption](
	data []byte,
	v any,
	options ...O,
) error {
	return Decode(
		bytes.NewReader(data),
		v,
		options...,
	)
}

// UnmarshalOptions is a set of options that control how JSON is unmarshaled.
type UnmarshalOptions struct {
	AllowUnknownFields bool
}

// UnmarshalOption is a function that changes the behavior of JSON unmarshaling.
type UnmarshalOption = func(*UnmarshalOptions)
