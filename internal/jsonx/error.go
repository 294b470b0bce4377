package jsonx

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// IsParseError returns true if err indicates a JSON parse failure of some kind.
func IsParseError(err error) bool {
	if err == nil {
		return false
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return true
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return true
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	// Some JSON errors do not have distinct types. For example, an unexpected
	// field is reported using the equivalent of:
	//
	//   errors.New(`json: unknown field "<field name>"`)
	return strings.HasPrefix(err.Error(), "json:")
}

// IsSyntaxError returns true if err indicates that the input was not
// well-formed JSON, as opposed to well-formed JSON that does not fit the
// target value.
func IsSyntaxError(err error) bool {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return true
	}

	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, errTrailingData)
}
