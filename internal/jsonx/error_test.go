package jsonx_test

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	. "github.com/dogmatiq/rpcpost/internal/jsonx"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = DescribeTable(
	"func IsParseError()",
	func(err error, expect bool) {
		Expect(IsParseError(err)).To(Equal(expect))
	},
	Entry("nil", nil, false),
	Entry("syntax error", json.Unmarshal([]byte(`{`), new(any)), true),
	Entry("type error", json.Unmarshal([]byte(`"x"`), new(int)), true),
	Entry("EOF", io.EOF, true),
	Entry("unexpected EOF", io.ErrUnexpectedEOF, true),
	Entry("unknown field", errors.New(`json: unknown field "x"`), true),
	Entry("other error", errors.New("<error>"), false),
)

var _ = DescribeTable(
	"func IsSyntaxError()",
	func(err error, expect bool) {
		Expect(IsSyntaxError(err)).To(Equal(expect))
	},
	Entry("nil", nil, false),
	Entry("syntax error", json.Unmarshal([]byte(`{`), new(any)), true),
	Entry("nesting too deep", json.Unmarshal([]byte(strings.Repeat("[", 20_000)), new(any)), true),
	Entry("unexpected EOF", io.ErrUnexpectedEOF, true),
	Entry("trailing data", Unmarshal[UnmarshalOption]([]byte(`{} {}`), new(any)), true),
	Entry("type error", json.Unmarshal([]byte(`"x"`), new(int)), false),
	Entry("unknown field", Unmarshal[UnmarshalOption]([]byte(`{"x":1}`), new(struct{})), false),
)
