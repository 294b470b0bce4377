package jsonx_test

import (
	"strings"

	. "github.com/dogmatiq/rpcpost/internal/jsonx"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = DescribeTable(
	"func ShapeOf()",
	func(data string, expect Shape) {
		Expect(ShapeOf([]byte(data))).To(Equal(expect))
	},
	Entry("object", `{"a":1}`, Object),
	Entry("object with whitespace", " \n{}\n", Object),
	Entry("array", `[1,2]`, Array),
	Entry("string", `"x"`, Scalar),
	Entry("number", `1.5`, Scalar),
	Entry("null", `null`, Scalar),
	Entry("boolean", `true`, Scalar),
	Entry("negative number", `-1`, Scalar),
	Entry("empty", ``, Invalid),
	Entry("whitespace only", " \t\r\n", Invalid),
	Entry("bare word", `xyz`, Invalid),
	Entry("closing brace", `}`, Invalid),
	Entry("truncated object", `{"a":`, Object),
	Entry("malformed object", `{not json`, Object),
	Entry("deeply nested array", strings.Repeat("[", 1_000_000), Array),
)

var _ = DescribeTable(
	"func Shape.String()",
	func(s Shape, expect string) {
		Expect(s.String()).To(Equal(expect))
	},
	Entry("object", Object, "object"),
	Entry("array", Array, "array"),
	Entry("scalar", Scalar, "scalar"),
	Entry("invalid", Invalid, "invalid"),
)
