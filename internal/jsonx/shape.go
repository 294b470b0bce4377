package jsonx

// Shape is the type of the top-level value in a JSON document.
type Shape int

const (
	// Invalid indicates that the document can not possibly be valid JSON.
	Invalid Shape = iota

	// Object indicates that the top-level value is a JSON object.
	Object

	// Array indicates that the top-level value is a JSON array.
	Array

	// Scalar indicates that the top-level value is a string, number, boolean
	// or null.
	Scalar
)

// ShapeOf returns the shape of the JSON document in data.
//
// Only the first non-whitespace byte is inspected; the document is not
// validated. A document that ShapeOf reports as an object may still fail to
// unmarshal.
func ShapeOf(data []byte) Shape {
	for _, c := range data {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return Object
		case '[':
			return Array
		case '"', '-', 't', 'f', 'n',
			'0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			return Scalar
		default:
			return Invalid
		}
	}

	return Invalid
}

func (s Shape) String() string {
	switch s {
	case Object:
		return "object"
	case Array:
		return "array"
	case Scalar:
		return "scalar"
	default:
		return "invalid"
	}
}
