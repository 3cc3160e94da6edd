package protocol

// FieldType is the wire type of a header field. Every value is encoded
// big-endian regardless of host byte order.
type FieldType uint8

const (
	Uint8 FieldType = iota + 1
	Uint16
	Uint32
)

// Width returns the encoded size of the type in bytes, or 0 for an
// unknown type.
func (t FieldType) Width() int {
	switch t {
	case Uint8:
		return 1
	case Uint16:
		return 2
	case Uint32:
		return 4
	default:
		return 0
	}
}

func (t FieldType) String() string {
	switch t {
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	default:
		return "unknown"
	}
}

// Field names one sub-field of a fixed-format header and pins it to a byte
// offset. Optional marks fields a caller may leave unset, such as checksums
// that are computed after the rest of the header is filled in.
type Field struct {
	Key      string
	Type     FieldType
	Offset   int
	Optional bool
}
