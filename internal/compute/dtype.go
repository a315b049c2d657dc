// Package compute defines the device, driver, stream and buffer handles
// shared by every backend, plus the structured errors raised by the
// operation-dispatch layer.
package compute

// DataType represents runtime element-type information for buffers.
type DataType int

// Supported element types.
const (
	Float16 DataType = iota
	Float32
	Float64
	Int32
	Int64
	Uint8
)

// Size returns the byte size of one element of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float16:
		return 2
	case Float32, Int32:
		return 4
	case Float64, Int64:
		return 8
	case Uint8:
		return 1
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float16:
		return "float16"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	default:
		return "unknown"
	}
}

// IsFloat reports whether dt is a full-precision float type (float32 or
// float64). BLAS and batch-normalization entry points require one of these;
// Float16 is a storage format, not a compute format.
func (dt DataType) IsFloat() bool {
	return dt == Float32 || dt == Float64
}
