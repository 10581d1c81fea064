// Package tensor provides the core tensor types and operations for edge-labs.
package tensor

import "github.com/x448/float16"

// DType is a constraint for supported tensor data types.
//
// float16.Float16 is an alias-compatible uint16, so ~uint16 admits it.
type DType interface {
	~float32 | ~int32 | ~int64 | ~int8 | ~uint8 | ~uint16
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
//
// Int8 and Uint8 are the quantized storage types (symmetric weights and
// affine activations respectively). Float16 is a half-precision storage
// type used for compact checkpoints.
const (
	Float32 DataType = iota
	Float16
	Int32
	Int64
	Int8
	Uint8
)

// Size returns the byte size of one element of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Int64:
		return 8
	case Float16:
		return 2
	case Int8, Uint8:
		return 1
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float16:
		return "float16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Int8:
		return "int8"
	case Uint8:
		return "uint8"
	default:
		return "unknown"
	}
}

// inferDataType infers DataType from a generic type T.
func inferDataType[T DType](dummy T) DataType {
	switch any(dummy).(type) {
	case float32:
		return Float32
	case float16.Float16, uint16:
		return Float16
	case int32:
		return Int32
	case int64:
		return Int64
	case int8:
		return Int8
	case uint8:
		return Uint8
	default:
		panic("unsupported type")
	}
}
