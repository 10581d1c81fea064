package cpu

import (
	"fmt"

	"github.com/x448/float16"

	"github.com/munir2200963/edge-labs/internal/tensor"
)

// Cast converts a tensor to a different data type. Float16 round-trips go
// through the IEEE 754 half-precision encoding.
func (cpu *CPUBackend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if x.DType() == dtype {
		return x.Clone()
	}

	result, err := tensor.NewRaw(x.Shape(), dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("cast: %v", err))
	}

	// Widen the source to float64, then narrow to the target.
	src := make([]float64, x.NumElements())
	switch x.DType() {
	case tensor.Float32:
		for i, v := range x.AsFloat32() {
			src[i] = float64(v)
		}
	case tensor.Float16:
		for i, v := range x.AsFloat16() {
			src[i] = float64(v.Float32())
		}
	case tensor.Int32:
		for i, v := range x.AsInt32() {
			src[i] = float64(v)
		}
	case tensor.Int64:
		for i, v := range x.AsInt64() {
			src[i] = float64(v)
		}
	case tensor.Int8:
		for i, v := range x.AsInt8() {
			src[i] = float64(v)
		}
	case tensor.Uint8:
		for i, v := range x.AsUint8() {
			src[i] = float64(v)
		}
	default:
		panic(fmt.Sprintf("cast: unsupported source dtype %s", x.DType()))
	}

	switch dtype {
	case tensor.Float32:
		dst := result.AsFloat32()
		for i, v := range src {
			dst[i] = float32(v)
		}
	case tensor.Float16:
		dst := result.AsFloat16()
		for i, v := range src {
			dst[i] = float16.Fromfloat32(float32(v))
		}
	case tensor.Int32:
		dst := result.AsInt32()
		for i, v := range src {
			dst[i] = int32(v)
		}
	case tensor.Int64:
		dst := result.AsInt64()
		for i, v := range src {
			dst[i] = int64(v)
		}
	case tensor.Int8:
		dst := result.AsInt8()
		for i, v := range src {
			dst[i] = int8(v)
		}
	case tensor.Uint8:
		dst := result.AsUint8()
		for i, v := range src {
			dst[i] = uint8(v)
		}
	default:
		panic(fmt.Sprintf("cast: unsupported target dtype %s", dtype))
	}

	return result
}
