package cpu

import (
	"math"

	"github.com/munir2200963/edge-labs/internal/tensor"
)

// AddScalar adds a scalar to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	return cpu.unaryOp(x, func(v float32) float32 { return v + scalar })
}

// MulScalar multiplies every element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	return cpu.unaryOp(x, func(v float32) float32 { return v * scalar })
}

// Exp computes the element-wise exponential.
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp(x, func(v float32) float32 { return float32(math.Exp(float64(v))) })
}

// Log computes the element-wise natural logarithm.
func (cpu *CPUBackend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp(x, func(v float32) float32 { return float32(math.Log(float64(v))) })
}

// Sqrt computes the element-wise square root.
func (cpu *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp(x, func(v float32) float32 { return float32(math.Sqrt(float64(v))) })
}

// ReLU computes max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp(x, func(v float32) float32 {
		if v > 0 {
			return v
		}
		return 0
	})
}

func (cpu *CPUBackend) unaryOp(x *tensor.RawTensor, op func(float32) float32) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), tensor.Float32, cpu.device)
	if err != nil {
		panic(err)
	}
	in, out := x.AsFloat32(), result.AsFloat32()
	for i, v := range in {
		out[i] = op(v)
	}
	return result
}

// Softmax computes softmax along the given dimension using the max
// subtraction trick for numerical stability.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}

	result, err := tensor.NewRaw(shape, tensor.Float32, cpu.device)
	if err != nil {
		panic(err)
	}

	in, out := x.AsFloat32(), result.AsFloat32()

	outer, size, inner := splitDim(shape, dim)
	for o := 0; o < outer; o++ {
		for in2 := 0; in2 < inner; in2++ {
			base := o*size*inner + in2

			maxVal := float32(math.Inf(-1))
			for i := 0; i < size; i++ {
				if v := in[base+i*inner]; v > maxVal {
					maxVal = v
				}
			}

			var sum float64
			for i := 0; i < size; i++ {
				e := math.Exp(float64(in[base+i*inner] - maxVal))
				out[base+i*inner] = float32(e)
				sum += e
			}

			invSum := float32(1.0 / sum)
			for i := 0; i < size; i++ {
				out[base+i*inner] *= invSum
			}
		}
	}

	return result
}

// splitDim decomposes a shape around dimension dim into (outer, size, inner)
// so flat index = (o*size + i)*inner + j.
func splitDim(shape tensor.Shape, dim int) (outer, size, inner int) {
	outer, size, inner = 1, shape[dim], 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	return outer, size, inner
}
