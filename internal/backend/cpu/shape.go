package cpu

import (
	"fmt"

	"github.com/munir2200963/edge-labs/internal/tensor"
)

// Reshape returns a tensor with the same data but a different shape.
// The element count must match; the data is copied so the result owns its
// buffer.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: invalid shape: %v", err))
	}
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("reshape: incompatible shapes: %v -> %v", t.Shape(), newShape))
	}

	result, err := tensor.NewRaw(newShape, t.DType(), t.Device())
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	copy(result.Data(), t.Data())
	return result
}

// Transpose permutes the tensor's dimensions. With no axes, all dimensions
// are reversed.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: axes length %d != ndim %d", len(axes), ndim))
	}

	seen := make([]bool, ndim)
	newShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		if ax < 0 || ax >= ndim || seen[ax] {
			panic(fmt.Sprintf("transpose: invalid axes %v for %dD tensor", axes, ndim))
		}
		seen[ax] = true
		newShape[i] = shape[ax]
	}

	result, err := tensor.NewRaw(newShape, tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("transpose: %v", err))
	}

	in, out := t.AsFloat32(), result.AsFloat32()
	inStrides := shape.ComputeStrides()
	outStrides := newShape.ComputeStrides()

	for flat := range out {
		// Decompose the output index and map each coordinate back
		// through the axis permutation.
		srcOff := 0
		rem := flat
		for d := 0; d < ndim; d++ {
			coord := rem / outStrides[d]
			rem -= coord * outStrides[d]
			srcOff += coord * inStrides[axes[d]]
		}
		out[flat] = in[srcOff]
	}

	return result
}
