package cpu

import (
	"fmt"
	"math"

	"github.com/munir2200963/edge-labs/internal/tensor"
)

// Sum computes the total sum as a single-element tensor.
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, cpu.device)
	if err != nil {
		panic(err)
	}

	var sum float64
	for _, v := range x.AsFloat32() {
		sum += float64(v)
	}
	result.AsFloat32()[0] = float32(sum)
	return result
}

// SumDim sums along a dimension.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceDim(x, dim, keepDim, false)
}

// MeanDim averages along a dimension.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceDim(x, dim, keepDim, true)
}

func (cpu *CPUBackend) reduceDim(x *tensor.RawTensor, dim int, keepDim, mean bool) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("reduce: invalid dim %d for shape %v", dim, shape))
	}

	outShape := reducedShape(shape, dim, keepDim)
	result, err := tensor.NewRaw(outShape, tensor.Float32, cpu.device)
	if err != nil {
		panic(err)
	}

	in, out := x.AsFloat32(), result.AsFloat32()
	outer, size, inner := splitDim(shape, dim)
	for o := 0; o < outer; o++ {
		for j := 0; j < inner; j++ {
			var sum float64
			for i := 0; i < size; i++ {
				sum += float64(in[(o*size+i)*inner+j])
			}
			if mean {
				sum /= float64(size)
			}
			out[o*inner+j] = float32(sum)
		}
	}

	return result
}

// Argmax returns the int32 index of the maximum value along a dimension.
// Ties resolve to the lowest index, which keeps evaluation deterministic.
func (cpu *CPUBackend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}

	outShape := reducedShape(shape, dim, false)
	result, err := tensor.NewRaw(outShape, tensor.Int32, cpu.device)
	if err != nil {
		panic(err)
	}

	in, out := x.AsFloat32(), result.AsInt32()
	outer, size, inner := splitDim(shape, dim)
	for o := 0; o < outer; o++ {
		for j := 0; j < inner; j++ {
			maxVal := float32(math.Inf(-1))
			maxIdx := int32(0)
			for i := 0; i < size; i++ {
				if v := in[(o*size+i)*inner+j]; v > maxVal {
					maxVal = v
					maxIdx = int32(i)
				}
			}
			out[o*inner+j] = maxIdx
		}
	}

	return result
}

func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	if keepDim {
		out := shape.Clone()
		out[dim] = 1
		return out
	}
	out := make(tensor.Shape, 0, len(shape)-1)
	for i, d := range shape {
		if i != dim {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		out = tensor.Shape{1}
	}
	return out
}
