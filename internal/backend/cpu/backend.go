// Package cpu implements the pure-Go CPU backend.
package cpu

import (
	"fmt"

	"github.com/munir2200963/edge-labs/internal/tensor"
)

// CPUBackend implements tensor operations on the CPU. All kernels operate
// on float32; quantized int8 arithmetic lives in internal/quant, which
// works on raw buffers directly.
type CPUBackend struct {
	device tensor.Device
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{device: tensor.CPU}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("add", a, b, func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("sub", a, b, func(x, y float32) float32 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("mul", a, b, func(x, y float32) float32 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("div", a, b, func(x, y float32) float32 { return x / y })
}

// binaryOp applies op element-wise with broadcasting. Same-shape inputs
// take a vectorizable fast path.
func (cpu *CPUBackend) binaryOp(name string, a, b *tensor.RawTensor, op func(x, y float32) float32) *tensor.RawTensor {
	if a.DType() != tensor.Float32 || b.DType() != tensor.Float32 {
		panic(fmt.Sprintf("%s: unsupported dtypes %s, %s (float32 kernels only)", name, a.DType(), b.DType()))
	}

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result, err := tensor.NewRaw(outShape, tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	aData, bData, outData := a.AsFloat32(), b.AsFloat32(), result.AsFloat32()

	if !needsBroadcast {
		for i := range outData {
			outData[i] = op(aData[i], bData[i])
		}
		return result
	}

	// General broadcast path: map every output index back to the source
	// offsets of both inputs.
	aIdx := newBroadcastIndexer(a.Shape(), outShape)
	bIdx := newBroadcastIndexer(b.Shape(), outShape)
	for i := range outData {
		outData[i] = op(aData[aIdx.offset(i)], bData[bIdx.offset(i)])
	}
	return result
}

// broadcastIndexer maps flat indices in the broadcast output shape to flat
// indices in a source shape, treating size-1 source dimensions as stride 0.
type broadcastIndexer struct {
	outStrides []int
	srcStrides []int
}

func newBroadcastIndexer(src, out tensor.Shape) *broadcastIndexer {
	outStrides := out.ComputeStrides()
	srcStrides := make([]int, len(out))
	realStrides := src.ComputeStrides()
	pad := len(out) - len(src)
	for i := range out {
		if i < pad {
			continue // missing dimension, stride 0
		}
		if src[i-pad] == 1 && out[i] != 1 {
			continue // broadcast dimension, stride 0
		}
		srcStrides[i] = realStrides[i-pad]
	}
	return &broadcastIndexer{outStrides: outStrides, srcStrides: srcStrides}
}

func (bi *broadcastIndexer) offset(flat int) int {
	off := 0
	for d := range bi.outStrides {
		coord := flat / bi.outStrides[d]
		flat -= coord * bi.outStrides[d]
		off += coord * bi.srcStrides[d]
	}
	return off
}
