package ops

import "github.com/munir2200963/edge-labs/internal/tensor"

// MaxPool2DOp records output = maxpool2d(input, kernelSize, stride).
//
// maxIndices holds, for every output element, the flat input index of the
// element that won the max. The backward pass scatters the output gradient
// to those positions; every other input position receives zero gradient.
type MaxPool2DOp struct {
	inputs     []*tensor.RawTensor
	output     *tensor.RawTensor
	maxIndices []int
	kernelSize int
	stride     int
}

// NewMaxPool2DOp creates a new MaxPool2DOp.
func NewMaxPool2DOp(input, output *tensor.RawTensor, maxIndices []int, kernelSize, stride int) *MaxPool2DOp {
	return &MaxPool2DOp{
		inputs:     []*tensor.RawTensor{input},
		output:     output,
		maxIndices: maxIndices,
		kernelSize: kernelSize,
		stride:     stride,
	}
}

func (op *MaxPool2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	input := op.inputs[0]
	gradInput := backend.MaxPool2DBackward(input, outputGrad, op.maxIndices, op.kernelSize, op.stride)
	return []*tensor.RawTensor{gradInput}
}

func (op *MaxPool2DOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *MaxPool2DOp) Output() *tensor.RawTensor   { return op.output }
