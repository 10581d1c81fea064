package ops

import "github.com/munir2200963/edge-labs/internal/tensor"

// FakeQuantOp records output = dequantize(quantize(input)) with a
// straight-through estimator backward pass.
//
// passMask marks the elements whose quantized value landed inside
// [qmin, qmax] before clamping. The gradient passes through unchanged for
// those elements and is zeroed for saturated ones.
type FakeQuantOp struct {
	inputs   []*tensor.RawTensor
	output   *tensor.RawTensor
	passMask []bool
}

// NewFakeQuantOp creates a new FakeQuantOp.
func NewFakeQuantOp(input, output *tensor.RawTensor, passMask []bool) *FakeQuantOp {
	return &FakeQuantOp{inputs: []*tensor.RawTensor{input}, output: output, passMask: passMask}
}

func (op *FakeQuantOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := outputGrad.Clone()
	gData := grad.AsFloat32()
	for i, pass := range op.passMask {
		if !pass {
			gData[i] = 0
		}
	}
	return []*tensor.RawTensor{grad}
}

func (op *FakeQuantOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *FakeQuantOp) Output() *tensor.RawTensor   { return op.output }
