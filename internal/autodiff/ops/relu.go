package ops

import "github.com/munir2200963/edge-labs/internal/tensor"

// ReLUOp records output = max(input, 0).
//
// The gradient passes through where the input was positive and is zero
// elsewhere.
type ReLUOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewReLUOp creates a new ReLUOp.
func NewReLUOp(input, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{inputs: []*tensor.RawTensor{input}, output: output}
}

func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	input := op.inputs[0]
	grad := outputGrad.Clone()
	inData := input.AsFloat32()
	gData := grad.AsFloat32()
	for i, v := range inData {
		if v <= 0 {
			gData[i] = 0
		}
	}
	return []*tensor.RawTensor{grad}
}

func (op *ReLUOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *ReLUOp) Output() *tensor.RawTensor   { return op.output }
