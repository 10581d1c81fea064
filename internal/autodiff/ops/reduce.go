package ops

import "github.com/munir2200963/edge-labs/internal/tensor"

// SumOp records output = sum(input) over every element.
//
// The scalar gradient broadcasts back to every input position.
type SumOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewSumOp creates a new SumOp.
func NewSumOp(input, output *tensor.RawTensor) *SumOp {
	return &SumOp{inputs: []*tensor.RawTensor{input}, output: output}
}

func (op *SumOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	input := op.inputs[0]
	grad := tensor.MustRaw(input.Shape(), tensor.Float32, input.Device())
	g := outputGrad.AsFloat32()[0]
	data := grad.AsFloat32()
	for i := range data {
		data[i] = g
	}
	return []*tensor.RawTensor{grad}
}

func (op *SumOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *SumOp) Output() *tensor.RawTensor   { return op.output }

// SumDimOp records output = sum(input, dim).
//
// The gradient expands back along the reduced dimension.
type SumDimOp struct {
	inputs  []*tensor.RawTensor
	output  *tensor.RawTensor
	dim     int
	keepDim bool
}

// NewSumDimOp creates a new SumDimOp. dim must already be normalized to a
// non-negative axis.
func NewSumDimOp(input, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	return &SumDimOp{inputs: []*tensor.RawTensor{input}, output: output, dim: dim, keepDim: keepDim}
}

func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	input := op.inputs[0]
	inShape := input.Shape()

	// View the gradient with the reduced dimension restored to size 1, then
	// let broadcasting replicate it across that dimension.
	keptShape := inShape.Clone()
	keptShape[op.dim] = 1
	expanded := backend.Reshape(outputGrad, keptShape)

	zeros := tensor.MustRaw(inShape, tensor.Float32, input.Device())
	return []*tensor.RawTensor{backend.Add(zeros, expanded)}
}

func (op *SumDimOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *SumDimOp) Output() *tensor.RawTensor   { return op.output }
