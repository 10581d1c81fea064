package ops

import (
	"fmt"
	"math"

	"github.com/munir2200963/edge-labs/internal/tensor"
)

// CrossEntropyOp records the mean softmax cross-entropy loss over a batch.
//
// logits has shape [N, C], targets has shape [N] with int64 class indices,
// and the output is a single-element tensor. The softmax probabilities are
// computed once in the forward pass and reused in the backward pass, where
// the gradient is (softmax - onehot) / N.
type CrossEntropyOp struct {
	inputs  []*tensor.RawTensor
	output  *tensor.RawTensor
	softmax *tensor.RawTensor
	targets *tensor.RawTensor
}

// CrossEntropyForward computes the loss and returns the op ready for
// recording. The targets tensor does not receive a gradient.
func CrossEntropyForward(logits, targets *tensor.RawTensor, backend tensor.Backend) (*CrossEntropyOp, *tensor.RawTensor, error) {
	shape := logits.Shape()
	if len(shape) != 2 {
		return nil, nil, fmt.Errorf("cross entropy: logits must be 2D, got shape %v", shape)
	}
	n, c := shape[0], shape[1]
	if targets.NumElements() != n {
		return nil, nil, fmt.Errorf("cross entropy: %d logit rows but %d targets", n, targets.NumElements())
	}

	sm := backend.Softmax(logits, 1)
	smData := sm.AsFloat32()
	tgtData := targets.AsInt64()

	var loss float64
	for i := 0; i < n; i++ {
		cls := int(tgtData[i])
		if cls < 0 || cls >= c {
			return nil, nil, fmt.Errorf("cross entropy: target %d out of range [0, %d)", cls, c)
		}
		p := float64(smData[i*c+cls])
		if p < 1e-12 {
			p = 1e-12
		}
		loss -= math.Log(p)
	}
	loss /= float64(n)

	out := tensor.MustRaw(tensor.Shape{1}, tensor.Float32, logits.Device())
	out.AsFloat32()[0] = float32(loss)

	op := &CrossEntropyOp{
		inputs:  []*tensor.RawTensor{logits},
		output:  out,
		softmax: sm,
		targets: targets,
	}
	return op, out, nil
}

func (op *CrossEntropyOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	logits := op.inputs[0]
	shape := logits.Shape()
	n, c := shape[0], shape[1]

	grad := op.softmax.Clone()
	gData := grad.AsFloat32()
	tgtData := op.targets.AsInt64()
	scale := outputGrad.AsFloat32()[0] / float32(n)
	for i := 0; i < n; i++ {
		gData[i*c+int(tgtData[i])] -= 1
	}
	for i := range gData {
		gData[i] *= scale
	}
	return []*tensor.RawTensor{grad}
}

func (op *CrossEntropyOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *CrossEntropyOp) Output() *tensor.RawTensor   { return op.output }
