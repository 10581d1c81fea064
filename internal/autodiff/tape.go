package autodiff

import (
	"fmt"

	"github.com/munir2200963/edge-labs/internal/autodiff/ops"
	"github.com/munir2200963/edge-labs/internal/tensor"
)

// GradientTape records operations during the forward pass so that Backward
// can replay them in reverse and accumulate gradients.
//
// A tape is not safe for concurrent use; each training goroutine owns its
// own tape.
type GradientTape struct {
	operations []ops.Operation
	recording  bool
}

// NewGradientTape creates an empty tape. Recording starts disabled.
func NewGradientTape() *GradientTape {
	return &GradientTape{}
}

// StartRecording enables recording of subsequent operations.
func (t *GradientTape) StartRecording() { t.recording = true }

// StopRecording disables recording. Already recorded operations are kept.
func (t *GradientTape) StopRecording() { t.recording = false }

// IsRecording reports whether operations are currently being recorded.
func (t *GradientTape) IsRecording() bool { return t.recording }

// Record appends an operation to the tape if recording is enabled.
func (t *GradientTape) Record(op ops.Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int { return len(t.operations) }

// Clear drops all recorded operations. The recording flag is unchanged.
func (t *GradientTape) Clear() {
	t.operations = t.operations[:0]
}

// Backward walks the tape in reverse from loss, accumulating gradients into
// a map keyed by tensor identity. The loss must be a single-element tensor
// produced by a recorded operation; its seed gradient is 1.
func (t *GradientTape) Backward(loss *tensor.RawTensor, backend tensor.Backend) (map[*tensor.RawTensor]*tensor.RawTensor, error) {
	if loss.NumElements() != 1 {
		return nil, fmt.Errorf("backward: loss must be a scalar, got shape %v", loss.Shape())
	}

	grads := make(map[*tensor.RawTensor]*tensor.RawTensor)
	seed := tensor.MustRaw(loss.Shape(), tensor.Float32, loss.Device())
	seed.AsFloat32()[0] = 1
	grads[loss] = seed

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]
		outGrad, ok := grads[op.Output()]
		if !ok {
			continue
		}
		inputGrads := op.Backward(outGrad, backend)
		inputs := op.Inputs()
		if len(inputGrads) != len(inputs) {
			return nil, fmt.Errorf("backward: op %T returned %d gradients for %d inputs", op, len(inputGrads), len(inputs))
		}
		for j, in := range inputs {
			g := inputGrads[j]
			if g == nil {
				continue
			}
			if existing, ok := grads[in]; ok {
				grads[in] = backend.Add(existing, g)
			} else {
				grads[in] = g
			}
		}
	}
	return grads, nil
}
