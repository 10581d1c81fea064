package nn

import (
	"fmt"

	"github.com/munir2200963/edge-labs/internal/autodiff/ops"
	"github.com/munir2200963/edge-labs/internal/tensor"
)

// crossEntropyBackend is implemented by backends that compute the loss
// themselves, recording it for backward. The autodiff decorator does.
type crossEntropyBackend interface {
	CrossEntropy(logits, targets *tensor.RawTensor) (*tensor.RawTensor, error)
}

// CrossEntropyLoss computes the mean softmax cross-entropy over a batch.
type CrossEntropyLoss[B tensor.Backend] struct{}

// NewCrossEntropyLoss creates a CrossEntropyLoss.
func NewCrossEntropyLoss[B tensor.Backend]() *CrossEntropyLoss[B] {
	return &CrossEntropyLoss[B]{}
}

// Forward computes the loss for [batch, classes] logits and [batch] int64
// targets, returning a single-element tensor. When the backend records a
// tape the loss participates in backward; otherwise it is a plain value.
func (c *CrossEntropyLoss[B]) Forward(logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int64, B]) (*tensor.Tensor[float32, B], error) {
	backend := logits.Backend()
	if ceb, ok := any(backend).(crossEntropyBackend); ok {
		raw, err := ceb.CrossEntropy(logits.Raw(), targets.Raw())
		if err != nil {
			return nil, fmt.Errorf("cross entropy: %w", err)
		}
		return tensor.New[float32, B](raw, backend), nil
	}
	_, raw, err := ops.CrossEntropyForward(logits.Raw(), targets.Raw(), backend)
	if err != nil {
		return nil, fmt.Errorf("cross entropy: %w", err)
	}
	return tensor.New[float32, B](raw, backend), nil
}
