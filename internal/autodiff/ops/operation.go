// Package ops defines differentiable operation records for the gradient
// tape. Each operation stores its forward inputs/output and knows how to
// compute input gradients from the output gradient.
package ops

import "github.com/munir2200963/edge-labs/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// The returned slice corresponds position-wise to Inputs().
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors of this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.RawTensor
}
