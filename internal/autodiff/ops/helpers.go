package ops

import "github.com/munir2200963/edge-labs/internal/tensor"

// reduceBroadcast sums an output gradient along the dimensions that were
// broadcast during the forward pass, so the result matches the input shape.
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(targetShape) {
		return grad
	}

	result := grad

	// Collapse the extra leading dimensions first.
	for len(result.Shape()) > len(targetShape) {
		result = backend.SumDim(result, 0, false)
	}

	// Then sum (keeping the dimension) everywhere the input had size 1.
	for d, dim := range targetShape {
		if dim == 1 && result.Shape()[d] != 1 {
			result = backend.SumDim(result, d, true)
		}
	}

	if !result.Shape().Equal(targetShape) {
		result = backend.Reshape(result, targetShape)
	}
	return result
}
