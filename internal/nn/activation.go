package nn

import "github.com/munir2200963/edge-labs/internal/tensor"

// ReLU is a parameterless rectifier layer.
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a ReLU layer.
func NewReLU[B tensor.Backend]() *ReLU[B] { return &ReLU[B]{} }

// Forward applies max(x, 0) element-wise.
func (r *ReLU[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.ReLU()
}

// Parameters returns nil; the rectifier has no trainable state.
func (r *ReLU[B]) Parameters() []*Parameter[B] { return nil }
