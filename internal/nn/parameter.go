// Package nn provides neural network building blocks: layers, losses,
// parameter initialization and metrics. Modules hold their parameters as
// float32 tensors; gradients are produced externally by the autodiff tape
// and looked up by tensor identity.
package nn

import "github.com/munir2200963/edge-labs/internal/tensor"

// Parameter is a named trainable tensor.
type Parameter[B tensor.Backend] struct {
	Name  string
	Value *tensor.Tensor[float32, B]
}

// NewParameter wraps a tensor as a named parameter.
func NewParameter[B tensor.Backend](name string, value *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{Name: name, Value: value}
}

// Raw returns the underlying raw tensor, the key used in gradient maps.
func (p *Parameter[B]) Raw() *tensor.RawTensor { return p.Value.Raw() }

// Module is anything that owns trainable parameters.
type Module[B tensor.Backend] interface {
	Parameters() []*Parameter[B]
}
