package nn

import (
	"fmt"
	"math/rand"

	"github.com/munir2200963/edge-labs/internal/tensor"
)

// Linear is a fully connected layer computing y = x @ Wᵀ + b.
//
// Weight has shape [outFeatures, inFeatures] and Bias, when present, has
// shape [1, outFeatures] so it broadcasts over the batch dimension.
type Linear[B tensor.Backend] struct {
	Weight *Parameter[B]
	Bias   *Parameter[B]

	InFeatures  int
	OutFeatures int
}

// NewLinear creates a Linear layer with Xavier-initialized weights and a
// zero bias. name prefixes the parameter names.
func NewLinear[B tensor.Backend](name string, inFeatures, outFeatures int, rng *rand.Rand, backend B) *Linear[B] {
	weight := XavierUniform[B](tensor.Shape{outFeatures, inFeatures}, inFeatures, outFeatures, rng, backend)
	bias := tensor.Zeros[float32, B](tensor.Shape{1, outFeatures}, backend)
	return &Linear[B]{
		Weight:      NewParameter(fmt.Sprintf("%s.weight", name), weight),
		Bias:        NewParameter(fmt.Sprintf("%s.bias", name), bias),
		InFeatures:  inFeatures,
		OutFeatures: outFeatures,
	}
}

// Forward computes the affine transform for a [batch, inFeatures] input.
func (l *Linear[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out := x.MatMul(l.Weight.Value.Transpose())
	if l.Bias != nil {
		out = out.Add(l.Bias.Value)
	}
	return out
}

// Parameters returns the layer's trainable parameters.
func (l *Linear[B]) Parameters() []*Parameter[B] {
	params := []*Parameter[B]{l.Weight}
	if l.Bias != nil {
		params = append(params, l.Bias)
	}
	return params
}
