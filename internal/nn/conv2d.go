package nn

import (
	"fmt"
	"math/rand"

	"github.com/munir2200963/edge-labs/internal/tensor"
)

// Conv2D is a 2D convolution layer over NCHW inputs.
//
// Weight has shape [outChannels, inChannels, kernelSize, kernelSize] and
// Bias, when present, has shape [1, outChannels, 1, 1] so it broadcasts
// over batch and spatial dimensions.
type Conv2D[B tensor.Backend] struct {
	Weight *Parameter[B]
	Bias   *Parameter[B]

	InChannels  int
	OutChannels int
	KernelSize  int
	Stride      int
	Padding     int
}

// NewConv2D creates a Conv2D layer with Kaiming-initialized weights and a
// zero bias.
func NewConv2D[B tensor.Backend](name string, inChannels, outChannels, kernelSize, stride, padding int, rng *rand.Rand, backend B) *Conv2D[B] {
	fanIn := inChannels * kernelSize * kernelSize
	weight := KaimingUniform[B](tensor.Shape{outChannels, inChannels, kernelSize, kernelSize}, fanIn, rng, backend)
	bias := tensor.Zeros[float32, B](tensor.Shape{1, outChannels, 1, 1}, backend)
	return &Conv2D[B]{
		Weight:      NewParameter(fmt.Sprintf("%s.weight", name), weight),
		Bias:        NewParameter(fmt.Sprintf("%s.bias", name), bias),
		InChannels:  inChannels,
		OutChannels: outChannels,
		KernelSize:  kernelSize,
		Stride:      stride,
		Padding:     padding,
	}
}

// Forward convolves a [batch, inChannels, h, w] input.
func (c *Conv2D[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out := x.Conv2D(c.Weight.Value, c.Stride, c.Padding)
	if c.Bias != nil {
		out = out.Add(c.Bias.Value)
	}
	return out
}

// Parameters returns the layer's trainable parameters.
func (c *Conv2D[B]) Parameters() []*Parameter[B] {
	params := []*Parameter[B]{c.Weight}
	if c.Bias != nil {
		params = append(params, c.Bias)
	}
	return params
}
