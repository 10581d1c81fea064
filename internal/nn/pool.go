package nn

import "github.com/munir2200963/edge-labs/internal/tensor"

// MaxPool2D is a parameterless 2D max pooling layer.
type MaxPool2D[B tensor.Backend] struct {
	KernelSize int
	Stride     int
}

// NewMaxPool2D creates a MaxPool2D layer.
func NewMaxPool2D[B tensor.Backend](kernelSize, stride int) *MaxPool2D[B] {
	return &MaxPool2D[B]{KernelSize: kernelSize, Stride: stride}
}

// Forward pools a [batch, channels, h, w] input.
func (m *MaxPool2D[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.MaxPool2D(m.KernelSize, m.Stride)
}

// Parameters returns nil; pooling has no trainable state.
func (m *MaxPool2D[B]) Parameters() []*Parameter[B] { return nil }
