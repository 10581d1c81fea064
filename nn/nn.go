// Copyright 2026 Edge Labs. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn is the public API for neural network building blocks.
package nn

import (
	"math/rand"

	"github.com/munir2200963/edge-labs/internal/nn"
	"github.com/munir2200963/edge-labs/internal/tensor"
)

// Parameter is a named trainable tensor.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// Module is anything that owns trainable parameters.
type Module[B tensor.Backend] = nn.Module[B]

// Linear is a fully connected layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// Conv2D is a 2D convolution layer.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// MaxPool2D is a 2D max pooling layer.
type MaxPool2D[B tensor.Backend] = nn.MaxPool2D[B]

// ReLU is a rectifier layer.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// CrossEntropyLoss is the mean softmax cross-entropy loss.
type CrossEntropyLoss[B tensor.Backend] = nn.CrossEntropyLoss[B]

// NewParameter wraps a tensor as a named parameter.
func NewParameter[B tensor.Backend](name string, value *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, value)
}

// NewLinear creates a fully connected layer with Xavier-initialized
// weights.
func NewLinear[B tensor.Backend](name string, inFeatures, outFeatures int, rng *rand.Rand, backend B) *Linear[B] {
	return nn.NewLinear(name, inFeatures, outFeatures, rng, backend)
}

// NewConv2D creates a convolution layer with Kaiming-initialized weights.
func NewConv2D[B tensor.Backend](name string, inChannels, outChannels, kernelSize, stride, padding int, rng *rand.Rand, backend B) *Conv2D[B] {
	return nn.NewConv2D(name, inChannels, outChannels, kernelSize, stride, padding, rng, backend)
}

// NewMaxPool2D creates a max pooling layer.
func NewMaxPool2D[B tensor.Backend](kernelSize, stride int) *MaxPool2D[B] {
	return nn.NewMaxPool2D[B](kernelSize, stride)
}

// NewReLU creates a rectifier layer.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// NewCrossEntropyLoss creates a cross-entropy loss.
func NewCrossEntropyLoss[B tensor.Backend]() *CrossEntropyLoss[B] {
	return nn.NewCrossEntropyLoss[B]()
}

// Correct counts rows whose argmax matches the target class.
func Correct[B tensor.Backend](logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int64, B]) int {
	return nn.Correct(logits, targets)
}

// Accuracy returns the fraction of correctly classified rows.
func Accuracy[B tensor.Backend](logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int64, B]) float64 {
	return nn.Accuracy(logits, targets)
}
