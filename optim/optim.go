// Copyright 2026 Edge Labs. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim is the public API for gradient descent optimizers.
package optim

import (
	"github.com/munir2200963/edge-labs/internal/nn"
	"github.com/munir2200963/edge-labs/internal/optim"
	"github.com/munir2200963/edge-labs/internal/tensor"
)

// Optimizer updates parameters from a gradient map.
type Optimizer[B tensor.Backend] = optim.Optimizer[B]

// SGD is stochastic gradient descent with optional momentum and weight
// decay.
type SGD[B tensor.Backend] = optim.SGD[B]

// Adam is the Adam optimizer with bias correction.
type Adam[B tensor.Backend] = optim.Adam[B]

// NewSGD creates an SGD optimizer.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], lr, momentum, weightDecay float32) *SGD[B] {
	return optim.NewSGD(params, lr, momentum, weightDecay)
}

// NewAdam creates an Adam optimizer.
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], lr float32) *Adam[B] {
	return optim.NewAdam(params, lr)
}
