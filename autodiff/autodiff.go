// Copyright 2026 Edge Labs. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff exposes reverse-mode automatic differentiation as a
// backend decorator.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	loss := forward(backend)
//	grads, err := backend.Tape().Backward(loss.Raw(), backend)
package autodiff

import (
	"github.com/munir2200963/edge-labs/internal/autodiff"
	"github.com/munir2200963/edge-labs/internal/tensor"
)

// AutodiffBackend wraps a backend and records differentiable operations on
// a gradient tape.
type AutodiffBackend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// GradientTape records operations for the backward pass.
type GradientTape = autodiff.GradientTape

// New wraps a backend with gradient recording.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return autodiff.New(backend)
}

// NewGradientTape creates an empty tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}
