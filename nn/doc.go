// Copyright 2026 Edge Labs. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers and building blocks.
//
// # Overview
//
// Layers implement the Module interface and expose their Parameters for
// optimization. Available building blocks:
//   - Linear: fully connected layer
//   - Conv2D: 2D convolution over [N, C, H, W] inputs
//   - MaxPool2D: spatial max pooling
//   - ReLU: rectified linear activation
//   - CrossEntropyLoss: softmax cross entropy against integer labels
//
// # Basic Usage
//
//	backend := autodiff.New(cpu.New())
//	rng := rand.New(rand.NewSource(42))
//
//	fc := nn.NewLinear("fc1", 256, 120, rng, backend)
//	out := fc.Forward(x)
//
// Weights are initialized with Kaiming-uniform bounds; constructors take an
// explicit *rand.Rand so initialization is reproducible.
package nn
