// Copyright 2026 Edge Labs. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure-Go CPU backend.
//
// It implements the tensor.Backend interface with no cgo: blocked matrix
// multiplication with cache-aware tile sizes, im2col convolution, pooling,
// reductions and element-wise kernels, parallelized across cores for large
// tensors.
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
package cpu
