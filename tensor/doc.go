// Copyright 2026 Edge Labs. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensor operations for edge-labs.
//
// # Overview
//
// Tensors are the fundamental data structure of the framework. This package
// provides:
//   - Generic type-safe tensors (Tensor[T, B])
//   - NumPy-style broadcasting
//   - An untyped RawTensor the backends compute on
//   - The Backend compute interface
//
// # Basic Usage
//
//	import (
//	    "github.com/munir2200963/edge-labs/backend/cpu"
//	    "github.com/munir2200963/edge-labs/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//
//	    z := x.Add(y)
//	    p := x.MatMul(y.Transpose())
//	    _, _ = z, p
//	}
//
// # Supported Data Types
//
// The DType constraint covers float32, float64, float16, int8, int32,
// int64 and uint8. The integer and half-precision types exist for the
// quantization pipeline: int8 weights, uint8 activations, float16
// half-precision checkpoints.
//
// # Broadcasting
//
// Binary operations follow NumPy broadcasting rules:
//
//	a := tensor.Zeros[float32](tensor.Shape{3, 1}, backend) // (3, 1)
//	b := tensor.Ones[float32](tensor.Shape{3, 4}, backend)  // (3, 4)
//	c := a.Add(b)                                           // (3, 4)
package tensor
