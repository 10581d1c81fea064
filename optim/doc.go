// Copyright 2026 Edge Labs. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides gradient descent optimizers.
//
// SGD (with momentum and weight decay) and Adam are available. Optimizers
// take the parameter list once at construction and apply an in-place update
// from a gradient map on every Step:
//
//	opt := optim.NewSGD(params, 0.01, 0.9, 0)
//	grads := tape.Backward(loss.Raw())
//	opt.Step(grads)
package optim
