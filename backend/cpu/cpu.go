// Copyright 2026 Edge Labs. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu exposes the pure-Go CPU backend.
package cpu

import "github.com/munir2200963/edge-labs/internal/backend/cpu"

// CPUBackend computes tensor operations on the host CPU.
type CPUBackend = cpu.CPUBackend

// New creates a CPU backend.
func New() *CPUBackend {
	return cpu.New()
}
