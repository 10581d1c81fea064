// Package optim provides gradient descent optimizers. Optimizers hold the
// parameter list and apply a gradient map produced by the autodiff tape,
// keyed by the parameter's raw tensor.
package optim

import (
	"github.com/munir2200963/edge-labs/internal/nn"
	"github.com/munir2200963/edge-labs/internal/tensor"
)

// Optimizer updates parameters from a gradient map. Parameters without an
// entry in the map are left untouched.
type Optimizer[B tensor.Backend] interface {
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)
	Params() []*nn.Parameter[B]
}
