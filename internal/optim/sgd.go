package optim

import (
	"github.com/munir2200963/edge-labs/internal/nn"
	"github.com/munir2200963/edge-labs/internal/tensor"
)

// SGD implements stochastic gradient descent with optional momentum and
// weight decay. Velocity buffers are allocated lazily on first use.
type SGD[B tensor.Backend] struct {
	params      []*nn.Parameter[B]
	lr          float32
	momentum    float32
	weightDecay float32
	velocity    map[*tensor.RawTensor][]float32
}

// NewSGD creates an SGD optimizer. momentum and weightDecay may be zero.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], lr, momentum, weightDecay float32) *SGD[B] {
	return &SGD[B]{
		params:      params,
		lr:          lr,
		momentum:    momentum,
		weightDecay: weightDecay,
		velocity:    make(map[*tensor.RawTensor][]float32),
	}
}

// Params returns the parameters this optimizer updates.
func (s *SGD[B]) Params() []*nn.Parameter[B] { return s.params }

// SetLR changes the learning rate for subsequent steps.
func (s *SGD[B]) SetLR(lr float32) { s.lr = lr }

// LR returns the current learning rate.
func (s *SGD[B]) LR() float32 { return s.lr }

// Step applies one update: v = momentum*v + grad + weightDecay*w, then
// w -= lr*v.
func (s *SGD[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, p := range s.params {
		raw := p.Raw()
		grad, ok := grads[raw]
		if !ok {
			continue
		}
		w := raw.AsFloat32()
		g := grad.AsFloat32()

		if s.momentum == 0 {
			for i := range w {
				gi := g[i]
				if s.weightDecay != 0 {
					gi += s.weightDecay * w[i]
				}
				w[i] -= s.lr * gi
			}
			continue
		}

		v, ok := s.velocity[raw]
		if !ok {
			v = make([]float32, len(w))
			s.velocity[raw] = v
		}
		for i := range w {
			gi := g[i]
			if s.weightDecay != 0 {
				gi += s.weightDecay * w[i]
			}
			v[i] = s.momentum*v[i] + gi
			w[i] -= s.lr * v[i]
		}
	}
}
