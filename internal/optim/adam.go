package optim

import (
	"math"

	"github.com/munir2200963/edge-labs/internal/nn"
	"github.com/munir2200963/edge-labs/internal/tensor"
)

// Adam implements the Adam optimizer with bias correction. First and second
// moment buffers are allocated lazily on first use.
type Adam[B tensor.Backend] struct {
	params []*nn.Parameter[B]
	lr     float32
	beta1  float32
	beta2  float32
	eps    float32
	step   int
	m      map[*tensor.RawTensor][]float32
	v      map[*tensor.RawTensor][]float32
}

// NewAdam creates an Adam optimizer with the usual defaults for the betas
// and epsilon.
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], lr float32) *Adam[B] {
	return &Adam[B]{
		params: params,
		lr:     lr,
		beta1:  0.9,
		beta2:  0.999,
		eps:    1e-8,
		m:      make(map[*tensor.RawTensor][]float32),
		v:      make(map[*tensor.RawTensor][]float32),
	}
}

// Params returns the parameters this optimizer updates.
func (a *Adam[B]) Params() []*nn.Parameter[B] { return a.params }

// SetLR changes the learning rate for subsequent steps.
func (a *Adam[B]) SetLR(lr float32) { a.lr = lr }

// Step applies one bias-corrected Adam update.
func (a *Adam[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	a.step++
	bc1 := 1 - float32(math.Pow(float64(a.beta1), float64(a.step)))
	bc2 := 1 - float32(math.Pow(float64(a.beta2), float64(a.step)))

	for _, p := range a.params {
		raw := p.Raw()
		grad, ok := grads[raw]
		if !ok {
			continue
		}
		w := raw.AsFloat32()
		g := grad.AsFloat32()

		m, ok := a.m[raw]
		if !ok {
			m = make([]float32, len(w))
			a.m[raw] = m
		}
		v, ok := a.v[raw]
		if !ok {
			v = make([]float32, len(w))
			a.v[raw] = v
		}

		for i := range w {
			m[i] = a.beta1*m[i] + (1-a.beta1)*g[i]
			v[i] = a.beta2*v[i] + (1-a.beta2)*g[i]*g[i]
			mHat := m[i] / bc1
			vHat := v[i] / bc2
			w[i] -= a.lr * mHat / (float32(math.Sqrt(float64(vHat))) + a.eps)
		}
	}
}
