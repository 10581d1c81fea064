package nn

import (
	"math"
	"math/rand"

	"github.com/munir2200963/edge-labs/internal/tensor"
)

// XavierUniform fills a new tensor with values drawn uniformly from
// [-limit, limit] where limit = sqrt(6 / (fanIn + fanOut)). The caller
// supplies the RNG so initialization is reproducible under a fixed seed.
func XavierUniform[B tensor.Backend](shape tensor.Shape, fanIn, fanOut int, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	limit := float32(math.Sqrt(6.0 / float64(fanIn+fanOut)))
	t := tensor.Zeros[float32, B](shape, backend)
	data := t.Data()
	for i := range data {
		data[i] = (rng.Float32()*2 - 1) * limit
	}
	return t
}

// KaimingUniform fills a new tensor with values drawn uniformly from
// [-limit, limit] where limit = sqrt(6 / fanIn), suited to layers followed
// by a rectifier.
func KaimingUniform[B tensor.Backend](shape tensor.Shape, fanIn int, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	limit := float32(math.Sqrt(6.0 / float64(fanIn)))
	t := tensor.Zeros[float32, B](shape, backend)
	data := t.Data()
	for i := range data {
		data[i] = (rng.Float32()*2 - 1) * limit
	}
	return t
}
