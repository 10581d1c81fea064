package mnist

import (
	"fmt"
	"math/rand"

	"github.com/munir2200963/edge-labs/internal/tensor"
)

// Batch is one mini-batch as tensors: images shaped [n, 1, 28, 28] and
// labels shaped [n].
type Batch[B tensor.Backend] struct {
	Images *tensor.Tensor[float32, B]
	Labels *tensor.Tensor[int64, B]
}

// Batches splits the dataset into mini-batches on the given backend. When
// rng is non-nil the example order is shuffled first; evaluation passes
// nil to keep the ordering deterministic. A short final batch is kept.
func Batches[B tensor.Backend](d *Dataset, batchSize int, rng *rand.Rand, backend B) []Batch[B] {
	if batchSize <= 0 {
		panic(fmt.Sprintf("mnist: batch size must be positive, got %d", batchSize))
	}
	n := d.Len()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if rng != nil {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	var batches []Batch[B]
	for start := 0; start < n; start += batchSize {
		end := start + batchSize
		if end > n {
			end = n
		}
		size := end - start

		images := tensor.Zeros[float32, B](tensor.Shape{size, 1, ImageSize, ImageSize}, backend)
		labels := tensor.Zeros[int64, B](tensor.Shape{size}, backend)
		imgData := images.Data()
		lblData := labels.Data()
		for i := 0; i < size; i++ {
			src := order[start+i]
			copy(imgData[i*ImagePixels:(i+1)*ImagePixels], d.Image(src))
			lblData[i] = d.Labels[src]
		}
		batches = append(batches, Batch[B]{Images: images, Labels: labels})
	}
	return batches
}

// Synthetic generates a deterministic fake dataset: each example is a
// blurred blob whose position encodes its label. Used by tests that need
// learnable structure without touching the network.
func Synthetic(n int, rng *rand.Rand) *Dataset {
	images := make([]float32, n*ImagePixels)
	labels := make([]int64, n)
	for i := 0; i < n; i++ {
		label := int64(rng.Intn(10))
		labels[i] = label
		img := images[i*ImagePixels : (i+1)*ImagePixels]
		// Center of the blob moves with the label.
		cy := 6 + int(label)*2
		cx := 22 - int(label)*2
		for y := 0; y < ImageSize; y++ {
			for x := 0; x < ImageSize; x++ {
				dy := y - cy
				dx := x - cx
				d2 := dy*dy + dx*dx
				v := float32(0)
				if d2 < 16 {
					v = 1 - float32(d2)/16
				}
				v += rng.Float32() * 0.05
				img[y*ImageSize+x] = (v - normMean) / normStd
			}
		}
	}
	return &Dataset{Images: images, Labels: labels}
}
