package train

import (
	"github.com/pkg/errors"

	"github.com/munir2200963/edge-labs/internal/mnist"
	"github.com/munir2200963/edge-labs/internal/model"
	"github.com/munir2200963/edge-labs/internal/nn"
	"github.com/munir2200963/edge-labs/internal/tensor"
)

// Evaluate runs the float model over the dataset without gradient
// recording and returns top-1 accuracy. Batch order is not shuffled, so
// repeated evaluation of the same model is deterministic.
func Evaluate[B tensor.Backend](m *model.Classifier[B], ds *mnist.Dataset, batchSize int) float64 {
	var correct int
	for _, batch := range mnist.Batches(ds, batchSize, nil, m.Backend()) {
		logits := m.Forward(batch.Images)
		correct += nn.Correct(logits, batch.Labels)
	}
	if ds.Len() == 0 {
		return 0
	}
	return float64(correct) / float64(ds.Len())
}

// EvaluateQuantized runs the integer model over the dataset and returns
// top-1 accuracy.
func EvaluateQuantized[B tensor.Backend](q *model.QuantizedClassifier, ds *mnist.Dataset, batchSize int, backend B) (float64, error) {
	var correct int
	for i, batch := range mnist.Batches(ds, batchSize, nil, backend) {
		scores, err := q.Forward(batch.Images.Raw())
		if err != nil {
			return 0, errors.Wrapf(err, "batch %d", i)
		}
		logits := tensor.New[float32, B](scores, backend)
		correct += nn.Correct(logits, batch.Labels)
	}
	if ds.Len() == 0 {
		return 0, nil
	}
	return float64(correct) / float64(ds.Len()), nil
}
