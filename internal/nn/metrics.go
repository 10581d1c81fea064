package nn

import "github.com/munir2200963/edge-labs/internal/tensor"

// Correct returns how many rows' argmax over logits matches the target
// class. logits has shape [batch, classes], targets [batch].
func Correct[B tensor.Backend](logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int64, B]) int {
	pred := logits.Argmax(1)
	predData := pred.Data()
	tgtData := targets.Data()

	correct := 0
	for i, p := range predData {
		if int64(p) == tgtData[i] {
			correct++
		}
	}
	return correct
}

// Accuracy returns the fraction of correctly classified rows.
func Accuracy[B tensor.Backend](logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int64, B]) float64 {
	n := targets.NumElements()
	if n == 0 {
		return 0
	}
	return float64(Correct(logits, targets)) / float64(n)
}
