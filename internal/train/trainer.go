// Package train runs the training, calibration and evaluation loops and
// assembles run reports.
package train

import (
	"fmt"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"

	"github.com/munir2200963/edge-labs/internal/autodiff"
	"github.com/munir2200963/edge-labs/internal/mnist"
	"github.com/munir2200963/edge-labs/internal/model"
	"github.com/munir2200963/edge-labs/internal/nn"
	"github.com/munir2200963/edge-labs/internal/optim"
	"github.com/munir2200963/edge-labs/internal/tensor"
)

// EpochStats summarizes one training epoch.
type EpochStats struct {
	Epoch    int     `json:"epoch"`
	Loss     float64 `json:"loss"`
	Accuracy float64 `json:"accuracy"` // training accuracy over the epoch
}

// Options configure a training run.
type Options struct {
	Epochs      int
	BatchSize   int
	LR          float32
	Momentum    float32
	LogEvery    int
	FreezeAfter int // QAT only: epochs before observers freeze; 0 disables
	Progress    bool
}

// Trainer drives gradient descent for a classifier built on an autodiff
// backend.
type Trainer[B tensor.Backend] struct {
	model     *model.Classifier[*autodiff.AutodiffBackend[B]]
	optimizer *optim.SGD[*autodiff.AutodiffBackend[B]]
	loss      *nn.CrossEntropyLoss[*autodiff.AutodiffBackend[B]]
	opts      Options
}

// NewTrainer creates a trainer with an SGD+momentum optimizer over the
// model's parameters.
func NewTrainer[B tensor.Backend](m *model.Classifier[*autodiff.AutodiffBackend[B]], opts Options) *Trainer[B] {
	return &Trainer[B]{
		model:     m,
		optimizer: optim.NewSGD(m.Parameters(), opts.LR, opts.Momentum, 0),
		loss:      nn.NewCrossEntropyLoss[*autodiff.AutodiffBackend[B]](),
		opts:      opts,
	}
}

// Run trains for the configured number of epochs. The RNG drives batch
// shuffling, so a fixed seed reproduces the same run. In QAT mode,
// observers freeze after FreezeAfter epochs while fake quantization stays
// active.
func (t *Trainer[B]) Run(ds *mnist.Dataset, rng *rand.Rand) ([]EpochStats, error) {
	backend := t.model.Backend()
	tape := backend.Tape()

	var stats []EpochStats
	for epoch := 1; epoch <= t.opts.Epochs; epoch++ {
		if t.opts.FreezeAfter > 0 && epoch == t.opts.FreezeAfter+1 {
			klog.Infof("epoch %d: freezing observers", epoch)
			t.model.FreezeObservers()
		}

		batches := mnist.Batches(ds, t.opts.BatchSize, rng, backend)
		var bar *progressbar.ProgressBar
		if t.opts.Progress {
			bar = progressbar.Default(int64(len(batches)), fmt.Sprintf("epoch %d/%d", epoch, t.opts.Epochs))
		}

		var lossSum float64
		var correct, seen int
		for i, batch := range batches {
			tape.Clear()
			tape.StartRecording()
			logits := t.model.Forward(batch.Images)
			loss, err := t.loss.Forward(logits, batch.Labels)
			tape.StopRecording()
			if err != nil {
				return nil, errors.Wrapf(err, "epoch %d batch %d", epoch, i)
			}

			grads, err := tape.Backward(loss.Raw(), backend)
			if err != nil {
				return nil, errors.Wrapf(err, "epoch %d batch %d", epoch, i)
			}
			t.optimizer.Step(grads)

			batchLoss := float64(loss.Item())
			lossSum += batchLoss
			correct += nn.Correct(logits, batch.Labels)
			seen += batch.Labels.NumElements()

			if bar != nil {
				bar.Add(1)
			}
			if t.opts.LogEvery > 0 && (i+1)%t.opts.LogEvery == 0 {
				klog.Infof("epoch %d batch %d/%d loss=%.4f", epoch, i+1, len(batches), batchLoss)
			}
		}
		tape.Clear()

		es := EpochStats{
			Epoch:    epoch,
			Loss:     lossSum / float64(len(batches)),
			Accuracy: float64(correct) / float64(seen),
		}
		stats = append(stats, es)
		klog.Infof("epoch %d done: loss=%.4f train_acc=%.2f%%", epoch, es.Loss, es.Accuracy*100)
	}
	return stats, nil
}
