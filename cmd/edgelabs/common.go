package main

import (
	"context"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/munir2200963/edge-labs/internal/autodiff"
	"github.com/munir2200963/edge-labs/internal/backend/cpu"
	"github.com/munir2200963/edge-labs/internal/config"
	"github.com/munir2200963/edge-labs/internal/mnist"
	"github.com/munir2200963/edge-labs/internal/model"
	"github.com/munir2200963/edge-labs/internal/serialization"
	"github.com/munir2200963/edge-labs/internal/train"
)

// adBackend is the training backend: the CPU backend wrapped with gradient
// recording.
type adBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func newBackend() adBackend {
	return autodiff.New(cpu.New())
}

// loadConfig reads the config file when one is given, otherwise returns
// the defaults.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// loadData downloads the dataset if needed and parses both splits.
func loadData(ctx context.Context, cfg config.Config) (trainSet, testSet *mnist.Dataset, err error) {
	if err := mnist.Download(ctx, cfg.DataDir); err != nil {
		return nil, nil, err
	}
	return mnist.Load(cfg.DataDir)
}

// trainFloat trains a fresh float model, or loads one from modelPath when
// given.
func trainFloat(cfg config.Config, modelPath string, trainSet *mnist.Dataset, rng *rand.Rand, backend adBackend) (*model.Classifier[adBackend], []train.EpochStats, error) {
	m := model.NewClassifier(rng, backend)
	if modelPath != "" {
		header, entries, err := serialization.Read(modelPath)
		if err != nil {
			return nil, nil, err
		}
		if header.ModelType != model.FloatModelType {
			return nil, nil, errors.Errorf("%s holds a %q model, want %q", modelPath, header.ModelType, model.FloatModelType)
		}
		if err := m.LoadStateDict(entries); err != nil {
			return nil, nil, errors.Wrapf(err, "loading %s", modelPath)
		}
		return m, nil, nil
	}

	trainer := train.NewTrainer(m, train.Options{
		Epochs:    cfg.Train.Epochs,
		BatchSize: cfg.BatchSize,
		LR:        cfg.Train.LR,
		Momentum:  cfg.Train.Momentum,
		LogEvery:  cfg.Train.LogEvery,
		Progress:  true,
	})
	stats, err := trainer.Run(trainSet, rng)
	if err != nil {
		return nil, nil, errors.Wrap(err, "training")
	}
	return m, stats, nil
}

// saveQuantized writes the integer model with its quantization metadata.
func saveQuantized(q *model.QuantizedClassifier, path string) error {
	entries, meta, err := q.StateDict()
	if err != nil {
		return err
	}
	return serialization.Write(path, model.QuantizedModelType, entries, meta, true)
}
