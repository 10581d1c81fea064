package train_test

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/munir2200963/edge-labs/internal/autodiff"
	"github.com/munir2200963/edge-labs/internal/backend/cpu"
	"github.com/munir2200963/edge-labs/internal/mnist"
	"github.com/munir2200963/edge-labs/internal/model"
	"github.com/munir2200963/edge-labs/internal/quant"
	"github.com/munir2200963/edge-labs/internal/tensor"
	"github.com/munir2200963/edge-labs/internal/train"
)

type adBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func TestTrainer_LossDecreases(t *testing.T) {
	if testing.Short() {
		t.Skip("training loop is slow")
	}

	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(42))
	m := model.NewClassifier(rng, backend)
	ds := mnist.Synthetic(128, rng)

	trainer := train.NewTrainer(m, train.Options{
		Epochs:    3,
		BatchSize: 16,
		LR:        0.01,
		Momentum:  0.9,
	})
	stats, err := trainer.Run(ds, rng)
	require.NoError(t, err)
	require.Len(t, stats, 3)

	assert.Less(t, stats[2].Loss, stats[0].Loss, "loss did not decrease: %+v", stats)
	assert.Greater(t, stats[2].Accuracy, stats[0].Accuracy-0.05, "accuracy collapsed: %+v", stats)
	assert.Greater(t, stats[2].Accuracy, 0.1, "accuracy below the 10-class random baseline: %+v", stats)
}

func TestQuantizedAccuracy_TracksFloat(t *testing.T) {
	if testing.Short() {
		t.Skip("training loop is slow")
	}

	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(3))
	m := model.NewClassifier(rng, backend)
	ds := mnist.Synthetic(256, rng)

	trainer := train.NewTrainer(m, train.Options{
		Epochs:    4,
		BatchSize: 16,
		LR:        0.01,
		Momentum:  0.9,
	})
	_, err := trainer.Run(ds, rng)
	require.NoError(t, err)

	floatAcc := train.Evaluate(m, ds, 16)
	require.Greater(t, floatAcc, 0.1, "float model did not beat the random baseline")

	m.Prepare(quant.DefaultQConfig())
	var calInputs []*tensor.Tensor[float32, adBackend]
	for _, b := range mnist.Batches(ds, 16, nil, backend) {
		calInputs = append(calInputs, b.Images)
	}
	require.NoError(t, m.Calibrate(calInputs))
	q, err := m.Convert()
	require.NoError(t, err)

	quantAcc, err := train.EvaluateQuantized(q, ds, 16, cpu.New())
	require.NoError(t, err)
	assert.InDelta(t, floatAcc, quantAcc, 0.1,
		"quantized accuracy drifted from float: float %.4f quantized %.4f", floatAcc, quantAcc)
}

func TestEvaluate_Deterministic(t *testing.T) {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(1))
	m := model.NewClassifier(rng, backend)
	ds := mnist.Synthetic(32, rng)

	first := train.Evaluate(m, ds, 8)
	second := train.Evaluate(m, ds, 8)
	assert.Equal(t, first, second)
	assert.GreaterOrEqual(t, first, 0.0)
	assert.LessOrEqual(t, first, 1.0)
}

func TestEvaluate_EmptyDataset(t *testing.T) {
	backend := autodiff.New(cpu.New())
	m := model.NewClassifier(rand.New(rand.NewSource(1)), backend)
	assert.Equal(t, 0.0, train.Evaluate(m, &mnist.Dataset{}, 8))
}

func TestEvaluateQuantized(t *testing.T) {
	adb := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(2))
	m := model.NewClassifier(rng, adb)
	ds := mnist.Synthetic(32, rng)

	m.Prepare(quant.DefaultQConfig())
	var calInputs []*tensor.Tensor[float32, adBackend]
	for _, b := range mnist.Batches(ds, 8, nil, adb) {
		calInputs = append(calInputs, b.Images)
	}
	require.NoError(t, m.Calibrate(calInputs))

	q, err := m.Convert()
	require.NoError(t, err)

	acc, err := train.EvaluateQuantized(q, ds, 8, cpu.New())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, acc, 0.0)
	assert.LessOrEqual(t, acc, 1.0)
}

func TestReport(t *testing.T) {
	r := train.NewReport("ptq")
	require.NotEmpty(t, r.RunID)

	r.FloatAccuracy = 0.99
	r.QuantizedAccuracy = 0.985
	r.FloatSizeBytes = 400000
	r.QuantizedSize = 100000
	assert.InDelta(t, 4.0, r.SizeReduction(), 1e-9)

	s := r.String()
	assert.Contains(t, s, "99.00%")
	assert.Contains(t, s, "4.00x")

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, r.WriteJSON(path))
}

func TestReport_SizeReductionMissing(t *testing.T) {
	r := train.NewReport("qat")
	assert.Equal(t, 0.0, r.SizeReduction())
}
