package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/munir2200963/edge-labs/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	c := config.Default()
	assert.Equal(t, int64(42), c.Seed)
	assert.Equal(t, 64, c.BatchSize)
	assert.Equal(t, 3, c.Train.Epochs)
	assert.Equal(t, config.ObserverMinMax, c.Calibration.Observer)
	assert.NoError(t, c.Validate())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
seed: 7
batch_size: 32
train:
  epochs: 5
  lr: 0.02
calibration:
  observer: histogram
`)
	c, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(7), c.Seed)
	assert.Equal(t, 32, c.BatchSize)
	assert.Equal(t, 5, c.Train.Epochs)
	assert.Equal(t, float32(0.02), c.Train.LR)
	// Untouched fields keep their defaults.
	assert.Equal(t, float32(0.9), c.Train.Momentum)
	assert.Equal(t, config.ObserverHistogram, c.Calibration.Observer)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "batch_size: [not a number")
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero batch size", func(c *config.Config) { c.BatchSize = 0 }},
		{"negative epochs", func(c *config.Config) { c.Train.Epochs = -1 }},
		{"zero lr", func(c *config.Config) { c.Train.LR = 0 }},
		{"unknown observer", func(c *config.Config) { c.Calibration.Observer = "magic" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config.Default()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, "batch_size: -1\n")
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestQConfig_Selection(t *testing.T) {
	c := config.Default()
	for _, obs := range []string{config.ObserverMinMax, config.ObserverHistogram, config.ObserverMovingAverage} {
		c.Calibration.Observer = obs
		qc := c.QConfig()
		assert.NotNil(t, qc.Activation, "observer %s", obs)
		assert.NotNil(t, qc.Weight, "observer %s", obs)
	}
}
