// Package config defines the experiment configuration and its YAML
// loading.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/munir2200963/edge-labs/internal/quant"
)

// Observer selector names accepted in configuration files.
const (
	ObserverMinMax        = "minmax"
	ObserverHistogram     = "histogram"
	ObserverMovingAverage = "moving_average"
)

// Config holds every knob of a training or quantization run.
type Config struct {
	Seed      int64  `yaml:"seed"`
	DataDir   string `yaml:"data_dir"`
	BatchSize int    `yaml:"batch_size"`

	Train struct {
		Epochs   int     `yaml:"epochs"`
		LR       float32 `yaml:"lr"`
		Momentum float32 `yaml:"momentum"`
		LogEvery int     `yaml:"log_every"` // batches between progress logs
	} `yaml:"train"`

	QAT struct {
		Epochs      int     `yaml:"epochs"`
		LR          float32 `yaml:"lr"`
		FreezeAfter int     `yaml:"freeze_after"` // epochs before observer freeze
	} `yaml:"qat"`

	Calibration struct {
		Batches  int    `yaml:"batches"`
		Observer string `yaml:"observer"`
	} `yaml:"calibration"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var c Config
	c.Seed = 42
	c.DataDir = "data/mnist"
	c.BatchSize = 64
	c.Train.Epochs = 3
	c.Train.LR = 0.01
	c.Train.Momentum = 0.9
	c.Train.LogEvery = 100
	c.QAT.Epochs = 3
	c.QAT.LR = 0.001
	c.QAT.FreezeAfter = 2
	c.Calibration.Batches = 32
	c.Calibration.Observer = ObserverMinMax
	return c
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, errors.Wrapf(err, "reading %s", path)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, errors.Wrapf(err, "parsing %s", path)
	}
	if err := c.Validate(); err != nil {
		return c, errors.Wrapf(err, "invalid config %s", path)
	}
	return c, nil
}

// Validate rejects values the pipeline cannot run with.
func (c Config) Validate() error {
	if c.BatchSize <= 0 {
		return errors.New("batch_size must be positive")
	}
	if c.Train.Epochs < 0 || c.QAT.Epochs < 0 {
		return errors.New("epoch counts must be non-negative")
	}
	if c.Train.LR <= 0 || c.QAT.LR <= 0 {
		return errors.New("learning rates must be positive")
	}
	switch c.Calibration.Observer {
	case ObserverMinMax, ObserverHistogram, ObserverMovingAverage:
	default:
		return errors.Errorf("unknown observer %q", c.Calibration.Observer)
	}
	return nil
}

// QConfig returns the quantization configuration selected for
// calibration.
func (c Config) QConfig() quant.QConfig {
	switch c.Calibration.Observer {
	case ObserverHistogram:
		return quant.HistogramQConfig()
	case ObserverMovingAverage:
		return quant.QATQConfig()
	default:
		return quant.DefaultQConfig()
	}
}
