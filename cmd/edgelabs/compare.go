package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"

	"github.com/munir2200963/edge-labs/internal/backend/cpu"
	"github.com/munir2200963/edge-labs/internal/model"
	"github.com/munir2200963/edge-labs/internal/serialization"
	"github.com/munir2200963/edge-labs/internal/train"
)

func compareCmd() *cli.Command {
	var (
		configPath string
		floatPath  string
		quantPath  string
	)

	return &cli.Command{
		Name:  "compare",
		Usage: "Evaluate a float and a quantized model blob side by side",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to YAML config",
				Destination: &configPath,
			},
			&cli.StringFlag{
				Name:        "float",
				Usage:       "float model blob",
				Value:       "model.elb",
				Destination: &floatPath,
			},
			&cli.StringFlag{
				Name:        "quantized",
				Usage:       "quantized model blob",
				Value:       "model-int8.elb",
				Destination: &quantPath,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			_, testSet, err := loadData(ctx, cfg)
			if err != nil {
				return err
			}

			backend := newBackend()
			m := model.NewClassifier(rand.New(rand.NewSource(cfg.Seed)), backend)
			fh, fEntries, err := serialization.Read(floatPath)
			if err != nil {
				return err
			}
			if fh.ModelType != model.FloatModelType {
				return errors.Errorf("%s holds a %q model, want %q", floatPath, fh.ModelType, model.FloatModelType)
			}
			if err := m.LoadStateDict(fEntries); err != nil {
				return errors.Wrapf(err, "loading %s", floatPath)
			}

			qh, qEntries, err := serialization.Read(quantPath)
			if err != nil {
				return err
			}
			if qh.ModelType != model.QuantizedModelType {
				return errors.Errorf("%s holds a %q model, want %q", quantPath, qh.ModelType, model.QuantizedModelType)
			}
			q, err := model.LoadQuantized(qh, qEntries)
			if err != nil {
				return errors.Wrapf(err, "loading %s", quantPath)
			}

			floatAcc := train.Evaluate(m, testSet, cfg.BatchSize)
			quantAcc, err := train.EvaluateQuantized(q, testSet, cfg.BatchSize, cpu.New())
			if err != nil {
				return err
			}

			fInfo, err := os.Stat(floatPath)
			if err != nil {
				return err
			}
			qInfo, err := os.Stat(quantPath)
			if err != nil {
				return err
			}

			fmt.Printf("float:     %.2f%% accuracy, %s (%s)\n",
				floatAcc*100, humanize.Bytes(uint64(fInfo.Size())), floatPath)
			fmt.Printf("quantized: %.2f%% accuracy, %s (%s)\n",
				quantAcc*100, humanize.Bytes(uint64(qInfo.Size())), quantPath)
			fmt.Printf("size reduction: %.2fx, accuracy delta: %+.2f points\n",
				float64(fInfo.Size())/float64(qInfo.Size()), (quantAcc-floatAcc)*100)
			return nil
		},
	}
}
