package main

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/urfave/cli/v3"

	"github.com/munir2200963/edge-labs/internal/backend/cpu"
	"github.com/munir2200963/edge-labs/internal/mnist"
	"github.com/munir2200963/edge-labs/internal/tensor"
	"github.com/munir2200963/edge-labs/internal/train"
)

func ptqCmd() *cli.Command {
	var (
		configPath string
		modelPath  string
		outPath    string
		reportPath string
		observer   string
	)

	return &cli.Command{
		Name:  "ptq",
		Usage: "Post-training static quantization: calibrate a trained model and convert it to int8",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to YAML config",
				Destination: &configPath,
			},
			&cli.StringFlag{
				Name:        "model",
				Aliases:     []string{"m"},
				Usage:       "trained float model to quantize; trains one when omitted",
				Destination: &modelPath,
			},
			&cli.StringFlag{
				Name:        "observer",
				Usage:       "activation observer: minmax, histogram or moving_average",
				Destination: &observer,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "where to write the quantized model",
				Value:       "model-int8.elb",
				Destination: &outPath,
			},
			&cli.StringFlag{
				Name:        "report",
				Usage:       "optional path for a JSON run report",
				Destination: &reportPath,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if observer != "" {
				cfg.Calibration.Observer = observer
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			trainSet, testSet, err := loadData(ctx, cfg)
			if err != nil {
				return err
			}

			rng := rand.New(rand.NewSource(cfg.Seed))
			backend := newBackend()
			m, stats, err := trainFloat(cfg, modelPath, trainSet, rng, backend)
			if err != nil {
				return err
			}

			floatAcc := train.Evaluate(m, testSet, cfg.BatchSize)
			floatSize, err := m.SizeOnDisk()
			if err != nil {
				return err
			}

			m.Prepare(cfg.QConfig())
			calBatches := mnist.Batches(trainSet, cfg.BatchSize, rng, backend)
			if len(calBatches) > cfg.Calibration.Batches {
				calBatches = calBatches[:cfg.Calibration.Batches]
			}
			calInputs := make([]*tensor.Tensor[float32, adBackend], 0, len(calBatches))
			for _, b := range calBatches {
				calInputs = append(calInputs, b.Images)
			}
			if err := m.Calibrate(calInputs); err != nil {
				return err
			}

			q, err := m.Convert()
			if err != nil {
				return err
			}

			quantAcc, err := train.EvaluateQuantized(q, testSet, cfg.BatchSize, cpu.New())
			if err != nil {
				return err
			}
			quantSize, err := q.SizeOnDisk()
			if err != nil {
				return err
			}

			report := train.NewReport("ptq")
			report.Observer = cfg.Calibration.Observer
			report.Epochs = stats
			report.FloatAccuracy = floatAcc
			report.QuantizedAccuracy = quantAcc
			report.FloatSizeBytes = floatSize
			report.QuantizedSize = quantSize
			fmt.Print(report.String())

			if err := saveQuantized(q, outPath); err != nil {
				return err
			}
			fmt.Printf("saved quantized model to %s\n", outPath)

			if reportPath != "" {
				if err := report.WriteJSON(reportPath); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
