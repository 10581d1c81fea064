package main

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/urfave/cli/v3"

	"github.com/munir2200963/edge-labs/internal/backend/cpu"
	"github.com/munir2200963/edge-labs/internal/quant"
	"github.com/munir2200963/edge-labs/internal/train"
)

func qatCmd() *cli.Command {
	var (
		configPath string
		modelPath  string
		outPath    string
		reportPath string
	)

	return &cli.Command{
		Name:  "qat",
		Usage: "Quantization-aware training: fine-tune with fake quantization, then convert to int8",
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
				Usage:       "trained float model to start from; trains one when omitted",
				Destination: &modelPath,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "where to write the quantized model",
				Value:       "model-qat.elb",
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
			trainSet, testSet, err := loadData(ctx, cfg)
			if err != nil {
				return err
			}

			rng := rand.New(rand.NewSource(cfg.Seed))
			backend := newBackend()
			m, floatStats, err := trainFloat(cfg, modelPath, trainSet, rng, backend)
			if err != nil {
				return err
			}

			floatAcc := train.Evaluate(m, testSet, cfg.BatchSize)
			floatSize, err := m.SizeOnDisk()
			if err != nil {
				return err
			}

			m.PrepareQAT(quant.QATQConfig())
			trainer := train.NewTrainer(m, train.Options{
				Epochs:      cfg.QAT.Epochs,
				BatchSize:   cfg.BatchSize,
				LR:          cfg.QAT.LR,
				Momentum:    cfg.Train.Momentum,
				LogEvery:    cfg.Train.LogEvery,
				FreezeAfter: cfg.QAT.FreezeAfter,
				Progress:    true,
			})
			qatStats, err := trainer.Run(trainSet, rng)
			if err != nil {
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

			report := train.NewReport("qat")
			report.Epochs = append(floatStats, qatStats...)
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
