package main

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/urfave/cli/v3"

	"github.com/munir2200963/edge-labs/internal/model"
	"github.com/munir2200963/edge-labs/internal/serialization"
	"github.com/munir2200963/edge-labs/internal/train"
)

func trainCmd() *cli.Command {
	var (
		configPath string
		outPath    string
		reportPath string
	)

	return &cli.Command{
		Name:  "train",
		Usage: "Train the floating-point classifier",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to YAML config",
				Destination: &configPath,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "where to write the trained model",
				Value:       "model.elb",
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
			m, stats, err := trainFloat(cfg, "", trainSet, rng, backend)
			if err != nil {
				return err
			}

			acc := train.Evaluate(m, testSet, cfg.BatchSize)
			size, err := m.SizeOnDisk()
			if err != nil {
				return err
			}
			fmt.Printf("test accuracy: %.2f%%, model size: %d bytes\n", acc*100, size)

			if err := serialization.Write(outPath, model.FloatModelType, m.StateDict(), nil, false); err != nil {
				return err
			}
			fmt.Printf("saved model to %s\n", outPath)

			if reportPath != "" {
				report := train.NewReport("train")
				report.Epochs = stats
				report.FloatAccuracy = acc
				report.FloatSizeBytes = size
				if err := report.WriteJSON(reportPath); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
