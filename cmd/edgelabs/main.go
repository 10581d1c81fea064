// Package main provides the edgelabs CLI: training, post-training
// quantization, quantization-aware training and model comparison for the
// MNIST classifier.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"k8s.io/klog/v2"
)

func main() {
	klog.InitFlags(flag.CommandLine)

	app := &cli.Command{
		Name:  "edgelabs",
		Usage: "int8 quantization experiments on an MNIST classifier",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			trainCmd(),
			ptqCmd(),
			qatCmd(),
			compareCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
