// cmd/superposition/main.go: weighted sum of bound states of a power-law well
//
// Solves every configured level, sums them with their complex weights,
// scales the sum and writes the samples.
//
// Usage:
//
//	go run ./cmd/superposition
//	go run ./cmd/superposition -config run.yaml -log-level debug
//
// Output: output/superposition.dat with rows "x Re(ψ) Im(ψ)".
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/njchilds90/gowkb/internal/config"
	"github.com/njchilds90/gowkb/internal/logging"
	"github.com/njchilds90/gowkb/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "", "YAML file overriding the default constants")
	level := flag.String("log-level", "", "log level (debug, info, warn, error)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *level != "" {
		cfg.Log.Level = *level
	}

	log, _, err := logging.ForRun("superposition", cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := pipeline.RunSuperposition(ctx, cfg, log)
	if err != nil {
		log.Error("run failed", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	log.Info("done", zap.Int("levels", len(res.Levels)), zap.String("path", cfg.SuperpositionPath()))
}
