// cmd/spectrum/main.go: Bohr-Sommerfeld spectrum of a power-law well
//
// Quantizes every level in [n_min, n_max] (default 0..50).
//
// Usage:
//
//	go run ./cmd/spectrum
//	go run ./cmd/spectrum -config run.yaml
//
// Output: output/energys_exact.dat with rows "n E".
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

	log, _, err := logging.ForRun("spectrum", cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	spec, err := pipeline.RunSpectrum(ctx, cfg, log)
	if err != nil {
		log.Error("run failed", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	log.Info("done", zap.Int("levels", len(spec)), zap.String("path", cfg.SpectrumPath()))
}
