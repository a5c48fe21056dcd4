package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sorta/fuzzy"
	"sorta/internal/interpret"
	"sorta/internal/telemetry"
	"sorta/internal/transform"
)

var (
	runMood    string
	runChaos   int
	runSeed    int64
	runTimeout time.Duration
)

// runProgram transforms one source in memory and executes it.
func runProgram(cmd *cobra.Command, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", args[0], err)
	}

	name := filepath.Base(args[0])
	res, err := transform.NewEngine().Transform(name, src)
	if err != nil {
		return err
	}

	// Flags beat config; config already validated.
	mood := cfg.Personality.Mood
	if runMood != "" {
		mood = runMood
	}
	chaos := cfg.Personality.Chaos
	if runChaos != 0 {
		chaos = runChaos
	}
	if err := fuzzy.SetContext(mood, chaos); err != nil {
		return err
	}

	seed := cfg.Personality.Seed
	if runSeed != 0 {
		seed = runSeed
	}
	if seed != 0 {
		fuzzy.Seed(seed)
	}

	fuzzy.SetLoopLimits(cfg.Limits.MaxWhileCycles, cfg.Limits.SampleWindow,
		cfg.Limits.MinSamples, cfg.Limits.MaxEvaluations)
	fuzzy.SetLogger(logger)

	ctx := context.Background()
	var cancel context.CancelFunc
	if runTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, runTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("interrupt received")
			cancel()
		case <-ctx.Done():
		}
	}()

	logger.Debug("executing program",
		zap.String("file", args[0]),
		zap.String("mood", mood),
		zap.Int("chaos", chaos),
		zap.Int("markers", len(res.Matches)))

	exec := interpret.NewExecutor()
	exec.SetLogger(logger)
	runErr := exec.Run(ctx, name, res.Output)

	persistChronicle()

	return runErr
}

// persistChronicle appends this run's telemetry to the chronicle. A
// chronicle failure is reported but never fails the run itself.
func persistChronicle() {
	if !cfg.Chronicle.Enabled {
		return
	}
	chron, err := telemetry.OpenChronicle(cfg.Chronicle.DatabasePath)
	if err != nil {
		logger.Warn("chronicle unavailable", zap.Error(err))
		return
	}
	defer chron.Close()

	if err := chron.Append(fuzzy.Snapshot()); err != nil {
		logger.Warn("chronicle append failed", zap.Error(err))
	}
}
