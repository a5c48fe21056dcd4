package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sorta/internal/transform"
)

var (
	outputPath string
	watchMode  bool
)

// runTransform rewrites a tree (or a single file) of dialect sources.
func runTransform(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("cannot transform %s: %w", target, err)
	}

	batch := transform.NewBatch(transform.NewEngine())
	batch.Workers = cfg.Transform.Workers
	batch.SetLogger(logger)

	if !info.IsDir() {
		return transformFile(batch, target)
	}
	if outputPath != "" {
		return fmt.Errorf("--output applies to single files, not directories")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res, err := batch.Run(ctx, target)
	if err != nil {
		return err
	}
	printBatch(res)

	if watchMode {
		return watchTree(ctx, batch, target)
	}
	if res.Failed > 0 {
		return fmt.Errorf("%d of %d files failed to transform", res.Failed, len(res.Files))
	}
	return nil
}

// transformFile handles single-file mode, honoring --output.
func transformFile(batch *transform.Batch, src string) error {
	out := outputPath
	if out == "" {
		out = transform.OutputPath(src)
	}

	report := batch.FileTo(src, out)
	if report.Err != nil {
		return report.Err
	}
	if report.Changed {
		fmt.Printf("%s -> %s (%d markers)\n", report.Source, report.Output, report.Markers)
	} else {
		fmt.Printf("%s -> %s (no markers)\n", report.Source, report.Output)
	}
	return nil
}

func printBatch(res *transform.BatchResult) {
	for _, f := range res.Files {
		switch {
		case f.Err != nil:
			fmt.Printf("  %s: %v\n", f.Source, f.Err)
		case f.Changed:
			fmt.Printf("  %s -> %s (%d markers)\n", f.Source, f.Output, f.Markers)
		}
	}
	fmt.Printf("%d files, %d transformed, %d markers, %d failed\n",
		len(res.Files), res.Changed, res.Markers, res.Failed)
}

// watchTree keeps transforming until interrupted.
func watchTree(ctx context.Context, batch *transform.Batch, root string) error {
	w, err := transform.NewWatcher(root, batch)
	if err != nil {
		return fmt.Errorf("cannot watch %s: %w", root, err)
	}
	w.SetLogger(logger)
	w.SetDebounce(cfg.GetDebounce())

	if err := w.Start(ctx); err != nil {
		return err
	}
	fmt.Printf("watching %s (Ctrl+C to stop)\n", root)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}

	w.Stop()
	stats := w.Stats()
	fmt.Printf("\n%d transforms, %d failures (%d created, %d modified, %d removed)\n",
		stats.Transforms, stats.Failures,
		stats.FilesCreated, stats.FilesModified, stats.FilesRemoved)
	return nil
}
