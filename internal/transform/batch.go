package transform

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SourceExt is the dialect file extension the batch and watch layers
// operate on.
const SourceExt = ".sorta"

// defaultWorkers bounds concurrent file transforms in a batch run.
const defaultWorkers = 8

// FileReport is the outcome for a single source file.
type FileReport struct {
	Source  string
	Output  string
	Markers int
	Changed bool
	Err     error
}

// BatchResult aggregates one batch run.
type BatchResult struct {
	Files   []FileReport
	Markers int
	Changed int
	Failed  int
}

// Batch transforms every dialect file under a root, a bounded number
// at a time. Files that fail keep their error in the per-file report
// so one bad source never blocks the rest of the tree.
type Batch struct {
	engine *Engine
	log    *zap.Logger

	// Workers overrides the concurrency bound when positive.
	Workers int
}

func NewBatch(engine *Engine) *Batch {
	return &Batch{engine: engine, log: zap.NewNop()}
}

func (b *Batch) SetLogger(log *zap.Logger) {
	if log != nil {
		b.log = log
	}
}

// OutputPath returns the generated sibling for a dialect source path.
func OutputPath(src string) string {
	return strings.TrimSuffix(src, SourceExt) + ".go"
}

// Run transforms every dialect file under root and writes each result
// next to its source. It fails only on walk errors or cancellation;
// per-file problems are reported, counted, and skipped over.
func (b *Batch) Run(ctx context.Context, root string) (*BatchResult, error) {
	var sources []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, SourceExt) {
			sources = append(sources, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &BatchResult{}
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(b.workers())
	for _, src := range sources {
		src := src
		eg.Go(func() error {
			select {
			case <-egCtx.Done():
				return egCtx.Err()
			default:
			}
			rep := b.FileTo(src, OutputPath(src))
			mu.Lock()
			res.Files = append(res.Files, rep)
			res.Markers += rep.Markers
			if rep.Changed {
				res.Changed++
			}
			if rep.Err != nil {
				res.Failed++
			}
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(res.Files, func(i, j int) bool {
		return res.Files[i].Source < res.Files[j].Source
	})
	return res, nil
}

// FileTo transforms src and writes the result to out. Marker-free
// content still produces its sibling so the generated file always
// exists; an existing identical sibling is left untouched.
func (b *Batch) FileTo(src, out string) FileReport {
	rep := FileReport{Source: src, Output: out}

	data, err := os.ReadFile(src)
	if err != nil {
		rep.Err = err
		b.log.Warn("read failed", zap.String("file", src), zap.Error(err))
		return rep
	}
	res, err := b.engine.Transform(src, data)
	if err != nil {
		rep.Err = err
		b.log.Warn("transform failed", zap.String("file", src), zap.Error(err))
		return rep
	}
	rep.Markers = len(res.Matches)
	rep.Changed = res.Changed

	if prev, err := os.ReadFile(out); err == nil && bytes.Equal(prev, res.Output) {
		return rep
	}
	if err := os.WriteFile(out, res.Output, 0o644); err != nil {
		rep.Err = err
		b.log.Warn("write failed", zap.String("file", out), zap.Error(err))
		return rep
	}
	b.log.Debug("transformed",
		zap.String("source", src),
		zap.String("output", out),
		zap.Int("markers", rep.Markers))
	return rep
}

func (b *Batch) workers() int {
	if b.Workers > 0 {
		return b.Workers
	}
	return defaultWorkers
}

// skipDir filters hidden and underscore-prefixed directories, which
// the Go toolchain ignores as well.
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}
