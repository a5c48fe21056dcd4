package transform

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher keeps generated siblings current while dialect sources are
// edited. Rapid saves are debounced so editors that write a file
// several times per save trigger a single transform.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	batch       *Batch
	root        string
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	log         *zap.Logger

	stats WatchStats
}

// WatchStats tracks watcher activity.
type WatchStats struct {
	FilesCreated  int
	FilesModified int
	FilesRemoved  int
	Transforms    int
	Failures      int
	LastEventTime time.Time
	LastEventPath string
}

// NewWatcher prepares a watcher over root. Start must be called to
// begin receiving events.
func NewWatcher(root string, batch *Batch) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:     fsw,
		batch:       batch,
		root:        root,
		debounceMap: make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
		log:         zap.NewNop(),
	}, nil
}

func (w *Watcher) SetLogger(log *zap.Logger) {
	if log != nil {
		w.log = log
	}
}

// SetDebounce adjusts how long a file must stay quiet before it is
// transformed. Call before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounceDur = d
	}
}

// Start watches root and every eligible subdirectory, then begins the
// event loop in a goroutine. Calling Start on a running watcher is a
// no-op.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addTree(w.root); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	w.log.Info("watching", zap.String("root", w.root))

	go w.run(ctx)
	return nil
}

// Stop halts the event loop and waits for it to drain.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.log.Warn("close failed", zap.Error(err))
	}
}

// IsWatching reports whether the event loop is live.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// Stats returns a copy of the activity counters.
func (w *Watcher) Stats() WatchStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// ResetStats zeroes the activity counters.
func (w *Watcher) ResetStats() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats = WatchStats{}
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	// Settled events are flushed on a short cadence rather than per
	// event, batching bursts from editors and generators.
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
			w.mu.Lock()
			w.stats.Failures++
			w.mu.Unlock()

		case <-ticker.C:
			w.flushSettled()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
			if !skipDir(filepath.Base(event.Name)) {
				if err := w.addTree(event.Name); err != nil {
					w.log.Warn("watch add failed",
						zap.String("dir", event.Name), zap.Error(err))
				}
			}
			return
		}
	}

	if !strings.HasSuffix(event.Name, SourceExt) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name

	switch {
	case event.Op&fsnotify.Create != 0:
		w.stats.FilesCreated++
	case event.Op&fsnotify.Write != 0:
		w.stats.FilesModified++
	case event.Op&fsnotify.Remove != 0, event.Op&fsnotify.Rename != 0:
		w.stats.FilesRemoved++
		delete(w.debounceMap, event.Name)
		return
	default:
		return
	}

	w.debounceMap[event.Name] = time.Now()
}

// flushSettled transforms every source whose last event is older than
// the debounce window.
func (w *Watcher) flushSettled() {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, at := range w.debounceMap {
		if now.Sub(at) >= w.debounceDur {
			settled = append(settled, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	for _, path := range settled {
		rep := w.batch.FileTo(path, OutputPath(path))

		w.mu.Lock()
		if rep.Err != nil {
			w.stats.Failures++
		} else {
			w.stats.Transforms++
		}
		w.mu.Unlock()

		if rep.Err != nil {
			w.log.Warn("transform failed",
				zap.String("file", path), zap.Error(rep.Err))
		} else {
			w.log.Info("transformed",
				zap.String("file", path), zap.Int("markers", rep.Markers))
		}
	}
}
