// Package watch re-runs ingestion when an input file changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"tradeledger/internal/logger"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

// RunFunc re-ingests one file from the start.
type RunFunc func(ctx context.Context, path string) error

type Options struct {
	// Debounce is the quiet period after the last event before a run starts.
	Debounce time.Duration
	// MinInterval spaces consecutive runs; zero means no limit.
	MinInterval time.Duration
}

// Watcher watches the parent directories of its files so that rotated or
// replaced files are still picked up.
type Watcher struct {
	opts    Options
	limiter *rate.Limiter

	mu    sync.Mutex
	files map[string]RunFunc
}

func New(opts Options) *Watcher {
	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}
	return &Watcher{
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		files:   make(map[string]RunFunc),
	}
}

func (w *Watcher) Add(path string, run RunFunc) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("watch %s: nil run func", path)
	}
	w.mu.Lock()
	w.files[filepath.Clean(abs)] = run
	w.mu.Unlock()
	return nil
}

// Run blocks until ctx is cancelled. Run errors are logged and watching continues.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	w.mu.Lock()
	dirs := make(map[string]struct{})
	for p := range w.files {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	w.mu.Unlock()
	if len(dirs) == 0 {
		return fmt.Errorf("watch: no files registered")
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	logger.Infof("watching %d file(s) for changes", len(w.files))

	pending := make(map[string]struct{})
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) {
				continue
			}
			path := filepath.Clean(evt.Name)
			if !w.tracked(path) {
				continue
			}
			pending[path] = struct{}{}
			timer.Reset(w.opts.Debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("watch error: %v", err)
		case <-timer.C:
			if err := w.runPending(ctx, pending); err != nil {
				return nil
			}
			clear(pending)
		}
	}
}

func (w *Watcher) tracked(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.files[path]
	return ok
}

// runPending returns only when ctx ends while waiting on the limiter.
func (w *Watcher) runPending(ctx context.Context, pending map[string]struct{}) error {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if err := w.limiter.Wait(ctx); err != nil {
			return err
		}
		w.mu.Lock()
		run := w.files[p]
		w.mu.Unlock()
		logger.Infof("change detected, re-ingesting %s", p)
		if err := run(ctx, p); err != nil {
			logger.Errorf("re-ingest %s failed: %v", p, err)
		}
	}
	return nil
}
