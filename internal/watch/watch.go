// Package watch reruns a build whenever one of its input files changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

// DefaultMinInterval is the shortest time between two rebuilds.
const DefaultMinInterval = 500 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	MinInterval time.Duration // 0 means DefaultMinInterval
	OnError     func(error)   // watcher and build errors; nil drops them
	OnBuild     func(error)   // called after every build
}

// Watcher rebuilds when any watched file is written, created or renamed.
// Bursts of events are coalesced into a single rebuild.
type Watcher struct {
	files   map[string]bool
	watcher *fsnotify.Watcher
	limiter *rate.Limiter
	pending chan struct{}
	opts    Options
}

// New watches the given files. Their directories are watched so that editors
// which replace a file on save are seen.
func New(files []string, opts Options) (*Watcher, error) {
	if opts.MinInterval <= 0 {
		opts.MinInterval = DefaultMinInterval
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w := &Watcher{
		files:   make(map[string]bool),
		watcher: fw,
		limiter: rate.NewLimiter(rate.Every(opts.MinInterval), 1),
		pending: make(chan struct{}, 1),
		opts:    opts,
	}

	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("resolving %s: %w", f, err)
		}
		w.files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
		dirs[dir] = true
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run calls build once, then again after every change, until ctx is done.
func (w *Watcher) Run(ctx context.Context, build func(context.Context) error) error {
	w.trigger()

	go w.collect(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.pending:
		}
		if err := w.limiter.Wait(ctx); err != nil {
			return nil
		}
		err := build(ctx)
		if err != nil {
			w.report(err)
		}
		if w.opts.OnBuild != nil {
			w.opts.OnBuild(err)
		}
	}
}

// collect turns file events into pending rebuilds.
func (w *Watcher) collect(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				w.trigger()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.report(err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return w.files[abs]
}

// trigger marks a rebuild as pending without blocking.
func (w *Watcher) trigger() {
	select {
	case w.pending <- struct{}{}:
	default:
	}
}

func (w *Watcher) report(err error) {
	if w.opts.OnError != nil {
		w.opts.OnError(err)
	}
}
