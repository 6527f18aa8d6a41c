// Package trigger re-runs the conversion when input files change or on a
// cron schedule.
package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
)

// Runner is one complete conversion run. pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context) error
}

// Loop serialises runs. Requests that arrive while a run is in progress
// collapse into a single follow-up run.
type Loop struct {
	runner  Runner
	logger  *slog.Logger
	pending chan struct{}
}

// NewLoop creates a Loop for runner.
func NewLoop(runner Runner, logger *slog.Logger) *Loop {
	return &Loop{runner: runner, logger: logger, pending: make(chan struct{}, 1)}
}

// Request asks for a run without blocking.
func (l *Loop) Request(reason string) {
	select {
	case l.pending <- struct{}{}:
		l.logger.Debug("run requested", "reason", reason)
	default:
	}
}

// Serve executes requested runs until ctx is cancelled. Run errors are
// logged and do not stop the loop.
func (l *Loop) Serve(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.pending:
			if err := l.runner.Run(ctx); err != nil && ctx.Err() == nil {
				l.logger.Error("triggered run failed", "error", err)
			}
		}
	}
}

// Schedule requests a run on every tick of the cron expression. Stop the
// returned scheduler on shutdown.
func Schedule(expr string, l *Loop) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(expr, func() { l.Request("schedule") }); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	c.Start()
	return c, nil
}

// Watcher requests a run when a file matching glob in dir is created or
// written. Bursts of events within the debounce window produce one request.
type Watcher struct {
	dir      string
	glob     string
	debounce time.Duration
	clock    clockwork.Clock
	loop     *Loop
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
}

// NewWatcher starts watching dir.
func NewWatcher(dir, glob string, debounce time.Duration, clock clockwork.Clock, l *Loop, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{
		dir:      dir,
		glob:     glob,
		debounce: debounce,
		clock:    clock,
		loop:     l,
		logger:   logger,
		watcher:  fw,
	}, nil
}

// Run forwards matching events until ctx is cancelled or the watcher closes.
func (w *Watcher) Run(ctx context.Context) {
	var timer clockwork.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !w.matches(event.Name) {
				continue
			}
			w.logger.Debug("input changed", "path", event.Name, "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = w.clock.AfterFunc(w.debounce, func() { w.loop.Request("file change") })
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) matches(path string) bool {
	ok, err := filepath.Match(w.glob, filepath.Base(path))
	return err == nil && ok
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
