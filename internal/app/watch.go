package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits after the last change before
// rerunning a session.
const DefaultDebounce = 100 * time.Millisecond

// ErrNothingToWatch indicates a watch with neither a config nor a script.
var ErrNothingToWatch = errors.New("nothing to watch")

// Session is one run: build the tree, run the script, dump the result.
type Session struct {
	Options Options
	Script  string
	Dump    string
}

// Run executes the session on a fresh application and writes the dump to w.
func (s Session) Run(w io.Writer) error {
	app, err := New(s.Options)
	if err != nil {
		return err
	}
	defer app.Shutdown()

	if s.Script != "" {
		if err := app.RunScript(s.Script); err != nil {
			return err
		}
	}
	return app.Dump(w, s.Dump)
}

// Watch runs the session, then reruns it every time the config file or the
// script changes, until ctx is cancelled. Each run starts from an empty
// tree. Session failures are logged and do not stop the watch.
func (s Session) Watch(ctx context.Context, w io.Writer, logger *slog.Logger, debounce time.Duration) error {
	if logger == nil {
		logger = slog.Default()
	}

	targets := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range []string{s.Options.ConfigPath, s.Script} {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	if len(targets) == 0 {
		return ErrNothingToWatch
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	// Watch directories so editors that replace files on save are seen
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	run := func() {
		if err := s.Run(w); err != nil {
			logger.Error("session failed", slog.Any("error", err))
		}
	}
	run()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !targets[filepath.Clean(ev.Name)] {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("change detected",
				slog.String("path", ev.Name),
				slog.String("op", ev.Op.String()),
			)
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", slog.Any("error", err))
		case <-fire:
			fire = nil
			run()
		}
	}
}
