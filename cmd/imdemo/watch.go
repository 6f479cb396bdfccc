package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce collapses the burst of events editors produce on save.
const debounce = 150 * time.Millisecond

// watch re-runs the session each time the config file changes, until ctx is
// done. The directory is watched rather than the file so that editors which
// replace the file on save keep triggering events.
func watch(ctx context.Context, path string, apply func(Config) Config, log *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	log.Info("watching config", "path", abs)

	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			timer = time.After(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", "err", err)
		case <-timer:
			timer = nil
			cfg, err := LoadConfig(path)
			if err != nil {
				log.Error("reload config", "err", err)
				continue
			}
			cfg = apply(cfg)
			if err := cfg.Validate(); err != nil {
				log.Error("reload config", "err", err)
				continue
			}
			if err := runOnce(cfg, log); err != nil {
				log.Error("render", "err", err)
			}
		}
	}
}
