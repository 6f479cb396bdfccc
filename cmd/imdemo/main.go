// Command imdemo renders a scripted GUI session with imrender into an
// offscreen target and saves the last frame as a PNG.
//
// Usage:
//
//	imdemo -config imdemo.toml -backend software -output out.png
//	imdemo -config imdemo.toml -watch
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gogpu/imrender"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "imdemo:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "TOML config file")
		backend    = flag.String("backend", "", "backend: auto, vulkan, software or noop")
		frames     = flag.Int("frames", 0, "number of frames to render")
		output     = flag.String("output", "", "output PNG file")
		width      = flag.Int("width", 0, "window width")
		height     = flag.Int("height", 0, "window height")
		level      = flag.String("log-level", "", "log level: debug, info, warn or error")
		watchCfg   = flag.Bool("watch", false, "re-render whenever the config file changes")
	)
	flag.Parse()

	// Flags given on the command line win over the config file.
	apply := func(cfg Config) Config {
		flag.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "backend":
				cfg.Render.Backend = *backend
			case "frames":
				cfg.Render.Frames = *frames
			case "output":
				cfg.Render.Output = *output
			case "width":
				cfg.Window.Width = *width
			case "height":
				cfg.Window.Height = *height
			case "log-level":
				cfg.Log.Level = *level
			}
		})
		return cfg
	}

	cfg := DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = LoadConfig(*configPath); err != nil {
			return err
		}
	}
	cfg = apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if *watchCfg && *configPath == "" {
		return fmt.Errorf("-watch needs -config")
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	imrender.SetLogger(logger)

	if err := runOnce(cfg, logger); err != nil {
		return err
	}
	if !*watchCfg {
		return nil
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return watch(ctx, *configPath, apply, logger)
}

// newLogger returns an slog logger backed by a charmbracelet/log handler.
func newLogger(level string) (*slog.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	h := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "imdemo",
		Level:           lvl,
	})
	return slog.New(h), nil
}
