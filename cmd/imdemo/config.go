package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config is the demo configuration, read from a TOML file.
type Config struct {
	Window WindowConfig `toml:"window"`
	Render RenderConfig `toml:"render"`
	UI     UIConfig     `toml:"ui"`
	Log    LogConfig    `toml:"log"`
}

// WindowConfig describes the virtual window the GUI is laid out in.
type WindowConfig struct {
	Width  int     `toml:"width"`
	Height int     `toml:"height"`
	Scale  float64 `toml:"scale"`
}

// RenderConfig selects the backend and the output.
type RenderConfig struct {
	// Backend is one of auto, vulkan, software or noop.
	Backend        string     `toml:"backend"`
	Frames         int        `toml:"frames"`
	FramesInFlight int        `toml:"frames_in_flight"`
	Output         string     `toml:"output"`
	Clear          [4]float64 `toml:"clear"`
}

// UIConfig is the content of the demo window.
type UIConfig struct {
	Title string `toml:"title"`
	// Typed is typed into the text field by the scripted session.
	Typed string `toml:"typed"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `toml:"level"`
}

var backends = []string{"auto", "vulkan", "software", "noop"}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{Width: 640, Height: 400, Scale: 1},
		Render: RenderConfig{
			Backend:        "auto",
			Frames:         8,
			FramesInFlight: 3,
			Output:         "imdemo.png",
			Clear:          [4]float64{0.10, 0.11, 0.13, 1},
		},
		UI:  UIConfig{Title: "imrender demo", Typed: "hello"},
		Log: LogConfig{Level: "info"},
	}
}

// LoadConfig reads path over the defaults. Unknown keys are an error; values
// are not checked until Validate, so flags can still override them.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return cfg, fmt.Errorf("config %s: %s", path, strict.String())
		}
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Window.Scale <= 0 {
		return fmt.Errorf("window scale %v must be positive", c.Window.Scale)
	}
	if c.Render.Frames < 1 {
		return fmt.Errorf("render frames %d must be at least 1", c.Render.Frames)
	}
	if c.Render.FramesInFlight < 1 {
		return fmt.Errorf("render frames_in_flight %d must be at least 1", c.Render.FramesInFlight)
	}
	for _, b := range backends {
		if b == c.Render.Backend {
			return nil
		}
	}
	return fmt.Errorf("unknown backend %q (want one of %s)", c.Render.Backend, strings.Join(backends, ", "))
}
