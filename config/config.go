// Package config loads the engine's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"strings"

	"github.com/milk9111/stagehand/engine"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Window Window `yaml:"window"`
	Frame  Frame  `yaml:"frame"`
	Logger Logger `yaml:"logger"`
	Assets Assets `yaml:"assets"`
}

type Window struct {
	Title     string `yaml:"title"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Resizable bool   `yaml:"resizable"`
	// Background is an x/image color name such as "black" or "midnightblue".
	Background string `yaml:"background"`
}

type Frame struct {
	Strategy string `yaml:"strategy"`
	FPS      int    `yaml:"fps"`
}

type Logger struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

type Assets struct {
	Dir     string `yaml:"dir"`
	Prefabs string `yaml:"prefabs"`
	Levels  string `yaml:"levels"`
	Watch   bool   `yaml:"watch"`
}

func Default() *Config {
	return &Config{
		Window: Window{Title: "stagehand", Width: 640, Height: 360, Resizable: true, Background: "black"},
		Frame:  Frame{Strategy: engine.StrategySleep.String(), FPS: engine.DefaultFPS},
		Logger: Logger{Level: "info", Encoding: "console"},
		Assets: Assets{Dir: "assets", Prefabs: "prefabs", Levels: "levels"},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	if c.Window.Background != "" {
		if _, ok := colornames.Map[strings.ToLower(c.Window.Background)]; !ok {
			return fmt.Errorf("%w: unknown background color %q", ErrInvalid, c.Window.Background)
		}
	}
	if _, err := engine.ParseStrategy(c.Frame.Strategy); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Frame.FPS < 0 {
		return fmt.Errorf("%w: fps %d", ErrInvalid, c.Frame.FPS)
	}
	if _, err := zapcore.ParseLevel(c.Logger.Level); err != nil {
		return fmt.Errorf("%w: logger level %q", ErrInvalid, c.Logger.Level)
	}
	switch c.Logger.Encoding {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: logger encoding %q", ErrInvalid, c.Logger.Encoding)
	}
	return nil
}

// BackgroundColor resolves Window.Background, falling back to black.
func (c *Config) BackgroundColor() color.Color {
	if rgba, ok := colornames.Map[strings.ToLower(c.Window.Background)]; ok {
		return rgba
	}
	return color.Black
}

// FrameLimiter builds the limiter described by the frame block.
func (c *Config) FrameLimiter() *engine.FrameLimiter {
	strategy, err := engine.ParseStrategy(c.Frame.Strategy)
	if err != nil {
		strategy = engine.StrategySleep
	}
	return engine.NewFrameLimiter(strategy, c.Frame.FPS)
}

// NewLogger builds a zap logger from the logger block.
func NewLogger(l Logger) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: logger level %q", ErrInvalid, l.Level)
	}
	encoding := l.Encoding
	if encoding == "" {
		encoding = "console"
	}
	encoderConfig := zap.NewProductionEncoderConfig()
	if encoding == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	cfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(level),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}
	return cfg.Build()
}
