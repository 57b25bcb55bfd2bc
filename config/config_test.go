package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestDecodeOverridesDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
window:
  title: demo
  width: 320
frame:
  strategy: unlimited
logger:
  level: debug
  encoding: json
`))
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Window.Title)
	assert.Equal(t, 320, cfg.Window.Width)
	assert.Equal(t, 360, cfg.Window.Height)
	assert.Equal(t, "unlimited", cfg.Frame.Strategy)
	assert.Equal(t, 60, cfg.Frame.FPS)
	assert.Equal(t, "json", cfg.Logger.Encoding)
	assert.Equal(t, time.Duration(0), cfg.FrameLimiter().Target())
}

func TestDecodeEmpty(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDecodeInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero width", "window: {width: 0}"},
		{"bad strategy", "frame: {strategy: vsync}"},
		{"negative fps", "frame: {fps: -1}"},
		{"bad level", "logger: {level: loud}"},
		{"bad encoding", "logger: {encoding: xml}"},
		{"bad background", "window: {background: notacolor}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.yaml))
			require.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestDecodeUnknownField(t *testing.T) {
	_, err := Decode(strings.NewReader("window: {depth: 3}"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stagehand.yaml")
	require.NoError(t, os.WriteFile(path, []byte("frame:\n  fps: 30\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, time.Second/30, cfg.FrameLimiter().Target())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	log, err := NewLogger(Logger{Level: "warn", Encoding: "json"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))

	_, err = NewLogger(Logger{Level: "nope"})
	require.ErrorIs(t, err, ErrInvalid)
}

func TestBackgroundColor(t *testing.T) {
	cfg := Default()
	cfg.Window.Background = "Red"
	r, g, b, a := cfg.BackgroundColor().RGBA()
	assert.Equal(t, []uint32{0xffff, 0, 0, 0xffff}, []uint32{r, g, b, a})

	cfg.Window.Background = ""
	_, _, _, a = cfg.BackgroundColor().RGBA()
	assert.Equal(t, uint32(0xffff), a)
}
