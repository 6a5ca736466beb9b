// Package config loads engine settings from a TOML file layered over
// built-in defaults.
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"

	"PlateStudio/internal/render"
	"PlateStudio/internal/state"
)

// Duration lets TOML files write intervals as strings such as "16ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", text)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the full engine configuration.
type Config struct {
	LogLevel string              `toml:"log_level"`
	Frame    Frame               `toml:"frame"`
	View     View                `toml:"view"`
	Capture  Capture             `toml:"capture"`
	Brush    render.BrushOptions `toml:"brush"`
	Eraser   Eraser              `toml:"eraser"`
	Spawn    Spawn               `toml:"spawn"`
	History  int                 `toml:"history"`
}

// Frame describes the printed plate: its size in element units and the
// bitmap whose alpha defines the visible region in bounded view.
type Frame struct {
	Width          float64 `toml:"width"`
	Height         float64 `toml:"height"`
	Asset          string  `toml:"asset"`
	AlphaThreshold uint8   `toml:"alpha_threshold"`
}

// View bounds pan/zoom interaction.
type View struct {
	Margin   float64 `toml:"margin"`
	MinZoom  float64 `toml:"min_zoom"`
	MaxZoom  float64 `toml:"max_zoom"`
	ZoomStep float64 `toml:"zoom_step"`
}

// Capture tunes stroke sampling and smoothing.
type Capture struct {
	Interval Duration `toml:"interval"`
	Segments int      `toml:"segments"`
	Tension  float64  `toml:"tension"`
}

// Eraser configures the eraser tool.
type Eraser struct {
	Radius float64         `toml:"radius"`
	Mode   state.EraseMode `toml:"mode"`
}

// Spawn configures automatic placement of new elements.
type Spawn struct {
	Attempts int     `toml:"attempts"`
	GridSize float64 `toml:"grid_size"`
	Seed     uint64  `toml:"seed"`
	Inset    float64 `toml:"inset"` // fallback offset from the frame origin
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Frame: Frame{
			Width:          600,
			Height:         400,
			AlphaThreshold: render.DefaultAlphaThreshold,
		},
		View: View{
			Margin:   50,
			MinZoom:  0.1,
			MaxZoom:  5,
			ZoomStep: 1.2,
		},
		Capture: Capture{
			Interval: Duration{time.Second / 60},
			Segments: 8,
			Tension:  0.5,
		},
		Brush: render.DefaultBrushOptions(),
		Eraser: Eraser{
			Radius: 20,
			Mode:   state.ErasePoints,
		},
		Spawn: Spawn{
			Attempts: 24,
			GridSize: 10,
			Seed:     1,
			Inset:    20,
		},
		History: state.DefaultHistoryLimit,
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := Parse(string(data), &cfg); err != nil {
		return cfg, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes TOML text into cfg, leaving fields not present untouched,
// and validates the result.
func Parse(text string, cfg *Config) error {
	md, err := toml.Decode(text, cfg)
	if err != nil {
		return errors.Wrap(err, "parse toml")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg.Validate()
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Frame.Width <= 0 || c.Frame.Height <= 0:
		return errors.New("frame size must be positive")
	case c.View.MinZoom <= 0 || c.View.MaxZoom < c.View.MinZoom:
		return errors.Errorf("invalid zoom range [%v, %v]", c.View.MinZoom, c.View.MaxZoom)
	case c.View.ZoomStep <= 1:
		return errors.New("zoom_step must be greater than 1")
	case c.View.Margin < 0:
		return errors.New("margin must not be negative")
	case c.Capture.Interval.Duration <= 0:
		return errors.New("capture interval must be positive")
	case c.Capture.Segments < 1:
		return errors.New("capture segments must be at least 1")
	case c.Capture.Tension < 0 || c.Capture.Tension > 1:
		return errors.New("capture tension must be within [0, 1]")
	case c.Eraser.Mode != state.ErasePoints && c.Eraser.Mode != state.EraseSegments:
		return errors.Errorf("unknown eraser mode %q", c.Eraser.Mode)
	case c.Spawn.Attempts < 0:
		return errors.New("spawn attempts must not be negative")
	}
	return nil
}

// Logger builds the root logger at the configured level.
func (c *Config) Logger(name string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  name,
		Level: hclog.LevelFromString(c.LogLevel),
	})
}
