// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultMaxAlerts         = 3
	DefaultAlertDuration     = 3 * time.Second
	DefaultItemHeight        = 40
	DefaultTopSpacing        = 4
	DefaultBottomSpacing     = 6
	DefaultSideMargin        = 10
	DefaultAnimationDuration = 400 * time.Millisecond
	DefaultSpringDamping     = 0.7
	DefaultFPS               = 60
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "3s", "400ms", "1m", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	// Integer values are milliseconds
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '3s', '400ms', '1m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config is the stackalert configuration.
// Loaded from ~/.config/stackalert/config.toml
type Config struct {
	Stack     StackConfig     `toml:"stack"`
	Layout    LayoutConfig    `toml:"layout"`
	Animation AnimationConfig `toml:"animation"`
	TUI       TUIConfig       `toml:"tui"`
	Headless  HeadlessConfig  `toml:"headless"`
	Log       LogConfig       `toml:"log"`
}

// StackConfig holds capacity and timeout settings.
type StackConfig struct {
	MaxAlerts       int      `toml:"max_alerts"`       // Maximum simultaneous alerts
	DefaultDuration Duration `toml:"default_duration"` // Used when Show gets no duration
}

// LayoutConfig holds alert geometry in surface units.
type LayoutConfig struct {
	ItemHeight    float64 `toml:"item_height"`
	TopSpacing    float64 `toml:"top_spacing"`    // Gap between top-stacked alerts
	BottomSpacing float64 `toml:"bottom_spacing"` // Gap between bottom-stacked alerts and the bottom edge
	SideMargin    float64 `toml:"side_margin"`    // Horizontal inset on both sides
}

// AnimationConfig holds animation timing.
type AnimationConfig struct {
	Duration Duration `toml:"duration"`
	Damping  float64  `toml:"damping"` // Spring damping ratio for repositioning, 0-1
	FPS      int      `toml:"fps"`     // Frame rate of the terminal surface
}

// TUIConfig holds terminal surface settings.
// Cell sizes map surface units to terminal columns and rows.
type TUIConfig struct {
	CellWidth      float64 `toml:"cell_width"`
	CellHeight     float64 `toml:"cell_height"`
	SafeAreaTop    int     `toml:"safe_area_top"`    // Rows reserved at the top
	SafeAreaBottom int     `toml:"safe_area_bottom"` // Rows reserved at the bottom
}

// HeadlessConfig holds the fixed bounds used by the recording surface.
type HeadlessConfig struct {
	Width          float64 `toml:"width"`
	Height         float64 `toml:"height"`
	SafeAreaTop    float64 `toml:"safe_area_top"`
	SafeAreaBottom float64 `toml:"safe_area_bottom"`
}

// LogConfig holds log output settings for long-running commands.
type LogConfig struct {
	File string `toml:"file"` // Empty = state directory
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Stack: StackConfig{
			MaxAlerts:       DefaultMaxAlerts,
			DefaultDuration: Duration(DefaultAlertDuration),
		},
		Layout: LayoutConfig{
			ItemHeight:    DefaultItemHeight,
			TopSpacing:    DefaultTopSpacing,
			BottomSpacing: DefaultBottomSpacing,
			SideMargin:    DefaultSideMargin,
		},
		Animation: AnimationConfig{
			Duration: Duration(DefaultAnimationDuration),
			Damping:  DefaultSpringDamping,
			FPS:      DefaultFPS,
		},
		TUI: TUIConfig{
			CellWidth:      8,
			CellHeight:     14,
			SafeAreaTop:    1,
			SafeAreaBottom: 1,
		},
		Headless: HeadlessConfig{
			Width:          390,
			Height:         844,
			SafeAreaTop:    47,
			SafeAreaBottom: 34,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "stackalert", "config.toml")
}

// StatePath returns the path to the state directory.
// Uses XDG_STATE_HOME if set, otherwise ~/.local/state.
func StatePath() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "stackalert")
}

// LogPath returns the log file path, honouring the configured override.
func (c *Config) LogPath() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(StatePath(), "stackalert.log")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	// Start with defaults, then overlay with file contents
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed and writes atomically via a temp file.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Stack.MaxAlerts < 1 || c.Stack.MaxAlerts > 20 {
		return fmt.Errorf("max_alerts must be between 1 and 20, got %d", c.Stack.MaxAlerts)
	}
	if c.Stack.DefaultDuration.Duration() <= 0 {
		return fmt.Errorf("default_duration must be positive, got %s", c.Stack.DefaultDuration.Duration())
	}

	if c.Layout.ItemHeight <= 0 {
		return fmt.Errorf("item_height must be positive, got %g", c.Layout.ItemHeight)
	}
	if c.Layout.TopSpacing < 0 || c.Layout.BottomSpacing < 0 || c.Layout.SideMargin < 0 {
		return errors.New("top_spacing, bottom_spacing and side_margin must not be negative")
	}

	if c.Animation.Duration.Duration() < 0 {
		return fmt.Errorf("animation duration must not be negative, got %s", c.Animation.Duration.Duration())
	}
	if c.Animation.Damping <= 0 || c.Animation.Damping > 1 {
		return fmt.Errorf("damping must be in (0, 1], got %g", c.Animation.Damping)
	}
	if c.Animation.FPS < 1 || c.Animation.FPS > 240 {
		return fmt.Errorf("fps must be between 1 and 240, got %d", c.Animation.FPS)
	}

	if c.TUI.CellWidth <= 0 || c.TUI.CellHeight <= 0 {
		return errors.New("cell_width and cell_height must be positive")
	}
	if c.TUI.SafeAreaTop < 0 || c.TUI.SafeAreaBottom < 0 {
		return errors.New("tui safe areas must not be negative")
	}

	if c.Headless.Width <= 0 || c.Headless.Height <= 0 {
		return errors.New("headless width and height must be positive")
	}

	return nil
}

// EnsureStateDir creates the state directory if it doesn't exist.
func EnsureStateDir() error {
	path := StatePath()
	if path == "" {
		return errors.New("unable to determine state directory")
	}
	return os.MkdirAll(path, 0755)
}
