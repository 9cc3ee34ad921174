package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 3, cfg.Stack.MaxAlerts)
	assert.Equal(t, 3*time.Second, cfg.Stack.DefaultDuration.Duration())
	assert.Equal(t, 40.0, cfg.Layout.ItemHeight)
	assert.Equal(t, 4.0, cfg.Layout.TopSpacing)
	assert.Equal(t, 6.0, cfg.Layout.BottomSpacing)
	assert.Equal(t, 10.0, cfg.Layout.SideMargin)
	assert.Equal(t, 400*time.Millisecond, cfg.Animation.Duration.Duration())
	assert.Equal(t, 0.7, cfg.Animation.Damping)
	assert.Equal(t, 60, cfg.Animation.FPS)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_ParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[stack]
max_alerts = 5
default_duration = "1500ms"

[layout]
item_height = 48
top_spacing = 8
bottom_spacing = 2
side_margin = 16

[animation]
duration = "250ms"
damping = 0.5
fps = 30

[tui]
cell_width = 10
cell_height = 16
safe_area_top = 2
safe_area_bottom = 0

[log]
file = "/tmp/stackalert.log"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Stack.MaxAlerts)
	assert.Equal(t, 1500*time.Millisecond, cfg.Stack.DefaultDuration.Duration())
	assert.Equal(t, 48.0, cfg.Layout.ItemHeight)
	assert.Equal(t, 8.0, cfg.Layout.TopSpacing)
	assert.Equal(t, 2.0, cfg.Layout.BottomSpacing)
	assert.Equal(t, 16.0, cfg.Layout.SideMargin)
	assert.Equal(t, 250*time.Millisecond, cfg.Animation.Duration.Duration())
	assert.Equal(t, 0.5, cfg.Animation.Damping)
	assert.Equal(t, 30, cfg.Animation.FPS)
	assert.Equal(t, 10.0, cfg.TUI.CellWidth)
	assert.Equal(t, 16.0, cfg.TUI.CellHeight)
	assert.Equal(t, 2, cfg.TUI.SafeAreaTop)
	assert.Equal(t, 0, cfg.TUI.SafeAreaBottom)
	assert.Equal(t, "/tmp/stackalert.log", cfg.LogPath())
}

func TestLoadConfig_PartialConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[stack]
max_alerts = 4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	// Changed field
	assert.Equal(t, 4, cfg.Stack.MaxAlerts)

	// Unchanged fields should have defaults
	assert.Equal(t, 3*time.Second, cfg.Stack.DefaultDuration.Duration())
	assert.Equal(t, 40.0, cfg.Layout.ItemHeight)
	assert.Equal(t, 60, cfg.Animation.FPS)
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	require.NoError(t, os.WriteFile(path, []byte(`this is not valid toml [`), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	require.NoError(t, os.WriteFile(path, []byte("[stack]\ndefault_duration = \"soon\"\n"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoadConfig_FailsValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	require.NoError(t, os.WriteFile(path, []byte("[stack]\nmax_alerts = 0\n"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_alerts")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults",
			modify: func(c *Config) {},
		},
		{
			name:    "too many alerts",
			modify:  func(c *Config) { c.Stack.MaxAlerts = 21 },
			wantErr: "max_alerts",
		},
		{
			name:    "zero default duration",
			modify:  func(c *Config) { c.Stack.DefaultDuration = 0 },
			wantErr: "default_duration",
		},
		{
			name:    "zero item height",
			modify:  func(c *Config) { c.Layout.ItemHeight = 0 },
			wantErr: "item_height",
		},
		{
			name:    "negative spacing",
			modify:  func(c *Config) { c.Layout.TopSpacing = -1 },
			wantErr: "top_spacing",
		},
		{
			name:    "damping above one",
			modify:  func(c *Config) { c.Animation.Damping = 1.5 },
			wantErr: "damping",
		},
		{
			name:    "zero fps",
			modify:  func(c *Config) { c.Animation.FPS = 0 },
			wantErr: "fps",
		},
		{
			name:    "zero cell height",
			modify:  func(c *Config) { c.TUI.CellHeight = 0 },
			wantErr: "cell_height",
		},
		{
			name:    "zero headless width",
			modify:  func(c *Config) { c.Headless.Width = 0 },
			wantErr: "headless",
		},
		{
			name:   "instant animations",
			modify: func(c *Config) { c.Animation.Duration = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Save(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config.toml")

	cfg := DefaultConfig()
	cfg.Stack.MaxAlerts = 7
	cfg.Animation.Duration = Duration(150 * time.Millisecond)

	require.NoError(t, cfg.Save(path))

	_, err := os.Stat(path)
	require.NoError(t, err)

	// No temp file left behind
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Stack.MaxAlerts)
	assert.Equal(t, 150*time.Millisecond, loaded.Animation.Duration.Duration())
}

func TestDuration_Text(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("2500")))
	assert.Equal(t, 2500*time.Millisecond, d.Duration())

	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	text, err := Duration(400 * time.Millisecond).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "400ms", string(text))
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/stackalert/config.toml", ConfigPath())
}

func TestConfigPathDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	assert.Contains(t, ConfigPath(), filepath.Join("stackalert", "config.toml"))
}

func TestStatePath(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/custom/state")
	assert.Equal(t, "/custom/state/stackalert", StatePath())
	assert.Equal(t, "/custom/state/stackalert/stackalert.log", DefaultConfig().LogPath())
}

func TestEnsureStateDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", dir)

	require.NoError(t, EnsureStateDir())

	info, err := os.Stat(filepath.Join(dir, "stackalert"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
