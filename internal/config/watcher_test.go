package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, DefaultConfig().Save(path))

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)

	var mu sync.Mutex
	var reloaded *Config
	w.SetReloadCallback(func(cfg *Config) {
		mu.Lock()
		reloaded = cfg
		mu.Unlock()
	})

	require.NoError(t, w.Start())
	defer func() { _ = w.Stop() }()

	require.NoError(t, os.WriteFile(path, []byte("[stack]\nmax_alerts = 5\n"), 0644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return reloaded != nil && reloaded.Stack.MaxAlerts == 5
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_KeepsLastValidConfigOnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, DefaultConfig().Save(path))

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)

	errCh := make(chan error, 8)
	w.SetErrorCallback(func(err error) {
		errCh <- err
	})

	var mu sync.Mutex
	var reloaded []int
	w.SetReloadCallback(func(cfg *Config) {
		mu.Lock()
		reloaded = append(reloaded, cfg.Stack.MaxAlerts)
		mu.Unlock()
	})

	require.NoError(t, w.Start())
	defer func() { _ = w.Stop() }()

	require.NoError(t, os.WriteFile(path, []byte("[stack]\nmax_alerts = 99\n"), 0644))

	select {
	case err := <-errCh:
		assert.Contains(t, err.Error(), "max_alerts")
	case <-time.After(2 * time.Second):
		t.Fatal("expected error callback")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.NotContains(t, reloaded, 99)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "config.toml"), nil)
	require.NoError(t, err)

	require.NoError(t, w.Start())
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
