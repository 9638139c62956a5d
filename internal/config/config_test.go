package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	SetConfigPath("")
	Set(nil)
	t.Cleanup(func() {
		viper.Reset()
		SetConfigPath("")
		Set(nil)
	})
}

func TestGetReturnsDefaultsBeforeInit(t *testing.T) {
	resetConfig(t)

	cfg := Get()
	assert.False(t, cfg.Hide.AlwaysHide)
	assert.Equal(t, 1, cfg.Hide.KeystrokeThreshold)
	assert.Empty(t, cfg.Hide.IgnoredModifiers)
	assert.Zero(t, cfg.Hide.Jitter)
	assert.Empty(t, cfg.Hide.Relocate)
	assert.Zero(t, cfg.Hide.IdleTimeout)
	assert.False(t, cfg.Hide.IgnoreScroll)
}

func TestInitWithoutConfigFile(t *testing.T) {
	resetConfig(t)

	// Point the search at an empty directory so no stray config file
	// on the test machine is picked up.
	SetConfigPath(filepath.Join(t.TempDir(), "banishd.toml"))
	err := Init()
	require.Error(t, err, "an explicitly named missing file is an error")
}

func TestInitReadsConfigFile(t *testing.T) {
	resetConfig(t)

	path := filepath.Join(t.TempDir(), "banishd.toml")
	content := `
[hide]
always_hide = true
keystroke_threshold = 5
ignored_modifiers = ["shift", "control"]
jitter = 20
relocate = "se"
idle_timeout = 30
ignore_scroll = true

[logging]
log_level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	SetConfigPath(path)
	require.NoError(t, Init())

	cfg := Get()
	assert.True(t, cfg.Hide.AlwaysHide)
	assert.Equal(t, 5, cfg.Hide.KeystrokeThreshold)
	assert.Equal(t, []string{"shift", "control"}, cfg.Hide.IgnoredModifiers)
	assert.Equal(t, 20, cfg.Hide.Jitter)
	assert.Equal(t, "se", cfg.Hide.Relocate)
	assert.Equal(t, 30, cfg.Hide.IdleTimeout)
	assert.True(t, cfg.Hide.IgnoreScroll)
	assert.Equal(t, "debug", cfg.Logging.LogLevel)
}

func TestInitPartialConfigKeepsDefaults(t *testing.T) {
	resetConfig(t)

	path := filepath.Join(t.TempDir(), "banishd.toml")
	content := `
[hide]
jitter = 8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	SetConfigPath(path)
	require.NoError(t, Init())

	cfg := Get()
	assert.Equal(t, 8, cfg.Hide.Jitter)
	assert.Equal(t, 1, cfg.Hide.KeystrokeThreshold, "unset keys keep their defaults")
	assert.False(t, cfg.Hide.AlwaysHide)
}

func TestSetOverridesConfig(t *testing.T) {
	resetConfig(t)

	custom := &Config{Hide: HideConfig{KeystrokeThreshold: 9}}
	Set(custom)
	assert.Same(t, custom, Get())
}
