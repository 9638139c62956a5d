// Package config handles configuration management using Viper
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Cursor hiding behavior
	Hide HideConfig `mapstructure:"hide"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// HideConfig contains the cursor-hiding settings
type HideConfig struct {
	// AlwaysHide keeps the cursor hidden permanently; input never
	// brings it back.
	AlwaysHide bool `mapstructure:"always_hide"`

	// KeystrokeThreshold is the number of non-ignored key presses
	// before the cursor is hidden.
	KeystrokeThreshold int `mapstructure:"keystroke_threshold"`

	// IgnoredModifiers lists modifiers whose held state suppresses
	// keystroke counting: shift, lock, control, mod1..mod5, all.
	IgnoredModifiers []string `mapstructure:"ignored_modifiers"`

	// Jitter is the per-axis pixel displacement required before
	// pointer motion unhides the cursor.
	Jitter int `mapstructure:"jitter"`

	// Relocate names where to warp the pointer when hiding:
	// nw|ne|sw|se, wnw|wne|wsw|wse, or a signed offset like "+10-20".
	Relocate string `mapstructure:"relocate"`

	// IdleTimeout hides the cursor after this many seconds of
	// inactivity. Zero disables the idle alarm.
	IdleTimeout int `mapstructure:"idle_timeout"`

	// IgnoreScroll keeps scroll-wheel events from unhiding the cursor.
	IgnoreScroll bool `mapstructure:"ignore_scroll"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // Override LOG_LEVEL env var
}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Hide: HideConfig{
			AlwaysHide:         false,
			KeystrokeThreshold: 1,
			IgnoredModifiers:   []string{},
			Jitter:             0,
			Relocate:           "",
			IdleTimeout:        0,
			IgnoreScroll:       false,
		},
		Logging: LoggingConfig{
			LogLevel: "",
		},
	}

	// Global config instance
	cfg *Config

	// Override config path if set
	configPathOverride string
)

// SetConfigPath allows overriding the config path
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init initializes the configuration system
func Init() error {
	viper.SetConfigName("banishd")
	viper.SetConfigType("toml")

	// If a specific path is set, use only that
	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		viper.AddConfigPath("/etc/banishd")
		if home := os.Getenv("HOME"); home != "" {
			viper.AddConfigPath(filepath.Join(home, ".config", "banishd"))
		}
		viper.AddConfigPath(".")
	}

	// Set defaults - need to set individual fields for proper merging
	viper.SetDefault("hide.always_hide", DefaultConfig.Hide.AlwaysHide)
	viper.SetDefault("hide.keystroke_threshold", DefaultConfig.Hide.KeystrokeThreshold)
	viper.SetDefault("hide.ignored_modifiers", DefaultConfig.Hide.IgnoredModifiers)
	viper.SetDefault("hide.jitter", DefaultConfig.Hide.Jitter)
	viper.SetDefault("hide.relocate", DefaultConfig.Hide.Relocate)
	viper.SetDefault("hide.idle_timeout", DefaultConfig.Hide.IdleTimeout)
	viper.SetDefault("hide.ignore_scroll", DefaultConfig.Hide.IgnoreScroll)

	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults
	}

	// Unmarshal config
	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		// Return defaults if not initialized
		return &DefaultConfig
	}
	return cfg
}

// Set sets the current configuration (for testing)
func Set(c *Config) {
	cfg = c
}
