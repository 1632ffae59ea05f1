// Package config provides configuration loading for gitbridge.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration options for gitbridge.
type Config struct {
	// GitPath is an explicit binary path hint; empty means discover.
	GitPath string `mapstructure:"git_path"`

	// LogLevel filters the CLI's view of the observability stream.
	// Valid values: "debug", "info", "warn", "error".
	LogLevel string `mapstructure:"log_level"`

	// MaxOutputBytes caps buffered stdout per invocation; 0 keeps the
	// built-in default.
	MaxOutputBytes int64 `mapstructure:"max_output_bytes"`

	// Env is merged into every subprocess environment.
	Env map[string]string `mapstructure:"env"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{LogLevel: "info"}
}

// Load reads gitbridge.yaml from the given directory (and the usual
// fallbacks) plus GITBRIDGE_* environment variables. A missing config
// file is fine; a malformed one is not.
func Load(dir string) (Config, error) {
	v := viper.New()
	v.SetConfigName("gitbridge")
	v.SetConfigType("yaml")
	if dir != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath("$HOME/.config/gitbridge")
	v.AddConfigPath(".")

	v.SetEnvPrefix("GITBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults double as key registration so AutomaticEnv can bind them.
	v.SetDefault("git_path", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("max_output_bytes", 0)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}
