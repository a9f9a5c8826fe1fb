// Package config loads hciseq CLI settings from file, environment and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/moffa90/go-hciseq/hci"
)

// EnvPrefix prefixes every environment override, e.g. HCISEQ_LOG_LEVEL.
const EnvPrefix = "HCISEQ"

// ConfigName is the base name of the config file searched for.
const ConfigName = "hciseq"

// Config represents the complete hciseq configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Sequencer SequencerConfig `mapstructure:"sequencer"`
	Simulator SimulatorConfig `mapstructure:"simulator"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // auto, console or json

	// File enables a rotated JSON log file in addition to stderr
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// SequencerConfig holds sequencer behaviour settings.
type SequencerConfig struct {
	AbortOnError  bool          `mapstructure:"abort_on_error"`
	LoopQueueSize int           `mapstructure:"loop_queue_size"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// SimulatorConfig holds simulated controller settings.
type SimulatorConfig struct {
	Latency time.Duration `mapstructure:"latency"`
	BDAddr  string        `mapstructure:"bd_addr"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "auto")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", false)

	v.SetDefault("sequencer.abort_on_error", false)
	v.SetDefault("sequencer.loop_queue_size", 64)
	v.SetDefault("sequencer.timeout", 10*time.Second)

	v.SetDefault("simulator.latency", 5*time.Millisecond)
	v.SetDefault("simulator.bd_addr", "")
}

// Load reads configuration into a Config.
//
// Values are resolved in order of precedence: flags bound to v, HCISEQ_*
// environment variables, the config file, then defaults. If path is empty
// hciseq.yaml is searched for in the working directory and in
// $XDG_CONFIG_HOME/hciseq; a missing file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, ConfigName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	switch c.Log.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("log.format: must be auto, console or json, got %q", c.Log.Format)
	}

	if c.Log.File != "" && c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("log.max_size_mb: must be positive, got %d", c.Log.MaxSizeMB)
	}

	if c.Sequencer.LoopQueueSize < 0 {
		return fmt.Errorf("sequencer.loop_queue_size: must not be negative, got %d", c.Sequencer.LoopQueueSize)
	}

	if c.Sequencer.Timeout <= 0 {
		return fmt.Errorf("sequencer.timeout: must be positive, got %s", c.Sequencer.Timeout)
	}

	if c.Simulator.Latency < 0 {
		return fmt.Errorf("simulator.latency: must not be negative, got %s", c.Simulator.Latency)
	}

	if c.Simulator.BDAddr != "" {
		if _, err := hci.ParseBDAddrString(c.Simulator.BDAddr); err != nil {
			return fmt.Errorf("simulator.bd_addr: %w", err)
		}
	}

	return nil
}
