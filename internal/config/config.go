// Package config loads glue tool configuration from defaults, an optional
// YAML file and GLUE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. GLUE_HUB_FAIL_FAST.
const EnvPrefix = "GLUE"

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete glue configuration.
type Config struct {
	Hub     HubConfig     `mapstructure:"hub"`
	Trace   TraceConfig   `mapstructure:"trace"`
	Logging LoggingConfig `mapstructure:"logging"`
	Session SessionConfig `mapstructure:"session"`
}

// HubConfig controls broadcast delivery.
type HubConfig struct {
	// FailFast stops a broadcast at the first failing handler (default: false)
	FailFast bool `mapstructure:"fail_fast"`
}

// TraceConfig controls broadcast trace capture.
type TraceConfig struct {
	// File is the .glog trace file to append to. Empty disables tracing.
	File string `mapstructure:"file"`
	// Console mirrors trace events to the operational log at debug level.
	Console bool `mapstructure:"console"`
}

// LoggingConfig controls operational logging.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Format is "text" or "json" (default: "text")
	Format string `mapstructure:"format"`
}

// SessionConfig controls workspace persistence.
type SessionConfig struct {
	// StateFile is the YAML session file used by save/load without a path.
	StateFile string `mapstructure:"state_file"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Hub: HubConfig{FailFast: false},
		Trace: TraceConfig{
			File:    "",
			Console: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Session: SessionConfig{
			StateFile: filepath.Join(ConfigDir(), "session.yaml"),
		},
	}
}

// SetDefaults registers the defaults on v.
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("hub.fail_fast", defaults.Hub.FailFast)
	v.SetDefault("trace.file", defaults.Trace.File)
	v.SetDefault("trace.console", defaults.Trace.Console)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("session.state_file", defaults.Session.StateFile)
}

// New returns a viper instance with defaults and environment overrides set.
// If cfgFile is empty, config.yaml is searched in ConfigDir and the working
// directory; a missing file is not an error.
func New(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidLogLevels returns the accepted log levels.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidLogFormats returns the accepted log formats.
func ValidLogFormats() []string {
	return []string{"text", "json"}
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errs = append(errs, fmt.Errorf("%w: logging.level %q (valid: %s)",
			ErrInvalidConfig, c.Logging.Level, strings.Join(ValidLogLevels(), ", ")))
	}
	if !slices.Contains(ValidLogFormats(), strings.ToLower(c.Logging.Format)) {
		errs = append(errs, fmt.Errorf("%w: logging.format %q (valid: %s)",
			ErrInvalidConfig, c.Logging.Format, strings.Join(ValidLogFormats(), ", ")))
	}
	if c.Trace.File != "" && filepath.Ext(c.Trace.File) == "" {
		errs = append(errs, fmt.Errorf("%w: trace.file %q has no extension", ErrInvalidConfig, c.Trace.File))
	}
	return errors.Join(errs...)
}

// SlogLevel returns the slog level for Level.
func (c LoggingConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the operational logger described by c, writing to w.
func NewLogger(c LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if strings.ToLower(c.Format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ConfigDir returns the glue configuration directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "glue")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".glue"
	}
	return filepath.Join(home, ".config", "glue")
}
