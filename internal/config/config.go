// Package config manages vnictl configuration using koanf/v2.
//
// Supports a YAML file, environment variable overrides, and CLI flags
// (flags win; they are applied by the command layer).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete vnictl configuration.
type Config struct {
	Log     LogConfig     `koanf:"log"`
	Output  OutputConfig  `koanf:"output"`
	Netlink NetlinkConfig `koanf:"netlink"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// OutputConfig holds the default rendering options; the --format and
// --stats flags override them per invocation.
type OutputConfig struct {
	// Format is the output format: "table" or "json".
	Format string `koanf:"format"`
	// Stats requests per-entry traffic counters on dumps.
	Stats bool `koanf:"stats"`
}

// NetlinkConfig holds transport tuning.
type NetlinkConfig struct {
	// Timeout bounds each netlink request/response exchange.
	Timeout time.Duration `koanf:"timeout"`
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Output: OutputConfig{
			Format: "table",
		},
		Netlink: NetlinkConfig{
			Timeout: 3 * time.Second,
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for vnictl configuration.
// Variables are named VNICTL_<section>_<key>, e.g., VNICTL_OUTPUT_FORMAT.
const envPrefix = "VNICTL_"

// Load reads configuration from a YAML file at path, overlays environment
// variable overrides (VNICTL_ prefix), and merges on top of
// DefaultConfig(). Missing fields inherit defaults. An empty path skips
// the file layer.
//
// Environment variable mapping:
//
//	VNICTL_LOG_LEVEL       -> log.level
//	VNICTL_LOG_FORMAT      -> log.format
//	VNICTL_OUTPUT_FORMAT   -> output.format
//	VNICTL_OUTPUT_STATS    -> output.stats
//	VNICTL_NETLINK_TIMEOUT -> netlink.timeout
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// envKeyMapper transforms VNICTL_OUTPUT_FORMAT -> output.format.
// Strips the VNICTL_ prefix, lowercases, and replaces _ with .
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "_", ".")
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"log.level":       defaults.Log.Level,
		"log.format":      defaults.Log.Format,
		"output.format":   defaults.Output.Format,
		"output.stats":    defaults.Output.Stats,
		"netlink.timeout": defaults.Netlink.Timeout.String(),
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	// ErrInvalidOutputFormat indicates output.format is not table or json.
	ErrInvalidOutputFormat = errors.New("output.format must be table or json")

	// ErrInvalidTimeout indicates netlink.timeout is not positive.
	ErrInvalidTimeout = errors.New("netlink.timeout must be > 0")
)

// ValidOutputFormats lists the recognized output format strings.
var ValidOutputFormats = map[string]bool{
	"table": true,
	"json":  true,
}

// Validate checks the configuration for logical errors.
// Returns the first validation error encountered.
func Validate(cfg *Config) error {
	if !ValidOutputFormats[cfg.Output.Format] {
		return fmt.Errorf("%q: %w", cfg.Output.Format, ErrInvalidOutputFormat)
	}

	if cfg.Netlink.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	return nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
//
// Recognized values: "debug", "info", "warn", "error" (case-insensitive).
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
