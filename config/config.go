// Package config provides seed configuration for the standalone scopestate
// server.
//
// A config file lists the named scopes the server exposes and their initial
// values, plus server settings. YAML and TOML are both accepted; the format
// is chosen from the file extension.
//
// Example configuration (YAML):
//
//	port: 8080
//	log_level: info
//	metrics: true
//
//	scopes:
//	  - name: greeting
//	    value: Yada
//	  - name: settings
//	    value:
//	      theme: dark
//	      api_url: ${API_URL:-http://localhost:9000}
//
// The same configuration in TOML:
//
//	port = 8080
//
//	[[scopes]]
//	name = "greeting"
//	value = "Yada"
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/scopestate"
)

const (
	defaultPort            = 8080
	defaultShutdownTimeout = 10 * time.Second
	defaultSSEWriteTimeout = 5 * time.Second
)

// Format identifies a config file encoding.
type Format string

const (
	// FormatYAML selects gopkg.in/yaml.v3 decoding.
	FormatYAML Format = "yaml"

	// FormatTOML selects BurntSushi/toml decoding.
	FormatTOML Format = "toml"
)

// FormatFromPath returns the format implied by path's extension.
// Returns an error for unknown extensions.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported config extension %q (expected .yaml, .yml or .toml)", filepath.Ext(path))
	}
}

// Config is the root configuration structure.
//
// Use [Load] or [Parse] to create a Config.
type Config struct {
	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port" toml:"port"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string `yaml:"log_level" toml:"log_level"`

	// Metrics enables the Prometheus /metrics endpoint.
	Metrics bool `yaml:"metrics" toml:"metrics"`

	// ShutdownTimeout bounds graceful shutdown. Defaults to 10s.
	ShutdownTimeout Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`

	// SSEWriteTimeout bounds a single Server-Sent Events write. Defaults to 5s.
	SSEWriteTimeout Duration `yaml:"sse_write_timeout" toml:"sse_write_timeout"`

	// Scopes lists the named scopes and their initial values.
	Scopes []ScopeConfig `yaml:"scopes" toml:"scopes"`
}

// ScopeConfig defines one named scope.
type ScopeConfig struct {
	// Name addresses the scope over HTTP. Letters, digits, '_', '.' and '-'.
	Name string `yaml:"name" toml:"name"`

	// Value is the initial value. Any JSON-compatible value is accepted.
	// String values support environment variable substitution:
	// ${VAR} or ${VAR:-default}.
	Value any `yaml:"value" toml:"value"`
}

// Duration wraps time.Duration for YAML and TOML decoding.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// UnmarshalText implements encoding.TextUnmarshaler, used by the TOML decoder.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// SlogLevel returns the configured log level as a [slog.Level].
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
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

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		varName := submatches[1]
		hasDefault := submatches[2] != ""

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return submatches[3]
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// expandValue walks a decoded value, expanding environment variables in
// strings and normalizing maps to string keys so values stay JSON-encodable.
func expandValue(v any) (any, error) {
	switch val := v.(type) {
	case string:
		return expandEnvVars(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			expanded, err := expandValue(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = expanded
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			key := fmt.Sprint(k)
			expanded, err := expandValue(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			out[key] = expanded
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			expanded, err := expandValue(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = expanded
		}
		return out, nil
	case []map[string]any:
		// TOML arrays of tables
		out := make([]any, len(val))
		for i, item := range val {
			expanded, err := expandValue(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = expanded
		}
		return out, nil
	default:
		return v, nil
	}
}

// Load reads and parses a configuration file, choosing the decoder from the
// file extension.
//
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data, format)
}

// Parse parses configuration data in the given format.
//
// Defaults are applied for Port (8080), LogLevel (info), ShutdownTimeout
// (10s) and SSEWriteTimeout (5s). Environment variables are expanded in
// string scope values.
func Parse(data []byte, format Format) (*Config, error) {
	var cfg Config

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case FormatTOML:
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config format %q", format)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = Duration(defaultShutdownTimeout)
	}
	if cfg.SSEWriteTimeout == 0 {
		cfg.SSEWriteTimeout = Duration(defaultSSEWriteTimeout)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}

	if c.ShutdownTimeout.Duration() < 0 {
		return fmt.Errorf("shutdown_timeout cannot be negative, got %s", c.ShutdownTimeout.Duration())
	}
	if c.SSEWriteTimeout.Duration() < 0 {
		return fmt.Errorf("sse_write_timeout cannot be negative, got %s", c.SSEWriteTimeout.Duration())
	}

	if len(c.Scopes) == 0 {
		return errors.New("at least one scope must be defined")
	}

	seen := make(map[string]struct{}, len(c.Scopes))
	for i := range c.Scopes {
		sc := &c.Scopes[i]

		if sc.Name == "" {
			return fmt.Errorf("scopes[%d]: name is required", i)
		}
		if err := scopestate.ValidateName(sc.Name); err != nil {
			return fmt.Errorf("scopes[%d]: %w", i, err)
		}
		if _, exists := seen[sc.Name]; exists {
			return fmt.Errorf("scopes[%d] (%s): duplicate name", i, sc.Name)
		}
		seen[sc.Name] = struct{}{}

		expanded, err := expandValue(sc.Value)
		if err != nil {
			return fmt.Errorf("scopes[%d] (%s): value: %w", i, sc.Name, err)
		}
		sc.Value = expanded
	}

	return nil
}
