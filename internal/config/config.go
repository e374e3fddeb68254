package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the service configuration.
const (
	DefaultPort   = 5000
	DefaultHeader = "Authorization"
)

// Config holds the full sensor hub configuration parsed from config.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`

	// Sensors is the ordered list of sensor declarations. Order is
	// preserved all the way through to registry listing.
	Sensors []SensorSpec `yaml:"sensors"`
}

// ServerConfig holds the HTTP boundary settings.
type ServerConfig struct {
	// Port is the port the HTTP API listens on (default 5000).
	Port int `yaml:"port"`

	// Auth configures the shared-secret check applied to data endpoints.
	Auth AuthConfig `yaml:"auth"`

	// CORSOrigins lists the origins allowed by the CORS middleware.
	// Empty means no cross-origin access.
	CORSOrigins []string `yaml:"cors_origins"`
}

// AuthConfig controls client authentication on data endpoints.
// The health endpoint is never authenticated.
type AuthConfig struct {
	// KeyEnv is the name of the environment variable that holds the expected
	// credential. Takes precedence over Key when the variable is set.
	KeyEnv string `yaml:"key_env"`

	// Key is an inline credential, used when KeyEnv is empty or unset.
	// An empty effective key disables the auth check entirely.
	Key string `yaml:"key"`

	// Header is the HTTP header the credential is read from.
	// Defaults to "Authorization". The header value is compared verbatim,
	// so a "Bearer "-prefixed key must be configured with the prefix.
	Header string `yaml:"header"`
}

// ResolvedKey returns the expected credential, preferring the environment.
func (a AuthConfig) ResolvedKey() string {
	if a.KeyEnv != "" {
		if v := os.Getenv(a.KeyEnv); v != "" {
			return v
		}
	}
	return a.Key
}

// EffectiveHeader returns the configured header name, or the default "Authorization".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return DefaultHeader
}

// SensorSpec declares one sensor to instantiate. Specs are immutable after
// load; the registry copies nothing and sensors keep a reference.
type SensorSpec struct {
	// ID is the unique sensor identifier used in API paths.
	ID string `yaml:"id"`

	// Type is the sensor type tag resolved against the registered factories
	// (e.g. "DHT22", "thermal", "exporter").
	Type string `yaml:"type"`

	// Name is the human-readable display name. Defaults to ID.
	Name string `yaml:"name"`

	// Enabled may be set to false to skip the sensor at load time.
	// Absent means enabled.
	Enabled *bool `yaml:"enabled"`

	// Params holds type-specific parameters, passed through to the factory.
	Params map[string]any `yaml:"params"`
}

// IsEnabled reports whether the spec should be instantiated.
func (s SensorSpec) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// DisplayName returns Name, falling back to ID.
func (s SensorSpec) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// StringParam returns the string value of a param, or def if absent or not
// a string.
func (s SensorSpec) StringParam(key, def string) string {
	if v, ok := s.Params[key].(string); ok {
		return v
	}
	return def
}

// IntParam returns the integer value of a param, or def if absent.
// YAML numbers decode as int or float64 depending on their spelling.
func (s SensorSpec) IntParam(key string, def int) int {
	switch v := s.Params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}

// DurationParam returns a duration param parsed from its string form
// (e.g. "10s"), or def if absent or unparseable.
func (s SensorSpec) DurationParam(key string, def time.Duration) time.Duration {
	v, ok := s.Params[key].(string)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// StringListParam returns the string slice value of a param. Non-string
// elements are skipped; an absent param yields nil.
func (s SensorSpec) StringListParam(key string) []string {
	items, ok := s.Params[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if str, ok := it.(string); ok {
			out = append(out, str)
		}
	}
	return out
}

// Load reads and parses the config file at path. Missing fields are filled
// with defaults before validation. Per-sensor problems (unknown type, bad
// params) are deliberately not validated here — the registry handles them
// per spec so one broken sensor cannot reject the whole file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port: DefaultPort,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range [1, 65535]", cfg.Server.Port)
	}
	return nil
}
