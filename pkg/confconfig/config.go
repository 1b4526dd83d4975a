// Package confconfig defines the Go shape of the process configuration
// described by a user-level settings file declaring the upstream token, API
// version, and optional storage/communication provider sections, where
// missing optional sections disable their features without preventing core
// operation. Reading that file is an external collaborator's job — this
// package only defines the struct such a loader would populate, plus
// FromEnv, which loads the process-local subset of the same shape from
// environment variables.
//
// Layered three-deep, in priority order: defaults
// (DefaultConfig) are overridden by environment variables (FromEnv), which
// are in turn overridden by functional options (With* constructors) applied
// by the caller after FromEnv returns.
package confconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/PioneersHub/pytanis-go/internal/wire"
)

// Config is the top-level process configuration. Upstream carries the
// mandatory settings; Storage and Communication are the optional sections —
// their Enabled flag governs whether the corresponding feature participates
// at all.
type Config struct {
	Upstream      UpstreamConfig      `json:"upstream"`
	RateLimit     RateLimitConfig     `json:"rate_limit"`
	Resilience    ResilienceConfig    `json:"resilience"`
	Logging       LoggingConfig       `json:"logging"`
	Telemetry     TelemetryConfig     `json:"telemetry"`
	Storage       StorageConfig       `json:"storage"`
	Communication CommunicationConfig `json:"communication"`
}

// UpstreamConfig carries the mandatory settings: the opaque bearer token,
// the base URL of the conference platform API, and the wire protocol
// version pinned via the Accept-Version-style header.
type UpstreamConfig struct {
	BaseURL       string        `json:"base_url" env:"PYTANIS_UPSTREAM_BASE_URL"`
	Token         string        `json:"token" env:"PYTANIS_UPSTREAM_TOKEN"`
	Version       string        `json:"version" env:"PYTANIS_UPSTREAM_VERSION" default:"v1"`
	VersionHeader string        `json:"version_header" env:"PYTANIS_UPSTREAM_VERSION_HEADER" default:"Accept-Version"`
	Timeout       time.Duration `json:"timeout" env:"PYTANIS_UPSTREAM_TIMEOUT" default:"30s"`
}

// RateLimitConfig mirrors internal/ratelimit.Config; it is kept as a
// separate struct here (rather than importing ratelimit's type directly)
// so this package stays free to add env/default tags without reaching into
// an internal package's exported surface from a public one.
type RateLimitConfig struct {
	RatePerSecond float64 `json:"rate_per_second" env:"PYTANIS_RATE_LIMIT_RPS" default:"5"`
	Burst         int     `json:"burst" env:"PYTANIS_RATE_LIMIT_BURST" default:"10"`
}

// ResilienceConfig mirrors pkg/resilience's CircuitBreakerConfig and
// RetryConfig, for the same reason as RateLimitConfig above.
type ResilienceConfig struct {
	CircuitBreakerThreshold   int           `json:"circuit_breaker_threshold" env:"PYTANIS_CB_THRESHOLD" default:"5"`
	CircuitBreakerSleepWindow time.Duration `json:"circuit_breaker_sleep_window" env:"PYTANIS_CB_SLEEP_WINDOW" default:"30s"`
	RetryMaxAttempts          int           `json:"retry_max_attempts" env:"PYTANIS_RETRY_MAX_ATTEMPTS" default:"5"`
	RetryInitialDelay         time.Duration `json:"retry_initial_delay" env:"PYTANIS_RETRY_INITIAL_DELAY" default:"200ms"`
	RetryMaxDelay             time.Duration `json:"retry_max_delay" env:"PYTANIS_RETRY_MAX_DELAY" default:"10s"`
}

// LoggingConfig controls pkg/logger's output, following the same
// LoggingConfig (level/format only; this module has no file output mode).
type LoggingConfig struct {
	Level  string `json:"level" env:"PYTANIS_LOG_LEVEL" default:"info"`
	Format string `json:"format" env:"PYTANIS_LOG_FORMAT" default:"text"`
}

// TelemetryConfig controls whether pkg/telemetry spans are ever exported
// anywhere. Endpoint empty means traces are created but never leave the
// process (the otel no-op exporter path), matching pkg/telemetry's doc
// comment.
type TelemetryConfig struct {
	Enabled     bool   `json:"enabled" env:"PYTANIS_TELEMETRY_ENABLED" default:"false"`
	Endpoint    string `json:"endpoint" env:"PYTANIS_TELEMETRY_ENDPOINT,OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `json:"service_name" env:"PYTANIS_TELEMETRY_SERVICE_NAME" default:"pytanis-go"`
}

// StorageConfig is one of the optional storage and communication provider
// sections: a location for persisting tables and exports. No command in
// this module reads it. Enabled=false (the zero value) disables the
// feature without affecting core operation.
type StorageConfig struct {
	Enabled bool   `json:"enabled" env:"PYTANIS_STORAGE_ENABLED" default:"false"`
	Kind    string `json:"kind" env:"PYTANIS_STORAGE_KIND" default:"filesystem"`
	Path    string `json:"path" env:"PYTANIS_STORAGE_PATH" default:"./pytanis-data"`
}

// CommunicationConfig is the other optional section: where assignment and
// schedule notices (e.g. NoReviewer warnings) would be relayed if a
// downstream channel is configured. Disabled by default, since core
// operation must proceed without it.
type CommunicationConfig struct {
	Enabled  bool   `json:"enabled" env:"PYTANIS_COMMUNICATION_ENABLED" default:"false"`
	Provider string `json:"provider" env:"PYTANIS_COMMUNICATION_PROVIDER" default:"none"`
	Webhook  string `json:"webhook" env:"PYTANIS_COMMUNICATION_WEBHOOK"`
}

// Option is a functional option applied after FromEnv, the highest-priority
// layer of the three, via the functional Option pattern.
type Option func(*Config) error

// DefaultConfig returns a Config populated purely from the `default:"..."`
// tags documented on each field above; no environment is consulted.
func DefaultConfig() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			Version:       "v1",
			VersionHeader: "Accept-Version",
			Timeout:       30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RatePerSecond: 5,
			Burst:         10,
		},
		Resilience: ResilienceConfig{
			CircuitBreakerThreshold:   5,
			CircuitBreakerSleepWindow: 30 * time.Second,
			RetryMaxAttempts:          5,
			RetryInitialDelay:         200 * time.Millisecond,
			RetryMaxDelay:             10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "pytanis-go",
		},
		Storage: StorageConfig{
			Enabled: false,
			Kind:    "filesystem",
			Path:    "./pytanis-data",
		},
		Communication: CommunicationConfig{
			Enabled:  false,
			Provider: "none",
		},
	}
}

// FromEnv builds a Config by layering environment variables over
// DefaultConfig, then applying opts, then validating. Env vars named in a
// field's `env` tag are tried left to right; the first one set wins
// (PYTANIS_TELEMETRY_ENDPOINT before the standard OTEL_EXPORTER_OTLP_ENDPOINT).
func FromEnv(opts ...Option) (*Config, error) {
	cfg := DefaultConfig()

	cfg.Upstream.BaseURL = firstEnv("PYTANIS_UPSTREAM_BASE_URL")
	cfg.Upstream.Token = firstEnv("PYTANIS_UPSTREAM_TOKEN")
	if v := firstEnv("PYTANIS_UPSTREAM_VERSION"); v != "" {
		cfg.Upstream.Version = v
	}
	if v := firstEnv("PYTANIS_UPSTREAM_VERSION_HEADER"); v != "" {
		cfg.Upstream.VersionHeader = v
	}
	if v := firstEnv("PYTANIS_UPSTREAM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Upstream.Timeout = d
		}
	}

	if v := firstEnv("PYTANIS_RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimit.RatePerSecond = f
		}
	}
	if v := firstEnv("PYTANIS_RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.Burst = n
		}
	}

	if v := firstEnv("PYTANIS_CB_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Resilience.CircuitBreakerThreshold = n
		}
	}
	if v := firstEnv("PYTANIS_CB_SLEEP_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Resilience.CircuitBreakerSleepWindow = d
		}
	}
	if v := firstEnv("PYTANIS_RETRY_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Resilience.RetryMaxAttempts = n
		}
	}
	if v := firstEnv("PYTANIS_RETRY_INITIAL_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Resilience.RetryInitialDelay = d
		}
	}
	if v := firstEnv("PYTANIS_RETRY_MAX_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Resilience.RetryMaxDelay = d
		}
	}

	if v := firstEnv("PYTANIS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := firstEnv("PYTANIS_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := firstEnv("PYTANIS_TELEMETRY_ENABLED"); v != "" {
		cfg.Telemetry.Enabled = parseBool(v)
	}
	if v := firstEnv("PYTANIS_TELEMETRY_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.Telemetry.Endpoint = v
		cfg.Telemetry.Enabled = true
	}
	if v := firstEnv("PYTANIS_TELEMETRY_SERVICE_NAME"); v != "" {
		cfg.Telemetry.ServiceName = v
	}

	if v := firstEnv("PYTANIS_STORAGE_ENABLED"); v != "" {
		cfg.Storage.Enabled = parseBool(v)
	}
	if v := firstEnv("PYTANIS_STORAGE_KIND"); v != "" {
		cfg.Storage.Kind = v
	}
	if v := firstEnv("PYTANIS_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}

	if v := firstEnv("PYTANIS_COMMUNICATION_ENABLED"); v != "" {
		cfg.Communication.Enabled = parseBool(v)
	}
	if v := firstEnv("PYTANIS_COMMUNICATION_PROVIDER"); v != "" {
		cfg.Communication.Provider = v
	}
	if v := firstEnv("PYTANIS_COMMUNICATION_WEBHOOK"); v != "" {
		cfg.Communication.Webhook = v
		cfg.Communication.Enabled = true
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("confconfig: applying option: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields a ConfigMissing error covers: the upstream
// token and base URL are mandatory for talking to the upstream (in this
// module only cmd/pytanis-sync loads a Config).
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return &wire.ConfigMissing{Field: "upstream.base_url"}
	}
	if c.Upstream.Token == "" {
		return &wire.ConfigMissing{Field: "upstream.token"}
	}
	if c.Storage.Enabled && c.Storage.Path == "" {
		return &wire.ConfigMissing{Field: "storage.path"}
	}
	if c.Communication.Enabled && c.Communication.Provider == "none" {
		return &wire.ConfigMissing{Field: "communication.provider"}
	}
	return nil
}

// WithToken overrides the upstream token, e.g. when the caller reads it
// from a secrets manager rather than the environment.
func WithToken(token string) Option {
	return func(c *Config) error {
		c.Upstream.Token = token
		return nil
	}
}

// WithBaseURL overrides the upstream base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) error {
		c.Upstream.BaseURL = url
		return nil
	}
}

// WithVersion overrides the pinned wire protocol version.
func WithVersion(version string) Option {
	return func(c *Config) error {
		c.Upstream.Version = version
		return nil
	}
}

// WithTelemetry enables tracing with the given OTLP endpoint.
func WithTelemetry(endpoint string) Option {
	return func(c *Config) error {
		c.Telemetry.Enabled = true
		c.Telemetry.Endpoint = endpoint
		return nil
	}
}

// WithStorage enables the optional storage section with the given kind and
// path.
func WithStorage(kind, path string) Option {
	return func(c *Config) error {
		c.Storage.Enabled = true
		c.Storage.Kind = kind
		c.Storage.Path = path
		return nil
	}
}

// firstEnv returns the value of the first set variable among names, or "".
func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// parseBool accepts "true", "1", "yes", "on" (case-insensitive) as true,
// accepting the same truthy spellings as the rest of this package.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
