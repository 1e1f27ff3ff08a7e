// Package config provides configuration types for Gateward.
//
// Configuration is file-based (YAML) with environment variable
// overrides. The schema is intentionally small: one listener, one
// token secret, one scope store, one elicitation broker.
package config

import "time"

// Config is the top-level configuration for the Gateward control plane.
type Config struct {
	// Server configures the HTTP server listener.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Auth configures bearer token verification.
	Auth AuthConfig `yaml:"auth" mapstructure:"auth"`

	// Scope configures the authorization engine.
	Scope ScopeConfig `yaml:"scope" mapstructure:"scope"`

	// Elicitation configures the elicitation broker.
	Elicitation ElicitationConfig `yaml:"elicitation" mapstructure:"elicitation"`

	// Store configures where team memberships and resource visibility
	// records live.
	Store StoreConfig `yaml:"store" mapstructure:"store"`

	// Tracing configures OpenTelemetry trace export.
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`

	// DevMode enables development features (verbose logging, in-memory
	// store defaults).
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// ServerConfig configures the HTTP server.
// Only HTTP is supported (use a reverse proxy for TLS).
type ServerConfig struct {
	// HTTPAddr is the address to listen on (e.g., "127.0.0.1:4444").
	// Defaults to "127.0.0.1:4444" (localhost only) if empty.
	HTTPAddr string `yaml:"http_addr" mapstructure:"http_addr" validate:"omitempty,hostname_port"`

	// LogLevel sets the minimum log level.
	// Valid values: "debug", "info", "warn", "error".
	// Defaults to "info" if empty. DevMode=true overrides to "debug".
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// ShutdownTimeout bounds graceful shutdown (e.g., "10s").
	// Defaults to "10s" if not specified.
	ShutdownTimeout string `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" validate:"omitempty"`
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	// JWTSecret is the HMAC secret used to verify bearer tokens.
	// Required outside dev mode.
	JWTSecret string `yaml:"jwt_secret" mapstructure:"jwt_secret"`
}

// ScopeConfig configures the authorization engine.
type ScopeConfig struct {
	// ExemptPrefixes overrides the built-in list of paths that bypass
	// scoping. Leave empty to use the defaults (health, metrics, docs,
	// auth endpoints, well-known).
	ExemptPrefixes []string `yaml:"exempt_prefixes" mapstructure:"exempt_prefixes"`

	// Guard is an optional CEL expression evaluated after all other
	// checks pass. It can only deny, never grant.
	Guard string `yaml:"guard" mapstructure:"guard"`
}

// ElicitationConfig configures the elicitation broker.
type ElicitationConfig struct {
	// DefaultTimeout is the per-request wait when the caller does not
	// specify one (e.g., "60s"). Defaults to "60s".
	DefaultTimeout string `yaml:"default_timeout" mapstructure:"default_timeout" validate:"omitempty"`

	// MaxConcurrent caps the number of simultaneously pending
	// elicitations. Defaults to 100.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent" validate:"omitempty,min=1"`

	// SweepInterval is how often expired entries are reaped (e.g.,
	// "60s"). Defaults to "60s".
	SweepInterval string `yaml:"sweep_interval" mapstructure:"sweep_interval" validate:"omitempty"`
}

// StoreConfig configures the scope store backend.
type StoreConfig struct {
	// Backend selects the store implementation.
	// Valid values: "memory", "sqlite". Defaults to "memory".
	Backend string `yaml:"backend" mapstructure:"backend" validate:"omitempty,oneof=memory sqlite"`

	// SQLitePath is the database file path for the sqlite backend.
	// Defaults to "gateward.db".
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`

	// SeedFile optionally seeds the memory backend from a YAML file of
	// teams and resources. Ignored by the sqlite backend.
	SeedFile string `yaml:"seed_file" mapstructure:"seed_file"`
}

// TracingConfig configures OpenTelemetry trace export.
type TracingConfig struct {
	// Enabled turns stdout trace export on. Default: false.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// SetDefaults applies sensible default values to the configuration.
func (c *Config) SetDefaults() {
	// Bind to localhost only unless explicitly configured otherwise.
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = "127.0.0.1:4444"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}

	if c.Elicitation.DefaultTimeout == "" {
		c.Elicitation.DefaultTimeout = "60s"
	}
	if c.Elicitation.MaxConcurrent == 0 {
		c.Elicitation.MaxConcurrent = 100
	}
	if c.Elicitation.SweepInterval == "" {
		c.Elicitation.SweepInterval = "60s"
	}

	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = "gateward.db"
	}
}

// SetDevDefaults applies permissive defaults for development mode.
// Applied BEFORE validation so required fields are satisfied.
func (c *Config) SetDevDefaults() {
	if !c.DevMode {
		return
	}
	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = "dev-secret-do-not-use-in-production"
	}
	if c.Server.LogLevel == "" || c.Server.LogLevel == "info" {
		c.Server.LogLevel = "debug"
	}
}

// parseDuration parses s, falling back to def when s is empty or
// malformed. Config validation catches malformed values earlier, so
// the fallback only matters for hand-built Config values in tests.
func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// ShutdownTimeoutDuration returns the parsed graceful shutdown bound.
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return parseDuration(c.ShutdownTimeout, 10*time.Second)
}

// DefaultTimeoutDuration returns the parsed per-request wait.
func (c *ElicitationConfig) DefaultTimeoutDuration() time.Duration {
	return parseDuration(c.DefaultTimeout, 60*time.Second)
}

// SweepIntervalDuration returns the parsed sweep interval.
func (c *ElicitationConfig) SweepIntervalDuration() time.Duration {
	return parseDuration(c.SweepInterval, 60*time.Second)
}
