package config

import (
	"testing"
	"time"
)

func TestConfig_SetDefaults(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.SetDefaults()

	if cfg.Server.HTTPAddr != "127.0.0.1:4444" {
		t.Errorf("HTTPAddr = %q, want 127.0.0.1:4444", cfg.Server.HTTPAddr)
	}
	if cfg.Server.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.Server.LogLevel)
	}
	if cfg.Elicitation.DefaultTimeout != "60s" {
		t.Errorf("DefaultTimeout = %q, want 60s", cfg.Elicitation.DefaultTimeout)
	}
	if cfg.Elicitation.MaxConcurrent != 100 {
		t.Errorf("MaxConcurrent = %d, want 100", cfg.Elicitation.MaxConcurrent)
	}
	if cfg.Elicitation.SweepInterval != "60s" {
		t.Errorf("SweepInterval = %q, want 60s", cfg.Elicitation.SweepInterval)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("Backend = %q, want memory", cfg.Store.Backend)
	}
	if cfg.Store.SQLitePath != "gateward.db" {
		t.Errorf("SQLitePath = %q, want gateward.db", cfg.Store.SQLitePath)
	}
}

func TestConfig_SetDefaults_PreservesExistingValues(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Server:      ServerConfig{HTTPAddr: ":9090", LogLevel: "debug"},
		Elicitation: ElicitationConfig{DefaultTimeout: "30s", MaxConcurrent: 5},
		Store:       StoreConfig{Backend: "sqlite", SQLitePath: "/data/x.db"},
	}
	cfg.SetDefaults()

	if cfg.Server.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr overwritten: %q", cfg.Server.HTTPAddr)
	}
	if cfg.Elicitation.DefaultTimeout != "30s" || cfg.Elicitation.MaxConcurrent != 5 {
		t.Errorf("elicitation overwritten: %+v", cfg.Elicitation)
	}
	if cfg.Store.Backend != "sqlite" || cfg.Store.SQLitePath != "/data/x.db" {
		t.Errorf("store overwritten: %+v", cfg.Store)
	}
}

func TestConfig_SetDevDefaults(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.SetDefaults()
	cfg.SetDevDefaults()
	if cfg.Auth.JWTSecret != "" {
		t.Error("dev defaults applied without dev mode")
	}

	cfg = Config{DevMode: true}
	cfg.SetDefaults()
	cfg.SetDevDefaults()
	if cfg.Auth.JWTSecret == "" {
		t.Error("dev mode did not provide a secret")
	}
	if cfg.Server.LogLevel != "debug" {
		t.Errorf("dev mode log level = %q, want debug", cfg.Server.LogLevel)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := func() Config {
		var cfg Config
		cfg.SetDefaults()
		cfg.Auth.JWTSecret = "secret"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults with secret", mutate: func(*Config) {}},
		{name: "missing secret", mutate: func(c *Config) { c.Auth.JWTSecret = "" }, wantErr: true},
		{name: "bad addr", mutate: func(c *Config) { c.Server.HTTPAddr = "not an addr" }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Server.LogLevel = "loud" }, wantErr: true},
		{name: "bad backend", mutate: func(c *Config) { c.Store.Backend = "postgres" }, wantErr: true},
		{name: "bad duration", mutate: func(c *Config) { c.Elicitation.DefaultTimeout = "soon" }, wantErr: true},
		{name: "negative duration", mutate: func(c *Config) { c.Elicitation.SweepInterval = "-5s" }, wantErr: true},
		{name: "negative max concurrent", mutate: func(c *Config) { c.Elicitation.MaxConcurrent = -1 }, wantErr: true},
		{name: "sqlite backend", mutate: func(c *Config) { c.Store.Backend = "sqlite" }},
		{name: "guard expression passes through", mutate: func(c *Config) { c.Scope.Guard = `method == "GET"` }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestDurationAccessors(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.SetDefaults()

	if got := cfg.Elicitation.DefaultTimeoutDuration(); got != 60*time.Second {
		t.Errorf("DefaultTimeoutDuration = %s, want 60s", got)
	}
	if got := cfg.Server.ShutdownTimeoutDuration(); got != 10*time.Second {
		t.Errorf("ShutdownTimeoutDuration = %s, want 10s", got)
	}

	cfg.Elicitation.SweepInterval = "90s"
	if got := cfg.Elicitation.SweepIntervalDuration(); got != 90*time.Second {
		t.Errorf("SweepIntervalDuration = %s, want 90s", got)
	}

	// Malformed values fall back to the default rather than zero.
	cfg.Elicitation.SweepInterval = "never"
	if got := cfg.Elicitation.SweepIntervalDuration(); got != 60*time.Second {
		t.Errorf("malformed SweepIntervalDuration = %s, want fallback 60s", got)
	}
}
