package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateward.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := writeConfigFile(t, `
server:
  http_addr: "127.0.0.1:9999"
  log_level: warn
auth:
  jwt_secret: file-secret
scope:
  exempt_prefixes:
    - /ping
elicitation:
  default_timeout: 30s
  max_concurrent: 7
store:
  backend: memory
  seed_file: /tmp/seed.yaml
`)
	InitViper(path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.HTTPAddr != "127.0.0.1:9999" {
		t.Errorf("HTTPAddr = %q", cfg.Server.HTTPAddr)
	}
	if cfg.Server.LogLevel != "warn" {
		t.Errorf("LogLevel = %q", cfg.Server.LogLevel)
	}
	if cfg.Auth.JWTSecret != "file-secret" {
		t.Errorf("JWTSecret = %q", cfg.Auth.JWTSecret)
	}
	if len(cfg.Scope.ExemptPrefixes) != 1 || cfg.Scope.ExemptPrefixes[0] != "/ping" {
		t.Errorf("ExemptPrefixes = %v", cfg.Scope.ExemptPrefixes)
	}
	if cfg.Elicitation.MaxConcurrent != 7 || cfg.Elicitation.DefaultTimeout != "30s" {
		t.Errorf("elicitation = %+v", cfg.Elicitation)
	}
	// Unset fields still take defaults.
	if cfg.Elicitation.SweepInterval != "60s" {
		t.Errorf("SweepInterval = %q, want default", cfg.Elicitation.SweepInterval)
	}
	if ConfigFileUsed() != path {
		t.Errorf("ConfigFileUsed = %q, want %q", ConfigFileUsed(), path)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := writeConfigFile(t, `
server:
  http_addr: "127.0.0.1:9999"
auth:
  jwt_secret: file-secret
`)
	t.Setenv("GATEWARD_SERVER_HTTP_ADDR", "127.0.0.1:7777")
	t.Setenv("GATEWARD_AUTH_JWT_SECRET", "env-secret")
	InitViper(path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.HTTPAddr != "127.0.0.1:7777" {
		t.Errorf("HTTPAddr = %q, want env override", cfg.Server.HTTPAddr)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("JWTSecret = %q, want env override", cfg.Auth.JWTSecret)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("GATEWARD_AUTH_JWT_SECRET", "env-only-secret")
	InitViper(filepath.Join(t.TempDir(), "nope.yaml"))

	// An explicitly named but absent file is an error.
	if _, err := LoadConfig(); err == nil {
		t.Error("explicit missing config file accepted")
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := writeConfigFile(t, `
auth:
  jwt_secret: s
store:
  backend: postgres
`)
	InitViper(path)

	if _, err := LoadConfig(); err == nil {
		t.Error("invalid backend accepted")
	}
}
