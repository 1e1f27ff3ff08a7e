package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// InitViper initializes Viper with the configuration file and
// environment variables. If configFile is empty, it searches for
// gateward.yaml/.yml in standard locations. The search requires an
// explicit YAML extension to avoid matching the binary itself.
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		// No config file found in any standard location. Set name/type
		// without search paths so ReadInConfig returns
		// ConfigFileNotFoundError (handled gracefully by callers).
		viper.SetConfigName("gateward")
		viper.SetConfigType("yaml")
	}

	// Environment variable support: GATEWARD_SERVER_HTTP_ADDR
	viper.SetEnvPrefix("GATEWARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindNestedEnvKeys()
}

// findConfigFile searches standard locations for a gateward config
// file with an explicit YAML extension (.yaml or .yml).
func findConfigFile() string {
	home, _ := os.UserHomeDir()
	paths := []string{
		".",
		filepath.Join(home, ".gateward"),
		"/etc/gateward",
	}
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, "gateward"+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// bindNestedEnvKeys binds all config keys for environment variable
// support. Example: GATEWARD_AUTH_JWT_SECRET overrides auth.jwt_secret.
func bindNestedEnvKeys() {
	_ = viper.BindEnv("server.http_addr")
	_ = viper.BindEnv("server.log_level")
	_ = viper.BindEnv("server.shutdown_timeout")

	_ = viper.BindEnv("auth.jwt_secret")

	// Note: scope.exempt_prefixes is an array, use the config file.
	_ = viper.BindEnv("scope.guard")

	_ = viper.BindEnv("elicitation.default_timeout")
	_ = viper.BindEnv("elicitation.max_concurrent")
	_ = viper.BindEnv("elicitation.sweep_interval")

	_ = viper.BindEnv("store.backend")
	_ = viper.BindEnv("store.sqlite_path")
	_ = viper.BindEnv("store.seed_file")

	_ = viper.BindEnv("tracing.enabled")

	_ = viper.BindEnv("dev_mode")
}

// LoadConfig reads the configuration file, applies environment
// overrides, sets defaults, and validates.
// Note: caller should apply any CLI flag overrides (e.g. --dev) via
// LoadConfigRaw, then SetDevDefaults and Validate, when flags may
// change DevMode.
func LoadConfig() (*Config, error) {
	cfg, err := LoadConfigRaw()
	if err != nil {
		return nil, err
	}

	cfg.SetDevDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigRaw reads the configuration file and applies defaults, but
// does NOT apply dev defaults or validate. Use this when CLI flags may
// override DevMode before validation.
func LoadConfigRaw() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, continue with env vars only.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SetDefaults()
	return &cfg, nil
}

// ConfigFileUsed returns the path to the configuration file that was
// loaded, or empty when running on env vars only.
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
