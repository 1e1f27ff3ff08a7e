package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validate validates the configuration using struct tags and
// cross-field rules. Returns an error with actionable messages.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	if err := c.validateDurations(); err != nil {
		return err
	}

	// The token extractor cannot verify anything without a secret.
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required (or set dev_mode: true)")
	}

	return nil
}

// validateDurations checks every duration-shaped string field parses.
func (c *Config) validateDurations() error {
	fields := []struct {
		name  string
		value string
	}{
		{"server.shutdown_timeout", c.Server.ShutdownTimeout},
		{"elicitation.default_timeout", c.Elicitation.DefaultTimeout},
		{"elicitation.sweep_interval", c.Elicitation.SweepInterval},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		d, err := time.ParseDuration(f.value)
		if err != nil {
			return fmt.Errorf("%s: invalid duration %q", f.name, f.value)
		}
		if d <= 0 {
			return fmt.Errorf("%s: duration must be positive, got %q", f.name, f.value)
		}
	}
	return nil
}

// formatValidationErrors converts validator.ValidationErrors to
// user-friendly messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "hostname_port":
		return fmt.Sprintf("%s must be a valid host:port", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}
