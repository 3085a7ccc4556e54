package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/v2"
)

// GetString retrieves a string value from the configuration or the provided default.
func (c *Config) GetString(key string, defaultVal ...string) string {
	if !c.Exists(key) {
		return optionalDefault("", defaultVal...)
	}
	return c.k.String(key)
}

// GetBool retrieves a bool value from the configuration or the provided default.
func (c *Config) GetBool(key string, defaultVal ...bool) bool {
	if !c.Exists(key) {
		return optionalDefault(false, defaultVal...)
	}
	return c.k.Bool(key)
}

// GetStringMap retrieves a map of strings, e.g. redis.backends.
// Returns nil when the key is missing.
func (c *Config) GetStringMap(key string) map[string]string {
	if !c.Exists(key) {
		return nil
	}
	return c.k.StringMap(key)
}

// GetRequiredString retrieves a required string value from the configuration.
func (c *Config) GetRequiredString(key string) (string, error) {
	if !c.Exists(key) {
		return "", fmt.Errorf("required configuration key '%s' is missing", key)
	}

	val := strings.TrimSpace(c.k.String(key))
	if val == "" {
		return "", fmt.Errorf("required configuration key '%s' is empty", key)
	}
	return val, nil
}

// Exists checks if a configuration key exists.
func (c *Config) Exists(key string) bool {
	if c == nil || c.k == nil {
		return false
	}
	return c.k.Exists(key)
}

// All returns all configuration as a flattened map.
func (c *Config) All() map[string]any {
	if c == nil || c.k == nil {
		return nil
	}
	return c.k.All()
}

// Raw returns the configuration as a nested map.
func (c *Config) Raw() map[string]any {
	if c == nil || c.k == nil {
		return nil
	}
	return c.k.Raw()
}

// Koanf exposes the underlying instance, for callers that layer further
// sources with ApplyOverrides.
func (c *Config) Koanf() *koanf.Koanf {
	if c == nil {
		return nil
	}
	return c.k
}

// Override applies overrides to the underlying instance with ApplyOverrides
// and refreshes the typed sections, so the struct and the accessors agree.
func (c *Config) Override(overrides map[string]any) error {
	if c == nil || c.k == nil {
		return fmt.Errorf("config not loaded: %w", ErrNotConfigured)
	}
	if err := ApplyOverrides(c.k, overrides); err != nil {
		return fmt.Errorf("failed to apply overrides: %w", err)
	}

	var next Config
	if err := c.k.Unmarshal("", &next); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	next.k = c.k
	*c = next
	return nil
}

func optionalDefault[T any](zero T, overrides ...T) T {
	if len(overrides) > 0 {
		return overrides[0]
	}
	return zero
}
