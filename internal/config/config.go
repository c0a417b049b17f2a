package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config holds the operational knobs for a Handle, loaded from an optional
// JSON file and otherwise defaulted.
type Config struct {
	// LogLevel controls the verbosity of the internal logger.
	LogLevel string `json:"log_level"`

	// FanoutCapacity is the per-subscriber buffered capacity of the route
	// change event bus. A subscriber that falls this far behind silently
	// drops the oldest undelivered events rather than blocking.
	FanoutCapacity int `json:"fanout_capacity"`

	// SysctlRetries bounds how many times the BSD backend retries the
	// two-call sysctl(NET_RT_DUMP) pattern when the table grows between
	// the size query and the data fetch.
	SysctlRetries int `json:"sysctl_retries"`

	// DumpConcurrency bounds how many platform dump requests (e.g. the
	// Linux backend's IPv4 and IPv6 RTM_GETROUTE dumps) run concurrently.
	DumpConcurrency int `json:"dump_concurrency"`

	// OperationTimeout bounds how long a single Add/Delete/List/
	// DefaultRoute call may take: the Handle applies it as a deadline to
	// any call whose context carries no deadline of its own.
	OperationTimeout time.Duration `json:"operation_timeout"`
}

// NewDefaultConfig returns a Config with the library's default knobs.
func NewDefaultConfig() *Config {
	return &Config{
		LogLevel:         "info",
		FanoutCapacity:   16,
		SysctlRetries:    3,
		DumpConcurrency:  2,
		OperationTimeout: 30 * time.Second,
	}
}

// LoadConfig reads a JSON config file at path, falling back to defaults for
// any field it omits. An empty path, or a path that does not exist, yields
// the default Config.
func LoadConfig(path string) (*Config, error) {
	cfg := NewDefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks that every knob is within a usable range.
func (c *Config) Validate() error {
	if c.FanoutCapacity < 1 {
		return fmt.Errorf("fanout_capacity must be at least 1")
	}

	if c.SysctlRetries < 1 {
		return fmt.Errorf("sysctl_retries must be at least 1")
	}

	if c.DumpConcurrency < 1 {
		return fmt.Errorf("dump_concurrency must be at least 1")
	}

	if c.OperationTimeout < time.Second {
		return fmt.Errorf("operation_timeout must be at least 1 second")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}

	return nil
}

// Save writes c to path as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
