package config

import (
	"os"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.LogLevel != "info" {
		t.Errorf("Expected log level 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.FanoutCapacity != 16 {
		t.Errorf("Expected fanout capacity 16, got %d", cfg.FanoutCapacity)
	}

	if cfg.DumpConcurrency != 2 {
		t.Errorf("Expected dump concurrency 2, got %d", cfg.DumpConcurrency)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *Config
		expectError bool
	}{
		{
			name:        "valid config",
			cfg:         NewDefaultConfig(),
			expectError: false,
		},
		{
			name: "invalid log level",
			cfg: &Config{
				LogLevel:         "invalid",
				FanoutCapacity:   16,
				SysctlRetries:    3,
				DumpConcurrency:  2,
				OperationTimeout: 30 * time.Second,
			},
			expectError: true,
		},
		{
			name: "zero fanout capacity",
			cfg: &Config{
				LogLevel:         "info",
				FanoutCapacity:   0,
				SysctlRetries:    3,
				DumpConcurrency:  2,
				OperationTimeout: 30 * time.Second,
			},
			expectError: true,
		},
		{
			name: "operation timeout too short",
			cfg: &Config{
				LogLevel:         "info",
				FanoutCapacity:   16,
				SysctlRetries:    3,
				DumpConcurrency:  2,
				OperationTimeout: 0,
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.expectError {
				t.Errorf("Expected error: %v, got: %v", tt.expectError, err)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("non-existent.json")
	if err != nil {
		t.Errorf("Expected no error for non-existent file, got: %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level, got: %s", cfg.LogLevel)
	}

	cfg, err = LoadConfig("")
	if err != nil {
		t.Errorf("Expected no error for empty path, got: %v", err)
	}

	if cfg == nil {
		t.Error("Expected config, got nil")
	}
}

func TestConfigSave(t *testing.T) {
	cfg := NewDefaultConfig()
	tempFile := "/tmp/test-routetable-config.json"

	defer os.Remove(tempFile)

	err := cfg.Save(tempFile)
	if err != nil {
		t.Errorf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(tempFile); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}

	loadedCfg, err := LoadConfig(tempFile)
	if err != nil {
		t.Errorf("Failed to load saved config: %v", err)
	}

	if loadedCfg.LogLevel != cfg.LogLevel {
		t.Errorf("Config mismatch after save/load")
	}
}
