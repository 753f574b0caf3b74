// Package config loads service settings from defaults, an optional config
// file and RECEIPT_ environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. RECEIPT_SERVER_PORT
const EnvPrefix = "RECEIPT"

// ErrInvalid is returned when a loaded value is out of range
var ErrInvalid = errors.New("invalid configuration")

// Config holds all service configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Printer PrinterConfig `mapstructure:"printer"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig holds API server settings
type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	RegistryPath string `mapstructure:"registry_path"`
}

// Addr returns the listen address for the API server
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", s.Port)
}

// PrinterConfig holds printing and device settings
type PrinterConfig struct {
	PaperWidth      string        `mapstructure:"paper_width"`
	MaxRetries      int           `mapstructure:"max_retries"`
	MonitorInterval time.Duration `mapstructure:"monitor_interval"`
	DetectOnStart   bool          `mapstructure:"detect_on_start"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var paperWidths = []string{"58mm", "80mm", "112mm"}

// Load reads configuration. configFile may be empty; when set it must exist.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 12212)
	v.SetDefault("server.registry_path", defaultRegistryPath())
	v.SetDefault("printer.paper_width", "80mm")
	v.SetDefault("printer.max_retries", 3)
	v.SetDefault("printer.monitor_interval", "2s")
	v.SetDefault("printer.detect_on_start", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d", ErrInvalid, c.Server.Port)
	}
	if !contains(paperWidths, c.Printer.PaperWidth) {
		return fmt.Errorf("%w: printer.paper_width %q, want one of %s", ErrInvalid, c.Printer.PaperWidth, strings.Join(paperWidths, ", "))
	}
	if c.Printer.MaxRetries < 1 {
		return fmt.Errorf("%w: printer.max_retries must be at least 1", ErrInvalid)
	}
	if c.Printer.MonitorInterval <= 0 {
		return fmt.Errorf("%w: printer.monitor_interval must be positive", ErrInvalid)
	}
	if !contains([]string{"text", "json"}, c.Log.Format) {
		return fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format)
	}
	return nil
}

// defaultRegistryPath places the registry in the user config directory,
// falling back to the working directory.
func defaultRegistryPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "receipt-interpreter", "printer_registry.json")
	}
	return "printer_registry.json"
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
