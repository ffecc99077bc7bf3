// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/inventory"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/netops"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/netssh"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/logger"
	"gopkg.in/yaml.v3"
)

// configFormat represents supported configuration file formats.
type configFormat int

const (
	// configFormatJSON represents JSON configuration format (.json)
	configFormatJSON configFormat = iota
	// configFormatYAML represents YAML configuration format (.yaml, .yml)
	configFormatYAML
)

// ConfigFileEnv names the environment variable read when no --config path is given.
const ConfigFileEnv = "MCP_NETAUTO_CONFIG_FILE"

// Default values applied before and after a configuration file is loaded.
const (
	defaultTimeoutSeconds        = 30
	defaultCommandTimeoutSeconds = 20
	defaultPingCount             = 5
	defaultLogLines              = 50
	defaultSweepLimit            = 50
	defaultJumpIdleSeconds       = 600
	defaultRetryAttempts         = 2
	defaultBackupDirectory       = "backups"

	// bootstrapVerifyDelay gives a freshly configured router time to start its SSH server.
	bootstrapVerifyDelay = 5 * time.Second
)

// Config represents the MCP server configuration structure.
// It contains operation defaults, SSH transport settings, backup and history
// locations, and the device inventory.
//
// The configuration can be loaded from a JSON or YAML file specified by the
// MCP_NETAUTO_CONFIG_FILE environment variable, with defaults applied for any
// missing values. Supported file extensions: .json, .yaml, .yml
type Config struct {
	// Defaults: Default settings for network operations
	Defaults struct {
		// Timeout: Connect and login timeout in seconds for devices that set none
		Timeout int `json:"timeoutSeconds" yaml:"timeoutSeconds"`
		// CommandTimeout: Seconds to wait for the prompt after each command
		CommandTimeout int `json:"commandTimeoutSeconds" yaml:"commandTimeoutSeconds"`
		// PingCount: Repeat count of connectivity checks
		PingCount int `json:"pingCount" yaml:"pingCount"`
		// LogLines: Number of syslog lines fetched by get_logs
		LogLines int `json:"logLines" yaml:"logLines"`
		// SweepLimit: Maximum number of hosts a ping sweep covers
		SweepLimit int `json:"sweepLimit" yaml:"sweepLimit"`
	} `json:"defaults" yaml:"defaults"`

	// SSH: Transport settings shared by every device
	SSH struct {
		// KnownHostsFile: Enables host key verification when set
		KnownHostsFile string `json:"knownHostsFile,omitempty" yaml:"knownHostsFile,omitempty"`
		// InsecureIgnoreHostKey: Accept any host key (lab default when no known_hosts file is set)
		InsecureIgnoreHostKey *bool `json:"insecureIgnoreHostKey,omitempty" yaml:"insecureIgnoreHostKey,omitempty"`
		// LegacyAlgorithms: Offer CBC ciphers and SHA-1 key exchange for old IOS images
		LegacyAlgorithms bool `json:"legacyAlgorithms" yaml:"legacyAlgorithms"`
		// JumpIdle: Seconds an unused jump host connection stays cached
		JumpIdle int `json:"jumpIdleSeconds" yaml:"jumpIdleSeconds"`
		// RetryAttempts: Total tries for opening a session through a jump host
		RetryAttempts int `json:"retryAttempts" yaml:"retryAttempts"`
	} `json:"ssh" yaml:"ssh"`

	// Backup: Where configuration backups are written
	Backup struct {
		// Directory: Destination directory for backup files
		Directory string `json:"directory" yaml:"directory"`
	} `json:"backup" yaml:"backup"`

	// History: SQLite audit trail of backups and configuration changes
	History struct {
		// Database: Path of the SQLite file; empty disables history
		Database string `json:"database,omitempty" yaml:"database,omitempty"`
	} `json:"history" yaml:"history"`

	// Devices: The router inventory
	Devices []inventory.Device `json:"devices" yaml:"devices"`
}

// defaultConfig returns a Config populated with the built-in defaults and
// the two-router lab inventory.
func defaultConfig() *Config {
	config := &Config{}
	config.Defaults.Timeout = defaultTimeoutSeconds
	config.Defaults.CommandTimeout = defaultCommandTimeoutSeconds
	config.Defaults.PingCount = defaultPingCount
	config.Defaults.LogLines = defaultLogLines
	config.Defaults.SweepLimit = defaultSweepLimit
	config.SSH.JumpIdle = defaultJumpIdleSeconds
	config.SSH.RetryAttempts = defaultRetryAttempts
	config.Backup.Directory = defaultBackupDirectory
	config.Devices = inventory.DefaultDevices()
	return config
}

// detectConfigFormat determines the configuration file format based on file extension.
// It supports .json, .yaml, and .yml extensions for flexible configuration management.
//
// Parameters:
//   - configPath: Path to the configuration file
//
// Returns:
//   - configFormat: The detected format (configFormatJSON or configFormatYAML)
func detectConfigFormat(configPath string) configFormat {
	ext := strings.ToLower(filepath.Ext(configPath))
	switch ext {
	case ".yaml", ".yml":
		return configFormatYAML
	default:
		return configFormatJSON
	}
}

// unmarshalConfig unmarshals configuration data based on the specified format.
//
// Parameters:
//   - data: Raw configuration file contents
//   - config: Pointer to Config struct to populate
//   - format: The configuration format (configFormatJSON or configFormatYAML)
//
// Returns:
//   - error: Any parsing error encountered during unmarshaling
func unmarshalConfig(data []byte, config *Config, format configFormat) error {
	switch format {
	case configFormatYAML:
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse YAML config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse JSON config file: %w", err)
		}
	}
	return nil
}

// LoadConfig loads MCP server configuration from a JSON or YAML file or applies defaults.
//
// Parameters:
//   - configPath: Path to the configuration file (optional, can be empty)
//     Supported formats: .json, .yaml, .yml
//
// Returns:
//   - A pointer to the loaded Config struct with defaults applied
//   - An error if the configuration file cannot be read or parsed
//
// Configuration Priority:
//  1. Default values are set, including the built-in R1/R2 inventory
//  2. MCP_NETAUTO_CONFIG_FILE environment variable is checked if configPath is empty
//  3. Config file values override defaults (if file exists and is valid)
//  4. NETAUTO_<DEVICE>_PASSWORD and NETAUTO_<DEVICE>_SECRET override device credentials
//
// A file that lists devices replaces the built-in inventory entirely.
func LoadConfig(configPath string) (*Config, error) {
	config := defaultConfig()

	// Check environment variable for config file path if not provided
	if configPath == "" {
		configPath = os.Getenv(ConfigFileEnv)
	}

	// Try to load from file if path is provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		config.Devices = nil
		format := detectConfigFormat(configPath)
		if err := unmarshalConfig(data, config, format); err != nil {
			return nil, err
		}

		// Validate and set defaults for invalid values
		if config.Defaults.Timeout <= 0 {
			config.Defaults.Timeout = defaultTimeoutSeconds
		}
		if config.Defaults.CommandTimeout <= 0 {
			config.Defaults.CommandTimeout = defaultCommandTimeoutSeconds
		}
		if config.Defaults.PingCount <= 0 {
			config.Defaults.PingCount = defaultPingCount
		}
		if config.Defaults.LogLines <= 0 {
			config.Defaults.LogLines = defaultLogLines
		}
		if config.Defaults.SweepLimit <= 0 {
			config.Defaults.SweepLimit = defaultSweepLimit
		}
		if config.SSH.JumpIdle <= 0 {
			config.SSH.JumpIdle = defaultJumpIdleSeconds
		}
		if config.SSH.RetryAttempts <= 0 {
			config.SSH.RetryAttempts = defaultRetryAttempts
		}
		if config.Backup.Directory == "" {
			config.Backup.Directory = defaultBackupDirectory
		}
		if len(config.Devices) == 0 {
			config.Devices = inventory.DefaultDevices()
		}
	}

	inventory.ResolveCredentials(config.Devices, os.LookupEnv)

	return config, nil
}

// insecureHostKeys reports whether host keys go unverified. Without a
// known_hosts file and without an explicit setting, lab routers are trusted.
func (c *Config) insecureHostKeys() bool {
	if c.SSH.InsecureIgnoreHostKey != nil {
		return *c.SSH.InsecureIgnoreHostKey
	}
	return c.SSH.KnownHostsFile == ""
}

// dialerConfig maps the SSH section onto the transport's dialer settings.
func (c *Config) dialerConfig() netssh.DialerConfig {
	return netssh.DialerConfig{
		KnownHostsFile:        c.SSH.KnownHostsFile,
		InsecureIgnoreHostKey: c.insecureHostKeys(),
		LegacyAlgorithms:      c.SSH.LegacyAlgorithms,
		Timeout:               time.Duration(c.Defaults.Timeout) * time.Second,
	}
}

// managerOptions maps the configuration onto connection manager options.
func (c *Config) managerOptions(d *netssh.Dialer, log logger.Logger) netssh.Options {
	return netssh.Options{
		Dialer:         d,
		Logger:         log,
		CommandTimeout: time.Duration(c.Defaults.CommandTimeout) * time.Second,
		JumpIdle:       time.Duration(c.SSH.JumpIdle) * time.Second,
		RetryAttempts:  uint(c.SSH.RetryAttempts),
	}
}

// serviceOptions maps the configuration onto network operation options.
func (c *Config) serviceOptions(log logger.Logger) netops.Options {
	return netops.Options{
		BackupDir:   c.Backup.Directory,
		PingCount:   c.Defaults.PingCount,
		LogLines:    c.Defaults.LogLines,
		SweepLimit:  c.Defaults.SweepLimit,
		VerifyDelay: bootstrapVerifyDelay,
		Logger:      log,
	}
}
