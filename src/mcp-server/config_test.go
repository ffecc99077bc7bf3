// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/inventory"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "defaults without a file",
			testFunc: func(t *testing.T) {
				t.Setenv(ConfigFileEnv, "")
				config, err := LoadConfig("")
				require.NoError(t, err)

				assert.Equal(t, defaultTimeoutSeconds, config.Defaults.Timeout)
				assert.Equal(t, defaultCommandTimeoutSeconds, config.Defaults.CommandTimeout)
				assert.Equal(t, defaultPingCount, config.Defaults.PingCount)
				assert.Equal(t, defaultLogLines, config.Defaults.LogLines)
				assert.Equal(t, defaultSweepLimit, config.Defaults.SweepLimit)
				assert.Equal(t, defaultJumpIdleSeconds, config.SSH.JumpIdle)
				assert.Equal(t, defaultRetryAttempts, config.SSH.RetryAttempts)
				assert.Equal(t, defaultBackupDirectory, config.Backup.Directory)
				assert.Empty(t, config.History.Database)
				require.Len(t, config.Devices, 2)
				assert.Equal(t, "R1", config.Devices[0].Name)
				assert.Equal(t, "R1", config.Devices[1].JumpHost)
			},
		},
		{
			name: "JSON file",
			testFunc: func(t *testing.T) {
				path := writeFile(t, "netauto.json", `{
  "defaults": {"pingCount": 10, "commandTimeoutSeconds": 45},
  "ssh": {"legacyAlgorithms": true, "retryAttempts": 4},
  "backup": {"directory": "/var/backups/ios"},
  "history": {"database": "audit.db"},
  "devices": [
    {"name": "core-1", "host": "10.0.0.1", "username": "netops", "password": "fromfile"}
  ]
}`)
				config, err := LoadConfig(path)
				require.NoError(t, err)

				assert.Equal(t, 10, config.Defaults.PingCount)
				assert.Equal(t, 45, config.Defaults.CommandTimeout)
				assert.Equal(t, defaultTimeoutSeconds, config.Defaults.Timeout, "zero values fall back to defaults")
				assert.True(t, config.SSH.LegacyAlgorithms)
				assert.Equal(t, 4, config.SSH.RetryAttempts)
				assert.Equal(t, "/var/backups/ios", config.Backup.Directory)
				assert.Equal(t, "audit.db", config.History.Database)
				require.Len(t, config.Devices, 1, "a file with devices replaces the lab inventory")
				assert.Equal(t, "fromfile", config.Devices[0].Password)
			},
		},
		{
			name: "YAML file from the environment",
			testFunc: func(t *testing.T) {
				path := writeFile(t, "netauto.yml", `
defaults:
  logLines: 200
ssh:
  knownHostsFile: /etc/ssh/ssh_known_hosts
devices:
  - name: edge
    host: 10.0.0.2
    username: netops
    jumpHost: core
    jumpMethod: cli
  - name: core
    host: 10.0.0.1
    username: netops
`)
				t.Setenv(ConfigFileEnv, path)
				config, err := LoadConfig("")
				require.NoError(t, err)

				assert.Equal(t, 200, config.Defaults.LogLines)
				assert.Equal(t, "/etc/ssh/ssh_known_hosts", config.SSH.KnownHostsFile)
				require.Len(t, config.Devices, 2)
				assert.Equal(t, inventory.JumpCLI, config.Devices[0].JumpMethod)
			},
		},
		{
			name: "file without devices keeps the lab inventory",
			testFunc: func(t *testing.T) {
				config, err := LoadConfig(writeFile(t, "netauto.yaml", "defaults:\n  pingCount: 3\n"))
				require.NoError(t, err)
				assert.Equal(t, 3, config.Defaults.PingCount)
				assert.Len(t, config.Devices, 2)
			},
		},
		{
			name: "credentials from the environment",
			testFunc: func(t *testing.T) {
				t.Setenv(ConfigFileEnv, "")
				t.Setenv("NETAUTO_R1_PASSWORD", "cisco123")
				t.Setenv("NETAUTO_R2_SECRET", "enable123")

				config, err := LoadConfig("")
				require.NoError(t, err)
				assert.Equal(t, "cisco123", config.Devices[0].Password)
				assert.Equal(t, "enable123", config.Devices[1].Secret)
			},
		},
		{
			name: "missing file",
			testFunc: func(t *testing.T) {
				_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
				assert.ErrorContains(t, err, "failed to read config file")
			},
		},
		{
			name: "invalid JSON",
			testFunc: func(t *testing.T) {
				_, err := LoadConfig(writeFile(t, "netauto.json", "{devices: ["))
				assert.ErrorContains(t, err, "failed to parse JSON config file")
			},
		},
		{
			name: "invalid YAML",
			testFunc: func(t *testing.T) {
				_, err := LoadConfig(writeFile(t, "netauto.yaml", "devices: [\n  - name: R1\n"))
				assert.ErrorContains(t, err, "failed to parse YAML config file")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

func TestDetectConfigFormat(t *testing.T) {
	assert.Equal(t, configFormatYAML, detectConfigFormat("netauto.yaml"))
	assert.Equal(t, configFormatYAML, detectConfigFormat("NETAUTO.YML"))
	assert.Equal(t, configFormatJSON, detectConfigFormat("netauto.json"))
	assert.Equal(t, configFormatJSON, detectConfigFormat("netauto"))
}

func TestConfigMapping(t *testing.T) {
	yes, no := true, false

	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "lab trusts host keys without known_hosts",
			testFunc: func(t *testing.T) {
				config := defaultConfig()
				assert.True(t, config.insecureHostKeys())
				config.SSH.KnownHostsFile = "/etc/ssh/ssh_known_hosts"
				assert.False(t, config.insecureHostKeys())
			},
		},
		{
			name: "explicit host key setting wins",
			testFunc: func(t *testing.T) {
				config := defaultConfig()
				config.SSH.InsecureIgnoreHostKey = &no
				assert.False(t, config.insecureHostKeys())

				config.SSH.KnownHostsFile = "/etc/ssh/ssh_known_hosts"
				config.SSH.InsecureIgnoreHostKey = &yes
				assert.True(t, config.insecureHostKeys())
			},
		},
		{
			name: "durations are seconds",
			testFunc: func(t *testing.T) {
				config := defaultConfig()
				dc := config.dialerConfig()
				assert.Equal(t, 30*time.Second, dc.Timeout)

				opts := config.managerOptions(nil, logger.Discard())
				assert.Equal(t, 20*time.Second, opts.CommandTimeout)
				assert.Equal(t, 10*time.Minute, opts.JumpIdle)
				assert.Equal(t, uint(defaultRetryAttempts), opts.RetryAttempts)
			},
		},
		{
			name: "service options",
			testFunc: func(t *testing.T) {
				config := defaultConfig()
				config.Backup.Directory = "/srv/backups"
				opts := config.serviceOptions(logger.Discard())
				assert.Equal(t, "/srv/backups", opts.BackupDir)
				assert.Equal(t, defaultPingCount, opts.PingCount)
				assert.Equal(t, bootstrapVerifyDelay, opts.VerifyDelay)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

func TestNewRuntime(t *testing.T) {
	t.Run("history database is opened and closed", func(t *testing.T) {
		config := defaultConfig()
		config.History.Database = filepath.Join(t.TempDir(), "history.db")

		rt, err := NewRuntime(config, logger.Discard())
		require.NoError(t, err)
		assert.NotNil(t, rt.Manager)
		assert.NotNil(t, rt.History)
		assert.NotNil(t, rt.Service)
		assert.NoError(t, rt.Close())
	})

	t.Run("invalid inventory", func(t *testing.T) {
		config := defaultConfig()
		config.Devices = []inventory.Device{{Name: "R1"}}

		_, err := NewRuntime(config, logger.Discard())
		assert.Error(t, err)
	})
}
