// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"fmt"
	"os"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/history"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/inventory"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/netops"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/netssh"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/logger"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/mcp-server/templates"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/version"
	"github.com/hashicorp/go-multierror"
)

var appVersion = version.Version // default version

// GetVersion returns the current version of the MCP server.
//
// Returns:
//   - string: The current server version (e.g., "0.1.0")
//
// The version is initially set to the default from the version package,
// but can be overridden when calling Run() with a specific version string.
func GetVersion() string {
	return appVersion
}

// Runtime is the set of long-lived components behind the network tools: the
// connection manager with its cached jump host connections, the optional
// history store, and the service that uses both.
type Runtime struct {
	Manager *netssh.Manager
	History *history.Store
	Service *netops.Service
}

// NewRuntime wires the inventory, SSH dialer, connection manager, history
// store and network service described by config.
//
// Parameters:
//   - config: Loaded server configuration
//   - log: Receives connection and operation events
//
// Returns:
//   - *Runtime: Ready to serve; the caller must Close it
//   - error: If the inventory is invalid, the host key policy cannot be set
//     up, or the history database cannot be opened
func NewRuntime(config *Config, log logger.Logger) (*Runtime, error) {
	inv, err := inventory.New(config.Devices)
	if err != nil {
		return nil, err
	}

	dialer, err := netssh.NewDialer(config.dialerConfig(), log)
	if err != nil {
		return nil, err
	}

	manager, err := netssh.NewManager(inv, config.managerOptions(dialer, log))
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Manager: manager}

	var rec netops.Recorder
	if config.History.Database != "" {
		store, err := history.Open(config.History.Database)
		if err != nil {
			manager.Close()
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		rt.History = store
		rec = store
	}

	svc, err := netops.New(netops.NewManagerConnector(manager), rec, config.serviceOptions(log))
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Service = svc
	return rt, nil
}

// Close disconnects every cached jump host connection and closes the
// history store. Both are attempted; their errors are combined.
func (rt *Runtime) Close() error {
	var result *multierror.Error
	if rt.Manager != nil {
		if err := rt.Manager.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close connections: %w", err))
		}
	}
	if rt.History != nil {
		if err := rt.History.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close history: %w", err))
		}
	}
	return result.ErrorOrNil()
}

// Run starts the MCP server with the IOS network automation tools.
//
// Run builds the cobra root command of [CLIFramework] and executes it with
// the process arguments, so "--config", "--instructions" and "--help" work
// the same whichever entry point is used.
//
// Parameters:
//   - version: Version string to set for the server (e.g., "0.1.0")
//
// Returns:
//   - error: Configuration, startup or runtime error; nil after a signal-driven shutdown
//
// Configuration:
//   - Loads config from the --config flag or the MCP_NETAUTO_CONFIG_FILE environment variable
//   - Falls back to the built-in R1/R2 lab inventory if neither is set
func Run(version string) error {
	appVersion = version

	cf := NewCLIFramework(os.Getenv(ConfigFileEnv), ServerDependencies{
		Embed:   templates.MagicEmbed,
		Version: version,
	})
	return cf.BuildRootCommand().Execute()
}
