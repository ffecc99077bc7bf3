// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Resource URIs served by the default resources.
const (
	inventoryURI   = "inventory://devices"
	versionURI     = "info://version"
	configURI      = "config://template"
	connectionsURI = "status://connections"
	commandsURI    = "docs://ios-commands"
	usageURI       = "status://resource-usage"
)

// createResources creates the default resources backed by p.
//
// Parameters:
//   - p: Supplies the configuration, embedded docs and connection state
//
// Returns:
//   - The inventory, version, config template, connection status, resource
//     usage and IOS command reference resources
func createResources(p *resourceProvider) []server.ServerResource {
	return []server.ServerResource{
		{
			Resource: mcp.NewResource(inventoryURI, "Device Inventory",
				mcp.WithResourceDescription("Inventory devices, addresses and jump hosts. Credentials are never included."),
				mcp.WithMIMEType("application/json"),
			),
			Handler: p.handleInventoryResource,
		},
		{
			Resource: mcp.NewResource(versionURI, "Server Version",
				mcp.WithResourceDescription("Server version and the tools, resources and prompts it provides"),
				mcp.WithMIMEType("application/json"),
			),
			Handler: p.handleVersionResource,
		},
		{
			Resource: mcp.NewResource(configURI, "Configuration Template",
				mcp.WithResourceDescription("Example configuration file with every default filled in"),
				mcp.WithMIMEType("application/json"),
			),
			Handler: p.handleConfigResource,
		},
		{
			Resource: mcp.NewResource(connectionsURI, "Connection Status",
				mcp.WithResourceDescription("Cached jump host connections and the strategy remembered for each device"),
				mcp.WithMIMEType("application/json"),
			),
			Handler: p.handleConnectionsResource,
		},
		{
			Resource: mcp.NewResource(usageURI, "Resource Usage",
				mcp.WithResourceDescription("Memory, garbage collection and SSH connection cache statistics of the server"),
				mcp.WithMIMEType("text/markdown"),
			),
			Handler: p.handleResourceUsageResource,
		},
		{
			Resource: mcp.NewResource(commandsURI, "IOS Command Reference",
				mcp.WithResourceDescription("The IOS commands each tool sends and how their output is interpreted"),
				mcp.WithMIMEType("text/markdown"),
			),
			Handler: p.handleCommandsResource,
		},
	}
}
