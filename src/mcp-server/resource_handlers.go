// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/inventory"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/netssh"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/mcp-server/templates"
	"github.com/mark3labs/mcp-go/mcp"
)

// resourceProvider serves the default resources from the state a built server holds.
type resourceProvider struct {
	config      *Config
	embed       templates.EmbedFS
	version     string
	connections ConnectionStatus
	caps        *capabilities
	now         func() time.Time
}

// jsonResource marshals v as the indented JSON content of uri.
func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

// devices returns the inventory the server operates on, redacted.
func (p *resourceProvider) devices() ([]inventory.Device, error) {
	var devs []inventory.Device
	if p.connections != nil {
		devs = p.connections.Inventory().Devices()
	} else {
		inv, err := inventory.New(p.config.Devices)
		if err != nil {
			return nil, err
		}
		devs = inv.Devices()
	}
	for i := range devs {
		devs[i] = devs[i].Redacted()
	}
	return devs, nil
}

// handleInventoryResource handles requests for the device inventory resource.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP resource read request for the inventory
//
// Returns:
//   - A slice containing the devices as JSON content, without passwords or secrets
//   - An error if the inventory is invalid
func (p *resourceProvider) handleInventoryResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	devs, err := p.devices()
	if err != nil {
		return nil, err
	}
	return jsonResource(inventoryURI, map[string]any{"devices": devs})
}

// handleVersionResource handles requests for version information resource.
// The capability lists are the tools, resources and prompts the server was
// built with.
func (p *resourceProvider) handleVersionResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	versionInfo := map[string]any{
		"name":    serverName,
		"version": p.version,
		"type":    "MCP Server",
		"capabilities": map[string]any{
			"tools":     p.caps.tools,
			"resources": p.caps.resources,
			"prompts":   p.caps.prompts,
		},
		"supportedPlatforms": []string{inventory.DefaultDeviceType},
		"jumpMethods":        []inventory.JumpMethod{inventory.JumpAuto, inventory.JumpTunnel, inventory.JumpCLI},
	}
	return jsonResource(versionURI, versionInfo)
}

// handleConfigResource handles requests for the configuration template resource.
// It shows the full configuration structure with the built-in defaults and
// an environment variable reference instead of a password.
func (p *resourceProvider) handleConfigResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	example := defaultConfig()
	for i := range example.Devices {
		example.Devices[i].PasswordEnv = "NETAUTO_" + example.Devices[i].Name + "_PASSWORD"
	}
	example.History.Database = "netauto-history.db"
	return jsonResource(configURI, example)
}

func (p *resourceProvider) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

// handleConnectionsResource handles requests for the connection status resource.
func (p *resourceProvider) handleConnectionsResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	status := map[string]any{
		"timestamp":  p.clock().UTC().Format(time.RFC3339),
		"jumpHosts":  []string{},
		"strategies": map[string]netssh.Strategy{},
	}
	if p.connections != nil {
		status["jumpHosts"] = p.connections.JumpHosts()
		strategies := make(map[string]netssh.Strategy)
		maps.Copy(strategies, p.connections.Strategies())
		status["strategies"] = strategies
	}
	return jsonResource(connectionsURI, status)
}

// handleResourceUsageResource reports the memory and connection cache usage
// of the running server as markdown tables.
func (p *resourceProvider) handleResourceUsageResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data := CollectResourceUsage(p.connections, p.clock())
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      usageURI,
			MIMEType: "text/markdown",
			Text:     FormatResourceUsageAsMarkdown(data),
		},
	}, nil
}

// handleCommandsResource serves the embedded IOS command reference.
func (p *resourceProvider) handleCommandsResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	content, err := p.embed.ReadFile("ios-commands.md")
	if err != nil {
		return nil, fmt.Errorf("failed to read IOS command reference: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      commandsURI,
			MIMEType: "text/markdown",
			Text:     string(content),
		},
	}, nil
}
