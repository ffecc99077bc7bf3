// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/mcp-server/templates"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// createPrompts creates and returns all MCP prompt definitions with their handlers.
// Every prompt is rendered from an embedded markdown template of the same name.
func createPrompts(fsys templates.EmbedFS) []server.ServerPrompt {
	return []server.ServerPrompt{
		{
			Prompt: mcp.NewPrompt("network-health-check",
				mcp.WithPromptDescription("Check device status, interfaces, routing and OSPF, then summarize the health of a router"),
				mcp.WithArgument("device_name",
					mcp.ArgumentDescription("Inventory device to check (e.g., 'R1')"),
					mcp.RequiredArgument(),
				),
			),
			Handler: promptHandler(fsys, "network-health-check", "Network Health Check Workflow"),
		},
		{
			Prompt: mcp.NewPrompt("ospf-deployment",
				mcp.WithPromptDescription("Deploy OSPF on a router and verify adjacencies and learned routes"),
				mcp.WithArgument("device_name",
					mcp.ArgumentDescription("Inventory device to configure"),
					mcp.RequiredArgument(),
				),
				mcp.WithArgument("process_id",
					mcp.ArgumentDescription("OSPF process ID (default: 1)"),
				),
				mcp.WithArgument("area",
					mcp.ArgumentDescription("OSPF area for the advertised networks (default: 0)"),
				),
			),
			Handler: promptHandler(fsys, "ospf-deployment", "OSPF Deployment Workflow"),
		},
		{
			Prompt: mcp.NewPrompt("connectivity-troubleshooting",
				mcp.WithPromptDescription("Find out why a router cannot reach a target"),
				mcp.WithArgument("device_name",
					mcp.ArgumentDescription("Inventory device the problem is seen from"),
					mcp.RequiredArgument(),
				),
				mcp.WithArgument("target_ip",
					mcp.ArgumentDescription("Unreachable target address"),
					mcp.RequiredArgument(),
				),
			),
			Handler: promptHandler(fsys, "connectivity-troubleshooting", "Connectivity Troubleshooting Workflow"),
		},
		{
			Prompt: mcp.NewPrompt("nat-internet-sharing",
				mcp.WithPromptDescription("Share a router's internet uplink with an inside network using NAT overload"),
				mcp.WithArgument("device_name",
					mcp.ArgumentDescription("Edge router with the internet uplink"),
					mcp.RequiredArgument(),
				),
				mcp.WithArgument("outside_interface",
					mcp.ArgumentDescription("Interface facing the internet"),
				),
				mcp.WithArgument("inside_network",
					mcp.ArgumentDescription("Inside network address (e.g., '10.1.1.0')"),
				),
			),
			Handler: promptHandler(fsys, "nat-internet-sharing", "NAT Internet Sharing Workflow"),
		},
	}
}
