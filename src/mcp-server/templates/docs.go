// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package templates provides embedded filesystem access for MCP server template files.
//
// The embedded markdown files are:
//   - cli_help.md: Long help and examples of the server binary
//   - instructions.md: Server instructions sent to MCP clients, rendered with the tool list
//   - network-health-check.md, ospf-deployment.md, connectivity-troubleshooting.md
//     and nat-internet-sharing.md: Guided workflow prompts
//   - ios-commands.md: Reference of the IOS commands each tool sends
//
// Access goes through the [EmbedFS] interface, with [MagicEmbed] serving as the
// default implementation. Tests substitute their own EmbedFS to exercise broken
// or missing templates.
//
// Example usage:
//
//	import "github.com/H0llyW00dzZ/ios-netauto-mcp/src/mcp-server/templates"
//
//	// List all available template files
//	entries, err := templates.MagicEmbed.ReadDir(".")
//	if err != nil {
//		return fmt.Errorf("failed to list templates: %w", err)
//	}
package templates
