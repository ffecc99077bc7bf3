// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package mcpserver provides the [MCP] server for Cisco IOS network automation.
// It exposes show, configure, validate and troubleshooting operations on
// inventory routers as MCP tools, together with inventory, status and command
// reference resources and guided workflow prompts.
//
// Devices are reached over SSH, either directly or through a jump host; see
// the netssh package for the connection strategies. Servers are constructed
// with [ServerBuilder] and started from the command line through [CLIFramework]
// or [Run].
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
package mcpserver
