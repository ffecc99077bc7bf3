// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// netauto runs the network operations of the IOS automation MCP server
// directly from a terminal.
//
// # Installation
//
//	go install github.com/H0llyW00dzZ/ios-netauto-mcp/cmd/netauto@latest
//
// # Usage
//
//	netauto [--config FILE] COMMAND [FLAGS]
//
// # Commands
//
//	devices              List the inventory with addresses and jump hosts
//	exec DEVICE CMD...   Run a show command
//	config DEVICE -c ... Apply configuration lines (--save writes memory)
//	backup DEVICE...     Save running configurations to the backup directory
//	check [DEVICE...]    Connect to devices in alternating rounds
//	history [DEVICE]     List recorded backups and changes
//
// The configuration file is shared with the MCP server and may also be given
// through the MCP_NETAUTO_CONFIG_FILE environment variable. Without one, the
// built-in R1/R2 lab inventory is used.
//
// # Examples
//
// Show the routing table of R2, reached through R1:
//
//	netauto exec R2 show ip route
//
// Check that R1 and R2 can be reached alternately three times:
//
//	netauto check --rounds 3
package main
