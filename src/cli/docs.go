// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package cli provides the operator command line for IOS network automation.
// It implements a Cobra-based CLI that lists the inventory, runs show commands,
// applies configuration lines, takes backups, tests connections to every device
// (including devices behind a jump host) and prints the recorded history.
// The package shares its configuration file and runtime with the MCP server and
// integrates with the logger package for progress and error reporting.
package cli
