// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package jsonrpc provides helpers for [JSON-RPC 2.0] argument payloads received
// over MCP. It normalizes key casing and converts generic maps into typed structs,
// e.g. the OSPF network statements passed to the configure_ospf tool.
//
// [JSON-RPC 2.0]: https://www.jsonrpc.org/specification
package jsonrpc
