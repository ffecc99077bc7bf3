// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package ios parses Cisco IOS command output and renders operation
// reports.
//
// The parsers are pure functions over the text a router prints: interface
// tables, routing tables, ping success rates, OSPF neighbor states, syslog
// severities and SSH status. [CompareConfigs] diffs running against
// startup configuration. [Report] is the uniform result of every network
// operation and renders as markdown with tablewriter.
package ios
