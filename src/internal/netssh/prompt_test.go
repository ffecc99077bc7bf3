// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netssh

import (
	"testing"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/inventory"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/ios"
	"github.com/stretchr/testify/assert"
)

func TestParsePrompt(t *testing.T) {
	tests := []struct {
		name   string
		output string
		host   string
		mode   string
		marker byte
		ok     bool
	}{
		{name: "user exec", output: "\r\nR1>", host: "R1", marker: '>', ok: true},
		{name: "privileged", output: "banner\r\nR2#", host: "R2", marker: '#', ok: true},
		{name: "interface config", output: "\nCORE-1(config-if)# ", host: "CORE-1", mode: "config-if", marker: '#', ok: true},
		{name: "start of output", output: "edge.lab#", host: "edge.lab", marker: '#', ok: true},
		{name: "no prompt", output: "Password: ", ok: false},
		{name: "prompt not at end", output: "R1#show clock\r\n", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, mode, marker, ok := parsePrompt(tt.output)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.host, host)
			assert.Equal(t, tt.mode, mode)
			assert.Equal(t, tt.marker, marker)
		})
	}
}

func TestPromptPattern(t *testing.T) {
	re := PromptPattern("edge.lab")

	assert.True(t, re.MatchString("\r\nedge.lab#"))
	assert.True(t, re.MatchString("\nedge.lab(config-router)#"))
	assert.True(t, re.MatchString("edge.lab>"))
	assert.False(t, re.MatchString("\nedgeXlab#"), "dots are literal")
	assert.False(t, re.MatchString("\nR1#"))
}

func TestCleanOutput(t *testing.T) {
	prompt := PromptPattern("R1")

	tests := []struct {
		name string
		raw  string
		cmd  string
		want string
	}{
		{
			name: "echo and prompt removed",
			raw:  "show clock\r\n*10:00:00.000 UTC Mon Mar 1 2026\r\n\r\nR1#",
			cmd:  "show clock",
			want: "*10:00:00.000 UTC Mon Mar 1 2026",
		},
		{
			name: "echo after leftover prompt",
			raw:  "\r\nR1#show ip route static\r\nS*    0.0.0.0/0 [1/0] via 10.0.0.1\r\nR1#",
			cmd:  "show ip route static",
			want: "S*    0.0.0.0/0 [1/0] via 10.0.0.1",
		},
		{
			name: "no output",
			raw:  "terminal length 0\r\nR1#",
			cmd:  "terminal length 0",
			want: "",
		},
		{
			name: "config mode prompt",
			raw:  "ip domain-lookup\r\nR1(config)#",
			cmd:  "ip domain-lookup",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanOutput(tt.raw, tt.cmd, prompt))
		})
	}
}

func TestRejectedLine(t *testing.T) {
	raw := "bogus\r\n                   ^\r\n% Invalid input detected at '^' marker.\r\n"
	marker, bad := rejectedLine(raw)
	assert.True(t, bad)
	assert.Equal(t, "% Invalid input detected at '^' marker.", marker)
	assert.True(t, ios.Rejected(raw), "sessions and reports agree on rejections")

	marker, bad = rejectedLine("% Incomplete command.")
	assert.True(t, bad)
	assert.Equal(t, "% Incomplete command.", marker)

	_, bad = rejectedLine("Building configuration...\n[OK]")
	assert.False(t, bad)
}

func TestHopCommand(t *testing.T) {
	assert.Equal(t, "ssh -l admin 10.1.1.2", hopCommand(inventory.Device{Username: "admin", Host: "10.1.1.2"}))
	assert.Equal(t, "ssh -l admin 10.1.1.2", hopCommand(inventory.Device{Username: "admin", Host: "10.1.1.2", Port: 22}))
	assert.Equal(t, "ssh -l ops -p 2222 r2.lab", hopCommand(inventory.Device{Username: "ops", Host: "r2.lab", Port: 2222}))
}
