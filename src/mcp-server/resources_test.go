// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/netssh"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/mcp-server/templates"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/mcptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, cs ConnectionStatus) *resourceProvider {
	t.Helper()
	config := defaultConfig()
	config.Devices[0].Password = "cisco123"
	config.Devices[1].Secret = "enable123"
	return &resourceProvider{
		config:      config,
		embed:       templates.MagicEmbed,
		version:     "1.3.3.7",
		connections: cs,
		caps:        &capabilities{},
		now:         func() time.Time { return time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC) },
	}
}

func readResource(t *testing.T, p *resourceProvider, handler ResourceHandler, uri string) mcp.TextResourceContents {
	t.Helper()
	contents, err := handler(context.Background(), mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{URI: uri},
	})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok, "expected TextResourceContents, got %T", contents[0])
	assert.Equal(t, uri, text.URI)
	return text
}

func TestResourcesOverMCP(t *testing.T) {
	p := newTestProvider(t, newFakeConnections(t))

	srv := mcptest.NewUnstartedServer(t)
	srv.AddResources(createResources(p)...)
	require.NoError(t, srv.Start(context.Background()))
	defer srv.Close()

	client := srv.Client()

	tests := []struct {
		name           string
		uri            string
		expectError    bool
		expectContains []string
		expectMIMEType string
	}{
		{
			name:           "inventory",
			uri:            inventoryURI,
			expectContains: []string{`"devices"`, `"R1"`, `"jumpHost": "R1"`},
			expectMIMEType: "application/json",
		},
		{
			name:           "version",
			uri:            versionURI,
			expectContains: []string{`"IOS Network Automation"`, `"1.3.3.7"`, `"jumpMethods"`},
			expectMIMEType: "application/json",
		},
		{
			name:           "config template",
			uri:            configURI,
			expectContains: []string{`"NETAUTO_R1_PASSWORD"`, `"retryAttempts"`, `"netauto-history.db"`},
			expectMIMEType: "application/json",
		},
		{
			name:           "connections",
			uri:            connectionsURI,
			expectContains: []string{`"2026-03-01T10:30:00Z"`, `"tunnel"`},
			expectMIMEType: "application/json",
		},
		{
			name:           "resource usage",
			uri:            usageURI,
			expectContains: []string{"# Server Resource Usage", "## SSH Connections", "Devices via Tunnel"},
			expectMIMEType: "text/markdown",
		},
		{
			name:           "command reference",
			uri:            commandsURI,
			expectContains: []string{"show ip interface brief"},
			expectMIMEType: "text/markdown",
		},
		{
			name:        "unknown resource",
			uri:         "nonexistent://resource",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := client.ReadResource(context.Background(), mcp.ReadResourceRequest{
				Params: mcp.ReadResourceParams{URI: tt.uri},
			})
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, result.Contents)

			text, ok := result.Contents[0].(mcp.TextResourceContents)
			require.True(t, ok, "expected TextResourceContents, got %T", result.Contents[0])
			assert.Equal(t, tt.expectMIMEType, text.MIMEType)
			for _, expected := range tt.expectContains {
				assert.Contains(t, text.Text, expected)
			}
			assert.NotContains(t, text.Text, "cisco123")
			assert.NotContains(t, text.Text, "enable123")
		})
	}
}

func TestInventoryResource(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "from the connection manager",
			testFunc: func(t *testing.T) {
				p := newTestProvider(t, newFakeConnections(t))
				text := readResource(t, p, p.handleInventoryResource, inventoryURI)

				var body struct {
					Devices []map[string]any `json:"devices"`
				}
				require.NoError(t, json.Unmarshal([]byte(text.Text), &body))
				require.Len(t, body.Devices, 2)
				assert.Equal(t, "R1", body.Devices[0]["name"])
				assert.Equal(t, "R2", body.Devices[1]["name"])
				assert.Equal(t, "auto", body.Devices[1]["jumpMethod"])
			},
		},
		{
			name: "from the configuration without credentials",
			testFunc: func(t *testing.T) {
				p := newTestProvider(t, nil)
				text := readResource(t, p, p.handleInventoryResource, inventoryURI)
				assert.Contains(t, text.Text, "192.168.242.129")
				assert.NotContains(t, text.Text, "cisco123")
				assert.NotContains(t, text.Text, "password")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

func TestConnectionsResource(t *testing.T) {
	t.Run("manager state", func(t *testing.T) {
		p := newTestProvider(t, newFakeConnections(t))
		text := readResource(t, p, p.handleConnectionsResource, connectionsURI)

		var status struct {
			Timestamp  string                    `json:"timestamp"`
			JumpHosts  []string                  `json:"jumpHosts"`
			Strategies map[string]netssh.Strategy `json:"strategies"`
		}
		require.NoError(t, json.Unmarshal([]byte(text.Text), &status))
		assert.Equal(t, "2026-03-01T10:30:00Z", status.Timestamp)
		assert.Equal(t, []string{"R1"}, status.JumpHosts)
		assert.Equal(t, netssh.StrategyTunnel, status.Strategies["R2"])
	})

	t.Run("without a manager", func(t *testing.T) {
		p := newTestProvider(t, nil)
		text := readResource(t, p, p.handleConnectionsResource, connectionsURI)
		assert.Contains(t, text.Text, `"jumpHosts": []`)
		assert.Contains(t, text.Text, `"strategies": {}`)
	})
}

func TestResourceUsage(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

	t.Run("with connections", func(t *testing.T) {
		data := CollectResourceUsage(newFakeConnections(t), now)
		assert.Equal(t, now, data.Timestamp)
		assert.Contains(t, data.MemoryUsage, "heap_alloc_mb")
		assert.Contains(t, data.SystemInfo, "go_version")
		require.NotNil(t, data.Connections)
		assert.Equal(t, 2, data.Connections["devices"])
		assert.Equal(t, 1, data.Connections["jump_hosts_open"])
		assert.Equal(t, 1, data.Connections["tunnel_devices"])
		assert.Equal(t, 0, data.Connections["jump_cli_devices"])

		md := FormatResourceUsageAsMarkdown(data)
		assert.Contains(t, md, "📊 METRIC")
		assert.Contains(t, md, "Open Jump Hosts")
		assert.Contains(t, md, "March 1, 2026")
	})

	t.Run("without connections", func(t *testing.T) {
		data := CollectResourceUsage(nil, now)
		assert.Nil(t, data.Connections)
		assert.NotContains(t, FormatResourceUsageAsMarkdown(data), "SSH Connections")
	})

	t.Run("value formatting", func(t *testing.T) {
		assert.Equal(t, "1.50 MB", formatValueForMarkdown(1.5, "heap_alloc_mb"))
		assert.Equal(t, "0.25%", formatValueForMarkdown(0.25, "gc_cpu_fraction"))
		assert.Equal(t, "3.00 ms", formatValueForMarkdown(3.0, "pause_total_ms"))
		assert.Equal(t, "42", formatValueForMarkdown(uint64(42), "heap_objects"))
		assert.Equal(t, "linux", formatValueForMarkdown("linux", "go_os"))
	})
}
