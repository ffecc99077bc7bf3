// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/mcp-server/templates"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// connect starts an in-process client on s and initializes the session.
func connect(t *testing.T, s *server.MCPServer) (*client.Client, *mcp.InitializeResult) {
	t.Helper()
	c, err := client.NewInProcessClient(s)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	initResult, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo:      mcp.Implementation{Name: "netauto-test", Version: "1.0.0"},
		},
	})
	require.NoError(t, err)
	return c, initResult
}

func toolNames(tools []mcp.Tool) []string {
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	return names
}

func TestServerBuilder(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "default components",
			testFunc: func(t *testing.T) {
				svc, _ := newLabService(t)
				s, err := NewServerBuilder().
					WithConfig(defaultConfig()).
					WithEmbed(templates.MagicEmbed).
					WithVersion("1.3.3.7").
					WithService(svc).
					WithConnections(newFakeConnections(t)).
					WithDefaultTools().
					WithDefaultResources().
					WithDefaultPrompts().
					Build()
				require.NoError(t, err)

				c, initResult := connect(t, s)
				ctx := context.Background()
				assert.Equal(t, serverName, initResult.ServerInfo.Name)
				assert.Equal(t, "1.3.3.7", initResult.ServerInfo.Version)
				assert.Contains(t, initResult.Instructions, "`list_devices`")
				assert.Contains(t, initResult.Instructions, "`configure_ospf`")
				assert.NotContains(t, initResult.Instructions, "get_change_history", "history tools need a history store")

				tools, err := c.ListTools(ctx, mcp.ListToolsRequest{})
				require.NoError(t, err)
				names := toolNames(tools.Tools)
				assert.Len(t, names, len(createTools(nil))+len(createToolsWithConfig()))
				assert.Contains(t, names, "list_devices")
				assert.Contains(t, names, "bootstrap_ssh")
				assert.NotContains(t, names, "get_backup_history")

				resources, err := c.ListResources(ctx, mcp.ListResourcesRequest{})
				require.NoError(t, err)
				assert.Len(t, resources.Resources, 6)

				prompts, err := c.ListPrompts(ctx, mcp.ListPromptsRequest{})
				require.NoError(t, err)
				assert.Len(t, prompts.Prompts, 4)

				result, err := c.CallTool(ctx, mcp.CallToolRequest{
					Params: mcp.CallToolParams{Name: "list_devices"},
				})
				require.NoError(t, err)
				assert.False(t, result.IsError)
				assert.Contains(t, resultText(result), "R2: admin@10.1.1.2:22, via R1 (auto)")
			},
		},
		{
			name: "version resource lists the final capabilities",
			testFunc: func(t *testing.T) {
				svc, _ := newLabService(t)
				s, err := NewServerBuilder().
					WithVersion("1.3.3.7").
					WithService(svc).
					WithDefaultTools().
					WithDefaultResources().
					WithDefaultPrompts().
					Build()
				require.NoError(t, err)

				c, _ := connect(t, s)
				result, err := c.ReadResource(context.Background(), mcp.ReadResourceRequest{
					Params: mcp.ReadResourceParams{URI: versionURI},
				})
				require.NoError(t, err)
				require.NotEmpty(t, result.Contents)
				text, ok := result.Contents[0].(mcp.TextResourceContents)
				require.True(t, ok)
				assert.Contains(t, text.Text, `"execute_command"`)
				assert.Contains(t, text.Text, `"docs://ios-commands"`)
				assert.Contains(t, text.Text, `"network-health-check"`)
			},
		},
		{
			name: "default tools need a service",
			testFunc: func(t *testing.T) {
				_, err := NewServerBuilder().WithDefaultTools().Build()
				assert.EqualError(t, err, "default tools require a network service")
			},
		},
		{
			name: "custom tools and explicit instructions",
			testFunc: func(t *testing.T) {
				s, err := NewServerBuilder().
					WithInstructions("lab only").
					WithTools(ToolDefinition{
						Tool: mcp.NewTool("ping_lab", mcp.WithDescription("Ping the lab")),
						Handler: func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
							return mcp.NewToolResultText("pong"), nil
						},
					}).
					WithToolsWithConfig(ToolDefinitionWithConfig{
						Tool: mcp.NewTool("lab_size", mcp.WithDescription("Count lab devices")),
						Handler: func(ctx context.Context, request mcp.CallToolRequest, config *Config) (*mcp.CallToolResult, error) {
							return mcp.NewToolResultText(strings.Repeat("*", len(config.Devices))), nil
						},
					}).
					Build()
				require.NoError(t, err)

				c, initResult := connect(t, s)
				assert.Equal(t, "lab only", initResult.Instructions)

				tools, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
				require.NoError(t, err)
				names := toolNames(tools.Tools)
				slices.Sort(names)
				assert.Equal(t, []string{"lab_size", "ping_lab"}, names)

				result, err := c.CallTool(context.Background(), mcp.CallToolRequest{
					Params: mcp.CallToolParams{Name: "lab_size"},
				})
				require.NoError(t, err)
				assert.Equal(t, "**", resultText(result), "a nil config falls back to the lab inventory")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

func TestLoadInstructions(t *testing.T) {
	tools := append(createTools(nil), createHistoryTools(nil)...)
	instructions, err := loadInstructions(templates.MagicEmbed, tools, createToolsWithConfig())
	require.NoError(t, err)

	assert.Contains(t, instructions, "# IOS Network Automation MCP Server")
	assert.Contains(t, instructions, "Review what was applied with `get_change_history`")
	for _, def := range tools {
		assert.Contains(t, instructions, "`"+def.Tool.Name+"`")
	}
	assert.NotContains(t, instructions, "<no value>", "every tool role used by the template is registered")
}

func TestCapabilities(t *testing.T) {
	meta := &mcp.Meta{AdditionalFields: map[string]any{"progressToken": "", "category": "routing"}}
	assert.Equal(t, map[string]any{"category": "routing"}, metaFields(meta))
	assert.Nil(t, metaFields(nil))

	p := newTestProvider(t, nil)
	prompts := createPrompts(templates.MagicEmbed)
	caps := &capabilities{}
	caps.populate(createTools(nil), createToolsWithConfig(), createResources(p), prompts)

	assert.Len(t, caps.tools, len(createTools(nil))+1)
	assert.Len(t, caps.resources, 6)
	require.Len(t, caps.prompts, len(prompts))
	args, ok := caps.prompts[0]["arguments"].([]map[string]any)
	require.True(t, ok)
	assert.Equal(t, "device_name", args[0]["name"])
	assert.Equal(t, true, args[0]["required"])
}
