// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"bytes"
	"testing"
	"testing/fstest"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/helper/posix"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/mcp-server/templates"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFramework(deps ServerDependencies) *CLIFramework {
	if deps.Embed == nil {
		deps.Embed = templates.MagicEmbed
	}
	if deps.Version == "" {
		deps.Version = "1.3.3.7"
	}
	return NewCLIFramework("", deps)
}

func TestParseTemplateResult(t *testing.T) {
	cf := newTestFramework(ServerDependencies{})

	tests := []struct {
		name           string
		input          string
		expectLong     string
		expectExamples string
		expectError    bool
	}{
		{
			name:           "unix line endings",
			input:          "Long text.\n\n## Examples\n\n  netauto --instructions\n",
			expectLong:     "Long text.",
			expectExamples: "netauto --instructions",
		},
		{
			name:           "windows line endings",
			input:          "Long text.\r\n## Examples\r\n  netauto\r\n",
			expectLong:     "Long text.",
			expectExamples: "netauto",
		},
		{
			name:           "marker on the first line",
			input:          "## Examples\nnetauto",
			expectExamples: "netauto",
		},
		{
			name:        "missing marker",
			input:       "Long text only.",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			longDesc, examples, err := cf.parseTemplateResult(tt.input)
			if tt.expectError {
				assert.ErrorContains(t, err, "missing '## Examples' section")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectLong, longDesc)
			assert.Equal(t, tt.expectExamples, examples)
		})
	}
}

func TestExtractFlagNames(t *testing.T) {
	t.Run("defaults without flags", func(t *testing.T) {
		instructions, config, help := extractFlagNames(&cobra.Command{Use: "bare"})
		assert.Equal(t, "--instructions", instructions)
		assert.Equal(t, "--config", config)
		assert.Equal(t, "--help", help)
	})

	t.Run("from the root command", func(t *testing.T) {
		cmd := newTestFramework(ServerDependencies{}).BuildRootCommand()
		instructions, config, help := extractFlagNames(cmd)
		assert.Equal(t, "--instructions", instructions)
		assert.Equal(t, "--config", config)
		assert.Equal(t, "--help", help)
	})
}

func TestBuildRootCommand(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "help text uses the executable name",
			testFunc: func(t *testing.T) {
				cmd := newTestFramework(ServerDependencies{}).BuildRootCommand()
				exeName := posix.GetExecutableName()

				assert.Equal(t, exeName, cmd.Use)
				assert.Contains(t, cmd.Long, exeName+" is a Model Context Protocol (MCP) server")
				assert.Contains(t, cmd.Long, "--config or the\nMCP_NETAUTO_CONFIG_FILE")
				assert.NotContains(t, cmd.Long, "## Examples")
				assert.Contains(t, cmd.Example, exeName+" --instructions")
				assert.NotContains(t, cmd.Example, "{{")
			},
		},
		{
			name: "instructions flag prints the workflows",
			testFunc: func(t *testing.T) {
				cmd := newTestFramework(ServerDependencies{}).BuildRootCommand()
				var out bytes.Buffer
				cmd.SetOut(&out)
				cmd.SetArgs([]string{"--instructions"})

				require.NoError(t, cmd.Execute())
				assert.Contains(t, out.String(), "# IOS Network Automation MCP Server")
				assert.Contains(t, out.String(), "`get_change_history`")
				assert.Contains(t, out.String(), "`list_devices`")
			},
		},
		{
			name: "explicit instructions are printed verbatim",
			testFunc: func(t *testing.T) {
				cmd := newTestFramework(ServerDependencies{Instructions: "lab only"}).BuildRootCommand()
				var out bytes.Buffer
				cmd.SetOut(&out)
				cmd.SetArgs([]string{"--instructions"})

				require.NoError(t, cmd.Execute())
				assert.Equal(t, "lab only", out.String())
			},
		},
		{
			name: "version flag",
			testFunc: func(t *testing.T) {
				cmd := newTestFramework(ServerDependencies{}).BuildRootCommand()
				var out bytes.Buffer
				cmd.SetOut(&out)
				cmd.SetArgs([]string{"--version"})

				require.NoError(t, cmd.Execute())
				assert.Contains(t, out.String(), "1.3.3.7")
			},
		},
		{
			name: "unexpected arguments",
			testFunc: func(t *testing.T) {
				cmd := newTestFramework(ServerDependencies{}).BuildRootCommand()
				cmd.SetOut(&bytes.Buffer{})
				cmd.SetErr(&bytes.Buffer{})
				cmd.SetArgs([]string{"serve", "now"})

				err := cmd.Execute()
				assert.ErrorContains(t, err, "unexpected arguments: serve now")
			},
		},
		{
			name: "config flag is bound to the framework",
			testFunc: func(t *testing.T) {
				cf := newTestFramework(ServerDependencies{Instructions: "x"})
				cmd := cf.BuildRootCommand()
				cmd.SetOut(&bytes.Buffer{})
				cmd.SetArgs([]string{"--config", "/etc/netauto/netauto.yaml", "--instructions"})

				require.NoError(t, cmd.Execute())
				assert.Equal(t, "/etc/netauto/netauto.yaml", cf.configFile)
			},
		},
		{
			name: "missing embed panics",
			testFunc: func(t *testing.T) {
				cf := NewCLIFramework("", ServerDependencies{})
				assert.PanicsWithValue(t, "CLIFramework embed filesystem not initialized", func() {
					cf.BuildRootCommand()
				})
			},
		},
		{
			name: "help template without examples panics",
			testFunc: func(t *testing.T) {
				fsys := fstest.MapFS{"cli_help.md": {Data: []byte("{{.ExeName}} only\n")}}
				cf := NewCLIFramework("", ServerDependencies{Embed: fsys})
				assert.Panics(t, func() { cf.BuildRootCommand() })
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

func TestPrintInstructions(t *testing.T) {
	t.Run("missing template", func(t *testing.T) {
		cf := NewCLIFramework("", ServerDependencies{Embed: fstest.MapFS{}})
		var out bytes.Buffer
		err := cf.printInstructions(&out)
		assert.ErrorContains(t, err, "failed to load MCP server instructions template")
		assert.Empty(t, out.String())
	})

	t.Run("extra tools are listed", func(t *testing.T) {
		cf := newTestFramework(ServerDependencies{
			Tools: []ToolDefinition{{Tool: mcp.NewTool("ping_lab", mcp.WithDescription("Ping the lab"))}},
		})
		var out bytes.Buffer
		require.NoError(t, cf.printInstructions(&out))
		assert.Contains(t, out.String(), "- `ping_lab`: Ping the lab")
	})
}
