// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"fmt"
	"maps"
	"strings"
	"text/template"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/mcp-server/templates"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// instructionsTemplate is the embedded template rendered into the server instructions.
const instructionsTemplate = "instructions.md"

// instructionData holds the data used to populate the MCP server instructions template.
type instructionData struct {
	Tools     []toolInfo
	ToolRoles map[string]string // Maps tool roles to tool names for template use
}

// toolInfo represents information about an MCP tool for template rendering.
type toolInfo struct {
	Name        string
	Description string
}

// loadInstructions renders the instructions template with the registered tools.
//
// Parameters:
//   - fsys: Embedded filesystem holding instructions.md
//   - tools: Slice of tool definitions without config requirements
//   - toolsWithConfig: Slice of tool definitions that require configuration access
//
// Returns:
//   - string: The rendered instruction text describing server capabilities and tool usage
//   - error: If the embedded file cannot be read or template parsing fails
func loadInstructions(fsys templates.EmbedFS, tools []ToolDefinition, toolsWithConfig []ToolDefinitionWithConfig) (string, error) {
	templateBytes, err := fsys.ReadFile(instructionsTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to load MCP server instructions template: %w", err)
	}

	var toolInfos []toolInfo
	toolRoles := make(map[string]string)

	for _, tool := range tools {
		toolInfos = append(toolInfos, toolInfo{Name: tool.Tool.Name, Description: tool.Tool.Description})
		if tool.Role != "" {
			toolRoles[tool.Role] = tool.Tool.Name
		}
	}

	for _, tool := range toolsWithConfig {
		toolInfos = append(toolInfos, toolInfo{Name: tool.Tool.Name, Description: tool.Tool.Description})
		if tool.Role != "" {
			toolRoles[tool.Role] = tool.Tool.Name
		}
	}

	data := instructionData{
		Tools:     toolInfos,
		ToolRoles: toolRoles,
	}

	tmpl, err := template.New("instructions").Parse(string(templateBytes))
	if err != nil {
		return "", fmt.Errorf("failed to parse instructions template: %w", err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute instructions template: %w", err)
	}

	return buf.String(), nil
}

// capabilities holds the user-facing metadata of everything a built server
// registers. The info://version resource serves it.
type capabilities struct {
	tools     []map[string]any
	resources []map[string]any
	prompts   []map[string]any
}

// populate extracts metadata from the final tool, resource and prompt lists.
// Build calls it once, after every default component has been added.
func (c *capabilities) populate(tools []ToolDefinition, toolsWithConfig []ToolDefinitionWithConfig, resources []server.ServerResource, prompts []server.ServerPrompt) {
	c.tools = make([]map[string]any, 0, len(tools)+len(toolsWithConfig))
	for _, def := range tools {
		c.tools = append(c.tools, toolMetadata(def.Tool))
	}
	for _, def := range toolsWithConfig {
		c.tools = append(c.tools, toolMetadata(def.Tool))
	}

	c.resources = make([]map[string]any, 0, len(resources))
	for _, def := range resources {
		r := def.Resource
		metadata := map[string]any{
			"uri":         r.URI,
			"name":        r.Name,
			"description": r.Description,
			"mimeType":    r.MIMEType,
		}
		if m := metaFields(r.Meta); len(m) > 0 {
			metadata["meta"] = m
		}
		c.resources = append(c.resources, metadata)
	}

	c.prompts = make([]map[string]any, 0, len(prompts))
	for _, def := range prompts {
		p := def.Prompt
		metadata := map[string]any{
			"name":        p.Name,
			"description": p.Description,
		}
		if len(p.Arguments) > 0 {
			args := make([]map[string]any, 0, len(p.Arguments))
			for _, arg := range p.Arguments {
				args = append(args, map[string]any{
					"name":        arg.Name,
					"description": arg.Description,
					"required":    arg.Required,
				})
			}
			metadata["arguments"] = args
		}
		if m := metaFields(p.Meta); len(m) > 0 {
			metadata["meta"] = m
		}
		c.prompts = append(c.prompts, metadata)
	}
}

func toolMetadata(t mcp.Tool) map[string]any {
	return map[string]any{
		"name":        t.Name,
		"description": t.Description,
	}
}

// metaFields converts MCP meta to a plain map, dropping the empty
// progressToken the library may set.
func metaFields(meta *mcp.Meta) map[string]any {
	if meta == nil {
		return nil
	}
	m := make(map[string]any)
	maps.Copy(m, meta.AdditionalFields)
	if token, exists := m["progressToken"]; exists {
		if token == nil || token == "" || token == "null" {
			delete(m, "progressToken")
		}
	}
	return m
}
