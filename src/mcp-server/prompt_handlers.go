// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/mcp-server/templates"
	"github.com/mark3labs/mcp-go/mcp"
)

// promptTemplateData holds the data used to populate prompt templates.
type promptTemplateData struct {
	DeviceName       string
	TargetIP         string
	ProcessID        string
	Area             string
	OutsideInterface string
	InsideNetwork    string
}

// promptDataFrom maps prompt arguments onto template data, applying defaults.
func promptDataFrom(args map[string]string) promptTemplateData {
	data := promptTemplateData{
		DeviceName:       args["device_name"],
		TargetIP:         args["target_ip"],
		ProcessID:        args["process_id"],
		Area:             args["area"],
		OutsideInterface: args["outside_interface"],
		InsideNetwork:    args["inside_network"],
	}
	if data.ProcessID == "" {
		data.ProcessID = "1"
	}
	if data.Area == "" {
		data.Area = "0"
	}
	return data
}

// parsePromptTemplate parses a prompt template file and converts it to MCP messages.
//
// This function reads a template file from the embedded filesystem, executes
// it with the provided data, and converts the structured content into MCP prompt messages.
// Lines under a "### User:" or "### Assistant:" marker become one message of
// that role; other headers and blank lines are dropped.
//
// Parameters:
//   - fsys: Embedded filesystem holding the templates
//   - templateName: Name of the template file (without .md extension)
//   - data: Template data to populate placeholders
//
// Returns:
//   - []mcp.PromptMessage: Parsed MCP messages
//   - error: Any error during template execution or parsing
func parsePromptTemplate(fsys templates.EmbedFS, templateName string, data promptTemplateData) ([]mcp.PromptMessage, error) {
	templateContent, err := fsys.ReadFile(templateName + ".md")
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", templateName, err)
	}

	tmpl, err := template.New(templateName).Parse(string(templateContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", templateName, err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}

	var messages []mcp.PromptMessage
	var currentRole mcp.Role
	var currentContent strings.Builder

	flush := func() {
		if currentContent.Len() > 0 {
			messages = append(messages, mcp.NewPromptMessage(
				currentRole,
				mcp.NewTextContent(strings.TrimSpace(currentContent.String())),
			))
			currentContent.Reset()
		}
	}

	for line := range strings.SplitSeq(buf.String(), "\n") {
		line = strings.TrimSpace(line)

		// Check for role markers first (before skipping headers)
		if strings.HasPrefix(line, "### Assistant:") {
			flush()
			currentRole = mcp.RoleAssistant
			continue
		}
		if strings.HasPrefix(line, "### User:") {
			flush()
			currentRole = mcp.RoleUser
			continue
		}

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if currentRole != "" {
			if currentContent.Len() > 0 {
				currentContent.WriteString("\n")
			}
			currentContent.WriteString(line)
		}
	}
	flush()

	return messages, nil
}

// promptHandler returns a PromptHandler that renders the named template.
//
// Parameters:
//   - fsys: Embedded filesystem holding the templates
//   - templateName: Template file name without the .md extension
//   - title: Description of the returned prompt result
//
// Returns:
//   - PromptHandler: Fails when device_name is missing or the template is broken
func promptHandler(fsys templates.EmbedFS, templateName, title string) PromptHandler {
	return func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		data := promptDataFrom(request.Params.Arguments)
		if strings.TrimSpace(data.DeviceName) == "" {
			return nil, fmt.Errorf("device_name argument is required")
		}

		messages, err := parsePromptTemplate(fsys, templateName, data)
		if err != nil {
			return nil, err
		}
		return mcp.NewGetPromptResult(title, messages), nil
	}
}
