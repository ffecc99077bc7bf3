// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"errors"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/history"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/inventory"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/netops"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/netssh"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/mcp-server/templates"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// serverName identifies the server to MCP clients.
const serverName = "IOS Network Automation"

// ToolHandler defines the signature for tool handlers that matches [MCP] server expectations.
// It processes tool calls and returns results.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: The MCP tool call request containing arguments and metadata
//
// Returns:
//   - The tool execution result or an error if the tool failed
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// ToolHandlerWithConfig defines tool handlers that require access to server configuration.
// It extends ToolHandler to include a Config parameter for tools that need configuration data.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: The MCP tool call request containing arguments and metadata
//   - config: Pointer to the server configuration containing the inventory and defaults
//
// Returns:
//   - The tool execution result or an error if the tool failed
type ToolHandlerWithConfig func(ctx context.Context, request mcp.CallToolRequest, config *Config) (*mcp.CallToolResult, error)

// ResourceHandler defines the signature for resource handlers that provide static or dynamic resources.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: The MCP resource read request containing the resource URI
//
// Returns:
//   - A slice of resource contents or an error if the resource cannot be read
type ResourceHandler = func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error)

// PromptHandler defines the signature for prompt handlers that provide predefined prompts.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: The MCP prompt request containing the prompt name and arguments
//
// Returns:
//   - The prompt result containing messages and description, or an error if the prompt is not found
//
// Prompt handlers are used for guided workflows like health checks or OSPF deployment.
type PromptHandler = func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error)

// ToolDefinition holds a tool definition and its handler.
// It pairs an MCP tool specification with its implementation function.
//
// Fields:
//   - Tool: The MCP tool definition containing name, description, and input schema
//   - Handler: The function that implements the tool's logic
//   - Role: Optional key under which the instructions template can refer to the tool
type ToolDefinition struct {
	Tool    mcp.Tool
	Handler ToolHandler
	Role    string
}

// ToolDefinitionWithConfig holds a tool definition that requires configuration access.
// The handler receives the server Config in addition to the standard context and request.
type ToolDefinitionWithConfig struct {
	Tool    mcp.Tool
	Handler ToolHandlerWithConfig
	Role    string
}

// ConnectionStatus exposes the connection manager state served by the
// status://connections and inventory://devices resources.
//
// *netssh.Manager implements it.
type ConnectionStatus interface {
	Inventory() *inventory.Inventory
	JumpHosts() []string
	Strategies() map[string]netssh.Strategy
}

// ServerDependencies holds all dependencies needed to create the MCP server.
// It consolidates all required components for server initialization using the builder pattern.
//
// Fields:
//   - Config: Server configuration with defaults and the device inventory
//   - Embed: Embedded filesystem for templates and documentation
//   - Version: Server version string
//   - Service: Network operations backing the default tools
//   - Connections: Connection manager state for the status resources
//   - History: Optional audit store backing the history tools
//   - Tools: List of tool definitions without configuration requirements
//   - ToolsWithConfig: List of tool definitions that need configuration access
//   - Resources: List of static and dynamic resources provided by the server
//   - Prompts: List of predefined prompts for guided workflows
//   - Instructions: Text sent to clients on initialization
//
// This struct is used internally by ServerBuilder and should not be instantiated directly.
type ServerDependencies struct {
	Config          *Config
	Embed           templates.EmbedFS
	Version         string
	Service         *netops.Service
	Connections     ConnectionStatus
	History         *history.Store
	Tools           []ToolDefinition
	ToolsWithConfig []ToolDefinitionWithConfig
	Resources       []server.ServerResource
	Prompts         []server.ServerPrompt
	Instructions    string

	defaultTools     bool
	defaultResources bool
	defaultPrompts   bool
}

// ServerBuilder helps construct the [MCP] server with proper dependencies using a fluent interface.
//
// Example:
//
//	s, err := NewServerBuilder().
//	    WithConfig(config).
//	    WithVersion("1.0.0").
//	    WithService(svc).
//	    WithConnections(manager).
//	    WithDefaultTools().
//	    WithDefaultResources().
//	    WithDefaultPrompts().
//	    Build()
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
type ServerBuilder struct{ deps ServerDependencies }

// NewServerBuilder creates a new server builder with default empty dependencies.
//
// Returns:
//   - A pointer to a new ServerBuilder instance ready for configuration
func NewServerBuilder() *ServerBuilder { return &ServerBuilder{} }

// WithConfig sets the server configuration.
//
// Parameters:
//   - config: Pointer to the server configuration
//
// Returns:
//   - The ServerBuilder instance for method chaining
func (b *ServerBuilder) WithConfig(config *Config) *ServerBuilder {
	b.deps.Config = config
	return b
}

// WithEmbed sets the embedded filesystem for templates and documentation.
//
// Parameters:
//   - embed: The embedded filesystem, usually [templates.MagicEmbed]
//
// Returns:
//   - The ServerBuilder instance for method chaining
//
// When not set, Build falls back to [templates.MagicEmbed].
func (b *ServerBuilder) WithEmbed(embed templates.EmbedFS) *ServerBuilder {
	b.deps.Embed = embed
	return b
}

// WithVersion sets the server version string.
//
// Parameters:
//   - version: The server version string (e.g., "1.0.0")
//
// Returns:
//   - The ServerBuilder instance for method chaining
func (b *ServerBuilder) WithVersion(version string) *ServerBuilder {
	b.deps.Version = version
	return b
}

// WithService sets the network operation service used by the default tools.
//
// Parameters:
//   - svc: The service that runs operations against devices
//
// Returns:
//   - The ServerBuilder instance for method chaining
func (b *ServerBuilder) WithService(svc *netops.Service) *ServerBuilder {
	b.deps.Service = svc
	return b
}

// WithConnections sets the connection manager whose state the default
// resources report.
//
// Parameters:
//   - cs: Usually the *netssh.Manager that backs the service
//
// Returns:
//   - The ServerBuilder instance for method chaining
func (b *ServerBuilder) WithConnections(cs ConnectionStatus) *ServerBuilder {
	b.deps.Connections = cs
	return b
}

// WithHistory enables the backup and change history tools.
//
// Parameters:
//   - store: The SQLite audit store; nil leaves the history tools out
//
// Returns:
//   - The ServerBuilder instance for method chaining
func (b *ServerBuilder) WithHistory(store *history.Store) *ServerBuilder {
	b.deps.History = store
	return b
}

// WithTools adds tool definitions that don't require configuration access.
//
// Parameters:
//   - tools: Variable number of ToolDefinition structs containing tool specs and handlers
//
// Returns:
//   - The ServerBuilder instance for method chaining
func (b *ServerBuilder) WithTools(tools ...ToolDefinition) *ServerBuilder {
	b.deps.Tools = append(b.deps.Tools, tools...)
	return b
}

// WithToolsWithConfig adds tool definitions that receive the server Config.
//
// Parameters:
//   - tools: Variable number of ToolDefinitionWithConfig structs containing tool specs and handlers
//
// Returns:
//   - The ServerBuilder instance for method chaining
func (b *ServerBuilder) WithToolsWithConfig(tools ...ToolDefinitionWithConfig) *ServerBuilder {
	b.deps.ToolsWithConfig = append(b.deps.ToolsWithConfig, tools...)
	return b
}

// WithResources adds static and dynamic resources to the MCP server.
//
// Parameters:
//   - resources: Variable number of server.ServerResource structs containing resource specs and handlers
//
// Returns:
//   - The ServerBuilder instance for method chaining
func (b *ServerBuilder) WithResources(resources ...server.ServerResource) *ServerBuilder {
	b.deps.Resources = append(b.deps.Resources, resources...)
	return b
}

// WithPrompts adds predefined prompts to the MCP server for guided workflows.
//
// Parameters:
//   - prompts: Variable number of server.ServerPrompt structs containing prompt specs and handlers
//
// Returns:
//   - The ServerBuilder instance for method chaining
func (b *ServerBuilder) WithPrompts(prompts ...server.ServerPrompt) *ServerBuilder {
	b.deps.Prompts = append(b.deps.Prompts, prompts...)
	return b
}

// WithInstructions sets the instructions sent to clients on initialization.
//
// Parameters:
//   - instructions: Rendered instruction text, usually from loadInstructions
//
// Returns:
//   - The ServerBuilder instance for method chaining
func (b *ServerBuilder) WithInstructions(instructions string) *ServerBuilder {
	b.deps.Instructions = instructions
	return b
}

// WithDefaultTools registers every network operation as a tool at Build time.
// Build fails when no service was set with WithService.
//
// Returns:
//   - The ServerBuilder instance for method chaining
func (b *ServerBuilder) WithDefaultTools() *ServerBuilder {
	b.deps.defaultTools = true
	return b
}

// WithDefaultResources registers the inventory, version, config template,
// connection status and command reference resources at Build time.
//
// Returns:
//   - The ServerBuilder instance for method chaining
func (b *ServerBuilder) WithDefaultResources() *ServerBuilder {
	b.deps.defaultResources = true
	return b
}

// WithDefaultPrompts registers the guided workflow prompts at Build time.
//
// Returns:
//   - The ServerBuilder instance for method chaining
func (b *ServerBuilder) WithDefaultPrompts() *ServerBuilder {
	b.deps.defaultPrompts = true
	return b
}

// Build creates the [MCP] server with all configured dependencies.
//
// Returns:
//   - A pointer to the configured MCPServer instance
//   - An error if a default component lacks the dependency it needs
//
// When no instructions were given, they are rendered from the embedded
// template with the final tool list.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
func (b *ServerBuilder) Build() (*server.MCPServer, error) {
	deps := b.deps
	if deps.Embed == nil {
		deps.Embed = templates.MagicEmbed
	}
	if deps.Config == nil {
		deps.Config = defaultConfig()
	}

	if deps.defaultTools {
		if deps.Service == nil {
			return nil, errors.New("default tools require a network service")
		}
		deps.Tools = append(deps.Tools, createTools(deps.Service)...)
		deps.ToolsWithConfig = append(deps.ToolsWithConfig, createToolsWithConfig()...)
		if deps.History != nil {
			deps.Tools = append(deps.Tools, createHistoryTools(deps.History)...)
		}
	}

	if deps.defaultPrompts {
		deps.Prompts = append(deps.Prompts, createPrompts(deps.Embed)...)
	}

	caps := &capabilities{}
	if deps.defaultResources {
		p := &resourceProvider{
			config:      deps.Config,
			embed:       deps.Embed,
			version:     deps.Version,
			connections: deps.Connections,
			caps:        caps,
		}
		deps.Resources = append(deps.Resources, createResources(p)...)
	}
	caps.populate(deps.Tools, deps.ToolsWithConfig, deps.Resources, deps.Prompts)

	if deps.Instructions == "" {
		instructions, err := loadInstructions(deps.Embed, deps.Tools, deps.ToolsWithConfig)
		if err != nil {
			return nil, err
		}
		deps.Instructions = instructions
	}

	s := server.NewMCPServer(
		serverName,
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
		server.WithPromptCapabilities(true),
		server.WithInstructions(deps.Instructions),
	)

	// Add tools
	for _, tool := range deps.Tools {
		s.AddTool(tool.Tool, tool.Handler)
	}

	// Add tools that need config (wrap the handler)
	for _, tool := range deps.ToolsWithConfig {
		handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return tool.Handler(ctx, request, deps.Config)
		}
		s.AddTool(tool.Tool, handler)
	}

	// Add resources
	for _, resource := range deps.Resources {
		s.AddResource(resource.Resource, resource.Handler)
	}

	// Add prompts
	for _, prompt := range deps.Prompts {
		s.AddPrompt(prompt.Prompt, prompt.Handler)
	}

	return s, nil
}
