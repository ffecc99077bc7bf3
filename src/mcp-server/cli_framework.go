// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/template"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/helper/posix"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/logger"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/mcp-server/templates"
	"github.com/hashicorp/go-multierror"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

// cliHelpData holds the data used to populate the CLI help template.
//
// It is used internally by BuildRootCommand to prepare data for the
// embedded cli_help.md template. It contains the dynamic values that
// need to be substituted into the CLI help text.
//
// Fields:
//   - ExeName: The name of the executable binary for command examples
//   - InstructionsFlagName: The formatted instructions flag name (e.g., "--instructions")
//   - ConfigFlagName: The formatted config flag name (e.g., "--config")
//   - HelpFlagName: The formatted help flag name (e.g., "--help")
type cliHelpData struct {
	// ExeName: Executable name for command examples
	ExeName string
	// InstructionsFlagName: Dynamic instructions flag name
	InstructionsFlagName string
	// ConfigFlagName: Dynamic config flag name
	ConfigFlagName string
	// HelpFlagName: Dynamic help flag name
	HelpFlagName string
}

// CLIFramework integrates Cobra CLI with MCP server capabilities.
// It provides a unified interface for both CLI operations and MCP server functionality.
//
// Key features:
//   - Dynamic executable naming based on actual binary path (not hardcoded)
//   - [Gopls-style] --instructions flag for displaying network automation workflows
//   - Configuration file support via --config flag or MCP_NETAUTO_CONFIG_FILE environment variable
//   - Default MCP server startup when no arguments are provided
//   - Graceful shutdown handling with signal interception
//
// Fields:
//   - configFile: Path to the MCP server configuration file.
//     Can be set via --config flag or defaults to empty string for environment variable fallback.
//   - embed: Embedded filesystem for the help, instructions, prompt and reference templates.
//   - version: Server version string reported to clients and by --version.
//   - tools: Extra tool definitions registered next to the default tools.
//   - toolsWithConfig: Extra tool definitions that receive the server Config.
//   - resources: Extra resources registered next to the default resources.
//   - prompts: Extra prompts registered next to the default prompts.
//   - instructions: Server instructions for MCP clients.
//     Rendered from the embedded template when empty.
//
// The network service, connection manager and history store are not part of
// the framework. They are created from the loaded configuration each time the
// server starts and closed when it stops.
//
// [Gopls-style]: https://tip.golang.org/gopls/features/mcp#instructions-to-the-model
type CLIFramework struct {
	configFile      string
	embed           templates.EmbedFS
	version         string
	tools           []ToolDefinition
	toolsWithConfig []ToolDefinitionWithConfig
	resources       []server.ServerResource
	prompts         []server.ServerPrompt
	instructions    string
}

// NewCLIFramework creates a new CLI framework instance with MCP server integration.
//
// Configuration loading is deferred until runtime (in startMCPServer)
// to allow CLI flag overrides and environment variable fallbacks.
//
// Parameters:
//   - configFile: Path to the MCP server configuration file.
//     Can be overridden via --config flag.
//     Pass empty string to use the MCP_NETAUTO_CONFIG_FILE environment variable or the built-in defaults.
//   - deps: Server dependencies. Only Embed, Version, Tools, ToolsWithConfig,
//     Resources, Prompts and Instructions are used.
//
// Returns:
//   - *CLIFramework: Initialized CLI framework ready for building commands.
//
// Example usage:
//
//	framework := NewCLIFramework("netauto.yaml", ServerDependencies{
//	    Embed:   templates.MagicEmbed,
//	    Version: "0.1.0",
//	})
//	cmd := framework.BuildRootCommand()
func NewCLIFramework(configFile string, deps ServerDependencies) *CLIFramework {
	return &CLIFramework{
		configFile:      configFile,
		embed:           deps.Embed,
		version:         deps.Version,
		tools:           deps.Tools,
		toolsWithConfig: deps.ToolsWithConfig,
		resources:       deps.Resources,
		prompts:         deps.Prompts,
		instructions:    deps.Instructions,
	}
}

// BuildRootCommand creates the root Cobra command with integrated MCP server capabilities.
// It sets up the CLI structure and provides access to MCP server functionality through subcommands.
//
// The command is designed to be flexible and user-friendly:
//   - Uses dynamic executable naming based on os.Args[0] to match the actual binary name
//   - Provides [gopls-style] --instructions flag for displaying network automation workflows
//   - Includes --config flag for specifying MCP server configuration file
//   - Defaults to starting MCP server when no arguments are provided (no server subcommand needed)
//   - Supports --help and --version flags automatically via Cobra
//
// Command behavior:
//   - With --instructions: Displays formatted workflows and exits
//   - With arguments: Executes the specified subcommand (if any)
//   - Without arguments: Starts MCP server directly (default behavior)
//
// The root command serves as the main entry point for both CLI operations and MCP server startup,
// providing a unified interface that adapts to different usage patterns.
//
// Returns:
//   - *cobra.Command: Root command with MCP server integration.
//
// The returned command can be executed directly or used as a parent for subcommands.
// When executed, it handles the --instructions flag, loads configuration, and starts
// the MCP server with proper signal handling and graceful shutdown.
//
// Example usage:
//
//	framework := NewCLIFramework("netauto.yaml", deps)
//	rootCmd := framework.BuildRootCommand()
//	if err := rootCmd.Execute(); err != nil {
//	    log.Fatal(err)
//	}
//
// [gopls-style]: https://tip.golang.org/gopls/features/mcp#instructions-to-the-model
func (cf *CLIFramework) BuildRootCommand() *cobra.Command {
	// Use cross-platform executable name extraction for consistent UX
	// This handles .exe extensions on Windows and provides fallback for edge cases
	exeName := posix.GetExecutableName()

	rootCmd := &cobra.Command{
		Use:     exeName,
		Short:   "Cisco IOS network automation MCP server",
		Version: cf.version,
	}

	// Ensure help flag is available for flag name lookup during command building
	// Cobra normally adds this during Execute, but we need it for providing a dynamic help description that includes the actual binary name
	rootCmd.Flags().BoolP("help", "h", false, "help for "+exeName)

	// Add instructions flag similar to gopls for displaying usage workflows
	var showInstructions bool
	rootCmd.PersistentFlags().BoolVar(&showInstructions, "instructions", false, "print usage workflows for network automation tools")

	// Add config file flag with persistent behavior for subcommands
	// Allows configuration override via CLI flag while supporting environment variables
	rootCmd.PersistentFlags().StringVar(&cf.configFile, "config", cf.configFile, "path to MCP server configuration file")

	// Extract flag names for template processing
	instructionsFlagName, configFlagName, helpFlagName := extractFlagNames(rootCmd)

	// Check if embed filesystem is available before proceeding with template loading
	if cf.embed == nil {
		panic("CLIFramework embed filesystem not initialized")
	}

	// Load and execute CLI help template
	longDesc, examples, err := cf.loadAndExecuteCLIHelpTemplate(exeName, instructionsFlagName, configFlagName, helpFlagName)
	if err != nil {
		// Template processing failures are critical errors during command building
		panic(fmt.Sprintf("failed to process CLI help template: %v", err))
	}

	// Set the processed template content on the command
	rootCmd.Long = longDesc
	rootCmd.Example = examples

	// Override root command run to handle instructions flag and default server behavior
	// This custom run logic enables the dual CLI/MCP functionality
	originalRunE := rootCmd.RunE
	rootCmd.RunE = cf.createRootCommandRunE(&showInstructions, exeName, originalRunE)

	return rootCmd
}

// loadAndExecuteCLIHelpTemplate loads the CLI help template from embedded filesystem,
// executes it with dynamic data, and parses the result to extract Long description and Examples.
// This function handles the complex template processing logic separately from command building.
//
// The template processing involves several critical steps:
//  1. Loading the embedded CLI help template from the filesystem
//  2. Preparing dynamic data including executable name and flag names
//  3. Parsing and executing the Go template with provided variables
//  4. Parsing the rendered output to separate Long description from Examples
//
// This separation allows for clean testing of template logic and improves
// maintainability by isolating template processing concerns.
//
// Parameters:
//   - exeName: The name of the executable binary for command examples
//   - instructionsFlagName: The formatted instructions flag name (e.g., "--instructions")
//   - configFlagName: The formatted config flag name (e.g., "--config")
//   - helpFlagName: The formatted help flag name (e.g., "--help")
//
// Returns:
//   - longDesc: The processed Long description text for the CLI command
//   - examples: The processed Examples section text for the CLI command
//   - err: Template loading, parsing, execution, or result parsing errors
//
// The function ensures that CLI help text remains consistent and up-to-date
// while allowing dynamic content based on runtime flag configurations.
func (cf *CLIFramework) loadAndExecuteCLIHelpTemplate(exeName, instructionsFlagName, configFlagName, helpFlagName string) (longDesc, examples string, err error) {
	// Load CLI help template from embedded filesystem
	templateBytes, err := cf.embed.ReadFile("cli_help.md")
	if err != nil {
		return "", "", fmt.Errorf("failed to load CLI help template: %w", err)
	}

	// Prepare data for template
	data := cliHelpData{
		ExeName:              exeName,
		InstructionsFlagName: instructionsFlagName,
		ConfigFlagName:       configFlagName,
		HelpFlagName:         helpFlagName,
	}

	// Parse and execute template
	tmpl, err := template.New("cli_help").Parse(string(templateBytes))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse CLI help template: %w", err)
	}

	// Execute template and parse result
	var result strings.Builder
	if err := tmpl.Execute(&result, data); err != nil {
		return "", "", fmt.Errorf("failed to execute CLI help template: %w", err)
	}

	// Parse the template result to extract Long and Example sections
	templateResult := result.String()
	longDesc, examples, err = cf.parseTemplateResult(templateResult)
	if err != nil {
		return "", "", err
	}

	return longDesc, examples, nil
}

// parseTemplateResult parses the template execution result to extract Long description and Examples.
// It looks for the "## Examples" marker and splits the content accordingly.
//
// The parsing is robust and handles different line ending conventions (Unix \n vs Windows \r\n)
// to ensure cross-platform compatibility. The function performs the following operations:
//  1. Locates the "## Examples" section marker in the template output
//  2. Determines the exact boundaries of the Examples section
//  3. Extracts the Long description (content before Examples section)
//  4. Extracts the Examples section (content after Examples marker)
//  5. Trims whitespace from both sections for clean output
//
// This approach allows the CLI help template to have a clear structure while
// enabling dynamic content generation with proper separation of concerns.
//
// Parameters:
//   - templateResult: The rendered template output as a string
//
// Returns:
//   - longDesc: The Long description text (everything before "## Examples")
//   - examples: The Examples section text (everything after "## Examples")
//   - err: Parsing errors if the template format is invalid
//
// The function validates that the required "## Examples" section marker exists,
// ensuring the template follows the expected format for proper CLI help generation.
func (cf *CLIFramework) parseTemplateResult(templateResult string) (longDesc, examples string, err error) {
	// Look for "## Examples" section marker
	examplesMarker := "## Examples"
	markerIndex := strings.Index(templateResult, examplesMarker)
	if markerIndex == -1 {
		return "", "", fmt.Errorf("CLI help template has invalid format - missing '## Examples' section")
	}

	// Find the start of the line containing "## Examples"
	lineStart := strings.LastIndex(templateResult[:markerIndex], "\n")
	if lineStart == -1 {
		lineStart = 0 // No preceding newline, start from beginning
	} else {
		lineStart++ // Skip the newline character
	}

	// Find the end of the line containing "## Examples"
	lineEnd := strings.Index(templateResult[markerIndex:], "\n")
	if lineEnd == -1 {
		lineEnd = len(templateResult) - markerIndex // No following newline
	} else {
		lineEnd += markerIndex
	}

	// Extract Long description (everything before "## Examples" line)
	longDesc = strings.TrimSpace(templateResult[:lineStart])

	// Extract Examples section (everything after "## Examples" line)
	examples = strings.TrimSpace(templateResult[lineEnd:])

	return longDesc, examples, nil
}

// extractFlagNames extracts formatted flag names from the root command.
// It looks up the actual flag objects and formats them with the "--" prefix.
//
// This function ensures that CLI help text always reflects the actual flag names
// used in the command, preventing inconsistencies between code and documentation.
// It handles cases where flags might not be found (returning sensible defaults)
// and provides consistent formatting for template substitution.
//
// The function performs lookups for three key flags:
//   - instructions: Flag to display network automation workflows
//   - config: Flag to specify MCP server configuration file path
//   - help: Standard help flag (usually "h" with "--help" format)
//
// Parameters:
//   - rootCmd: The root Cobra command from which to extract flag information
//
// Returns:
//   - instructionsFlagName: Formatted instructions flag (e.g., "--instructions")
//   - configFlagName: Formatted config flag (e.g., "--config")
//   - helpFlagName: Formatted help flag (e.g., "--help")
//
// All returned flag names include the "--" prefix for consistent CLI documentation.
// If a flag lookup fails, sensible default names are returned to maintain functionality.
func extractFlagNames(rootCmd *cobra.Command) (instructionsFlagName, configFlagName, helpFlagName string) {
	// Get flag names for dynamic text generation
	instructionsFlag := rootCmd.PersistentFlags().Lookup("instructions")
	instructionsFlagName = "--instructions"
	if instructionsFlag != nil {
		instructionsFlagName = "--" + instructionsFlag.Name
	}

	configFlag := rootCmd.PersistentFlags().Lookup("config")
	configFlagName = "--config"
	if configFlag != nil {
		configFlagName = "--" + configFlag.Name
	}

	helpFlag := rootCmd.Flags().Lookup("help")
	helpFlagName = "--help"
	if helpFlag != nil {
		helpFlagName = "--" + helpFlag.Name
	}

	return instructionsFlagName, configFlagName, helpFlagName
}

// startMCPServer starts the MCP server directly without requiring the 'server' subcommand.
// This is the default behavior when running the binary without arguments.
//
// The method performs a complete MCP server initialization sequence:
//  1. Loads configuration from file (with fallback to the built-in lab inventory)
//  2. Creates the SSH dialer, connection manager, history store and network service
//  3. Builds the MCP server with the default tools, resources and prompts
//  4. Starts stdio-based MCP server for protocol communication
//  5. Closes every cached jump host connection and the history store on exit
//
// Configuration loading:
//   - Uses cf.configFile if set via --config flag
//   - Falls back to MCP_NETAUTO_CONFIG_FILE environment variable
//   - Uses default configuration if no file specified
//
// Signal handling:
//   - Intercepts SIGINT (Ctrl+C) and SIGTERM signals
//   - Uses context cancellation for graceful shutdown
//
// Returns:
//   - nil: When server shuts down gracefully due to signal interruption
//   - error: Configuration loading, server building, or other runtime errors,
//     combined with any error from closing the connections.
func (cf *CLIFramework) startMCPServer() (err error) {
	// Create a logger for server messages that outputs to stderr
	// Stdout carries the JSON-RPC stream and must stay clean
	l := logger.NewCLILogger()
	l.SetOutput(os.Stderr)

	config, err := LoadConfig(cf.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	rt, err := NewRuntime(config, l)
	if err != nil {
		return fmt.Errorf("failed to initialize network runtime: %w", err)
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()

	mcpServer, err := NewServerBuilder().
		WithConfig(config).
		WithEmbed(cf.embed).
		WithVersion(cf.version).
		WithService(rt.Service).
		WithConnections(rt.Manager).
		WithHistory(rt.History).
		WithTools(cf.tools...).
		WithToolsWithConfig(cf.toolsWithConfig...).
		WithResources(cf.resources...).
		WithPrompts(cf.prompts...).
		WithInstructions(cf.instructions).
		WithDefaultTools().
		WithDefaultResources().
		WithDefaultPrompts().
		Build()
	if err != nil {
		return fmt.Errorf("failed to build MCP server: %w", err)
	}

	stdioServer := server.NewStdioServer(mcpServer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM signals for graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			// Clear the line (including any ^C) and show clean shutdown message
			l.Printf("\rReceived signal %s, initiating graceful shutdown...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	l.Printf("IOS Network Automation MCP server started with %d devices.", len(config.Devices))

	// Only user-initiated cancellation (signals) is treated as graceful shutdown
	if err = stdioServer.Listen(ctx, os.Stdin, os.Stdout); err != nil && errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

// printInstructions displays usage workflows for the network automation tools.
//
// The function provides the same instruction display capability as the MCP server
// but accessible through the CLI --instructions flag, similar to [gopls].
// When no instructions were supplied, they are rendered from the embedded
// template with the default tool set, so no configuration or device access is needed.
//
// Parameters:
//   - w: Destination for the instructions, usually the command's stdout
//
// Returns:
//   - error: If the instructions template cannot be rendered.
//
// [gopls]: https://tip.golang.org/gopls/features/mcp#instructions-to-the-model
func (cf *CLIFramework) printInstructions(w io.Writer) error {
	instructions := cf.instructions
	if instructions == "" {
		tools := append(createTools(nil), createHistoryTools(nil)...)
		tools = append(tools, cf.tools...)
		toolsWithConfig := append(createToolsWithConfig(), cf.toolsWithConfig...)

		rendered, err := loadInstructions(cf.embed, tools, toolsWithConfig)
		if err != nil {
			return err
		}
		instructions = rendered
	}

	_, err := fmt.Fprint(w, instructions)
	return err
}

// createRootCommandRunE creates the RunE function for the root command.
// It handles the instructions flag display and default server startup behavior.
//
// It implements the following behavior:
//  1. If --instructions flag is provided, display usage workflows and exit
//  2. If no arguments and no special flags, start MCP server directly
//  3. If arguments provided, attempt to execute subcommands or return error
//
// Parameters:
//   - showInstructions: Bound to the --instructions flag; read when the command runs
//   - exeName: The executable name for error messages and identification
//   - originalRunE: The original RunE function (if any) from Cobra command setup
//
// Returns:
//   - func(*cobra.Command, []string) error: The RunE function that handles command execution
func (cf *CLIFramework) createRootCommandRunE(showInstructions *bool, exeName string, originalRunE func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if *showInstructions {
			return cf.printInstructions(cmd.OutOrStdout())
		}
		if len(args) == 0 {
			return cf.startMCPServer()
		}
		if originalRunE != nil {
			return originalRunE(cmd, args)
		}
		return fmt.Errorf("unexpected arguments: %s for %q", strings.Join(args, " "), exeName)
	}
}
