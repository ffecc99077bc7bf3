// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/helper/posix"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/ios"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/logger"
	mcpserver "github.com/H0llyW00dzZ/ios-netauto-mcp/src/mcp-server"
	"github.com/spf13/cobra"
)

var (
	// OperationPerformed is set once a subcommand has talked to a device.
	OperationPerformed bool
	// OperationPerformedSuccessfully is set when that subcommand also
	// finished without error.
	OperationPerformedSuccessfully bool
)

// ErrOperationFailed is returned when a device operation ran but reported
// failure. The report itself has already been printed.
var ErrOperationFailed = errors.New("operation failed")

// app carries the state shared by every subcommand.
type app struct {
	configFile string
	log        logger.Logger
	out        io.Writer

	// newRuntime opens the connection manager, history and service.
	newRuntime func(config *mcpserver.Config, log logger.Logger) (*mcpserver.Runtime, error)
}

// Execute runs the operator command line with os.Args.
//
// Parameters:
//   - ctx: Cancelled on SIGINT/SIGTERM; aborts device operations in flight
//   - version: Reported by --version
//   - log: Receives progress messages
//
// Returns:
//   - error: Usage, configuration, connection or operation error
func Execute(ctx context.Context, version string, log logger.Logger) error {
	OperationPerformed = false
	OperationPerformedSuccessfully = false

	a := &app{
		configFile: os.Getenv(mcpserver.ConfigFileEnv),
		log:        log,
		out:        os.Stdout,
		newRuntime: mcpserver.NewRuntime,
	}
	return a.rootCommand(version).ExecuteContext(ctx)
}

// rootCommand builds the command tree.
func (a *app) rootCommand(version string) *cobra.Command {
	exeName := posix.GetExecutableName()

	rootCmd := &cobra.Command{
		Use:   exeName,
		Short: "Cisco IOS network automation from the command line",
		Long: `Run the network operations of the MCP server directly against the inventory.

Devices, credentials and SSH settings come from the same configuration file as
the MCP server. Devices behind a jump host are reached through it.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", a.configFile, "path to configuration file (JSON or YAML)")
	rootCmd.SetOut(a.out)

	rootCmd.AddCommand(
		a.devicesCommand(),
		a.execCommand(),
		a.configCommand(),
		a.backupCommand(),
		a.checkCommand(),
		a.historyCommand(),
	)
	return rootCmd
}

// withRuntime loads the configuration, opens the runtime and runs fn with it.
// The runtime is closed afterwards.
func (a *app) withRuntime(fn func(config *mcpserver.Config, rt *mcpserver.Runtime) error) (err error) {
	config, err := mcpserver.LoadConfig(a.configFile)
	if err != nil {
		return err
	}
	rt, err := a.newRuntime(config, a.log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil {
			a.log.Warnf("Closing connections: %v", cerr)
		}
	}()

	OperationPerformed = true
	if err := fn(config, rt); err != nil {
		return err
	}
	OperationPerformedSuccessfully = true
	return nil
}

// printReport writes the rendered report and maps a failed report to
// ErrOperationFailed.
func (a *app) printReport(rep *ios.Report, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, rep.Render())
	if !rep.Success {
		return fmt.Errorf("%w: %s", ErrOperationFailed, rep.Message)
	}
	return nil
}
