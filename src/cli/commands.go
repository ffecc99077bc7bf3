// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/history"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/inventory"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/ios"
	mcpserver "github.com/H0llyW00dzZ/ios-netauto-mcp/src/mcp-server"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// ErrHistoryDisabled is returned by the history command when the
// configuration names no history database.
var ErrHistoryDisabled = errors.New("history database is not configured (set history.database)")

func (a *app) devicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List the devices in the inventory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := mcpserver.LoadConfig(a.configFile)
			if err != nil {
				return err
			}
			inv, err := inventory.New(config.Devices)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(inv.Names()))
			for _, d := range inv.Devices() {
				via, method := "-", "-"
				if d.ViaJumpHost() {
					via, method = d.JumpHost, string(d.JumpMethod)
				}
				rows = append(rows, []string{d.Name, d.Address(), d.Username, via, method})
			}

			table := tablewriter.NewWriter(a.out)
			table.Header([]string{"Name", "Address", "Username", "Jump Host", "Method"})
			if err := table.Bulk(rows); err != nil {
				return err
			}
			return table.Render()
		},
	}
}

func (a *app) execCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "exec DEVICE COMMAND...",
		Short:   "Run a show command on a device",
		Example: `  exec R2 show ip route`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := strings.Join(args[1:], " ")
			return a.withRuntime(func(_ *mcpserver.Config, rt *mcpserver.Runtime) error {
				return a.printReport(rt.Service.Execute(cmd.Context(), args[0], command))
			})
		},
	}
}

func (a *app) configCommand() *cobra.Command {
	var lines []string
	var save bool

	cmd := &cobra.Command{
		Use:   "config DEVICE -c LINE [-c LINE]...",
		Short: "Apply configuration lines to a device",
		Example: `  config R2 -c "ip route 0.0.0.0 0.0.0.0 10.1.1.1"
  config R1 -c "interface Loopback1" -c "ip address 1.1.1.1 255.255.255.255" --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(lines) == 0 {
				return errors.New("at least one -c LINE is required")
			}
			return a.withRuntime(func(_ *mcpserver.Config, rt *mcpserver.Runtime) error {
				if err := a.printReport(rt.Service.ApplyConfig(cmd.Context(), args[0], lines)); err != nil {
					return err
				}
				if !save {
					return nil
				}
				return a.printReport(rt.Service.SaveConfig(cmd.Context(), args[0]))
			})
		},
	}
	cmd.Flags().StringArrayVarP(&lines, "command", "c", nil, "configuration line, repeat for each line")
	cmd.Flags().BoolVar(&save, "save", false, "write memory after applying")
	return cmd
}

func (a *app) backupCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "backup DEVICE...",
		Short: "Back up the running configuration of devices",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(func(_ *mcpserver.Config, rt *mcpserver.Runtime) error {
				for _, device := range args {
					if err := a.printReport(rt.Service.Backup(cmd.Context(), device, dir)); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "backup directory (default: backup.directory from the configuration)")
	return cmd
}

// checkCommand connects to every device in turn, several rounds, so that
// devices behind a jump host are opened alternately with the jump host
// itself. The jump host connection is reused across rounds.
func (a *app) checkCommand() *cobra.Command {
	var rounds int

	cmd := &cobra.Command{
		Use:   "check [DEVICE...]",
		Short: "Test the connection to devices, alternating between them",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rounds < 1 {
				return fmt.Errorf("--rounds must be at least 1, got %d", rounds)
			}
			return a.withRuntime(func(_ *mcpserver.Config, rt *mcpserver.Runtime) error {
				devices := args
				if len(devices) == 0 {
					devices = rt.Manager.Inventory().Names()
				}

				failed := 0
				for round := 1; round <= rounds; round++ {
					for _, device := range devices {
						start := time.Now()
						rep, err := rt.Service.GetHostname(cmd.Context(), device)
						elapsed := time.Since(start).Round(time.Millisecond)
						switch {
						case err != nil:
							failed++
							fmt.Fprintf(a.out, "❌ [%d] %s: %v\n", round, device, err)
						case !rep.Success:
							failed++
							fmt.Fprintf(a.out, "❌ [%d] %s: %s\n", round, device, rep.Message)
						default:
							hostname, _ := rep.Get("Hostname")
							fmt.Fprintf(a.out, "✅ [%d] %s: hostname %s via %s (%s)\n",
								round, device, hostname, strategyOf(rt, device), elapsed)
						}
						if cmd.Context().Err() != nil {
							return cmd.Context().Err()
						}
					}
				}

				if failed > 0 {
					return fmt.Errorf("%w: %d of %d connections failed", ErrOperationFailed, failed, rounds*len(devices))
				}
				fmt.Fprintf(a.out, "All %d connections succeeded.\n", rounds*len(devices))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&rounds, "rounds", "r", 2, "number of passes over the devices")
	return cmd
}

func strategyOf(rt *mcpserver.Runtime, device string) string {
	if s, ok := rt.Manager.Strategy(device); ok {
		return string(s)
	}
	return "direct"
}

func (a *app) historyCommand() *cobra.Command {
	var limit int
	var backupsOnly, changesOnly bool

	cmd := &cobra.Command{
		Use:   "history [DEVICE]",
		Short: "List recorded backups and configuration changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := mcpserver.LoadConfig(a.configFile)
			if err != nil {
				return err
			}
			if config.History.Database == "" {
				return ErrHistoryDisabled
			}
			store, err := history.Open(config.History.Database)
			if err != nil {
				return err
			}
			defer store.Close()

			var device string
			if len(args) == 1 {
				device = args[0]
			}

			if !changesOnly {
				backups, err := store.Backups(cmd.Context(), device, limit)
				if err != nil {
					return err
				}
				a.printBackups(backups)
			}
			if !backupsOnly {
				changes, err := store.Changes(cmd.Context(), device, limit)
				if err != nil {
					return err
				}
				a.printChanges(changes)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultLimit, "maximum entries per list")
	cmd.Flags().BoolVar(&backupsOnly, "backups", false, "list backups only")
	cmd.Flags().BoolVar(&changesOnly, "changes", false, "list changes only")
	cmd.MarkFlagsMutuallyExclusive("backups", "changes")
	return cmd
}

func (a *app) printBackups(backups []history.Backup) {
	fmt.Fprintf(a.out, "Backups (%d)\n", len(backups))
	if len(backups) == 0 {
		return
	}
	rows := make([][]string, 0, len(backups))
	for _, b := range backups {
		rows = append(rows, []string{b.CreatedAt.Local().Format(time.DateTime), b.Device, b.Path, strconv.FormatInt(b.Size, 10)})
	}
	table := tablewriter.NewWriter(a.out)
	table.Header([]string{"Time", "Device", "File", "Bytes"})
	table.Bulk(rows)
	table.Render()
}

func (a *app) printChanges(changes []history.Change) {
	fmt.Fprintf(a.out, "Changes (%d)\n", len(changes))
	if len(changes) == 0 {
		return
	}
	rows := make([][]string, 0, len(changes))
	for _, c := range changes {
		status := ios.StatusOK
		if !c.Success {
			status = ios.StatusFail
		}
		rows = append(rows, []string{c.CreatedAt.Local().Format(time.DateTime), c.Device, c.Operation, status, strings.Join(c.Commands, "; ")})
	}
	table := tablewriter.NewWriter(a.out)
	table.Header([]string{"Time", "Device", "Operation", "Status", "Commands"})
	table.Bulk(rows)
	table.Render()
}
