// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/helper/jsonrpc"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/history"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/inventory"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/ios"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/netops"
	"github.com/mark3labs/mcp-go/mcp"
)

// reportFunc runs one network operation for a tool call.
type reportFunc func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error)

// errorResult renders a Go error as a tool error. Device, transport and
// argument failures all end up here; the MCP call itself succeeds.
func errorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("❌ Error: %v", err))
}

// reportResult renders rep as markdown. An unsuccessful report is a tool error.
func reportResult(rep *ios.Report) *mcp.CallToolResult {
	if !rep.Success {
		return mcp.NewToolResultError(rep.Render())
	}
	return mcp.NewToolResultText(rep.Render())
}

// reportTool adapts a reportFunc to a ToolHandler.
func reportTool(fn reportFunc) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rep, err := fn(ctx, request)
		if err != nil {
			return errorResult(err), nil
		}
		return reportResult(rep), nil
	}
}

// deviceTool adapts an operation that needs nothing but the device name.
func deviceTool(op func(ctx context.Context, device string) (*ios.Report, error)) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		device, err := request.RequireString("device_name")
		if err != nil {
			return nil, err
		}
		return op(ctx, device)
	})
}

// optionalInt returns the integer argument key, or nil when it is absent.
// Fractional numbers are rejected.
func optionalInt(request mcp.CallToolRequest, key string) (*int, error) {
	v, ok := request.GetArguments()[key]
	if !ok || v == nil {
		return nil, nil
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	default:
		return nil, fmt.Errorf("%w: %s must be a number", netops.ErrInvalidArgument, key)
	}
	if f != math.Trunc(f) {
		return nil, fmt.Errorf("%w: %s must be a whole number", netops.ErrInvalidArgument, key)
	}
	i := int(f)
	return &i, nil
}

// intArg returns the integer argument key, or 0 when it is absent so the
// service applies its default.
func intArg(request mcp.CallToolRequest, key string) (int, error) {
	v, err := optionalInt(request, key)
	if err != nil || v == nil {
		return 0, err
	}
	return *v, nil
}

func handleGetInterfaces(svc *netops.Service) ToolHandler { return deviceTool(svc.Interfaces) }

func handleGetInterfaceDetail(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		iface, err := request.RequireString("interface_name")
		if err != nil {
			return nil, err
		}
		return svc.InterfaceDetail(ctx, request.GetString("device_name", ""), iface)
	})
}

func handleGetDeviceStatus(svc *netops.Service) ToolHandler { return deviceTool(svc.DeviceStatus) }

func handleGetDeviceInfo(svc *netops.Service) ToolHandler { return deviceTool(svc.DeviceInfo) }

func handleGetDeviceUptime(svc *netops.Service) ToolHandler { return deviceTool(svc.Uptime) }

func handleGetResourceUsage(svc *netops.Service) ToolHandler { return deviceTool(svc.ResourceUsage) }

func handleGetRunningConfig(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		return svc.RunningConfig(ctx, request.GetString("device_name", ""), request.GetString("filter_keyword", ""))
	})
}

func handleGetInterfaceConfig(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		iface, err := request.RequireString("interface_name")
		if err != nil {
			return nil, err
		}
		return svc.InterfaceConfig(ctx, request.GetString("device_name", ""), iface)
	})
}

func handleGetStartupConfig(svc *netops.Service) ToolHandler { return deviceTool(svc.StartupConfig) }

func handleGetHostname(svc *netops.Service) ToolHandler { return deviceTool(svc.GetHostname) }

func handleExecuteCommand(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		cmd, err := request.RequireString("command")
		if err != nil {
			return nil, err
		}
		return svc.Execute(ctx, request.GetString("device_name", ""), cmd)
	})
}

func handleConfigureInterface(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		return svc.ConfigureInterface(ctx,
			request.GetString("device_name", ""),
			request.GetString("interface_name", ""),
			request.GetString("ip_address", ""),
			request.GetString("subnet_mask", ""),
			request.GetString("description", ""),
		)
	})
}

func handleConfigureDefaultGateway(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		return svc.ConfigureDefaultGateway(ctx, request.GetString("device_name", ""), request.GetString("gateway_ip", ""))
	})
}

func handleConfigureDNS(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		return svc.ConfigureDNS(ctx, request.GetString("device_name", ""), request.GetString("dns_server", "8.8.8.8"))
	})
}

// handleConfigureOSPF decodes the networks array of objects before calling
// the service. Clients that send "Network" or "Wildcard" keys are accepted.
func handleConfigureOSPF(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		raw, ok := request.GetArguments()["networks"]
		if !ok {
			return nil, fmt.Errorf("%w: networks is required", netops.ErrInvalidArgument)
		}
		var networks []netops.OSPFNetwork
		if err := jsonrpc.UnmarshalFromMap(raw, &networks); err != nil {
			return nil, fmt.Errorf("%w: networks must be a list of {network, wildcard, area}: %v", netops.ErrInvalidArgument, err)
		}

		pid := 1
		if v, err := optionalInt(request, "process_id"); err != nil {
			return nil, err
		} else if v != nil {
			pid = *v
		}

		return svc.ConfigureOSPF(ctx, request.GetString("device_name", ""), pid, networks, request.GetBool("default_route", false))
	})
}

func handleVerifyOSPFNeighbors(svc *netops.Service) ToolHandler {
	return deviceTool(svc.VerifyOSPFNeighbors)
}

func handleConfigureOSPFInterface(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		cost, err := optionalInt(request, "cost")
		if err != nil {
			return nil, err
		}
		priority, err := optionalInt(request, "priority")
		if err != nil {
			return nil, err
		}
		return svc.ConfigureOSPFInterface(ctx, request.GetString("device_name", ""), request.GetString("interface_name", ""), cost, priority)
	})
}

func handleClearOSPFProcess(svc *netops.Service) ToolHandler { return deviceTool(svc.ClearOSPFProcess) }

func handleChangeHostname(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		return svc.ChangeHostname(ctx, request.GetString("device_name", ""), request.GetString("new_hostname", ""))
	})
}

func handleConfigureInterfaceDescription(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		return svc.ConfigureInterfaceDescription(ctx,
			request.GetString("device_name", ""),
			request.GetString("interface_name", ""),
			request.GetString("description", ""),
		)
	})
}

func handleCreateLoopback(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		number, err := optionalInt(request, "loopback_number")
		if err != nil {
			return nil, err
		}
		if number == nil {
			return nil, fmt.Errorf("%w: loopback_number is required", netops.ErrInvalidArgument)
		}
		return svc.CreateLoopback(ctx,
			request.GetString("device_name", ""),
			*number,
			request.GetString("ip_address", ""),
			request.GetString("subnet_mask", "255.255.255.255"),
			request.GetString("description", ""),
		)
	})
}

func handleDeleteLoopback(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		number, err := optionalInt(request, "loopback_number")
		if err != nil {
			return nil, err
		}
		if number == nil {
			return nil, fmt.Errorf("%w: loopback_number is required", netops.ErrInvalidArgument)
		}
		return svc.DeleteLoopback(ctx, request.GetString("device_name", ""), *number)
	})
}

func handleSetBanner(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		return svc.SetBanner(ctx,
			request.GetString("device_name", ""),
			request.GetString("banner_type", "motd"),
			request.GetString("banner_text", ""),
		)
	})
}

func handleRemoveBanner(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		return svc.RemoveBanner(ctx, request.GetString("device_name", ""), request.GetString("banner_type", "motd"))
	})
}

func handleConfigureStaticRoute(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		return svc.ConfigureStaticRoute(ctx,
			request.GetString("device_name", ""),
			request.GetString("destination_network", ""),
			request.GetString("subnet_mask", ""),
			request.GetString("next_hop_ip", ""),
			request.GetString("description", ""),
		)
	})
}

func handleConfigureNATOverload(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		return svc.ConfigureNATOverload(ctx,
			request.GetString("device_name", ""),
			request.GetString("outside_interface", ""),
			request.GetString("inside_network", ""),
			request.GetString("inside_mask", ""),
		)
	})
}

func handleSaveConfig(svc *netops.Service) ToolHandler { return deviceTool(svc.SaveConfig) }

func handleBackupConfig(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		return svc.Backup(ctx, request.GetString("device_name", ""), request.GetString("backup_dir", ""))
	})
}

func handleShowRoutingTable(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		return svc.ShowRoutingTable(ctx, request.GetString("device_name", ""), request.GetString("protocol", ""))
	})
}

func handleShowNATTranslations(svc *netops.Service) ToolHandler {
	return deviceTool(svc.ShowNATTranslations)
}

func handleCompareConfigs(svc *netops.Service) ToolHandler { return deviceTool(svc.CompareConfigs) }

func handleGetInterfaceStats(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		return svc.InterfaceStats(ctx, request.GetString("device_name", ""), request.GetString("interface_name", ""))
	})
}

func handleGetLogs(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		lines, err := intArg(request, "lines")
		if err != nil {
			return nil, err
		}
		return svc.Logs(ctx, request.GetString("device_name", ""), lines)
	})
}

func handleValidateInterface(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		return svc.ValidateInterface(ctx,
			request.GetString("device_name", ""),
			request.GetString("interface_name", ""),
			request.GetString("expected_ip", ""),
		)
	})
}

func handleValidateConnectivity(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		count, err := intArg(request, "count")
		if err != nil {
			return nil, err
		}
		return svc.ValidateConnectivity(ctx, request.GetString("device_name", ""), request.GetString("target_ip", ""), count)
	})
}

func handleValidateOSPF(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		return svc.ValidateOSPF(ctx, request.GetString("device_name", ""), request.GetStringSlice("expected_neighbors", nil))
	})
}

func handleValidateRoutes(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		routes, err := request.RequireStringSlice("expected_routes")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", netops.ErrInvalidArgument, err)
		}
		return svc.ValidateRoutes(ctx, request.GetString("device_name", ""), routes)
	})
}

func handleComprehensiveValidation(svc *netops.Service) ToolHandler {
	return deviceTool(svc.ComprehensiveValidation)
}

func handleCheckSSHStatus(svc *netops.Service) ToolHandler { return deviceTool(svc.CheckSSHStatus) }

func handleTestInternetConnectivity(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		count, err := intArg(request, "count")
		if err != nil {
			return nil, err
		}
		return svc.InternetConnectivity(ctx, request.GetString("device_name", ""), request.GetString("target", "8.8.8.8"), count)
	})
}

func handleTraceroute(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		return svc.Traceroute(ctx, request.GetString("device_name", ""), request.GetString("target", ""))
	})
}

func handlePingSweep(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		start, err := intArg(request, "start_ip")
		if err != nil {
			return nil, err
		}
		end, err := intArg(request, "end_ip")
		if err != nil {
			return nil, err
		}
		return svc.PingSweep(ctx, request.GetString("device_name", ""), request.GetString("network", ""), start, end)
	})
}

func handleDiagnoseConnectivity(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		return svc.DiagnoseConnectivity(ctx, request.GetString("device_name", ""), request.GetString("target_ip", ""))
	})
}

func handleTestEndToEnd(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		return svc.EndToEnd(ctx, request.GetString("source_device", ""), request.GetString("destination_device", ""))
	})
}

func handleBootstrapSSH(svc *netops.Service) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		return svc.BootstrapSSH(ctx, netops.BootstrapRequest{
			JumpHost: request.GetString("device_name", ""),
			TargetIP: request.GetString("target_ip", ""),
			Hostname: request.GetString("hostname", ""),
			Username: request.GetString("username", ""),
			Password: request.GetString("password", ""),
			Domain:   request.GetString("domain_name", ""),
		})
	})
}

// handleListDevices lists the configured inventory without credentials.
func handleListDevices(ctx context.Context, request mcp.CallToolRequest, config *Config) (*mcp.CallToolResult, error) {
	inv, err := inventory.New(config.Devices)
	if err != nil {
		return errorResult(err), nil
	}

	rep := ios.NewReport("")
	items := make([]string, 0, len(inv.Names()))
	for _, d := range inv.Devices() {
		items = append(items, describeDevice(d))
	}
	rep.AddList("Devices", items)
	return reportResult(rep.Succeed("%d devices in inventory", len(items))), nil
}

// describeDevice renders one inventory entry as a single line.
func describeDevice(d inventory.Device) string {
	route := "direct"
	if d.ViaJumpHost() {
		route = fmt.Sprintf("via %s (%s)", d.JumpHost, d.JumpMethod)
	}
	return fmt.Sprintf("%s: %s@%s, %s", d.Name, d.Username, d.Address(), route)
}

func historyArgs(request mcp.CallToolRequest) (string, int, error) {
	limit, err := intArg(request, "limit")
	if err != nil {
		return "", 0, err
	}
	return strings.TrimSpace(request.GetString("device_name", "")), limit, nil
}

func handleGetBackupHistory(store *history.Store) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		device, limit, err := historyArgs(request)
		if err != nil {
			return nil, err
		}
		backups, err := store.Backups(ctx, device, limit)
		if err != nil {
			return nil, err
		}

		rep := ios.NewReport(device)
		items := make([]string, 0, len(backups))
		for _, b := range backups {
			items = append(items, fmt.Sprintf("%s %s %s (%d bytes)", b.CreatedAt.Format(time.DateTime), b.Device, b.Path, b.Size))
		}
		rep.AddList("Backups", items)
		return rep.Succeed("%d backups", len(items)), nil
	})
}

func handleGetChangeHistory(store *history.Store) ToolHandler {
	return reportTool(func(ctx context.Context, request mcp.CallToolRequest) (*ios.Report, error) {
		device, limit, err := historyArgs(request)
		if err != nil {
			return nil, err
		}
		changes, err := store.Changes(ctx, device, limit)
		if err != nil {
			return nil, err
		}

		rep := ios.NewReport(device)
		items := make([]string, 0, len(changes))
		for _, c := range changes {
			outcome := "ok"
			if !c.Success {
				outcome = "failed"
			}
			items = append(items, fmt.Sprintf("%s %s %s [%s] %s", c.CreatedAt.Format(time.DateTime), c.Device, c.Operation, outcome, c.Message))
		}
		rep.AddList("Changes", items)
		return rep.Succeed("%d changes", len(items)), nil
	})
}
