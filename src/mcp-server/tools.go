// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"strings"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/history"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/netops"
	"github.com/mark3labs/mcp-go/mcp"
)

// deviceParam is the device_name argument every device tool takes.
func deviceParam() mcp.ToolOption {
	return mcp.WithString("device_name",
		mcp.Required(),
		mcp.Description("Inventory device name (e.g., 'R1', 'R2')"),
	)
}

func interfaceParam(required bool) mcp.ToolOption {
	opts := []mcp.PropertyOption{mcp.Description("Interface name (e.g., 'GigabitEthernet1', 'Loopback0')")}
	if required {
		opts = append(opts, mcp.Required())
	}
	return mcp.WithString("interface_name", opts...)
}

// createTools creates the tool definitions backed by the network service.
//
// Parameters:
//   - svc: The service that runs every operation against inventory devices
//
// Returns:
//   - A slice of ToolDefinition grouped as read, configure, show, validate
//     and troubleshoot tools
//
// Every device tool requires device_name. Configuration tools are WRITE
// operations and say so in their description.
func createTools(svc *netops.Service) []ToolDefinition {
	var tools []ToolDefinition
	tools = append(tools, readTools(svc)...)
	tools = append(tools, configureTools(svc)...)
	tools = append(tools, showTools(svc)...)
	tools = append(tools, validateTools(svc)...)
	tools = append(tools, troubleshootTools(svc)...)
	return tools
}

func readTools(svc *netops.Service) []ToolDefinition {
	return []ToolDefinition{
		{
			Tool: mcp.NewTool("get_interfaces",
				mcp.WithDescription("Get list of all network interfaces and their status. Returns output of 'show ip interface brief'."),
				deviceParam(),
			),
			Handler: handleGetInterfaces(svc),
			Role:    "interfaces",
		},
		{
			Tool: mcp.NewTool("get_interface_detail",
				mcp.WithDescription("Get detailed information about a specific interface including IP address, MTU and bandwidth."),
				deviceParam(),
				interfaceParam(true),
			),
			Handler: handleGetInterfaceDetail(svc),
		},
		{
			Tool: mcp.NewTool("get_device_status",
				mcp.WithDescription("Get overall device status including IOS version, model, serial number and uptime."),
				deviceParam(),
			),
			Handler: handleGetDeviceStatus(svc),
			Role:    "deviceStatus",
		},
		{
			Tool: mcp.NewTool("get_device_info",
				mcp.WithDescription("Get the configured hostname and IOS version line of the device."),
				deviceParam(),
			),
			Handler: handleGetDeviceInfo(svc),
		},
		{
			Tool: mcp.NewTool("get_device_uptime",
				mcp.WithDescription("Get device uptime information showing how long the device has been running."),
				deviceParam(),
			),
			Handler: handleGetDeviceUptime(svc),
		},
		{
			Tool: mcp.NewTool("get_resource_usage",
				mcp.WithDescription("Get CPU and memory usage information from the device."),
				deviceParam(),
			),
			Handler: handleGetResourceUsage(svc),
		},
		{
			Tool: mcp.NewTool("get_running_config",
				mcp.WithDescription("Get the running configuration. Can optionally filter lines by keyword (e.g., 'interface', 'ip', 'router')."),
				deviceParam(),
				mcp.WithString("filter_keyword",
					mcp.Description("Optional case-insensitive keyword to filter configuration lines"),
				),
			),
			Handler: handleGetRunningConfig(svc),
			Role:    "runningConfig",
		},
		{
			Tool: mcp.NewTool("get_interface_config",
				mcp.WithDescription("Get configuration for a specific interface from the running config."),
				deviceParam(),
				interfaceParam(true),
			),
			Handler: handleGetInterfaceConfig(svc),
		},
		{
			Tool: mcp.NewTool("get_startup_config",
				mcp.WithDescription("Get the startup configuration (saved configuration) from the device."),
				deviceParam(),
			),
			Handler: handleGetStartupConfig(svc),
		},
		{
			Tool: mcp.NewTool("get_hostname",
				mcp.WithDescription("Get the hostname configured on the device."),
				deviceParam(),
			),
			Handler: handleGetHostname(svc),
		},
		{
			Tool: mcp.NewTool("execute_command",
				mcp.WithDescription("Run a read-only show command. Configuration, write, reload, clear and debug commands are rejected."),
				deviceParam(),
				mcp.WithString("command",
					mcp.Required(),
					mcp.Description("The show command to run (e.g., 'show ip arp')"),
				),
			),
			Handler: handleExecuteCommand(svc),
			Role:    "execute",
		},
	}
}

func configureTools(svc *netops.Service) []ToolDefinition {
	return []ToolDefinition{
		{
			Tool: mcp.NewTool("configure_interface",
				mcp.WithDescription("Configure an IP address on a router interface and bring it up. This is a WRITE operation that changes device configuration."),
				deviceParam(),
				interfaceParam(true),
				mcp.WithString("ip_address", mcp.Required(), mcp.Description("IPv4 address (e.g., '10.1.1.1')")),
				mcp.WithString("subnet_mask", mcp.Required(), mcp.Description("Subnet mask (e.g., '255.255.255.0')")),
				mcp.WithString("description", mcp.Description("Optional interface description")),
			),
			Handler: handleConfigureInterface(svc),
			Role:    "configureInterface",
		},
		{
			Tool: mcp.NewTool("configure_default_gateway",
				mcp.WithDescription("Configure a default route (0.0.0.0/0) via a gateway. This is a WRITE operation."),
				deviceParam(),
				mcp.WithString("gateway_ip", mcp.Required(), mcp.Description("Next-hop IPv4 address of the default route")),
			),
			Handler: handleConfigureDefaultGateway(svc),
		},
		{
			Tool: mcp.NewTool("configure_dns",
				mcp.WithDescription("Enable DNS lookup and configure a name server. This is a WRITE operation."),
				deviceParam(),
				mcp.WithString("dns_server",
					mcp.Description("DNS server IPv4 address (default: 8.8.8.8)"),
					mcp.DefaultString("8.8.8.8"),
				),
			),
			Handler: handleConfigureDNS(svc),
		},
		{
			Tool: mcp.NewTool("configure_ospf",
				mcp.WithDescription("Configure an OSPF process and advertise networks. This is a WRITE operation."),
				deviceParam(),
				mcp.WithNumber("process_id",
					mcp.Description("OSPF process ID (default: 1)"),
					mcp.DefaultNumber(1),
				),
				mcp.WithArray("networks",
					mcp.Required(),
					mcp.Description("Networks to advertise, each with network, wildcard and area"),
					mcp.Items(map[string]any{
						"type": "object",
						"properties": map[string]any{
							"network":  map[string]any{"type": "string", "description": "Network address (e.g., '10.1.1.0')"},
							"wildcard": map[string]any{"type": "string", "description": "Wildcard mask (e.g., '0.0.0.255')"},
							"area":     map[string]any{"type": "number", "description": "OSPF area (e.g., 0)"},
						},
						"required": []string{"network", "wildcard", "area"},
					}),
				),
				mcp.WithBoolean("default_route",
					mcp.Description("Originate a default route into OSPF (default: false)"),
					mcp.DefaultBool(false),
				),
			),
			Handler: handleConfigureOSPF(svc),
			Role:    "configureOSPF",
		},
		{
			Tool: mcp.NewTool("verify_ospf_neighbors",
				mcp.WithDescription("Show OSPF neighbors, the OSPF summary and OSPF-learned routes."),
				deviceParam(),
			),
			Handler: handleVerifyOSPFNeighbors(svc),
		},
		{
			Tool: mcp.NewTool("configure_ospf_interface",
				mcp.WithDescription("Set the OSPF cost and/or priority of an interface. This is a WRITE operation."),
				deviceParam(),
				interfaceParam(true),
				mcp.WithNumber("cost", mcp.Description("OSPF cost (1-65535)")),
				mcp.WithNumber("priority", mcp.Description("OSPF priority (0-255)")),
			),
			Handler: handleConfigureOSPFInterface(svc),
		},
		{
			Tool: mcp.NewTool("clear_ospf_process",
				mcp.WithDescription("Reset all OSPF processes, forcing adjacencies to re-form. This is a disruptive WRITE operation."),
				deviceParam(),
			),
			Handler: handleClearOSPFProcess(svc),
		},
		{
			Tool: mcp.NewTool("change_hostname",
				mcp.WithDescription("Change the device hostname. Does nothing when the name is already set. This is a WRITE operation."),
				deviceParam(),
				mcp.WithString("new_hostname", mcp.Required(), mcp.Description("New hostname")),
			),
			Handler: handleChangeHostname(svc),
		},
		{
			Tool: mcp.NewTool("configure_interface_description",
				mcp.WithDescription("Set the description of an interface. This is a WRITE operation."),
				deviceParam(),
				interfaceParam(true),
				mcp.WithString("description", mcp.Required(), mcp.Description("Interface description")),
			),
			Handler: handleConfigureInterfaceDescription(svc),
		},
		{
			Tool: mcp.NewTool("create_loopback",
				mcp.WithDescription("Create a loopback interface with an IP address. This is a WRITE operation."),
				deviceParam(),
				mcp.WithNumber("loopback_number", mcp.Required(), mcp.Description("Loopback number (0-2147483647)")),
				mcp.WithString("ip_address", mcp.Required(), mcp.Description("IPv4 address")),
				mcp.WithString("subnet_mask",
					mcp.Description("Subnet mask (default: 255.255.255.255)"),
					mcp.DefaultString("255.255.255.255"),
				),
				mcp.WithString("description", mcp.Description("Optional interface description")),
			),
			Handler: handleCreateLoopback(svc),
		},
		{
			Tool: mcp.NewTool("delete_loopback",
				mcp.WithDescription("Delete a loopback interface. This is a WRITE operation."),
				deviceParam(),
				mcp.WithNumber("loopback_number", mcp.Required(), mcp.Description("Loopback number")),
			),
			Handler: handleDeleteLoopback(svc),
		},
		{
			Tool: mcp.NewTool("set_banner",
				mcp.WithDescription("Set a login, motd or exec banner. The text must not contain '#'. This is a WRITE operation."),
				deviceParam(),
				mcp.WithString("banner_text", mcp.Required(), mcp.Description("Banner text")),
				mcp.WithString("banner_type",
					mcp.Description("Banner type: "+strings.Join(netops.BannerTypes, ", ")+" (default: motd)"),
					mcp.DefaultString("motd"),
					mcp.Enum(netops.BannerTypes...),
				),
			),
			Handler: handleSetBanner(svc),
		},
		{
			Tool: mcp.NewTool("remove_banner",
				mcp.WithDescription("Remove a banner. Reports when there is nothing to remove. This is a WRITE operation."),
				deviceParam(),
				mcp.WithString("banner_type",
					mcp.Description("Banner type: "+strings.Join(netops.BannerTypes, ", ")+" (default: motd)"),
					mcp.DefaultString("motd"),
					mcp.Enum(netops.BannerTypes...),
				),
			),
			Handler: handleRemoveBanner(svc),
		},
		{
			Tool: mcp.NewTool("configure_static_route",
				mcp.WithDescription("Configure a static route and save the configuration. This is a WRITE operation."),
				deviceParam(),
				mcp.WithString("destination_network", mcp.Required(), mcp.Description("Destination network (e.g., '0.0.0.0' for default route)")),
				mcp.WithString("subnet_mask", mcp.Required(), mcp.Description("Subnet mask (e.g., '0.0.0.0' for default route)")),
				mcp.WithString("next_hop_ip", mcp.Required(), mcp.Description("Next-hop IPv4 address")),
				mcp.WithString("description", mcp.Description("Optional route name")),
			),
			Handler: handleConfigureStaticRoute(svc),
			Role:    "staticRoute",
		},
		{
			Tool: mcp.NewTool("configure_nat_overload",
				mcp.WithDescription("Configure NAT overload (PAT) so an inside network shares the outside interface address. This is a WRITE operation."),
				deviceParam(),
				mcp.WithString("outside_interface", mcp.Required(), mcp.Description("Interface facing the internet")),
				mcp.WithString("inside_network", mcp.Required(), mcp.Description("Inside network address (e.g., '10.1.1.0')")),
				mcp.WithString("inside_mask", mcp.Required(), mcp.Description("Inside wildcard mask (e.g., '0.0.0.255')")),
			),
			Handler: handleConfigureNATOverload(svc),
			Role:    "natOverload",
		},
		{
			Tool: mcp.NewTool("save_config",
				mcp.WithDescription("Save the running configuration when it differs from the startup configuration."),
				deviceParam(),
			),
			Handler: handleSaveConfig(svc),
		},
		{
			Tool: mcp.NewTool("backup_config",
				mcp.WithDescription("Back up the running configuration to a timestamped file."),
				deviceParam(),
				mcp.WithString("backup_dir", mcp.Description("Backup directory (default: from configuration, usually 'backups')")),
			),
			Handler: handleBackupConfig(svc),
			Role:    "backup",
		},
	}
}

func showTools(svc *netops.Service) []ToolDefinition {
	return []ToolDefinition{
		{
			Tool: mcp.NewTool("show_routing_table",
				mcp.WithDescription("Show the IP routing table, optionally limited to one protocol."),
				deviceParam(),
				mcp.WithString("protocol",
					mcp.Description("Protocol filter: "+strings.Join(netops.RouteProtocols, ", ")),
					mcp.Enum(netops.RouteProtocols...),
				),
			),
			Handler: handleShowRoutingTable(svc),
			Role:    "routingTable",
		},
		{
			Tool: mcp.NewTool("show_nat_translations",
				mcp.WithDescription("Show active NAT translations and NAT statistics."),
				deviceParam(),
			),
			Handler: handleShowNATTranslations(svc),
		},
		{
			Tool: mcp.NewTool("compare_configs",
				mcp.WithDescription("Compare the running and startup configurations and show a unified diff."),
				deviceParam(),
			),
			Handler: handleCompareConfigs(svc),
		},
		{
			Tool: mcp.NewTool("get_interface_stats",
				mcp.WithDescription("Get interface counters: packets, errors, drops and rates."),
				deviceParam(),
				interfaceParam(true),
			),
			Handler: handleGetInterfaceStats(svc),
		},
		{
			Tool: mcp.NewTool("get_logs",
				mcp.WithDescription("Get recent syslog messages grouped by severity."),
				deviceParam(),
				mcp.WithNumber("lines", mcp.Description("Number of log lines to retrieve (default: from configuration, usually 50)")),
			),
			Handler: handleGetLogs(svc),
		},
	}
}

func validateTools(svc *netops.Service) []ToolDefinition {
	return []ToolDefinition{
		{
			Tool: mcp.NewTool("validate_interface",
				mcp.WithDescription("Validate that an interface is up/up and, optionally, carries the expected IP address."),
				deviceParam(),
				interfaceParam(true),
				mcp.WithString("expected_ip", mcp.Description("Expected IPv4 address")),
			),
			Handler: handleValidateInterface(svc),
		},
		{
			Tool: mcp.NewTool("validate_connectivity",
				mcp.WithDescription("Ping a target and pass only on a 100 percent success rate."),
				deviceParam(),
				mcp.WithString("target_ip", mcp.Required(), mcp.Description("Target IPv4 address or hostname")),
				mcp.WithNumber("count", mcp.Description("Number of ping packets (default: from configuration, usually 5)")),
			),
			Handler: handleValidateConnectivity(svc),
			Role:    "connectivity",
		},
		{
			Tool: mcp.NewTool("validate_ospf",
				mcp.WithDescription("Validate that OSPF has FULL adjacencies and, optionally, that every expected neighbor is present."),
				deviceParam(),
				mcp.WithArray("expected_neighbors",
					mcp.Description("Expected neighbor router IDs or addresses"),
					mcp.WithStringItems(),
				),
			),
			Handler: handleValidateOSPF(svc),
		},
		{
			Tool: mcp.NewTool("validate_routes",
				mcp.WithDescription("Validate that expected prefixes are in the routing table."),
				deviceParam(),
				mcp.WithArray("expected_routes",
					mcp.Required(),
					mcp.Description("Expected prefixes (e.g., '10.1.1.0/24')"),
					mcp.WithStringItems(),
				),
			),
			Handler: handleValidateRoutes(svc),
		},
		{
			Tool: mcp.NewTool("comprehensive_validation",
				mcp.WithDescription("Run reachability, interface, OSPF and routing checks and report an overall verdict."),
				deviceParam(),
			),
			Handler: handleComprehensiveValidation(svc),
			Role:    "healthCheck",
		},
		{
			Tool: mcp.NewTool("check_ssh_status",
				mcp.WithDescription("Check whether SSH is enabled, its version, and whether an RSA key exists."),
				deviceParam(),
			),
			Handler: handleCheckSSHStatus(svc),
		},
	}
}

func troubleshootTools(svc *netops.Service) []ToolDefinition {
	return []ToolDefinition{
		{
			Tool: mcp.NewTool("test_internet_connectivity",
				mcp.WithDescription("Ping an internet target and check DNS resolution."),
				deviceParam(),
				mcp.WithString("target",
					mcp.Description("Target IP or hostname (default: 8.8.8.8)"),
					mcp.DefaultString("8.8.8.8"),
				),
				mcp.WithNumber("count", mcp.Description("Number of ping packets (default: from configuration, usually 5)")),
			),
			Handler: handleTestInternetConnectivity(svc),
		},
		{
			Tool: mcp.NewTool("traceroute",
				mcp.WithDescription("Trace the path to a target and list the hops."),
				deviceParam(),
				mcp.WithString("target", mcp.Required(), mcp.Description("Target IP or hostname")),
			),
			Handler: handleTraceroute(svc),
		},
		{
			Tool: mcp.NewTool("ping_sweep",
				mcp.WithDescription("Ping a range of hosts in a /24 network and list the ones that answer."),
				deviceParam(),
				mcp.WithString("network", mcp.Required(), mcp.Description("First three octets (e.g., '10.1.1')")),
				mcp.WithNumber("start_ip", mcp.Description("First host number (default: 1)")),
				mcp.WithNumber("end_ip", mcp.Description("Last host number (default: 254)")),
			),
			Handler: handlePingSweep(svc),
		},
		{
			Tool: mcp.NewTool("diagnose_connectivity",
				mcp.WithDescription("Diagnose why a target is unreachable: interfaces, ping, routes, NAT and interface errors."),
				deviceParam(),
				mcp.WithString("target_ip", mcp.Required(), mcp.Description("Target IPv4 address")),
			),
			Handler: handleDiagnoseConnectivity(svc),
			Role:    "diagnose",
		},
		{
			Tool: mcp.NewTool("test_end_to_end_connectivity",
				mcp.WithDescription("Ping between two devices in both directions using the addresses they share a subnet on."),
				mcp.WithString("source_device", mcp.Required(), mcp.Description("Source inventory device")),
				mcp.WithString("destination_device", mcp.Required(), mcp.Description("Destination inventory device")),
			),
			Handler: handleTestEndToEnd(svc),
		},
		{
			Tool: mcp.NewTool("bootstrap_ssh",
				mcp.WithDescription("Enable SSH on a router reachable only by telnet from a jump router, then verify SSH through the jump router. This is a WRITE operation."),
				mcp.WithString("device_name", mcp.Required(), mcp.Description("Jump router in the inventory (e.g., 'R1')")),
				mcp.WithString("target_ip", mcp.Required(), mcp.Description("Address of the router to bootstrap")),
				mcp.WithString("hostname", mcp.Required(), mcp.Description("Hostname to give the router")),
				mcp.WithString("username", mcp.Required(), mcp.Description("Local user to create")),
				mcp.WithString("password", mcp.Required(), mcp.Description("Password for the local user and enable secret")),
				mcp.WithString("domain_name", mcp.Required(), mcp.Description("IP domain name required for RSA keys")),
			),
			Handler: handleBootstrapSSH(svc),
			Role:    "bootstrap",
		},
	}
}

// createToolsWithConfig creates the tools that read the server configuration.
func createToolsWithConfig() []ToolDefinitionWithConfig {
	return []ToolDefinitionWithConfig{
		{
			Tool: mcp.NewTool("list_devices",
				mcp.WithDescription("List the inventory devices and how each is reached. Credentials are never shown."),
			),
			Handler: handleListDevices,
			Role:    "listDevices",
		},
	}
}

// createHistoryTools creates the tools that query the audit store.
func createHistoryTools(store *history.Store) []ToolDefinition {
	return []ToolDefinition{
		{
			Tool: mcp.NewTool("get_backup_history",
				mcp.WithDescription("List recent configuration backups, newest first."),
				mcp.WithString("device_name", mcp.Description("Limit to one device")),
				mcp.WithNumber("limit", mcp.Description("Maximum entries (default: 20)")),
			),
			Handler: handleGetBackupHistory(store),
		},
		{
			Tool: mcp.NewTool("get_change_history",
				mcp.WithDescription("List recent configuration changes, newest first."),
				mcp.WithString("device_name", mcp.Description("Limit to one device")),
				mcp.WithNumber("limit", mcp.Description("Maximum entries (default: 20)")),
			),
			Handler: handleGetChangeHistory(store),
			Role:    "changeHistory",
		},
	}
}
