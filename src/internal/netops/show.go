// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netops

import (
	"context"
	"fmt"
	"strings"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/ios"
)

// Interfaces lists the interfaces of device with "show ip interface brief".
func (s *Service) Interfaces(ctx context.Context, device string) (*ios.Report, error) {
	return s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		out, err := show(ctx, sess, rep, "show ip interface brief")
		if err != nil {
			return nil, err
		}

		rows := ios.ParseInterfacesBrief(out)
		up := 0
		for _, r := range rows {
			if r.Up() {
				up++
			}
		}
		rep.Add("Interfaces", len(rows))
		rep.Add("Up", up)
		rep.Add("Down", len(rows)-up)
		return rep.Succeed("Retrieved %d interfaces from %s", len(rows), device), nil
	})
}

// InterfaceDetail shows one interface with "show interface".
func (s *Service) InterfaceDetail(ctx context.Context, device, iface string) (*ios.Report, error) {
	if err := requireInterface(iface); err != nil {
		return nil, err
	}
	return s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		out, err := show(ctx, sess, rep, "show interface "+iface)
		if err != nil {
			return nil, err
		}
		if ios.Rejected(out) {
			return rep.Fail("Interface %s not found on %s", iface, device), nil
		}
		rep.Add("Interface", iface)
		return rep.Succeed("Retrieved details of %s", iface), nil
	})
}

// DeviceStatus reports the hostname and "show version" of device.
func (s *Service) DeviceStatus(ctx context.Context, device string) (*ios.Report, error) {
	return s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		host, err := sess.SendCommand(ctx, "show running-config | include hostname")
		if err != nil {
			return nil, err
		}
		version, err := show(ctx, sess, rep, "show version")
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(version) == "" {
			return rep.Fail("No output received from %s", device), nil
		}

		rep.Add("Hostname", orNone(ios.ParseHostname(host)))
		for _, line := range ios.Lines(version) {
			switch {
			case strings.Contains(line, "Version"):
				if _, ok := rep.Get("Version"); !ok {
					rep.Add("Version", strings.TrimSpace(line))
				}
			case strings.Contains(line, "uptime is"):
				rep.Add("Uptime", strings.TrimSpace(line))
			}
		}
		return rep.Succeed("Successfully retrieved device status"), nil
	})
}

// DeviceInfo reports the hostname and IOS version line of device.
func (s *Service) DeviceInfo(ctx context.Context, device string) (*ios.Report, error) {
	return s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		host, err := sess.SendCommand(ctx, "show running-config | include hostname")
		if err != nil {
			return nil, err
		}
		version, err := sess.SendCommand(ctx, "show version | include Version")
		if err != nil {
			return nil, err
		}
		rep.Add("Hostname", orNone(ios.ParseHostname(host)))
		rep.Add("Version", orNone(ios.LastLines(version, 1)))
		rep.Add("Session prompt", sess.Hostname())
		return rep.Succeed("Device information for %s", device), nil
	})
}

// Uptime reports the uptime line of "show version".
func (s *Service) Uptime(ctx context.Context, device string) (*ios.Report, error) {
	return s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		out, err := sess.SendCommand(ctx, "show version | include uptime")
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(out) == "" {
			return rep.Fail("No output received from %s", device), nil
		}
		rep.Add("Uptime", strings.TrimSpace(out))
		return rep.Succeed("Successfully retrieved uptime information"), nil
	})
}

// ResourceUsage reports CPU and processor memory usage.
func (s *Service) ResourceUsage(ctx context.Context, device string) (*ios.Report, error) {
	return s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		cpu, err := show(ctx, sess, rep, "show processes cpu | include CPU")
		if err != nil {
			return nil, err
		}
		mem, err := show(ctx, sess, rep, "show processes memory | include Processor")
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(cpu) == "" || strings.TrimSpace(mem) == "" {
			return rep.Fail("Failed to retrieve complete resource information"), nil
		}
		rep.Add("CPU", ios.LastLines(cpu, 1))
		rep.Add("Memory", ios.LastLines(mem, 1))
		return rep.Succeed("Successfully retrieved resource usage"), nil
	})
}

// RunningConfig returns the running configuration, optionally only the
// lines containing filter (case-insensitive).
func (s *Service) RunningConfig(ctx context.Context, device, filter string) (*ios.Report, error) {
	if err := requireText("filter_keyword", filter, false); err != nil {
		return nil, err
	}
	return s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		out, err := sess.SendCommand(ctx, "show running-config")
		if err != nil {
			return nil, err
		}
		if filter != "" {
			out = ios.FilterLines(out, filter)
			rep.Add("Filter", filter)
		}
		rep.Add("Lines", len(ios.Lines(out)))
		rep.AddOutput("Running configuration", out)
		return rep.Succeed("Running configuration of %s", device), nil
	})
}

// InterfaceConfig returns the running configuration of one interface.
func (s *Service) InterfaceConfig(ctx context.Context, device, iface string) (*ios.Report, error) {
	if err := requireInterface(iface); err != nil {
		return nil, err
	}
	return s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		out, err := show(ctx, sess, rep, "show running-config interface "+iface)
		if err != nil {
			return nil, err
		}
		if ios.Rejected(out) {
			return rep.Fail("Interface %s not found on %s", iface, device), nil
		}
		return rep.Succeed("Configuration of %s", iface), nil
	})
}

// StartupConfig returns the saved configuration.
func (s *Service) StartupConfig(ctx context.Context, device string) (*ios.Report, error) {
	return s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		if _, err := show(ctx, sess, rep, "show startup-config"); err != nil {
			return nil, err
		}
		return rep.Succeed("Startup configuration of %s", device), nil
	})
}

// Execute runs a read-only show command and returns its raw output.
func (s *Service) Execute(ctx context.Context, device, cmd string) (*ios.Report, error) {
	cmd = strings.TrimSpace(cmd)
	if err := requireShowCommand(cmd); err != nil {
		return nil, err
	}
	return s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		out, err := show(ctx, sess, rep, cmd)
		if err != nil {
			return nil, err
		}
		if ios.Rejected(out) {
			return rep.Fail("%s rejected %q", device, cmd), nil
		}
		return rep.Succeed("Executed %q", cmd), nil
	})
}

// GetHostname reads the configured hostname.
func (s *Service) GetHostname(ctx context.Context, device string) (*ios.Report, error) {
	return s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		out, err := sess.SendCommand(ctx, "show running-config | include hostname")
		if err != nil {
			return nil, err
		}
		host := ios.ParseHostname(out)
		if host == "" {
			return rep.Fail("Could not retrieve hostname"), nil
		}
		rep.Add("Hostname", host)
		return rep.Succeed("Hostname of %s is %s", device, host), nil
	})
}

// ShowRoutingTable lists routes, optionally only those of one protocol.
func (s *Service) ShowRoutingTable(ctx context.Context, device, protocol string) (*ios.Report, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	if protocol != "" {
		if err := requireOneOf("protocol", protocol, RouteProtocols); err != nil {
			return nil, err
		}
	}
	return s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		cmd := "show ip route"
		if protocol != "" {
			cmd += " " + protocol
		}
		out, err := show(ctx, sess, rep, cmd)
		if err != nil {
			return nil, err
		}

		routes := ios.ParseRoutes(out)
		lines := make([]string, 0, len(routes))
		for _, r := range routes {
			lines = append(lines, r.Line)
		}
		if protocol != "" {
			rep.Add("Protocol filter", protocol)
		}
		rep.Add("Route count", len(routes))
		rep.Add("Default gateway", yesNo(ios.HasDefaultGateway(out)))
		rep.AddList("Routes", lines)
		return rep.Succeed("Found %d routes on %s", len(routes), device), nil
	})
}

// ShowNATTranslations shows NAT translations and statistics.
func (s *Service) ShowNATTranslations(ctx context.Context, device string) (*ios.Report, error) {
	return s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		if _, err := show(ctx, sess, rep, "show ip nat translations"); err != nil {
			return nil, err
		}
		if _, err := show(ctx, sess, rep, "show ip nat statistics"); err != nil {
			return nil, err
		}
		return rep.Succeed("NAT translations of %s", device), nil
	})
}

// CompareConfigs reports the differences between the running and the
// startup configuration.
func (s *Service) CompareConfigs(ctx context.Context, device string) (*ios.Report, error) {
	return s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		diff, err := compareConfigs(ctx, sess)
		if err != nil {
			return nil, err
		}
		addDiff(rep, diff)
		if diff.HasChanges() {
			return rep.Succeed("Unsaved changes detected!"), nil
		}
		return rep.Succeed("No unsaved changes"), nil
	})
}

func compareConfigs(ctx context.Context, sess Session) (ios.ConfigDiff, error) {
	running, err := sess.SendCommand(ctx, "show running-config")
	if err != nil {
		return ios.ConfigDiff{}, err
	}
	startup, err := sess.SendCommand(ctx, "show startup-config")
	if err != nil {
		return ios.ConfigDiff{}, err
	}
	return ios.CompareConfigs(running, startup), nil
}

func addDiff(rep *ios.Report, diff ios.ConfigDiff) {
	rep.Add("Unsaved changes", yesNo(diff.HasChanges()))
	rep.Add("Added lines", len(diff.Added))
	rep.Add("Removed lines", len(diff.Removed))
	if diff.HasChanges() {
		rep.AddList("Only in running-config", diff.Added)
		rep.AddList("Only in startup-config", diff.Removed)
		rep.AddOutput("Diff", diff.Unified)
	}
}

// InterfaceStats reports status and packet counters of every interface,
// or of iface when given.
func (s *Service) InterfaceStats(ctx context.Context, device, iface string) (*ios.Report, error) {
	if iface != "" {
		if err := requireInterface(iface); err != nil {
			return nil, err
		}
	}
	return s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		cmd := "show interfaces"
		if iface != "" {
			cmd += " " + iface
			rep.Add("Interface filter", iface)
		}
		out, err := show(ctx, sess, rep, cmd)
		if err != nil {
			return nil, err
		}
		if ios.Rejected(out) {
			return rep.Fail("%s rejected %q", device, cmd), nil
		}

		stats := ios.ParseInterfaceStats(out)
		items := make([]string, 0, len(stats))
		for _, st := range stats {
			item := st.Status
			for _, counter := range []string{st.Input, st.Output} {
				if counter != "" {
					item += "; " + counter
				}
			}
			items = append(items, item)
		}
		rep.AddList("Statistics", items)
		if errs := ios.InterfaceErrors(out); len(errs) > 0 {
			rep.AddList("Error counters", errs)
		}
		return rep.Succeed("Statistics for %d interfaces", len(stats)), nil
	})
}

// Logs returns the last lines of the syslog buffer grouped by severity.
// Images without "| tail" get the full buffer, trimmed locally.
func (s *Service) Logs(ctx context.Context, device string, lines int) (*ios.Report, error) {
	if lines == 0 {
		lines = s.opts.LogLines
	}
	if err := requireRange("lines", lines, 1, 1000); err != nil {
		return nil, err
	}
	return s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		out, err := sess.SendCommand(ctx, fmt.Sprintf("show logging | tail %d", lines))
		if err != nil {
			return nil, err
		}
		if ios.Rejected(out) {
			full, err := sess.SendCommand(ctx, "show logging")
			if err != nil {
				return nil, err
			}
			out = ios.LastLines(full, lines)
		}

		sum := ios.CategorizeLogs(out)
		rep.Add("Total lines", sum.Total)
		rep.Add("Errors", len(sum.Errors))
		rep.Add("Warnings", len(sum.Warnings))
		rep.Add("Informational", len(sum.Info))
		rep.AddList("Errors", sum.Errors)
		rep.AddList("Warnings", sum.Warnings)
		rep.AddList("Recent logs", sum.Recent)
		return rep.Succeed("Retrieved %d log lines from %s", sum.Total, device), nil
	})
}
