// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/history"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/ios"
)

// ConfigureInterface assigns an address to an interface and enables it.
func (s *Service) ConfigureInterface(ctx context.Context, device, iface, ip, mask, description string) (*ios.Report, error) {
	if err := requireInterface(iface); err != nil {
		return nil, err
	}
	if err := requireIPv4("ip_address", ip); err != nil {
		return nil, err
	}
	if err := requireMask("subnet_mask", mask); err != nil {
		return nil, err
	}
	if err := requireText("description", description, false); err != nil {
		return nil, err
	}

	lines := []string{"interface " + iface}
	if description != "" {
		lines = append(lines, "description "+description)
	}
	lines = append(lines, fmt.Sprintf("ip address %s %s", ip, mask), "no shutdown")

	rep, err := s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		if ok, err := configure(ctx, sess, rep, lines); err != nil || !ok {
			return rep, err
		}
		verify, err := show(ctx, sess, rep, "show ip interface brief | include "+iface)
		if err != nil {
			return nil, err
		}

		rep.Add("Interface", iface)
		rep.Add("IP address", ip)
		rep.Add("Subnet mask", mask)
		row, found := ios.FindInterface(ios.ParseInterfacesBrief(verify), iface)
		switch {
		case !found:
			rep.AddCheck("Address assigned", ios.StatusWarning, "interface not listed by show ip interface brief")
		case row.IP == ip:
			rep.AddCheck("Address assigned", ios.StatusPass, row.IP)
		default:
			rep.AddCheck("Address assigned", ios.StatusFail, "interface has "+row.IP)
			return rep.Fail("Interface %s on %s still has address %s", iface, device, row.IP), nil
		}
		return rep.Succeed("Interface %s configured successfully on %s", iface, device), nil
	})
	s.record(ctx, "configure_interface", rep, lines)
	return rep, err
}

// ConfigureDefaultGateway adds a static default route via gateway.
func (s *Service) ConfigureDefaultGateway(ctx context.Context, device, gateway string) (*ios.Report, error) {
	if err := requireIPv4("gateway_ip", gateway); err != nil {
		return nil, err
	}
	lines := []string{"ip route 0.0.0.0 0.0.0.0 " + gateway}

	rep, err := s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		if ok, err := configure(ctx, sess, rep, lines); err != nil || !ok {
			return rep, err
		}
		verify, err := show(ctx, sess, rep, "show ip route static")
		if err != nil {
			return nil, err
		}
		rep.Add("Gateway", gateway)
		present := strings.Contains(verify, gateway)
		rep.AddCheck("Default route", verdict(present), "via "+gateway)
		if !present {
			return rep.Fail("Default route via %s not found in the routing table", gateway), nil
		}
		return rep.Succeed("Default gateway %s configured on %s", gateway, device), nil
	})
	s.record(ctx, "configure_default_gateway", rep, lines)
	return rep, err
}

// ConfigureDNS enables name lookup and sets a name server, 8.8.8.8 when
// server is empty.
func (s *Service) ConfigureDNS(ctx context.Context, device, server string) (*ios.Report, error) {
	if server == "" {
		server = "8.8.8.8"
	}
	if err := requireIPv4("dns_server", server); err != nil {
		return nil, err
	}
	lines := []string{"ip domain-lookup", "ip name-server " + server}

	rep, err := s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		if ok, err := configure(ctx, sess, rep, lines); err != nil || !ok {
			return rep, err
		}
		verify, err := show(ctx, sess, rep, "show running-config | include name-server")
		if err != nil {
			return nil, err
		}
		rep.Add("DNS server", server)
		rep.AddCheck("Name server configured", verdict(strings.Contains(verify, server)), "")
		return rep.Succeed("DNS server %s configured on %s", server, device), nil
	})
	s.record(ctx, "configure_dns", rep, lines)
	return rep, err
}

// ChangeHostname renames device. Setting the current name again is a
// successful no-op.
func (s *Service) ChangeHostname(ctx context.Context, device, hostname string) (*ios.Report, error) {
	if err := requireHostname("new_hostname", hostname); err != nil {
		return nil, err
	}
	lines := []string{"hostname " + hostname}

	var changed bool
	rep, err := s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		out, err := sess.SendCommand(ctx, "show running-config | include hostname")
		if err != nil {
			return nil, err
		}
		current := ios.ParseHostname(out)
		rep.Add("Current hostname", orNone(current))
		if current == hostname {
			rep.Add("Changed", "no")
			return rep.Succeed("Hostname already set to '%s'. No change needed.", hostname), nil
		}

		changed = true
		if ok, err := configure(ctx, sess, rep, lines); err != nil || !ok {
			return rep, err
		}
		out, err = sess.SendCommand(ctx, "show running-config | include hostname")
		if err != nil {
			return nil, err
		}
		after := ios.ParseHostname(out)
		rep.Add("New hostname", orNone(after))
		rep.Add("Changed", "yes")
		rep.Add("Prompt", sess.Hostname())
		if after != hostname {
			return rep.Fail("Hostname on %s is '%s' after the change, expected '%s'", device, after, hostname), nil
		}
		return rep.Succeed("Hostname changed from '%s' to '%s'", current, hostname), nil
	})
	if changed {
		s.record(ctx, "change_hostname", rep, lines)
	}
	return rep, err
}

// ConfigureInterfaceDescription sets the description of an existing
// interface.
func (s *Service) ConfigureInterfaceDescription(ctx context.Context, device, iface, description string) (*ios.Report, error) {
	if err := requireInterface(iface); err != nil {
		return nil, err
	}
	if err := requireText("description", description, true); err != nil {
		return nil, err
	}
	lines := []string{"interface " + iface, "description " + description}

	var applied bool
	rep, err := s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		brief, err := sess.SendCommand(ctx, "show ip interface brief")
		if err != nil {
			return nil, err
		}
		if _, ok := ios.FindInterface(ios.ParseInterfacesBrief(brief), iface); !ok {
			rep.AddOutput("Available interfaces", brief)
			return rep.Fail("Interface '%s' not found on %s", iface, device), nil
		}

		descCmd := fmt.Sprintf("show running-config interface %s | include description", iface)
		before, err := sess.SendCommand(ctx, descCmd)
		if err != nil {
			return nil, err
		}
		applied = true
		if ok, err := configure(ctx, sess, rep, lines); err != nil || !ok {
			return rep, err
		}
		after, err := sess.SendCommand(ctx, descCmd)
		if err != nil {
			return nil, err
		}

		rep.Add("Interface", iface)
		rep.Add("Before", orNone(before))
		rep.Add("After", orNone(after))
		if !strings.Contains(after, description) {
			return rep.Fail("Description on %s was not applied", iface), nil
		}
		return rep.Succeed("Description configured on %s", iface), nil
	})
	if applied {
		s.record(ctx, "configure_interface_description", rep, lines)
	}
	return rep, err
}

// CreateLoopback creates LoopbackN. An existing loopback is left alone and
// the report fails. The mask defaults to a host mask.
func (s *Service) CreateLoopback(ctx context.Context, device string, number int, ip, mask, description string) (*ios.Report, error) {
	if err := requireRange("loopback_number", number, 0, 2147483647); err != nil {
		return nil, err
	}
	if mask == "" {
		mask = "255.255.255.255"
	}
	if err := requireIPv4("ip_address", ip); err != nil {
		return nil, err
	}
	if err := requireMask("subnet_mask", mask); err != nil {
		return nil, err
	}
	if err := requireText("description", description, false); err != nil {
		return nil, err
	}

	name := fmt.Sprintf("Loopback%d", number)
	lines := []string{"interface " + name}
	if description != "" {
		lines = append(lines, "description "+description)
	}
	lines = append(lines, fmt.Sprintf("ip address %s %s", ip, mask), "no shutdown")

	var applied bool
	rep, err := s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		rep.Add("Interface", name)
		brief, err := sess.SendCommand(ctx, "show ip interface brief")
		if err != nil {
			return nil, err
		}
		if _, exists := findExact(brief, name); exists {
			if _, err := show(ctx, sess, rep, "show running-config interface "+name); err != nil {
				return nil, err
			}
			rep.AddCheck("Safety check", ios.StatusPass, "prevented duplicate creation")
			return rep.Fail("%s already exists!", name), nil
		}

		applied = true
		if ok, err := configure(ctx, sess, rep, lines); err != nil || !ok {
			return rep, err
		}
		verify, err := sess.SendCommand(ctx, "show ip interface brief | include Loopback")
		if err != nil {
			return nil, err
		}
		rep.Add("IP address", ip)
		rep.AddCheck("Safety check", ios.StatusPass, "no conflict detected")
		if _, ok := findExact(verify, name); !ok {
			return rep.Fail("%s is not listed after creation", name), nil
		}
		return rep.Succeed("%s created successfully", name), nil
	})
	if applied {
		s.record(ctx, "create_loopback", rep, lines)
	}
	return rep, err
}

// DeleteLoopback removes LoopbackN if it exists.
func (s *Service) DeleteLoopback(ctx context.Context, device string, number int) (*ios.Report, error) {
	if err := requireRange("loopback_number", number, 0, 2147483647); err != nil {
		return nil, err
	}
	name := fmt.Sprintf("Loopback%d", number)
	lines := []string{"no interface " + name}

	var applied bool
	rep, err := s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		rep.Add("Interface", name)
		brief, err := sess.SendCommand(ctx, "show ip interface brief")
		if err != nil {
			return nil, err
		}
		if _, exists := findExact(brief, name); !exists {
			return rep.Fail("%s does not exist. Nothing to delete", name), nil
		}

		applied = true
		if ok, err := configure(ctx, sess, rep, lines); err != nil || !ok {
			return rep, err
		}
		verify, err := sess.SendCommand(ctx, "show ip interface brief | include Loopback")
		if err != nil {
			return nil, err
		}
		if _, still := findExact(verify, name); still {
			return rep.Fail("%s is still present after deletion", name), nil
		}
		return rep.Succeed("%s deleted successfully", name), nil
	})
	if applied {
		s.record(ctx, "delete_loopback", rep, lines)
	}
	return rep, err
}

// findExact looks up an interface by its full name in brief output.
func findExact(brief, name string) (ios.InterfaceBrief, bool) {
	for _, r := range ios.ParseInterfacesBrief(brief) {
		if strings.EqualFold(r.Name, name) {
			return r, true
		}
	}
	return ios.InterfaceBrief{}, false
}

// SetBanner sets a motd, login or exec banner delimited by '#'.
func (s *Service) SetBanner(ctx context.Context, device, bannerType, text string) (*ios.Report, error) {
	if bannerType == "" {
		bannerType = "motd"
	}
	if err := requireOneOf("banner_type", bannerType, BannerTypes); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, invalidArgf("banner_text is required")
	}
	if strings.Contains(text, "#") {
		return nil, invalidArgf("banner text cannot contain '#' character (used as delimiter)")
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := []string{fmt.Sprintf("banner %s #\n%s\n#", bannerType, text)}
	sectionCmd := "show running-config | section banner " + bannerType

	rep, err := s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		before, err := sess.SendCommand(ctx, sectionCmd)
		if err != nil {
			return nil, err
		}
		if ok, err := configure(ctx, sess, rep, lines); err != nil || !ok {
			return rep, err
		}
		after, err := sess.SendCommand(ctx, sectionCmd)
		if err != nil {
			return nil, err
		}

		rep.Add("Banner type", bannerType)
		rep.AddOutput("Before", orNone(before))
		rep.AddOutput("After", after)
		first := strings.TrimSpace(ios.Lines(strings.TrimSpace(text))[0])
		if !strings.Contains(after, first) {
			return rep.Fail("Banner %s was not applied", bannerType), nil
		}
		return rep.Succeed("Banner %s configured successfully", bannerType), nil
	})
	s.record(ctx, "set_banner", rep, lines)
	return rep, err
}

// RemoveBanner removes a banner. A missing banner is reported, not failed.
func (s *Service) RemoveBanner(ctx context.Context, device, bannerType string) (*ios.Report, error) {
	if bannerType == "" {
		bannerType = "motd"
	}
	if err := requireOneOf("banner_type", bannerType, BannerTypes); err != nil {
		return nil, err
	}
	lines := []string{"no banner " + bannerType}
	sectionCmd := "show running-config | section banner " + bannerType

	var applied bool
	rep, err := s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		rep.Add("Banner type", bannerType)
		before, err := sess.SendCommand(ctx, sectionCmd)
		if err != nil {
			return nil, err
		}
		if !strings.Contains(before, "banner "+bannerType) {
			return rep.Succeed("No %s banner configured. Nothing to remove.", bannerType), nil
		}

		applied = true
		if ok, err := configure(ctx, sess, rep, lines); err != nil || !ok {
			return rep, err
		}
		after, err := sess.SendCommand(ctx, sectionCmd)
		if err != nil {
			return nil, err
		}
		rep.AddOutput("Before", before)
		if strings.Contains(after, "banner "+bannerType) {
			return rep.Fail("Banner %s is still configured", bannerType), nil
		}
		return rep.Succeed("Banner %s removed successfully", bannerType), nil
	})
	if applied {
		s.record(ctx, "remove_banner", rep, lines)
	}
	return rep, err
}

// ConfigureStaticRoute adds a static route and saves the configuration.
// A description becomes the route's name, with blanks replaced by '_'.
func (s *Service) ConfigureStaticRoute(ctx context.Context, device, destination, mask, nextHop, description string) (*ios.Report, error) {
	if err := requireIPv4("destination_network", destination); err != nil {
		return nil, err
	}
	if err := requireMask("subnet_mask", mask); err != nil {
		return nil, err
	}
	if err := requireIPv4("next_hop_ip", nextHop); err != nil {
		return nil, err
	}
	if err := requireText("description", description, false); err != nil {
		return nil, err
	}

	line := fmt.Sprintf("ip route %s %s %s", destination, mask, nextHop)
	if description != "" {
		line += " name " + strings.Join(strings.Fields(description), "_")
	}
	lines := []string{line}

	rep, err := s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		before, err := sess.SendCommand(ctx, "show ip route")
		if err != nil {
			return nil, err
		}
		if ok, err := configure(ctx, sess, rep, lines); err != nil || !ok {
			return rep, err
		}
		if err := s.writeMemory(ctx, sess, rep); err != nil {
			return nil, err
		}
		after, err := sess.SendCommand(ctx, "show ip route")
		if err != nil {
			return nil, err
		}

		rep.Add("Destination", destination)
		rep.Add("Mask", mask)
		rep.Add("Next hop", nextHop)
		rep.Add("Routes before", len(ios.ParseRoutes(before)))
		rep.Add("Routes after", len(ios.ParseRoutes(after)))
		rep.AddOutput("Routing table after", after)
		return rep.Succeed("Static route configured successfully"), nil
	})
	s.record(ctx, "configure_static_route", rep, lines)
	return rep, err
}

// ConfigureNATOverload configures PAT: traffic from the inside network
// leaves through outsideIface. Interfaces whose address shares the first
// three octets of network become NAT inside interfaces.
func (s *Service) ConfigureNATOverload(ctx context.Context, device, outsideIface, network, wildcard string) (*ios.Report, error) {
	if err := requireInterface(outsideIface); err != nil {
		return nil, err
	}
	if err := requireIPv4("inside_network", network); err != nil {
		return nil, err
	}
	if err := requireWildcard("inside_mask", wildcard); err != nil {
		return nil, err
	}

	var lines []string
	rep, err := s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		if _, err := show(ctx, sess, rep, "show ip nat translations"); err != nil {
			return nil, err
		}
		brief, err := sess.SendCommand(ctx, "show ip interface brief")
		if err != nil {
			return nil, err
		}

		prefix := network[:strings.LastIndex(network, ".")+1]
		var inside []string
		for _, r := range ios.ParseInterfacesBrief(brief) {
			if strings.HasPrefix(r.IP, prefix) && !strings.EqualFold(r.Name, outsideIface) {
				inside = append(inside, r.Name)
			}
		}

		lines = []string{
			fmt.Sprintf("access-list 1 permit %s %s", network, wildcard),
			"interface " + outsideIface,
			"ip nat outside",
			"exit",
		}
		for _, name := range inside {
			lines = append(lines, "interface "+name, "ip nat inside", "exit")
		}
		lines = append(lines, fmt.Sprintf("ip nat inside source list 1 interface %s overload", outsideIface))

		if ok, err := configure(ctx, sess, rep, lines); err != nil || !ok {
			return rep, err
		}
		if err := s.writeMemory(ctx, sess, rep); err != nil {
			return nil, err
		}
		if _, err := show(ctx, sess, rep, "show ip nat statistics"); err != nil {
			return nil, err
		}

		rep.Add("Outside interface", outsideIface)
		rep.Add("Inside network", network+" "+wildcard)
		rep.AddList("Inside interfaces", inside)
		if len(inside) == 0 {
			rep.AddCheck("Inside interfaces", ios.StatusWarning, "no interface address in "+prefix+"0")
		}
		return rep.Succeed("NAT overload configured successfully"), nil
	})
	s.record(ctx, "configure_nat_overload", rep, lines)
	return rep, err
}

// ApplyConfig sends arbitrary configuration lines in one configuration
// session. Nothing is read back; the caller verifies with a show operation.
func (s *Service) ApplyConfig(ctx context.Context, device string, lines []string) (*ios.Report, error) {
	var set []string
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := requireText(fmt.Sprintf("lines[%d]", i), line, true); err != nil {
			return nil, err
		}
		set = append(set, line)
	}
	if len(set) == 0 {
		return nil, invalidArgf("at least one configuration line is required")
	}

	rep, err := s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		rep.Add("Lines", len(set))
		if ok, err := configure(ctx, sess, rep, set); err != nil || !ok {
			return rep, err
		}
		return rep.Succeed("Applied %d configuration lines to %s", len(set), device), nil
	})
	s.record(ctx, "apply_config", rep, set)
	return rep, err
}

// SaveConfig runs "write memory" when the running configuration differs
// from the startup configuration.
func (s *Service) SaveConfig(ctx context.Context, device string) (*ios.Report, error) {
	var saved bool
	rep, err := s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		diff, err := compareConfigs(ctx, sess)
		if err != nil {
			return nil, err
		}
		if !diff.HasChanges() {
			rep.Add("Saved", "no")
			return rep.Succeed("No changes to save"), nil
		}

		if err := s.writeMemory(ctx, sess, rep); err != nil {
			return nil, err
		}
		saved = true
		rep.Add("Saved", "yes")
		rep.Add("Changes saved", len(diff.Added)+len(diff.Removed))
		return rep.Succeed("Configuration saved successfully"), nil
	})
	if saved {
		s.record(ctx, "save_config", rep, []string{"write memory"})
	}
	return rep, err
}

// Backup writes the running configuration of device to
// dir/<device>_config_<YYYYmmdd_HHMMSS>.txt, using Options.BackupDir when
// dir is empty.
func (s *Service) Backup(ctx context.Context, device, dir string) (*ios.Report, error) {
	if dir == "" {
		dir = s.opts.BackupDir
	}
	return s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		running, err := sess.SendCommand(ctx, "show running-config")
		if err != nil {
			return nil, err
		}

		now := s.opts.Now()
		stamp := now.Format("20060102_150405")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create backup directory: %w", err)
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_config_%s.txt", device, stamp))

		var b strings.Builder
		fmt.Fprintf(&b, "! Backup of %s\n", device)
		fmt.Fprintf(&b, "! Date: %s\n", now.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(&b, "! Device: %s\n\n", sess.Device().Host)
		b.WriteString(running)
		b.WriteString("\n")

		if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
			return nil, fmt.Errorf("write backup: %w", err)
		}

		rep.Add("Filename", path)
		rep.Add("Timestamp", stamp)
		rep.Add("Size (bytes)", b.Len())

		if s.rec != nil {
			_, err := s.rec.RecordBackup(context.WithoutCancel(ctx), history.Backup{
				Device:    device,
				Path:      path,
				Size:      int64(b.Len()),
				CreatedAt: now.UTC(),
			})
			if err != nil {
				s.log.Warnf("Recording backup of %s: %v", device, err)
			}
		}
		s.log.Printf("Backed up %s to %s", device, path)
		return rep.Succeed("Configuration backed up to %s", path), nil
	})
}
