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

// ValidateInterface checks that an interface is up and, when expectedIP is
// set, that it carries that address.
func (s *Service) ValidateInterface(ctx context.Context, device, iface, expectedIP string) (*ios.Report, error) {
	if err := requireInterface(iface); err != nil {
		return nil, err
	}
	if expectedIP != "" {
		if err := requireIPv4("expected_ip", expectedIP); err != nil {
			return nil, err
		}
	}

	return s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		brief, err := show(ctx, sess, rep, "show ip interface brief | include "+iface)
		if err != nil {
			return nil, err
		}
		if _, err := show(ctx, sess, rep, "show interface "+iface); err != nil {
			return nil, err
		}
		if _, err := show(ctx, sess, rep, "show ip interface "+iface); err != nil {
			return nil, err
		}

		rep.Add("Interface", iface)
		row, found := ios.FindInterface(ios.ParseInterfacesBrief(brief), iface)
		if !found {
			rep.Status = ios.StatusFail
			rep.AddCheck("Present", ios.StatusFail, "not listed by show ip interface brief")
			return rep.Fail("Interface %s not found on %s", iface, device), nil
		}

		pass := row.Up()
		rep.AddCheck("Status", verdict(row.Status == "up"), row.Status)
		rep.AddCheck("Protocol", verdict(row.Protocol == "up"), row.Protocol)
		if expectedIP != "" {
			match := row.IP == expectedIP
			pass = pass && match
			rep.AddCheck("IP address", verdict(match), fmt.Sprintf("expected %s, found %s", expectedIP, row.IP))
		}

		rep.Status = verdict(pass)
		if !pass {
			return rep.Fail("Interface %s failed validation", iface), nil
		}
		return rep.Succeed("Interface %s passed validation", iface), nil
	})
}

// ValidateConnectivity pings target from device and passes only on a 100
// percent success rate.
func (s *Service) ValidateConnectivity(ctx context.Context, device, target string, count int) (*ios.Report, error) {
	if err := requireTarget("target_ip", target); err != nil {
		return nil, err
	}
	if count == 0 {
		count = s.opts.PingCount
	}
	if err := requireRange("count", count, 1, 100); err != nil {
		return nil, err
	}

	return s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		out, err := s.ping(ctx, sess, target, count)
		if err != nil {
			return nil, err
		}
		rep.AddOutput("ping "+target, out)

		rate := ios.ParseSuccessRate(out)
		rep.Add("Target", target)
		rep.Add("Packets", count)
		if rate < 0 {
			rep.Add("Success rate", "unknown")
		} else {
			rep.Add("Success rate", fmt.Sprintf("%d%%", rate))
		}

		rep.Status = verdict(rate == 100)
		if rate != 100 {
			return rep.Fail("Connectivity to %s failed from %s", target, device), nil
		}
		return rep.Succeed("Connectivity to %s verified from %s", target, device), nil
	})
}

// ValidateOSPF passes when at least one adjacency is FULL and every
// expected neighbor ID appears in the neighbor table.
func (s *Service) ValidateOSPF(ctx context.Context, device string, expectedNeighbors []string) (*ios.Report, error) {
	for _, n := range expectedNeighbors {
		if err := requireIPv4("expected_neighbors", n); err != nil {
			return nil, err
		}
	}

	return s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		out, err := show(ctx, sess, rep, "show ip ospf neighbor")
		if err != nil {
			return nil, err
		}

		full := ios.CountOSPFFull(out)
		rep.Add("FULL neighbors", full)
		rep.AddCheck("Adjacency", verdict(full > 0), fmt.Sprintf("%d FULL", full))

		var missing []string
		for _, n := range expectedNeighbors {
			if !strings.Contains(out, n) {
				missing = append(missing, n)
			}
		}
		if len(expectedNeighbors) > 0 {
			rep.AddCheck("Expected neighbors", verdict(len(missing) == 0),
				fmt.Sprintf("%d of %d present", len(expectedNeighbors)-len(missing), len(expectedNeighbors)))
			rep.AddList("Missing neighbors", missing)
		}

		pass := full > 0 && len(missing) == 0
		rep.Status = verdict(pass)
		if !pass {
			return rep.Fail("OSPF validation failed on %s", device), nil
		}
		return rep.Succeed("OSPF validation passed on %s", device), nil
	})
}

// ValidateRoutes checks that each expected prefix is in the routing table.
func (s *Service) ValidateRoutes(ctx context.Context, device string, expectedRoutes []string) (*ios.Report, error) {
	return s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		out, err := show(ctx, sess, rep, "show ip route")
		if err != nil {
			return nil, err
		}
		if _, err := show(ctx, sess, rep, "show ip route ospf"); err != nil {
			return nil, err
		}

		routes := ios.ParseRoutes(out)
		rep.Add("Routes", len(routes))
		rep.Add("Default gateway", yesNo(ios.HasDefaultGateway(out)))

		var missing []string
		for _, want := range expectedRoutes {
			if !strings.Contains(out, want) {
				missing = append(missing, want)
			}
		}
		rep.AddList("Missing routes", missing)

		pass := len(missing) == 0
		rep.Status = verdict(pass)
		if !pass {
			return rep.Fail("%d expected routes missing on %s", len(missing), device), nil
		}
		return rep.Succeed("All %d expected routes present on %s", len(expectedRoutes), device), nil
	})
}

// ComprehensiveValidation runs reachability, interface, OSPF and routing
// checks. The result passes when no check failed; warnings do not fail it.
func (s *Service) ComprehensiveValidation(ctx context.Context, device string) (*ios.Report, error) {
	return s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		rep.AddCheck("Device Reachability", ios.StatusPass, "session established")

		brief, err := sess.SendCommand(ctx, "show ip interface brief")
		if err != nil {
			return nil, err
		}
		var down []string
		for _, r := range ios.ParseInterfacesBrief(brief) {
			if !r.Up() {
				down = append(down, r.Name)
			}
		}
		if len(down) > 0 {
			rep.AddCheck("Interface Status", ios.StatusWarning, fmt.Sprintf("%d interfaces not up", len(down)))
			rep.AddList("Interfaces not up", down)
		} else {
			rep.AddCheck("Interface Status", ios.StatusPass, "all interfaces up")
		}

		neighbors, err := sess.SendCommand(ctx, "show ip ospf neighbor")
		if err != nil {
			return nil, err
		}
		if full := ios.CountOSPFFull(neighbors); full > 0 {
			rep.AddCheck("OSPF Neighbors", ios.StatusPass, fmt.Sprintf("%d FULL", full))
		} else {
			rep.AddCheck("OSPF Neighbors", ios.StatusFail, "no FULL adjacency")
		}

		routes, err := sess.SendCommand(ctx, "show ip route")
		if err != nil {
			return nil, err
		}
		if strings.Contains(routes, "Gateway of last resort") {
			rep.AddCheck("Routing Table", ios.StatusPass, fmt.Sprintf("%d routes", len(ios.ParseRoutes(routes))))
		} else {
			rep.AddCheck("Routing Table", ios.StatusWarning, "gateway of last resort not reported")
		}

		pass := true
		for _, c := range rep.Checks {
			if c.Status == ios.StatusFail {
				pass = false
			}
		}
		rep.Status = verdict(pass)
		if !pass {
			return rep.Fail("Comprehensive validation failed on %s", device), nil
		}
		return rep.Succeed("Comprehensive validation passed on %s", device), nil
	})
}

// CheckSSHStatus reports whether SSH is enabled and RSA keys exist.
func (s *Service) CheckSSHStatus(ctx context.Context, device string) (*ios.Report, error) {
	return s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		out, err := show(ctx, sess, rep, "show ip ssh")
		if err != nil {
			return nil, err
		}
		keys, err := show(ctx, sess, rep, "show crypto key mypubkey rsa")
		if err != nil {
			return nil, err
		}

		st := ios.ParseSSHStatus(out)
		hasKeys := strings.Contains(keys, "Key pair") || strings.Contains(keys, "Key name:")
		rep.Add("SSH enabled", yesNo(st.Enabled))
		rep.Add("SSH version", orNone(st.Version))
		rep.Add("RSA keys", yesNo(hasKeys))
		rep.AddCheck("SSH server", verdict(st.Enabled), orNone(st.Version))
		rep.AddCheck("RSA keys", verdict(hasKeys), "")
		return rep.Succeed("SSH status retrieved from %s", device), nil
	})
}
