// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netops

import (
	"context"
	"fmt"
	"net/netip"
	"strings"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/ios"
)

// Overall verdicts of DiagnoseConnectivity.
const (
	StatusHealthy        = "HEALTHY"
	StatusIssuesDetected = "ISSUES DETECTED"
)

// InternetConnectivity pings an internet host, 8.8.8.8 by default, and for
// an address target also checks name resolution.
func (s *Service) InternetConnectivity(ctx context.Context, device, target string, count int) (*ios.Report, error) {
	if target == "" {
		target = "8.8.8.8"
	}
	if err := requireTarget("target", target); err != nil {
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
		online := rate > 0
		rep.Add("Target", target)
		rep.Add("Success rate", fmt.Sprintf("%d%%", max(rate, 0)))
		rep.AddCheck("Internet reachability", verdict(online), target)

		if ios.IsIPv4(target) {
			dns, err := s.ping(ctx, sess, "www.google.com", 1)
			if err != nil {
				return nil, err
			}
			rep.AddOutput("ping www.google.com", dns)
			resolved := strings.Contains(dns, "Sending") && !strings.Contains(dns, "Unrecognized host")
			rep.AddCheck("DNS resolution", verdict(resolved), "www.google.com")
		}

		rep.Status = verdict(online)
		if !online {
			return rep.Fail("Internet NOT accessible from %s", device), nil
		}
		return rep.Succeed("Internet accessible from %s", device), nil
	})
}

// Traceroute traces the path from device to target.
func (s *Service) Traceroute(ctx context.Context, device, target string) (*ios.Report, error) {
	if err := requireTarget("target_ip", target); err != nil {
		return nil, err
	}
	return s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		cmd := "traceroute " + target
		out, err := sess.SendCommandTimeout(ctx, cmd, s.opts.LongCommandTimeout)
		if err != nil {
			return nil, err
		}
		rep.AddOutput(cmd, out)

		hops := ios.ParseTracerouteHops(out)
		rep.Add("Target", target)
		rep.Add("Hops", len(hops))
		rep.AddList("Path", hops)
		return rep.Succeed("Traceroute to %s completed", target), nil
	})
}

// PingSweep pings network.start through network.end, capped at
// Options.SweepLimit hosts past start.
func (s *Service) PingSweep(ctx context.Context, device, network string, start, end int) (*ios.Report, error) {
	if err := requireNetworkPrefix(network); err != nil {
		return nil, err
	}
	if start == 0 {
		start = 1
	}
	if end == 0 {
		end = 254
	}
	if err := requireRange("start", start, 1, 254); err != nil {
		return nil, err
	}
	if err := requireRange("end", end, 1, 254); err != nil {
		return nil, err
	}
	if end < start {
		return nil, invalidArgf("end (%d) is lower than start (%d)", end, start)
	}
	capped := false
	if end-start > s.opts.SweepLimit {
		end = start + s.opts.SweepLimit
		capped = true
	}

	return s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		var active []string
		for host := start; host <= end; host++ {
			ip := fmt.Sprintf("%s.%d", network, host)
			out, err := sess.SendCommandTimeout(ctx, fmt.Sprintf("ping %s repeat 2 timeout 1", ip), s.opts.LongCommandTimeout)
			if err != nil {
				return nil, err
			}
			if strings.Contains(out, "!!") || strings.Contains(out, "Success rate is 100") {
				active = append(active, ip)
			}
		}

		rep.Add("Range", fmt.Sprintf("%s.%d - %s.%d", network, start, network, end))
		rep.Add("Scanned", end-start+1)
		rep.Add("Active hosts", len(active))
		if capped {
			rep.Add("Note", fmt.Sprintf("range capped to %d hosts", s.opts.SweepLimit+1))
		}
		rep.AddList("Active", active)
		return rep.Succeed("Ping sweep found %d active hosts", len(active)), nil
	})
}

// DiagnoseConnectivity walks interfaces, reachability, routing, NAT and
// interface errors to explain why target may be unreachable.
func (s *Service) DiagnoseConnectivity(ctx context.Context, device, target string) (*ios.Report, error) {
	if err := requireTarget("target_ip", target); err != nil {
		return nil, err
	}

	return s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		var passed, issues, suggestions []string

		brief, err := sess.SendCommand(ctx, "show ip interface brief")
		if err != nil {
			return nil, err
		}
		var down []string
		for _, r := range ios.ParseInterfacesBrief(brief) {
			if r.IP != "unassigned" && !r.Up() {
				down = append(down, r.Name)
			}
		}
		if len(down) == 0 {
			passed = append(passed, "All addressed interfaces are up")
		} else {
			issues = append(issues, "Interfaces down: "+strings.Join(down, ", "))
			suggestions = append(suggestions, "Check cabling and 'no shutdown' on "+strings.Join(down, ", "))
		}

		out, err := s.ping(ctx, sess, target, 5)
		if err != nil {
			return nil, err
		}
		rep.AddOutput("ping "+target, out)
		reachable := strings.Contains(out, "!!!")
		if reachable {
			passed = append(passed, "Ping to "+target+" succeeded")
		} else {
			issues = append(issues, "Ping to "+target+" failed")

			routes, err := sess.SendCommand(ctx, "show ip route")
			if err != nil {
				return nil, err
			}
			if hasRouteTo(routes, target) {
				passed = append(passed, "A route to "+target+" exists")
			} else {
				issues = append(issues, "No route to "+target)
				suggestions = append(suggestions, "Add a static route or a default gateway")
			}

			if !strings.HasPrefix(target, "10.") {
				nat, err := sess.SendCommand(ctx, "show ip nat statistics")
				if err != nil {
					return nil, err
				}
				if ios.Rejected(nat) || strings.Contains(nat, "Total active translations: 0") {
					issues = append(issues, "No active NAT translations")
					suggestions = append(suggestions, "Configure NAT overload for traffic leaving the site")
				} else {
					passed = append(passed, "NAT translations are active")
				}
			}
		}

		stats, err := sess.SendCommand(ctx, "show interfaces")
		if err != nil {
			return nil, err
		}
		if errs := ios.InterfaceErrors(stats); len(errs) > 0 {
			issues = append(issues, fmt.Sprintf("%d interface error counters are non-zero", len(errs)))
			suggestions = append(suggestions, "Inspect duplex, speed and cabling on interfaces with errors")
			rep.AddList("Interface errors", errs)
		} else {
			passed = append(passed, "No interface errors")
		}

		rep.Add("Target", target)
		rep.AddList("Tests passed", passed)
		rep.AddList("Issues found", issues)
		rep.AddList("Suggestions", suggestions)
		if len(issues) == 0 {
			rep.Status = StatusHealthy
		} else {
			rep.Status = StatusIssuesDetected
		}
		return rep.Succeed("Diagnosis of %s from %s: %s", target, device, rep.Status), nil
	})
}

// hasRouteTo reports whether a connected, static or dynamic route or a
// default route covers target.
func hasRouteTo(routeOutput, target string) bool {
	if ios.HasDefaultGateway(routeOutput) {
		return true
	}
	addr, err := netip.ParseAddr(target)
	if err != nil {
		return strings.Contains(routeOutput, target)
	}
	for _, r := range ios.ParseRoutes(routeOutput) {
		if !strings.Contains(r.Prefix, "/") {
			// Subnets listed under a "is subnetted" header omit the length.
			if ios.SameSubnet24(r.Prefix, target) {
				return true
			}
			continue
		}
		p, err := netip.ParsePrefix(r.Prefix)
		if err != nil {
			continue
		}
		if p.Bits() == 0 || p.Contains(addr) {
			return true
		}
	}
	return false
}

// EndToEnd finds a pair of addresses sharing a /24 on src and dst and
// pings in both directions.
func (s *Service) EndToEnd(ctx context.Context, src, dst string) (*ios.Report, error) {
	if err := requireDevice(src); err != nil {
		return nil, err
	}
	if err := requireDevice(dst); err != nil {
		return nil, err
	}

	dstBrief, err := s.briefOf(ctx, dst)
	if err != nil {
		return nil, err
	}

	return s.withSession(ctx, src, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(src)
		srcBrief, err := sess.SendCommand(ctx, "show ip interface brief")
		if err != nil {
			return nil, err
		}

		var srcIP, dstIP string
	pair:
		for _, a := range ios.ParseInterfacesBrief(srcBrief) {
			for _, b := range ios.ParseInterfacesBrief(dstBrief) {
				if ios.SameSubnet24(a.IP, b.IP) {
					srcIP, dstIP = a.IP, b.IP
					break pair
				}
			}
		}
		rep.Add("Source", src)
		rep.Add("Destination", dst)
		if srcIP == "" {
			rep.Status = ios.StatusFail
			return rep.Fail("%s and %s share no directly connected subnet", src, dst), nil
		}
		rep.Add("Source IP", srcIP)
		rep.Add("Destination IP", dstIP)

		forward, err := s.ping(ctx, sess, dstIP, s.opts.PingCount)
		if err != nil {
			return nil, err
		}
		rep.AddOutput(fmt.Sprintf("%s -> %s", src, dst), forward)
		forwardOK := ios.ParseSuccessRate(forward) == 100
		rep.AddCheck(src+" -> "+dst, verdict(forwardOK), dstIP)

		reverse, err := s.pingFrom(ctx, dst, srcIP)
		if err != nil {
			return nil, err
		}
		rep.AddOutput(fmt.Sprintf("%s -> %s", dst, src), reverse)
		reverseOK := ios.ParseSuccessRate(reverse) == 100
		rep.AddCheck(dst+" -> "+src, verdict(reverseOK), srcIP)

		pass := forwardOK && reverseOK
		rep.Status = verdict(pass)
		if !pass {
			return rep.Fail("End-to-end test between %s and %s failed", src, dst), nil
		}
		return rep.Succeed("End-to-end connectivity between %s and %s verified", src, dst), nil
	})
}

func (s *Service) briefOf(ctx context.Context, device string) (string, error) {
	sess, err := s.conn.Connect(ctx, device)
	if err != nil {
		return "", err
	}
	defer s.closeSession(device, sess)
	return sess.SendCommand(ctx, "show ip interface brief")
}

func (s *Service) pingFrom(ctx context.Context, device, target string) (string, error) {
	sess, err := s.conn.Connect(ctx, device)
	if err != nil {
		return "", err
	}
	defer s.closeSession(device, sess)
	return s.ping(ctx, sess, target, s.opts.PingCount)
}
