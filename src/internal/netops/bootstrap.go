// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netops

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/inventory"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/ios"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/netssh"
)

var (
	modulusQuestion = regexp.MustCompile(`(?i)how many bits in the modulus[^:]*:\s*$`)
	replaceKeys     = regexp.MustCompile(`(?i)replace them\?\s*\[yes/no\]:\s*$`)
)

// BootstrapRequest describes a router to be given SSH access from a jump
// router it is reachable from by telnet.
type BootstrapRequest struct {
	// JumpHost is the inventory device the target is reached from.
	JumpHost string
	TargetIP string
	Hostname string
	Username string
	// Password becomes the local user's secret and the enable secret.
	Password string
	Domain   string
}

func (r BootstrapRequest) validate() error {
	if err := requireDevice(r.JumpHost); err != nil {
		return err
	}
	if err := requireIPv4("target_ip", r.TargetIP); err != nil {
		return err
	}
	if err := requireHostname("hostname", r.Hostname); err != nil {
		return err
	}
	if err := requireUsername(r.Username); err != nil {
		return err
	}
	if err := requireSecret("password", r.Password); err != nil {
		return err
	}
	return requireDomain(r.Domain)
}

func (r BootstrapRequest) configLines() []string {
	return []string{
		"hostname " + r.Hostname,
		"ip domain-name " + r.Domain,
		"crypto key generate rsa",
		"ip ssh version 2",
		fmt.Sprintf("username %s privilege 15 secret %s", r.Username, r.Password),
		"line vty 0 4",
		"login local",
		"transport input ssh",
		"exec-timeout 0 0",
		"exit",
		"line con 0",
		"exec-timeout 0 0",
		"privilege level 15",
		"exit",
	}
}

// BootstrapSSH telnets from the jump host to an unconfigured router,
// configures a hostname, RSA keys, a local user and SSH-only VTY lines,
// saves, then verifies that the router accepts SSH through the jump host.
func (s *Service) BootstrapSSH(ctx context.Context, req BootstrapRequest) (*ios.Report, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	lines := req.configLines()

	var configured bool
	rep, err := s.withSession(ctx, req.JumpHost, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(req.Hostname)
		rep.Add("Jump host", req.JumpHost)
		rep.Add("Target", req.TargetIP)

		out, err := s.ping(ctx, sess, req.TargetIP, 3)
		if err != nil {
			return nil, err
		}
		rep.AddOutput("ping "+req.TargetIP, out)
		if !strings.Contains(out, "!!!") {
			rep.AddCheck("Target reachable", ios.StatusFail, "from "+req.JumpHost)
			return rep.Fail("Target %s is not reachable from %s", req.TargetIP, req.JumpHost), nil
		}
		rep.AddCheck("Target reachable", ios.StatusPass, "from "+req.JumpHost)

		creds := netssh.Credentials{Username: req.Username, Password: req.Password, Secret: req.Password}
		if err := sess.Reach(ctx, "telnet "+req.TargetIP, creds); err != nil {
			rep.AddCheck("Telnet", ios.StatusFail, err.Error())
			return rep.Fail("Could not log in to %s by telnet from %s: %v", req.TargetIP, req.JumpHost, err), nil
		}
		rep.AddCheck("Telnet", ios.StatusPass, "logged in")

		if ok, err := configure(ctx, sess, rep, lines,
			netssh.Answer{Pattern: modulusQuestion, Reply: "2048"},
			netssh.Answer{Pattern: replaceKeys, Reply: "yes"},
		); err != nil || !ok {
			return rep, err
		}
		if err := s.writeMemory(ctx, sess, rep); err != nil {
			return nil, err
		}
		rep.AddCheck("SSH configuration", ios.StatusPass, "saved")
		configured = true
		return rep, nil
	})
	if err != nil || !configured {
		s.record(ctx, "bootstrap_ssh", rep, redact(lines, req.Password))
		return rep, err
	}

	if s.opts.VerifyDelay > 0 {
		t := time.NewTimer(s.opts.VerifyDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	dev := inventory.Device{
		Name:     req.Hostname,
		Host:     req.TargetIP,
		Username: req.Username,
		Password: req.Password,
		Secret:   req.Password,
		JumpHost: req.JumpHost,
	}
	if err := s.verifySSH(ctx, dev, rep); err != nil {
		rep.AddCheck("SSH verification", ios.StatusFail, err.Error())
		rep.Fail("SSH configuration completed but verification failed: %v", err)
	} else {
		rep.AddCheck("SSH verification", ios.StatusPass, "logged in over SSH")
		rep.Succeed("SSH enabled on %s (%s); reachable through %s", req.Hostname, req.TargetIP, req.JumpHost)
	}
	s.record(ctx, "bootstrap_ssh", rep, redact(lines, req.Password))
	return rep, nil
}

func (s *Service) verifySSH(ctx context.Context, dev inventory.Device, rep *ios.Report) error {
	sess, err := s.conn.ConnectDevice(ctx, dev)
	if err != nil {
		return err
	}
	defer s.closeSession(dev.Name, sess)

	out, err := sess.SendCommand(ctx, "show version | include IOS")
	if err != nil {
		return err
	}
	rep.AddOutput("show version | include IOS", out)
	return nil
}

// redact replaces secret in lines so audit entries never carry it.
func redact(lines []string, secret string) []string {
	out := slices.Clone(lines)
	for i, l := range out {
		out[i] = strings.ReplaceAll(l, secret, "******")
	}
	return out
}
