// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netops

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/ios"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/netssh"
	"github.com/xeipuuv/gojsonschema"
)

// OSPFNetwork is one "network ... area ..." statement.
type OSPFNetwork struct {
	Network  string `json:"network,omitempty"`
	Wildcard string `json:"wildcard,omitempty"`
	Area     int    `json:"area"`
}

const ospfNetworksSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "properties": {
      "network":  {"type": "string", "format": "ipv4"},
      "wildcard": {"type": "string", "format": "ipv4"},
      "area":     {"type": "integer", "minimum": 0}
    }
  }
}`

var ospfNetworksSchemaLoader = gojsonschema.NewStringLoader(ospfNetworksSchema)

func validateOSPFNetworks(networks []OSPFNetwork) error {
	if networks == nil {
		networks = []OSPFNetwork{}
	}
	result, err := gojsonschema.Validate(ospfNetworksSchemaLoader, gojsonschema.NewGoLoader(networks))
	if err != nil {
		return invalidArgf("networks: %v", err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return invalidArgf("networks: %s", strings.Join(problems, "; "))
}

var (
	clearOSPFConfirm = regexp.MustCompile(`(?i)reset all ospf processes\?\s*\[no\]:\s*$`)
	confirmPrompt    = regexp.MustCompile(`\[confirm\]\s*$`)
)

// ConfigureOSPF enables OSPF process pid and advertises networks. Entries
// without a network or wildcard are skipped.
func (s *Service) ConfigureOSPF(ctx context.Context, device string, pid int, networks []OSPFNetwork, originateDefault bool) (*ios.Report, error) {
	if err := requireRange("process_id", pid, 1, 65535); err != nil {
		return nil, err
	}
	if err := validateOSPFNetworks(networks); err != nil {
		return nil, err
	}

	lines := []string{fmt.Sprintf("router ospf %d", pid)}
	for _, n := range networks {
		if n.Network == "" || n.Wildcard == "" {
			s.log.Warnf("Skipping OSPF network entry without network or wildcard: %+v", n)
			continue
		}
		if err := requireWildcard("wildcard", n.Wildcard); err != nil {
			return nil, err
		}
		lines = append(lines, fmt.Sprintf("network %s %s area %d", n.Network, n.Wildcard, n.Area))
	}
	advertised := len(lines) - 1
	if advertised == 0 {
		return nil, invalidArgf("networks: no entry has both network and wildcard")
	}
	if originateDefault {
		lines = append(lines, "default-information originate")
	}

	rep, err := s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		if ok, err := configure(ctx, sess, rep, lines); err != nil || !ok {
			return rep, err
		}
		if _, err := show(ctx, sess, rep, fmt.Sprintf("show ip ospf %d", pid)); err != nil {
			return nil, err
		}
		neighbors, err := show(ctx, sess, rep, "show ip ospf neighbor")
		if err != nil {
			return nil, err
		}

		rep.Add("Process ID", pid)
		rep.Add("Networks", advertised)
		rep.Add("Default originate", yesNo(originateDefault))
		rep.Add("FULL neighbors", ios.CountOSPFFull(neighbors))
		return rep.Succeed("OSPF process %d configured on %s", pid, device), nil
	})
	s.record(ctx, "configure_ospf", rep, lines)
	return rep, err
}

// VerifyOSPFNeighbors reports OSPF adjacencies and OSPF routes.
func (s *Service) VerifyOSPFNeighbors(ctx context.Context, device string) (*ios.Report, error) {
	return s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		neighbors, err := show(ctx, sess, rep, "show ip ospf neighbor")
		if err != nil {
			return nil, err
		}
		if _, err := show(ctx, sess, rep, "show ip ospf"); err != nil {
			return nil, err
		}
		routes, err := show(ctx, sess, rep, "show ip route ospf")
		if err != nil {
			return nil, err
		}

		full := ios.CountOSPFFull(neighbors)
		rep.Add("FULL neighbors", full)
		rep.Add("OSPF routes", len(ios.ParseRoutes(routes)))
		if full == 0 {
			rep.AddCheck("Adjacency", ios.StatusWarning, "no neighbor in FULL state")
		} else {
			rep.AddCheck("Adjacency", ios.StatusPass, fmt.Sprintf("%d FULL", full))
		}
		return rep.Succeed("OSPF verification completed on %s", device), nil
	})
}

// ConfigureOSPFInterface sets the OSPF cost and/or priority of an
// interface. At least one of them is required.
func (s *Service) ConfigureOSPFInterface(ctx context.Context, device, iface string, cost, priority *int) (*ios.Report, error) {
	if err := requireInterface(iface); err != nil {
		return nil, err
	}
	if cost == nil && priority == nil {
		return nil, invalidArgf("at least one of cost or priority is required")
	}
	lines := []string{"interface " + iface}
	if cost != nil {
		if err := requireRange("cost", *cost, 1, 65535); err != nil {
			return nil, err
		}
		lines = append(lines, fmt.Sprintf("ip ospf cost %d", *cost))
	}
	if priority != nil {
		if err := requireRange("priority", *priority, 0, 255); err != nil {
			return nil, err
		}
		lines = append(lines, fmt.Sprintf("ip ospf priority %d", *priority))
	}

	rep, err := s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		if ok, err := configure(ctx, sess, rep, lines); err != nil || !ok {
			return rep, err
		}
		if _, err := show(ctx, sess, rep, "show ip ospf interface "+iface); err != nil {
			return nil, err
		}
		rep.Add("Interface", iface)
		if cost != nil {
			rep.Add("Cost", *cost)
		}
		if priority != nil {
			rep.Add("Priority", *priority)
		}
		return rep.Succeed("OSPF parameters configured on %s", iface), nil
	})
	s.record(ctx, "configure_ospf_interface", rep, lines)
	return rep, err
}

// ClearOSPFProcess resets all OSPF processes, answering the confirmation.
func (s *Service) ClearOSPFProcess(ctx context.Context, device string) (*ios.Report, error) {
	const cmd = "clear ip ospf process"
	rep, err := s.withSession(ctx, device, func(sess Session) (*ios.Report, error) {
		rep := ios.NewReport(device)
		out, err := sess.SendInteractive(ctx, cmd,
			netssh.Answer{Pattern: clearOSPFConfirm, Reply: "yes"},
			netssh.Answer{Pattern: confirmPrompt, Reply: ""},
		)
		if err != nil {
			return nil, err
		}
		rep.AddOutput(cmd, out)
		if ios.Rejected(out) {
			return rep.Fail("%s rejected %q", device, cmd), nil
		}
		return rep.Succeed("OSPF process cleared on %s. Adjacencies will re-form.", device), nil
	})
	s.record(ctx, "clear_ospf_process", rep, []string{cmd})
	return rep, err
}
