// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netops

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"
	"regexp"
	"slices"
	"strings"
)

// ErrInvalidArgument is matched by errors.Is for every argument rejected
// before a device is contacted.
var ErrInvalidArgument = errors.New("invalid argument")

func invalidArgf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

var (
	interfacePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z-]*\s?\d+(/\d+)*(\.\d+)?$`)
	hostnamePattern  = regexp.MustCompile(`^[A-Za-z]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?$`)
	usernamePattern  = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)
	domainPattern    = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?(\.[A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?)+$`)
	octets3Pattern   = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}$`)
)

// BannerTypes are the banners SetBanner and RemoveBanner manage.
var BannerTypes = []string{"motd", "login", "exec"}

// RouteProtocols are the filters ShowRoutingTable accepts.
var RouteProtocols = []string{"static", "ospf", "connected", "rip", "bgp", "eigrp"}

// execDenied are exec commands Execute refuses even though they could be
// typed at a privileged prompt.
var execDenied = []string{"configure", "conf", "write", "wr", "reload", "erase", "delete", "copy", "clear", "debug", "undebug", "format"}

const maxTextLength = 200

func requireDevice(name string) error {
	if strings.TrimSpace(name) == "" {
		return invalidArgf("device_name is required")
	}
	return nil
}

func requireIPv4(field, v string) error {
	a, err := netip.ParseAddr(v)
	if err != nil || !a.Is4() {
		return invalidArgf("%s %q is not an IPv4 address", field, v)
	}
	return nil
}

func ipv4Bits(v string) (uint32, bool) {
	a, err := netip.ParseAddr(v)
	if err != nil || !a.Is4() {
		return 0, false
	}
	b := a.As4()
	return binary.BigEndian.Uint32(b[:]), true
}

// requireMask accepts dotted subnet masks with contiguous one bits.
func requireMask(field, v string) error {
	m, ok := ipv4Bits(v)
	if !ok {
		return invalidArgf("%s %q is not a dotted subnet mask", field, v)
	}
	if inv := ^m; inv&(inv+1) != 0 {
		return invalidArgf("%s %q is not a contiguous subnet mask", field, v)
	}
	return nil
}

// requireWildcard accepts dotted wildcard masks, the bitwise inverse of a
// subnet mask.
func requireWildcard(field, v string) error {
	w, ok := ipv4Bits(v)
	if !ok {
		return invalidArgf("%s %q is not a dotted wildcard mask", field, v)
	}
	if w&(w+1) != 0 {
		return invalidArgf("%s %q is not a contiguous wildcard mask", field, v)
	}
	return nil
}

func requireInterface(name string) error {
	if !interfacePattern.MatchString(name) {
		return invalidArgf("interface_name %q is not an IOS interface name (e.g. FastEthernet0/0, Loopback0)", name)
	}
	return nil
}

func requireHostname(field, name string) error {
	if !hostnamePattern.MatchString(name) {
		return invalidArgf("%s %q must start with a letter and contain only letters, digits and hyphens (max 63)", field, name)
	}
	return nil
}

func requireUsername(name string) error {
	if !usernamePattern.MatchString(name) {
		return invalidArgf("username %q may contain only letters, digits, '.', '_' and '-'", name)
	}
	return nil
}

func requireDomain(name string) error {
	if !domainPattern.MatchString(name) {
		return invalidArgf("domain_name %q is not a domain name", name)
	}
	return nil
}

// requireTarget accepts an IPv4 address or a host name.
func requireTarget(field, v string) error {
	if v == "" {
		return invalidArgf("%s is required", field)
	}
	if _, err := netip.ParseAddr(v); err == nil {
		return requireIPv4(field, v)
	}
	if !domainPattern.MatchString(v) && !hostnamePattern.MatchString(v) {
		return invalidArgf("%s %q is neither an IPv4 address nor a host name", field, v)
	}
	return nil
}

// requireText checks a single-line free text argument such as a
// description. Empty text passes unless required is set.
func requireText(field, v string, required bool) error {
	if strings.TrimSpace(v) == "" {
		if required {
			return invalidArgf("%s is required", field)
		}
		return nil
	}
	if strings.ContainsAny(v, "\r\n") {
		return invalidArgf("%s must be a single line", field)
	}
	if len(v) > maxTextLength {
		return invalidArgf("%s is longer than %d characters", field, maxTextLength)
	}
	return nil
}

func requireSecret(field, v string) error {
	if v == "" {
		return invalidArgf("%s is required", field)
	}
	if strings.ContainsAny(v, " \t\r\n?") {
		return invalidArgf("%s must not contain whitespace or '?'", field)
	}
	return nil
}

func requireRange(field string, v, lo, hi int) error {
	if v < lo || v > hi {
		return invalidArgf("%s must be between %d and %d, got %d", field, lo, hi, v)
	}
	return nil
}

func requireOneOf(field, v string, allowed []string) error {
	if !slices.Contains(allowed, v) {
		return invalidArgf("%s %q must be one of: %s", field, v, strings.Join(allowed, ", "))
	}
	return nil
}

// requireShowCommand admits read-only exec commands.
func requireShowCommand(cmd string) error {
	if strings.ContainsAny(cmd, "\r\n") {
		return invalidArgf("command must be a single line")
	}
	fields := strings.Fields(strings.ToLower(cmd))
	if len(fields) == 0 {
		return invalidArgf("command is required")
	}
	if slices.Contains(execDenied, fields[0]) {
		return invalidArgf("%q changes device state; use a configuration tool instead", fields[0])
	}
	if len(fields[0]) < 2 || !strings.HasPrefix("show", fields[0]) {
		return invalidArgf("only show commands can be executed, got %q", fields[0])
	}
	return nil
}

// requireNetworkPrefix accepts the first three octets of an IPv4 /24,
// e.g. "10.1.1".
func requireNetworkPrefix(v string) error {
	if !octets3Pattern.MatchString(v) {
		return invalidArgf("network %q must be the first three octets of an address, e.g. 10.1.1", v)
	}
	return requireIPv4("network", v+".0")
}
