// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package ios

import (
	"net/netip"
	"regexp"
	"strconv"
	"strings"
)

var (
	successRatePattern = regexp.MustCompile(`Success rate is (\d+) percent`)
	ipv4Pattern        = regexp.MustCompile(`\b(\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})\b`)
	routePattern       = regexp.MustCompile(`^([A-Za-z]{1,2}\*?(?:\s+(?:IA|E1|E2|N1|N2|L1|L2|EX|ia|su))?)\s+(\d{1,3}(?:\.\d{1,3}){3}(?:/\d{1,2})?)`)
	sshVersionPattern  = regexp.MustCompile(`version\s+(\d+\.\d+)`)
	rejectedPattern    = regexp.MustCompile(`(?m)^\s*%\s*(Invalid input|Incomplete command|Ambiguous command|Unknown command|Unrecognized command)[^\r\n]*`)

	logErrorPattern   = regexp.MustCompile(`%[A-Z0-9_]+-[0-2]-|%ERROR|%CRIT`)
	logWarningPattern = regexp.MustCompile(`%[A-Z0-9_]+-[3-4]-|%WARN`)
	logInfoPattern    = regexp.MustCompile(`%[A-Z0-9_]+-[5-7]-|%INFO|%NOTICE`)
)

// Lines splits output into lines, normalizing CRLF.
func Lines(output string) []string {
	output = strings.ReplaceAll(output, "\r\n", "\n")
	if output == "" {
		return nil
	}
	return strings.Split(output, "\n")
}

// Rejected reports whether IOS refused the command that produced output.
func Rejected(output string) bool {
	return rejectedPattern.MatchString(output)
}

// RejectedLine returns the first IOS error marker line in output, such as
// "% Invalid input detected at '^' marker.".
func RejectedLine(output string) (string, bool) {
	m := rejectedPattern.FindString(output)
	if m == "" {
		return "", false
	}
	return strings.TrimSpace(m), true
}

// ParseHostname returns the name from a "hostname X" line, or "".
func ParseHostname(output string) string {
	for _, line := range Lines(output) {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == "hostname" {
			return fields[len(fields)-1]
		}
	}
	return ""
}

// ParseSuccessRate returns the ping success percentage, or -1 when the
// output has no "Success rate is N percent" line.
func ParseSuccessRate(output string) int {
	m := successRatePattern.FindStringSubmatch(output)
	if m == nil {
		return -1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return -1
	}
	return n
}

// InterfaceBrief is one row of "show ip interface brief".
type InterfaceBrief struct {
	Name     string
	IP       string
	OK       string
	Method   string
	Status   string
	Protocol string
}

// Up reports whether both the line and the protocol are up.
func (i InterfaceBrief) Up() bool { return i.Status == "up" && i.Protocol == "up" }

// ParseInterfacesBrief parses "show ip interface brief". Status may span
// two words ("administratively down").
func ParseInterfacesBrief(output string) []InterfaceBrief {
	var rows []InterfaceBrief
	for _, line := range Lines(output) {
		fields := strings.Fields(line)
		if len(fields) < 6 || fields[0] == "Interface" {
			continue
		}
		rows = append(rows, InterfaceBrief{
			Name:     fields[0],
			IP:       fields[1],
			OK:       fields[2],
			Method:   fields[3],
			Status:   strings.Join(fields[4:len(fields)-1], " "),
			Protocol: fields[len(fields)-1],
		})
	}
	return rows
}

// FindInterface returns the brief row for name. Abbreviated names such as
// "Fa0/0" match their full form.
func FindInterface(rows []InterfaceBrief, name string) (InterfaceBrief, bool) {
	for _, r := range rows {
		if strings.EqualFold(r.Name, name) {
			return r, true
		}
	}
	for _, r := range rows {
		if abbreviates(name, r.Name) {
			return r, true
		}
	}
	return InterfaceBrief{}, false
}

// abbreviates reports whether short is an IOS-style abbreviation of full,
// e.g. "Gi0/1" for "GigabitEthernet0/1".
func abbreviates(short, full string) bool {
	i := strings.IndexAny(short, "0123456789")
	j := strings.IndexAny(full, "0123456789")
	if i <= 0 || j <= 0 || short[i:] != full[j:] {
		return false
	}
	return strings.HasPrefix(strings.ToLower(full[:j]), strings.ToLower(short[:i]))
}

// CountOSPFFull counts neighbors in FULL state.
func CountOSPFFull(output string) int {
	return strings.Count(output, "FULL")
}

// Route is one entry of "show ip route".
type Route struct {
	Code   string
	Prefix string
	Line   string
}

// ParseRoutes returns the route entries of "show ip route", skipping the
// legend, the gateway line and subnet headers.
func ParseRoutes(output string) []Route {
	var routes []Route
	for _, line := range Lines(output) {
		if strings.HasPrefix(line, "Codes:") || strings.HasPrefix(line, "Gateway") {
			continue
		}
		m := routePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		routes = append(routes, Route{
			Code:   strings.Join(strings.Fields(m[1]), " "),
			Prefix: m[2],
			Line:   strings.TrimSpace(line),
		})
	}
	return routes
}

// HasDefaultGateway reports whether a gateway of last resort is set.
func HasDefaultGateway(routeOutput string) bool {
	return strings.Contains(routeOutput, "Gateway of last resort is") &&
		!strings.Contains(routeOutput, "Gateway of last resort is not set")
}

// ParseTracerouteHops returns the hop lines of a traceroute.
func ParseTracerouteHops(output string) []string {
	var hops []string
	for _, line := range Lines(output) {
		t := strings.TrimSpace(line)
		if t != "" && t[0] >= '0' && t[0] <= '9' {
			hops = append(hops, t)
		}
	}
	return hops
}

// LogSummary groups syslog lines by severity.
type LogSummary struct {
	Total    int
	Errors   []string
	Warnings []string
	Info     []string
	Recent   []string
}

// maxLogLines bounds each LogSummary list.
const maxLogLines = 20

// CategorizeLogs sorts "show logging" lines by syslog severity: 0-2 (and
// %ERROR/%CRIT tags) are errors, 3-4 warnings, 5-7 informational. Each list
// keeps the most recent entries.
func CategorizeLogs(output string) LogSummary {
	var s LogSummary
	var all []string
	for _, line := range Lines(output) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		all = append(all, line)
		switch {
		case logErrorPattern.MatchString(line):
			s.Errors = append(s.Errors, line)
		case logWarningPattern.MatchString(line):
			s.Warnings = append(s.Warnings, line)
		case logInfoPattern.MatchString(line):
			s.Info = append(s.Info, line)
		}
	}
	s.Total = len(all)
	s.Errors = lastN(s.Errors, maxLogLines)
	s.Warnings = lastN(s.Warnings, maxLogLines)
	s.Info = lastN(s.Info, maxLogLines)
	s.Recent = lastN(all, maxLogLines)
	return s
}

// LastLines returns the last n non-empty lines of output.
func LastLines(output string, n int) string {
	var lines []string
	for _, line := range Lines(output) {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lastN(lines, n), "\n")
}

func lastN(s []string, n int) []string {
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}

// InterfaceStat is the header and counters of one interface in
// "show interfaces".
type InterfaceStat struct {
	Interface string
	Status    string
	Input     string
	Output    string
}

// ParseInterfaceStats extracts the status header and packet counters of
// every interface in "show interfaces" output.
func ParseInterfaceStats(output string) []InterfaceStat {
	var (
		stats []InterfaceStat
		cur   *InterfaceStat
	)
	for _, line := range Lines(output) {
		t := strings.TrimSpace(line)
		switch {
		case line != "" && line[0] != ' ' && (strings.Contains(line, " is up") || strings.Contains(line, " is down") ||
			strings.Contains(line, " is administratively down")):
			stats = append(stats, InterfaceStat{Interface: strings.Fields(line)[0], Status: t})
			cur = &stats[len(stats)-1]
		case cur != nil && strings.Contains(t, "packets input"):
			cur.Input = t
		case cur != nil && strings.Contains(t, "packets output"):
			cur.Output = t
		}
	}
	return stats
}

// InterfaceErrors returns the counter lines that report non-zero errors.
func InterfaceErrors(output string) []string {
	var lines []string
	for _, line := range Lines(output) {
		t := strings.TrimSpace(line)
		if !strings.Contains(t, "error") {
			continue
		}
		if fields := strings.Fields(t); len(fields) > 0 && fields[0] != "0" {
			lines = append(lines, t)
		}
	}
	return lines
}

// SSHStatus is the parsed result of "show ip ssh".
type SSHStatus struct {
	Enabled bool
	Version string
}

// ParseSSHStatus parses "show ip ssh".
func ParseSSHStatus(output string) SSHStatus {
	s := SSHStatus{Enabled: strings.Contains(output, "SSH Enabled")}
	if m := sshVersionPattern.FindStringSubmatch(output); m != nil {
		s.Version = m[1]
	}
	return s
}

// FilterLines returns the lines containing keyword, case-insensitively.
func FilterLines(output, keyword string) string {
	keyword = strings.ToLower(keyword)
	var kept []string
	for _, line := range Lines(output) {
		if strings.Contains(strings.ToLower(line), keyword) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// ExtractIPv4 returns the first IPv4 address in s, or "".
func ExtractIPv4(s string) string {
	for _, m := range ipv4Pattern.FindAllString(s, -1) {
		if _, err := netip.ParseAddr(m); err == nil {
			return m
		}
	}
	return ""
}

// SameSubnet24 reports whether a and b are IPv4 addresses in the same /24.
func SameSubnet24(a, b string) bool {
	pa, err := netip.ParseAddr(a)
	if err != nil || !pa.Is4() {
		return false
	}
	pb, err := netip.ParseAddr(b)
	if err != nil || !pb.Is4() {
		return false
	}
	prefix, _ := pa.Prefix(24)
	return prefix.Contains(pb)
}

// IsIPv4 reports whether s is a dotted IPv4 literal.
func IsIPv4(s string) bool {
	a, err := netip.ParseAddr(s)
	return err == nil && a.Is4()
}
