// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netssh

import (
	"regexp"
	"strings"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/ios"
)

// Prompt and chat patterns. All of them are anchored to the end of the
// buffered output, since a device only waits for input after printing one.
var (
	anyPromptPattern   = regexp.MustCompile(`(?:^|[\r\n])([A-Za-z0-9][\w.\-/:@]*)(\([\w\-./]+\))?([>#])[ \t]*$`)
	usernamePattern    = regexp.MustCompile(`(?i)(username|login):[ \t]*$`)
	passwordPattern    = regexp.MustCompile(`(?i)password:[ \t]*$`)
	pressReturnPattern = regexp.MustCompile(`(?i)press return to get started[^\n]*\n?[\r\n]*$`)
	loginFailedPattern = regexp.MustCompile(`(?i)%\s*(login invalid|authentication failed|bad (passwords|secrets)|access denied)`)
	hopFailedPattern   = regexp.MustCompile(`(?im)^%\s*(connection refused|destination unreachable|connection timed out|unknown command|bad ip address|open failed)[^\n]*`)
)

// PromptPattern returns the pattern matching the CLI prompt of hostname in
// any mode: "R1>", "R1#", "R1(config)#", "R1(config-if)#".
func PromptPattern(hostname string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[\r\n])` + regexp.QuoteMeta(hostname) + `(\([\w\-./]+\))?([>#])[ \t]*$`)
}

// parsePrompt extracts the hostname, the config sub-mode (without
// parentheses, empty in exec mode), and the privilege marker ('>' or '#')
// from output ending in a prompt. ok is false when no prompt is present.
func parsePrompt(output string) (hostname, mode string, marker byte, ok bool) {
	m := anyPromptPattern.FindStringSubmatch(output)
	if m == nil {
		return "", "", 0, false
	}
	mode = strings.Trim(m[2], "()")
	return m[1], mode, m[3][0], true
}

// normalizeNewlines converts CRLF and stray CR to LF.
func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "")
}

// cleanOutput removes the echoed command from the start of raw and the
// trailing prompt matched by prompt from its end.
func cleanOutput(raw, cmd string, prompt *regexp.Regexp) string {
	out := normalizeNewlines(raw)

	if loc := prompt.FindStringIndex(out); loc != nil {
		out = out[:loc[0]]
	}

	out = strings.TrimLeft(out, "\n")
	if cmd = strings.TrimSpace(cmd); cmd != "" {
		first, rest, found := strings.Cut(out, "\n")
		if strings.HasSuffix(strings.TrimSpace(first), cmd) {
			if found {
				out = rest
			} else {
				out = ""
			}
		}
	}

	return strings.TrimRight(out, " \t\n")
}

// rejectedLine returns the first IOS error marker line in output, if any.
func rejectedLine(output string) (string, bool) {
	return ios.RejectedLine(normalizeNewlines(output))
}
