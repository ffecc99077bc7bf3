// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package ios

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// noisePrefixes mark configuration lines that change without a config change.
var noisePrefixes = []string{
	"Building configuration",
	"Current configuration",
	"Using ",
}

var noiseSubstrings = []string{
	"Last configuration change",
	"NVRAM config last updated",
}

// ConfigDiff is the difference between the running and startup
// configurations.
type ConfigDiff struct {
	// Added holds lines present only in the running configuration.
	Added []string
	// Removed holds lines present only in the startup configuration.
	Removed []string
	// Unified is a unified diff from startup to running.
	Unified string
}

// HasChanges reports whether the configurations differ.
func (d ConfigDiff) HasChanges() bool { return len(d.Added) > 0 || len(d.Removed) > 0 }

// CompareConfigs diffs running against startup, ignoring comments and
// timestamp lines. Added and Removed keep the order of their source.
func CompareConfigs(running, startup string) ConfigDiff {
	run := significantLines(running)
	start := significantLines(startup)

	diff := ConfigDiff{
		Added:   missingFrom(run, start),
		Removed: missingFrom(start, run),
	}
	if diff.HasChanges() {
		diff.Unified, _ = difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        addNewlines(start),
			B:        addNewlines(run),
			FromFile: "startup-config",
			ToFile:   "running-config",
			Context:  1,
		})
	}
	return diff
}

func significantLines(config string) []string {
	var out []string
	for _, line := range Lines(config) {
		line = strings.TrimRight(line, " \t")
		if isNoise(line) {
			continue
		}
		out = append(out, line)
	}
	return out
}

func isNoise(line string) bool {
	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "!") {
		return true
	}
	for _, p := range noisePrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	for _, s := range noiseSubstrings {
		if strings.Contains(line, s) {
			return true
		}
	}
	return false
}

// missingFrom returns the lines of a that do not occur in b.
func missingFrom(a, b []string) []string {
	seen := make(map[string]struct{}, len(b))
	for _, l := range b {
		seen[l] = struct{}{}
	}
	var out []string
	for _, l := range a {
		if _, ok := seen[l]; !ok {
			out = append(out, l)
		}
	}
	return out
}

func addNewlines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l + "\n"
	}
	return out
}
