// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package posix

import (
	"os"
	"path/filepath"
	"strings"
)

// fallbackExecutableName is used when os.Args[0] is unavailable.
const fallbackExecutableName = "netauto-mcp"

// GetExecutableName returns the executable name without extension, cross-platform compatible.
// It extracts the base name from os.Args[0] and removes common executable extensions
// (.exe on Windows) to provide a clean name for CLI usage strings.
//
// This ensures consistent behavior across all operating systems:
//   - Linux/macOS: "netauto" from "/usr/local/bin/netauto"
//   - Windows: "netauto" from "C:\bin\netauto.exe"
//   - Fallback: Uses "netauto-mcp" if os.Args[0] is unavailable
//
// Returns:
//   - string: Clean executable name suitable for CLI usage
func GetExecutableName() string {
	if len(os.Args) == 0 || os.Args[0] == "" {
		return fallbackExecutableName
	}
	return executableName(os.Args[0])
}

func executableName(arg0 string) string {
	name := filepath.Base(arg0)

	// A Windows path on Unix (or the reverse) survives filepath.Base intact.
	if strings.Contains(name, "\\") || (strings.Contains(name, "/") && !strings.Contains(name, string(filepath.Separator))) {
		parts := strings.FieldsFunc(name, func(r rune) bool {
			return r == '/' || r == '\\'
		})
		if len(parts) > 0 {
			name = parts[len(parts)-1]
		}
	}

	return strings.TrimSuffix(name, ".exe")
}

// PortableFileName maps name onto the [POSIX] portable filename character set
// ([A-Za-z0-9._-]). Every other byte becomes an underscore, and a leading
// hyphen is replaced so the result can never be mistaken for a flag.
//
// Device names come from user configuration and end up in backup file names,
// so they must not carry path separators or shell metacharacters.
//
// Parameters:
//   - name: Arbitrary input such as a device name
//
// Returns:
//   - string: A non-empty portable filename component ("_" for empty input)
//
// [POSIX]: https://pubs.opengroup.org/onlinepubs/9699919799/basedefs/V1_chap03.html#tag_03_282
func PortableFileName(name string) string {
	if name == "" {
		return "_"
	}

	b := []byte(name)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '_', c == '-':
		default:
			b[i] = '_'
		}
	}
	if b[0] == '-' {
		b[0] = '_'
	}

	out := string(b)
	if out == "." || out == ".." {
		return strings.Repeat("_", len(out))
	}
	return out
}
