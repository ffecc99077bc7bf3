// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package posix provides [POSIX]-compliant helper functions for cross-platform compatibility.
//
// Key functions:
//   - GetExecutableName: Returns the executable name without extension for CLI usage
//   - PortableFileName: Sanitizes a device name for use in backup file names
//
// # Usage Examples
//
//	rootCmd := &cobra.Command{
//	    Use:   posix.GetExecutableName(),
//	    Short: "Cisco IOS automation",
//	}
//
//	name := fmt.Sprintf("%s_config_%s.txt", posix.PortableFileName(device), stamp)
//
// [POSIX]: https://grokipedia.com/page/POSIX
package posix
