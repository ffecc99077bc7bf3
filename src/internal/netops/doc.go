// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package netops implements the network operations exposed as MCP tools and
// CLI subcommands: reading device state, pushing configuration, validating
// the result and troubleshooting connectivity.
//
// Every operation follows the same shape. It validates its arguments, opens a
// session on the named device through a [Connector], sends IOS commands,
// parses the output with package ios and returns an [ios.Report]. The
// session is closed before the operation returns.
//
// Errors and reports are kept apart:
//
//   - A returned error means the operation could not run: an invalid
//     argument ([ErrInvalidArgument]), an unknown device, or a connection
//     or login failure.
//   - A report with Success set to false means the device answered but the
//     change or check did not hold, e.g. a rejected configuration line or a
//     loopback that already exists.
//
// Configuration operations also append an audit entry to the [Recorder]
// when one is configured.
//
// Example:
//
//	svc, err := netops.New(netops.NewManagerConnector(manager), store, netops.Options{})
//	if err != nil {
//		return err
//	}
//	report, err := svc.ConfigureDefaultGateway(ctx, "R2", "10.1.1.1")
//	if err != nil {
//		return err
//	}
//	fmt.Println(report.Render())
package netops
