// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netssh

import (
	"errors"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/inventory"
)

var (
	// ErrTimeout is returned when the device does not produce an expected
	// prompt within the allotted time.
	ErrTimeout = errors.New("timed out waiting for device output")
	// ErrClosed is returned when the session or its channel is gone.
	ErrClosed = errors.New("session closed")
	// ErrAuthFailed is returned when the device rejects the credentials,
	// either during the SSH handshake or at a CLI Password: prompt.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrHopFailed is returned when an "ssh" or "telnet" issued from a jump
	// router's CLI does not reach the target.
	ErrHopFailed = errors.New("CLI hop failed")
	// ErrCommandRejected is returned when IOS answers a configuration line
	// with an error marker such as "% Invalid input detected".
	ErrCommandRejected = errors.New("command rejected by device")
	// ErrUnknownDevice aliases inventory.ErrUnknownDevice for callers that
	// only import this package.
	ErrUnknownDevice = inventory.ErrUnknownDevice
)
