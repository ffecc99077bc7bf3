// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netops

import (
	"context"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/inventory"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/netssh"
)

// ManagerConnector opens sessions through a netssh.Manager, so devices
// behind a jump host share its cached connection.
type ManagerConnector struct {
	m *netssh.Manager
}

// NewManagerConnector wraps m.
func NewManagerConnector(m *netssh.Manager) *ManagerConnector {
	return &ManagerConnector{m: m}
}

// Connect opens a session on the named inventory device.
func (c *ManagerConnector) Connect(ctx context.Context, device string) (Session, error) {
	sess, err := c.m.Open(ctx, device)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// ConnectDevice opens a session on dev using the same jump host rules.
func (c *ManagerConnector) ConnectDevice(ctx context.Context, dev inventory.Device) (Session, error) {
	sess, err := c.m.OpenDevice(ctx, dev)
	if err != nil {
		return nil, err
	}
	return sess, nil
}
