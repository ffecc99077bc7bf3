// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/inventory"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/netops"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/netssh"
	"github.com/stretchr/testify/require"
)

const showInterfacesR1 = `Interface                  IP-Address      OK? Method Status                Protocol
FastEthernet0/0            192.168.242.129 YES manual up                    up
FastEthernet0/1            10.1.1.1        YES manual up                    up
Loopback0                  unassigned      YES unset  administratively down down`

// fakeRouter answers commands from a fixed table and records what it was sent.
type fakeRouter struct {
	dev     inventory.Device
	outputs map[string]string

	mu      sync.Mutex
	sent    []string
	configs [][]string
}

func newFakeRouter(name string, outputs map[string]string) *fakeRouter {
	return &fakeRouter{
		dev:     inventory.Device{Name: name, Host: "192.0.2.1", Username: "admin"},
		outputs: outputs,
	}
}

func (f *fakeRouter) Device() inventory.Device { return f.dev }
func (f *fakeRouter) Hostname() string         { return f.dev.Name }

func (f *fakeRouter) SendCommand(ctx context.Context, cmd string) (string, error) {
	return f.SendCommandTimeout(ctx, cmd, 0)
}

func (f *fakeRouter) SendCommandTimeout(ctx context.Context, cmd string, _ time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, cmd)
	return f.outputs[cmd], nil
}

func (f *fakeRouter) SendInteractive(ctx context.Context, cmd string, _ ...netssh.Answer) (string, error) {
	return f.SendCommand(ctx, cmd)
}

func (f *fakeRouter) SendConfigSet(_ context.Context, lines []string, _ ...netssh.Answer) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs = append(f.configs, lines)
	return "", nil
}

func (f *fakeRouter) Reach(context.Context, string, netssh.Credentials) error {
	return errors.New("not supported by fake router")
}

func (f *fakeRouter) Close() error { return nil }

func (f *fakeRouter) lastConfig() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.configs) == 0 {
		return nil
	}
	return f.configs[len(f.configs)-1]
}

// fakeLab connects to fakeRouters by name.
type fakeLab struct {
	routers map[string]*fakeRouter
}

func (l *fakeLab) Connect(_ context.Context, device string) (netops.Session, error) {
	r, ok := l.routers[device]
	if !ok {
		return nil, fmt.Errorf("%w: %s", inventory.ErrUnknownDevice, device)
	}
	return r, nil
}

func (l *fakeLab) ConnectDevice(context.Context, inventory.Device) (netops.Session, error) {
	return nil, errors.New("connection refused")
}

// newLabService returns a service backed by a fake R1.
func newLabService(t *testing.T) (*netops.Service, *fakeRouter) {
	t.Helper()
	r1 := newFakeRouter("R1", map[string]string{
		"show ip interface brief":                showInterfacesR1,
		"show running-config | include hostname": "hostname R1",
		"show clock":                             "*10:30:00.000 UTC Sun Mar 1 2026",
		"show bogus":                             "                   ^\n% Invalid input detected at '^' marker.",
	})
	svc, err := netops.New(&fakeLab{routers: map[string]*fakeRouter{"R1": r1}}, nil, netops.Options{
		BackupDir: t.TempDir(),
	})
	require.NoError(t, err)
	return svc, r1
}

// fakeConnections reports a fixed connection manager state.
type fakeConnections struct {
	inv        *inventory.Inventory
	jumpHosts  []string
	strategies map[string]netssh.Strategy
}

func newFakeConnections(t *testing.T) *fakeConnections {
	t.Helper()
	inv, err := inventory.New(inventory.DefaultDevices())
	require.NoError(t, err)
	return &fakeConnections{
		inv:       inv,
		jumpHosts: []string{"R1"},
		strategies: map[string]netssh.Strategy{
			"R1": netssh.StrategyDirect,
			"R2": netssh.StrategyTunnel,
		},
	}
}

func (f *fakeConnections) Inventory() *inventory.Inventory        { return f.inv }
func (f *fakeConnections) JumpHosts() []string                    { return f.jumpHosts }
func (f *fakeConnections) Strategies() map[string]netssh.Strategy { return f.strategies }
