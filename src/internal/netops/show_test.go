// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netops

import (
	"context"
	"strings"
	"testing"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const briefR1 = `Interface                  IP-Address      OK? Method Status                Protocol
FastEthernet0/0            192.168.242.129 YES NVRAM  up                    up
FastEthernet0/1            10.1.1.1        YES NVRAM  up                    up
Serial1/0                  unassigned      YES NVRAM  administratively down down
Loopback0                  1.1.1.1         YES manual up                    up`

const routesR1 = `Codes: L - local, C - connected, S - static, R - RIP, M - mobile, B - BGP

Gateway of last resort is 192.168.242.2 to network 0.0.0.0

S*    0.0.0.0/0 [1/0] via 192.168.242.2
      2.0.0.0/32 is subnetted, 1 subnets
O        2.2.2.2 [110/2] via 10.1.1.2, 00:10:11, FastEthernet0/1
C        10.1.1.0/24 is directly connected, FastEthernet0/1`

func TestNew(t *testing.T) {
	_, err := New(nil, nil, Options{})
	require.Error(t, err)

	svc, err := New(newFakeConnector(), nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, defaultBackupDir, svc.opts.BackupDir)
	assert.Equal(t, defaultPingCount, svc.opts.PingCount)
	assert.Equal(t, defaultLogLines, svc.opts.LogLines)
	assert.Equal(t, defaultSweepLimit, svc.opts.SweepLimit)
	assert.Equal(t, defaultLongCommandTimeout, svc.opts.LongCommandTimeout)
	assert.NotNil(t, svc.opts.Now)
	assert.NotNil(t, svc.log)
}

func TestShowOperations(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "interfaces counts up and down",
			testFunc: func(t *testing.T) {
				sess := newFakeSession("R1")
				sess.outputs["show ip interface brief"] = briefR1
				svc := newTestService(t, newFakeConnector(sess), nil)

				rep, err := svc.Interfaces(ctx, "R1")
				require.NoError(t, err)
				assert.True(t, rep.Success)
				up, _ := rep.Get("Up")
				down, _ := rep.Get("Down")
				assert.Equal(t, "3", up)
				assert.Equal(t, "1", down)
				assert.True(t, sess.closed)
			},
		},
		{
			name: "unknown device is an error",
			testFunc: func(t *testing.T) {
				svc := newTestService(t, newFakeConnector(), nil)
				_, err := svc.Interfaces(ctx, "R9")
				assert.ErrorIs(t, err, inventory.ErrUnknownDevice)
			},
		},
		{
			name: "missing device name is an invalid argument",
			testFunc: func(t *testing.T) {
				conn := newFakeConnector()
				svc := newTestService(t, conn, nil)
				_, err := svc.DeviceStatus(ctx, " ")
				assert.ErrorIs(t, err, ErrInvalidArgument)
				assert.Zero(t, conn.opened)
			},
		},
		{
			name: "device status parses show version",
			testFunc: func(t *testing.T) {
				sess := newFakeSession("R1")
				sess.outputs["show running-config | include hostname"] = "hostname R1"
				sess.outputs["show version"] = "Cisco IOS Software, 7200 Software, Version 15.2(4)M7\nR1 uptime is 2 hours, 5 minutes"
				svc := newTestService(t, newFakeConnector(sess), nil)

				rep, err := svc.DeviceStatus(ctx, "R1")
				require.NoError(t, err)
				host, _ := rep.Get("Hostname")
				uptime, _ := rep.Get("Uptime")
				version, _ := rep.Get("Version")
				assert.Equal(t, "R1", host)
				assert.Contains(t, uptime, "2 hours")
				assert.Contains(t, version, "15.2(4)M7")
			},
		},
		{
			name: "empty show version fails the report",
			testFunc: func(t *testing.T) {
				sess := newFakeSession("R1")
				svc := newTestService(t, newFakeConnector(sess), nil)

				rep, err := svc.DeviceStatus(ctx, "R1")
				require.NoError(t, err)
				assert.False(t, rep.Success)
			},
		},
		{
			name: "execute refuses configuration commands before connecting",
			testFunc: func(t *testing.T) {
				conn := newFakeConnector(newFakeSession("R1"))
				svc := newTestService(t, conn, nil)

				for _, cmd := range []string{"configure terminal", "reload", "write memory", "ping 8.8.8.8", ""} {
					_, err := svc.Execute(ctx, "R1", cmd)
					assert.ErrorIs(t, err, ErrInvalidArgument, cmd)
				}
				assert.Zero(t, conn.opened)
			},
		},
		{
			name: "execute runs abbreviated show commands",
			testFunc: func(t *testing.T) {
				sess := newFakeSession("R1")
				sess.outputs["sh clock"] = "*10:00:00.000 UTC Sun Mar 1 2026"
				svc := newTestService(t, newFakeConnector(sess), nil)

				rep, err := svc.Execute(ctx, "R1", "  sh clock ")
				require.NoError(t, err)
				assert.True(t, rep.Success)
				assert.Equal(t, "*10:00:00.000 UTC Sun Mar 1 2026", rep.OutputOf("sh clock"))
			},
		},
		{
			name: "execute reports rejected commands",
			testFunc: func(t *testing.T) {
				sess := newFakeSession("R1")
				sess.outputs["show bogus"] = invalidInput
				svc := newTestService(t, newFakeConnector(sess), nil)

				rep, err := svc.Execute(ctx, "R1", "show bogus")
				require.NoError(t, err)
				assert.False(t, rep.Success)
			},
		},
		{
			name: "running config filter",
			testFunc: func(t *testing.T) {
				sess := newFakeSession("R1")
				sess.outputs["show running-config"] = "hostname R1\ninterface Loopback0\n ip address 1.1.1.1 255.255.255.255\nrouter ospf 1"
				svc := newTestService(t, newFakeConnector(sess), nil)

				rep, err := svc.RunningConfig(ctx, "R1", "IP ADDRESS")
				require.NoError(t, err)
				assert.Equal(t, " ip address 1.1.1.1 255.255.255.255", rep.OutputOf("Running configuration"))
			},
		},
		{
			name: "routing table with protocol filter",
			testFunc: func(t *testing.T) {
				sess := newFakeSession("R1")
				sess.outputs["show ip route ospf"] = routesR1
				svc := newTestService(t, newFakeConnector(sess), nil)

				rep, err := svc.ShowRoutingTable(ctx, "R1", "OSPF")
				require.NoError(t, err)
				count, _ := rep.Get("Route count")
				gw, _ := rep.Get("Default gateway")
				assert.Equal(t, "3", count)
				assert.Equal(t, "yes", gw)

				_, err = svc.ShowRoutingTable(ctx, "R1", "isis")
				assert.ErrorIs(t, err, ErrInvalidArgument)
			},
		},
		{
			name: "compare configs detects unsaved changes",
			testFunc: func(t *testing.T) {
				sess := newFakeSession("R1")
				sess.outputs["show running-config"] = "hostname R1\ninterface Loopback5\n ip address 5.5.5.5 255.255.255.255"
				sess.outputs["show startup-config"] = "hostname R1"
				svc := newTestService(t, newFakeConnector(sess), nil)

				rep, err := svc.CompareConfigs(ctx, "R1")
				require.NoError(t, err)
				assert.Equal(t, "Unsaved changes detected!", rep.Message)
				added, _ := rep.Get("Added lines")
				assert.Equal(t, "2", added)
				assert.Contains(t, rep.OutputOf("Diff"), "+interface Loopback5")
			},
		},
		{
			name: "logs fall back when tail is unsupported",
			testFunc: func(t *testing.T) {
				sess := newFakeSession("R1")
				sess.outputs["show logging | tail 2"] = invalidInput
				sess.outputs["show logging"] = strings.Join([]string{
					"Syslog logging: enabled",
					"*Mar  1 10:00:00: %SYS-5-CONFIG_I: Configured from console",
					"*Mar  1 10:01:00: %LINK-3-UPDOWN: Interface FastEthernet0/1, changed state to down",
				}, "\n")
				svc := newTestService(t, newFakeConnector(sess), nil)

				rep, err := svc.Logs(ctx, "R1", 2)
				require.NoError(t, err)
				total, _ := rep.Get("Total lines")
				warnings, _ := rep.Get("Warnings")
				assert.Equal(t, "2", total)
				assert.Equal(t, "1", warnings)
				assert.Equal(t, []string{"show logging | tail 2", "show logging"}, sess.commands())

				_, err = svc.Logs(ctx, "R1", 5000)
				assert.ErrorIs(t, err, ErrInvalidArgument)
			},
		},
		{
			name: "interface stats rejected",
			testFunc: func(t *testing.T) {
				sess := newFakeSession("R1")
				sess.outputs["show interfaces Ethernet9/9"] = invalidInput
				svc := newTestService(t, newFakeConnector(sess), nil)

				rep, err := svc.InterfaceStats(ctx, "R1", "Ethernet9/9")
				require.NoError(t, err)
				assert.False(t, rep.Success)
				assert.Contains(t, rep.Message, "show interfaces Ethernet9/9")
			},
		},
		{
			name: "hostname",
			testFunc: func(t *testing.T) {
				sess := newFakeSession("R1")
				sess.outputs["show running-config | include hostname"] = "hostname CORE-1"
				svc := newTestService(t, newFakeConnector(sess), nil)

				rep, err := svc.GetHostname(ctx, "R1")
				require.NoError(t, err)
				host, _ := rep.Get("Hostname")
				assert.Equal(t, "CORE-1", host)
				assert.Contains(t, rep.Render(), "CORE-1")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}
