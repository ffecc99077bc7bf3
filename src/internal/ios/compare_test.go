// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package ios

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareConfigs(t *testing.T) {
	startup := `Using 1234 out of 262136 bytes
!
! Last configuration change at 10:00:00 UTC Mon Mar 1 2026
!
hostname R1
!
interface Loopback0
 ip address 1.1.1.1 255.255.255.255
!
ip route 0.0.0.0 0.0.0.0 192.168.242.2
end`

	running := `Building configuration...

Current configuration : 1400 bytes
!
! Last configuration change at 11:30:00 UTC Mon Mar 1 2026 by admin
!
hostname R1
!
interface Loopback0
 ip address 1.1.1.1 255.255.255.255
!
interface Loopback1
 ip address 11.11.11.11 255.255.255.255
!
end`

	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "reports added and removed lines in order",
			testFunc: func(t *testing.T) {
				d := CompareConfigs(running, startup)
				assert.True(t, d.HasChanges())
				assert.Equal(t, []string{"interface Loopback1", " ip address 11.11.11.11 255.255.255.255"}, d.Added)
				assert.Equal(t, []string{"ip route 0.0.0.0 0.0.0.0 192.168.242.2"}, d.Removed)
				assert.Contains(t, d.Unified, "--- startup-config")
				assert.Contains(t, d.Unified, "+++ running-config")
				assert.Contains(t, d.Unified, "+interface Loopback1")
				assert.Contains(t, d.Unified, "-ip route 0.0.0.0 0.0.0.0 192.168.242.2")
			},
		},
		{
			name: "timestamps and comments are ignored",
			testFunc: func(t *testing.T) {
				a := "!\n! Last configuration change at 10:00\nhostname R1\nend"
				b := "Building configuration...\n! NVRAM config last updated at 09:00\nhostname R1\r\nend\n"
				d := CompareConfigs(a, b)
				assert.False(t, d.HasChanges())
				assert.Empty(t, d.Unified)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}
