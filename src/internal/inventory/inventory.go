// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package inventory

import (
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

// JumpMethod selects how a device behind a jump host is reached.
type JumpMethod string

const (
	// JumpAuto tries a direct-tcpip tunnel first and falls back to a CLI hop.
	JumpAuto JumpMethod = "auto"
	// JumpTunnel only uses a direct-tcpip channel through the jump host.
	JumpTunnel JumpMethod = "tunnel"
	// JumpCLI only uses an interactive "ssh -l" from the jump host's CLI.
	JumpCLI JumpMethod = "cli"
)

const (
	// DefaultPort is the SSH port used when a device does not set one.
	DefaultPort = 22
	// DefaultDeviceType is the only platform the CLI layer understands.
	DefaultDeviceType = "cisco_ios"
)

var (
	// ErrUnknownDevice is matched by errors.Is for lookups of names that are not in the inventory.
	ErrUnknownDevice = errors.New("unknown device")
	// ErrInvalidInventory wraps every inventory validation failure.
	ErrInvalidInventory = errors.New("invalid inventory")
)

// Device describes one router reachable over SSH.
type Device struct {
	Name           string     `json:"name" yaml:"name"`
	Host           string     `json:"host" yaml:"host"`
	Port           int        `json:"port,omitempty" yaml:"port,omitempty"`
	Username       string     `json:"username" yaml:"username"`
	Password       string     `json:"password,omitempty" yaml:"password,omitempty"`
	PasswordEnv    string     `json:"passwordEnv,omitempty" yaml:"passwordEnv,omitempty"`
	Secret         string     `json:"secret,omitempty" yaml:"secret,omitempty"`
	SecretEnv      string     `json:"secretEnv,omitempty" yaml:"secretEnv,omitempty"`
	DeviceType     string     `json:"deviceType,omitempty" yaml:"deviceType,omitempty"`
	JumpHost       string     `json:"jumpHost,omitempty" yaml:"jumpHost,omitempty"`
	JumpMethod     JumpMethod `json:"jumpMethod,omitempty" yaml:"jumpMethod,omitempty"`
	TimeoutSeconds int        `json:"timeoutSeconds,omitempty" yaml:"timeoutSeconds,omitempty"`
	SessionLog     string     `json:"sessionLog,omitempty" yaml:"sessionLog,omitempty"`
}

// Address returns host:port for dialing.
func (d Device) Address() string {
	port := d.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(d.Host, strconv.Itoa(port))
}

// Timeout returns the per-device timeout, or fallback when unset.
func (d Device) Timeout(fallback time.Duration) time.Duration {
	if d.TimeoutSeconds > 0 {
		return time.Duration(d.TimeoutSeconds) * time.Second
	}
	return fallback
}

// ViaJumpHost reports whether the device is reached through another device.
func (d Device) ViaJumpHost() bool { return d.JumpHost != "" }

// Redacted returns a copy with credentials removed, safe to expose to MCP clients.
func (d Device) Redacted() Device {
	d.Password = ""
	d.Secret = ""
	return d
}

// withDefaults fills zero values with the package defaults.
func (d Device) withDefaults() Device {
	if d.Port == 0 {
		d.Port = DefaultPort
	}
	if d.DeviceType == "" {
		d.DeviceType = DefaultDeviceType
	}
	if d.JumpHost != "" && d.JumpMethod == "" {
		d.JumpMethod = JumpAuto
	}
	return d
}

// UnknownDeviceError is returned by Lookup. Its message lists the devices
// that do exist so that MCP clients can correct the call.
type UnknownDeviceError struct {
	Name      string
	Available []string
}

func (e *UnknownDeviceError) Error() string {
	return fmt.Sprintf("Device '%s' not found. Available devices: %s", e.Name, strings.Join(e.Available, ", "))
}

// Is makes errors.Is(err, ErrUnknownDevice) hold.
func (e *UnknownDeviceError) Is(target error) bool { return target == ErrUnknownDevice }

// Inventory is an immutable, validated set of devices keyed by name.
type Inventory struct {
	devices map[string]Device
	names   []string
}

// New validates devices and returns an Inventory with defaults applied.
//
// Parameters:
//   - devices: Device definitions, typically from the configuration file
//
// Returns:
//   - *Inventory: The validated inventory
//   - error: ErrInvalidInventory wrapping every problem found (schema, duplicate
//     names, missing or chained jump hosts)
//
// A jump host must itself be reachable directly; chains of jump hosts are rejected.
func New(devices []Device) (*Inventory, error) {
	if err := validateSchema(devices); err != nil {
		return nil, err
	}

	inv := &Inventory{devices: make(map[string]Device, len(devices))}

	var result *multierror.Error
	for _, d := range devices {
		if _, dup := inv.devices[d.Name]; dup {
			result = multierror.Append(result, fmt.Errorf("duplicate device name %q", d.Name))
			continue
		}
		inv.devices[d.Name] = d.withDefaults()
		inv.names = append(inv.names, d.Name)
	}

	for _, name := range inv.names {
		d := inv.devices[name]
		if !d.ViaJumpHost() {
			continue
		}
		switch jump, ok := inv.devices[d.JumpHost]; {
		case d.JumpHost == d.Name:
			result = multierror.Append(result, fmt.Errorf("device %q uses itself as jump host", d.Name))
		case !ok:
			result = multierror.Append(result, fmt.Errorf("device %q: jump host %q is not defined", d.Name, d.JumpHost))
		case jump.ViaJumpHost():
			result = multierror.Append(result, fmt.Errorf("device %q: jump host %q is itself behind %q; chained jump hosts are not supported",
				d.Name, jump.Name, jump.JumpHost))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInventory, err)
	}

	slices.Sort(inv.names)
	return inv, nil
}

// Lookup returns the named device.
func (i *Inventory) Lookup(name string) (Device, error) {
	d, ok := i.devices[name]
	if !ok {
		return Device{}, &UnknownDeviceError{Name: name, Available: i.Names()}
	}
	return d, nil
}

// Names returns the device names in sorted order.
func (i *Inventory) Names() []string { return slices.Clone(i.names) }

// Devices returns every device in name order.
func (i *Inventory) Devices() []Device {
	out := make([]Device, 0, len(i.names))
	for _, name := range i.names {
		out = append(out, i.devices[name])
	}
	return out
}

// JumpHostFor returns the jump host device of d. It fails if d is direct.
func (i *Inventory) JumpHostFor(d Device) (Device, error) {
	if !d.ViaJumpHost() {
		return Device{}, fmt.Errorf("device %q is reached directly", d.Name)
	}
	return i.Lookup(d.JumpHost)
}

// ResolveCredentials fills passwords and enable secrets from the environment.
//
// For every device, NETAUTO_<NAME>_PASSWORD and NETAUTO_<NAME>_SECRET override
// the configured values, where <NAME> is the upper-cased device name with
// non-alphanumerics replaced by underscores. A device's PasswordEnv/SecretEnv,
// when set, names the variable to read instead.
//
// Parameters:
//   - devices: Device definitions, modified in place
//   - lookup: Environment lookup, usually os.LookupEnv
func ResolveCredentials(devices []Device, lookup func(string) (string, bool)) {
	for i := range devices {
		d := &devices[i]
		prefix := "NETAUTO_" + envName(d.Name)

		passwordVar := prefix + "_PASSWORD"
		if d.PasswordEnv != "" {
			passwordVar = d.PasswordEnv
		}
		if v, ok := lookup(passwordVar); ok {
			d.Password = v
		}

		secretVar := prefix + "_SECRET"
		if d.SecretEnv != "" {
			secretVar = d.SecretEnv
		}
		if v, ok := lookup(secretVar); ok {
			d.Secret = v
		}
	}
}

func envName(name string) string {
	b := []byte(strings.ToUpper(name))
	for i, c := range b {
		if !(c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			b[i] = '_'
		}
	}
	return string(b)
}

// DefaultDevices returns the two-router lab: R1 reachable from the
// workstation, R2 only reachable through R1.
func DefaultDevices() []Device {
	return []Device{
		{
			Name:           "R1",
			Host:           "192.168.242.129",
			Username:       "admin",
			TimeoutSeconds: 30,
		},
		{
			Name:           "R2",
			Host:           "10.1.1.2",
			Username:       "admin",
			JumpHost:       "R1",
			JumpMethod:     JumpAuto,
			TimeoutSeconds: 30,
		},
	}
}
