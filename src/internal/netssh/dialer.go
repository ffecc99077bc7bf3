// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netssh

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/inventory"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/logger"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Algorithms needed by older IOS images (12.x/15.x) that predate CTR/GCM
// ciphers and SHA-2 key exchange. They are appended after the modern ones.
var (
	legacyKeyExchanges = []string{
		"curve25519-sha256", "curve25519-sha256@libssh.org",
		"ecdh-sha2-nistp256", "ecdh-sha2-nistp384",
		"diffie-hellman-group14-sha256",
		"diffie-hellman-group14-sha1", "diffie-hellman-group1-sha1",
	}
	legacyCiphers = []string{
		"aes128-gcm@openssh.com", "chacha20-poly1305@openssh.com",
		"aes128-ctr", "aes192-ctr", "aes256-ctr",
		"aes128-cbc", "3des-cbc",
	}
	legacyHostKeyAlgorithms = []string{
		ssh.KeyAlgoED25519, ssh.KeyAlgoECDSA256,
		ssh.KeyAlgoRSASHA512, ssh.KeyAlgoRSASHA256, ssh.KeyAlgoRSA,
	}
)

// DialerConfig controls how SSH connections to devices are established.
type DialerConfig struct {
	// KnownHostsFile enables host key verification when set.
	KnownHostsFile string
	// InsecureIgnoreHostKey accepts any host key when no known_hosts file is
	// configured. Lab routers regenerate keys often, so this is the default.
	InsecureIgnoreHostKey bool
	// LegacyAlgorithms enables CBC ciphers and SHA-1 key exchange.
	LegacyAlgorithms bool
	// Timeout bounds TCP connect plus handshake when a device sets none.
	Timeout time.Duration
}

// Dialer opens SSH client connections to inventory devices.
type Dialer struct {
	cfg             DialerConfig
	hostKeyCallback ssh.HostKeyCallback
}

// NewDialer validates cfg and prepares the host key policy.
//
// Parameters:
//   - cfg: Dialer configuration
//   - log: Receives a warning when host keys are not verified
//
// Returns:
//   - *Dialer: Ready to dial
//   - error: If the known_hosts file cannot be loaded, or if no host key
//     policy is configured at all
func NewDialer(cfg DialerConfig, log logger.Logger) (*Dialer, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = logger.Discard()
	}

	d := &Dialer{cfg: cfg}
	switch {
	case cfg.KnownHostsFile != "":
		cb, err := knownhosts.New(cfg.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("load known_hosts %s: %w", cfg.KnownHostsFile, err)
		}
		d.hostKeyCallback = cb
	case cfg.InsecureIgnoreHostKey:
		log.Warnf("SSH host keys are not verified; set ssh.knownHostsFile to enable verification")
		d.hostKeyCallback = ssh.InsecureIgnoreHostKey()
	default:
		return nil, fmt.Errorf("no host key policy: set ssh.knownHostsFile or ssh.insecureIgnoreHostKey")
	}
	return d, nil
}

// ClientConfig builds the SSH client configuration for dev.
// IOS commonly offers keyboard-interactive instead of password auth, so
// both are registered and answered with the device password.
func (d *Dialer) ClientConfig(dev inventory.Device) *ssh.ClientConfig {
	password := dev.Password
	cfg := &ssh.ClientConfig{
		User: dev.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: d.hostKeyCallback,
		Timeout:         dev.Timeout(d.cfg.Timeout),
	}
	if d.cfg.LegacyAlgorithms {
		cfg.KeyExchanges = legacyKeyExchanges
		cfg.Ciphers = legacyCiphers
		cfg.HostKeyAlgorithms = legacyHostKeyAlgorithms
	}
	return cfg
}

// Dial connects to dev over TCP and performs the SSH handshake.
func (d *Dialer) Dial(ctx context.Context, dev inventory.Device) (*ssh.Client, error) {
	nd := net.Dialer{Timeout: dev.Timeout(d.cfg.Timeout)}
	conn, err := nd.DialContext(ctx, "tcp", dev.Address())
	if err != nil {
		return nil, fmt.Errorf("dial %s (%s): %w", dev.Name, dev.Address(), err)
	}

	client, err := d.Handshake(ctx, conn, dev)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return client, nil
}

// Handshake runs the SSH client handshake for dev over an existing
// connection, such as a direct-tcpip channel through a jump host.
//
// Channels opened through a jump host do not support deadlines, so the
// handshake is bounded by closing conn when the device timeout elapses or
// ctx is done.
func (d *Dialer) Handshake(ctx context.Context, conn net.Conn, dev inventory.Device) (*ssh.Client, error) {
	timeout := dev.Timeout(d.cfg.Timeout)

	timer := time.AfterFunc(timeout, func() { conn.Close() })
	stop := context.AfterFunc(ctx, func() { conn.Close() })

	c, chans, reqs, err := ssh.NewClientConn(conn, dev.Address(), d.ClientConfig(dev))
	timedOut := !timer.Stop()
	cancelled := !stop()

	return settleHandshake(ctx, dev, timeout, c, chans, reqs, err, timedOut, cancelled)
}

// settleHandshake turns the outcome of ssh.NewClientConn into a client.
// When the timeout or cancellation fired, the underlying connection is
// closed or about to be, so even a successful handshake is discarded.
func settleHandshake(ctx context.Context, dev inventory.Device, timeout time.Duration,
	c ssh.Conn, chans <-chan ssh.NewChannel, reqs <-chan *ssh.Request, err error, timedOut, cancelled bool,
) (*ssh.Client, error) {
	if err == nil && (timedOut || cancelled) {
		c.Close()
	}

	switch {
	case timedOut:
		return nil, fmt.Errorf("ssh handshake with %s: %w after %s", dev.Name, ErrTimeout, timeout)
	case cancelled || (err != nil && ctx.Err() != nil):
		return nil, ctx.Err()
	case err != nil && strings.Contains(err.Error(), "unable to authenticate"):
		return nil, fmt.Errorf("%s: %w: %v", dev.Name, ErrAuthFailed, err)
	case err != nil:
		return nil, fmt.Errorf("ssh handshake with %s: %w", dev.Name, err)
	}

	return ssh.NewClient(c, chans, reqs), nil
}
