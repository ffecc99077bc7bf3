// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netssh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/inventory"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/logger"
	"github.com/avast/retry-go"
	"github.com/hashicorp/go-multierror"
	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/ssh"
)

const (
	defaultCommandTimeout = 20 * time.Second
	defaultJumpIdle       = 10 * time.Minute
	defaultRetryAttempts  = 2
	defaultRetryDelay     = 500 * time.Millisecond
	keepaliveTimeout      = 5 * time.Second
)

// Options tunes a Manager. Zero values select the defaults.
type Options struct {
	// Dialer opens SSH connections. Required.
	Dialer *Dialer
	// Logger receives connection lifecycle events.
	Logger logger.Logger
	// CommandTimeout bounds each command's wait for the prompt.
	CommandTimeout time.Duration
	// JumpIdle is how long an unused jump host connection stays cached.
	JumpIdle time.Duration
	// JumpSweep is how often expired jump host connections are closed in
	// the background. Defaults to JumpIdle, capped at one minute.
	JumpSweep time.Duration
	// RetryAttempts is the total number of tries for a jump host open.
	RetryAttempts uint
	// RetryDelay is the pause between tries.
	RetryDelay time.Duration
}

// Manager opens device sessions and multiplexes them over cached jump host
// connections.
//
// A device with a jump host is reached either through a direct-tcpip
// channel of the jump host's SSH connection (tunnel) or by typing "ssh"
// into the jump router's CLI (CLI hop). Both ride on the same cached
// connection, which is checked with a keepalive before reuse and redialed when dead.
type Manager struct {
	inv  *inventory.Inventory
	opts Options
	log  logger.Logger

	jumpMu sync.Mutex
	jumps  *cache.Cache

	mu         sync.Mutex
	strategies map[string]Strategy
}

// NewManager creates a Manager for inv.
//
// Parameters:
//   - inv: Validated device inventory
//   - opts: Dialer and tuning options
//
// Returns:
//   - *Manager: Ready to open sessions
//   - error: If inv or opts.Dialer is nil
func NewManager(inv *inventory.Inventory, opts Options) (*Manager, error) {
	if inv == nil {
		return nil, errors.New("netssh: inventory is required")
	}
	if opts.Dialer == nil {
		return nil, errors.New("netssh: dialer is required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = defaultCommandTimeout
	}
	if opts.JumpIdle <= 0 {
		opts.JumpIdle = defaultJumpIdle
	}
	if opts.JumpSweep <= 0 {
		opts.JumpSweep = min(opts.JumpIdle, time.Minute)
	}
	if opts.RetryAttempts == 0 {
		opts.RetryAttempts = defaultRetryAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}

	m := &Manager{
		inv:        inv,
		opts:       opts,
		log:        opts.Logger,
		jumps:      cache.New(opts.JumpIdle, opts.JumpSweep),
		strategies: make(map[string]Strategy),
	}
	m.jumps.OnEvicted(func(name string, v any) {
		if c, ok := v.(*ssh.Client); ok {
			c.Close()
			m.log.Printf("Closed jump host connection to %s", name)
		}
	})
	return m, nil
}

// Inventory returns the device inventory the manager serves.
func (m *Manager) Inventory() *inventory.Inventory { return m.inv }

// Open looks up name in the inventory and opens a privileged session on it.
func (m *Manager) Open(ctx context.Context, name string) (*Session, error) {
	dev, err := m.inv.Lookup(name)
	if err != nil {
		return nil, err
	}
	return m.OpenDevice(ctx, dev)
}

// OpenDevice opens a privileged session on dev, which need not be part of
// the inventory. Its jump host, if any, must be.
//
// Parameters:
//   - ctx: Bounds dialing and login
//   - dev: Target device
//
// Returns:
//   - *Session: Logged in and with paging disabled; the caller closes it
//   - error: ErrAuthFailed, ErrTimeout, ErrHopFailed, an *ssh.OpenChannelError
//     when the jump host refuses tunnels and the device is pinned to them,
//     or a dial error
//
// Jump host opens are retried up to RetryAttempts times. The cached jump
// connection is dropped before each retry so the next try reconnects.
func (m *Manager) OpenDevice(ctx context.Context, dev inventory.Device) (*Session, error) {
	if !dev.ViaJumpHost() {
		return m.openDirect(ctx, dev)
	}

	jump, err := m.inv.Lookup(dev.JumpHost)
	if err != nil {
		return nil, fmt.Errorf("jump host for %s: %w", dev.Name, err)
	}

	var sess *Session
	err = retry.Do(
		func() error {
			s, err := m.openViaJump(ctx, jump, dev)
			if err != nil {
				return err
			}
			sess = s
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(m.opts.RetryAttempts),
		retry.Delay(m.opts.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			m.log.Warnf("Opening %s via %s failed (attempt %d of %d): %v", dev.Name, jump.Name, n+1, m.opts.RetryAttempts, err)
			m.dropJump(jump.Name)
		}),
	)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// retryable reports whether reconnecting the jump host could help.
func retryable(err error) bool {
	var refused *ssh.OpenChannelError
	switch {
	case errors.Is(err, ErrAuthFailed),
		errors.Is(err, ErrHopFailed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &refused):
		return false
	}
	return true
}

func (m *Manager) openDirect(ctx context.Context, dev inventory.Device) (*Session, error) {
	client, err := m.opts.Dialer.Dial(ctx, dev)
	if err != nil {
		return nil, err
	}

	sess, err := m.startSession(client, dev)
	if err != nil {
		client.Close()
		return nil, err
	}
	sess.closers = append([]io.Closer{client}, sess.closers...)

	if err := sess.login(ctx, dev.Username, dev.Password, dev.Secret); err != nil {
		sess.Close()
		return nil, err
	}
	m.log.Printf("Connected to %s (%s) as %s", dev.Name, dev.Address(), sess.hostname)
	return sess, nil
}

func (m *Manager) openViaJump(ctx context.Context, jump, dev inventory.Device) (*Session, error) {
	jc, err := m.jumpClient(ctx, jump)
	if err != nil {
		return nil, err
	}

	if m.strategyFor(dev) == StrategyCLIHop {
		return m.openCLIHop(ctx, jc, jump, dev)
	}

	sess, err := m.openTunnel(ctx, jc, jump, dev)
	var refused *ssh.OpenChannelError
	if err != nil && errors.As(err, &refused) && jumpMethod(dev) == inventory.JumpAuto {
		m.log.Warnf("Jump host %s refused a tunnel to %s (%s); falling back to CLI hop", jump.Name, dev.Name, refused.Message)
		sess, err = m.openCLIHop(ctx, jc, jump, dev)
		if err == nil {
			m.remember(dev.Name, StrategyCLIHop)
		}
		return sess, err
	}
	if err == nil {
		m.remember(dev.Name, StrategyTunnel)
	}
	return sess, err
}

// openTunnel runs a nested SSH connection to dev inside a direct-tcpip
// channel of the jump connection. The nested client belongs to the session.
func (m *Manager) openTunnel(ctx context.Context, jc *ssh.Client, jump, dev inventory.Device) (*Session, error) {
	conn, err := jc.DialContext(ctx, "tcp", dev.Address())
	if err != nil {
		return nil, fmt.Errorf("tunnel to %s via %s: %w", dev.Name, jump.Name, err)
	}

	client, err := m.opts.Dialer.Handshake(ctx, conn, dev)
	if err != nil {
		conn.Close()
		return nil, err
	}

	sess, err := m.startSession(client, dev)
	if err != nil {
		client.Close()
		return nil, err
	}
	sess.closers = append([]io.Closer{client}, sess.closers...)
	sess.via = jump.Name
	sess.strategy = StrategyTunnel

	if err := sess.login(ctx, dev.Username, dev.Password, dev.Secret); err != nil {
		sess.Close()
		return nil, err
	}
	m.log.Printf("Connected to %s via %s (tunnel)", dev.Name, jump.Name)
	return sess, nil
}

// openCLIHop opens a shell on the jump router and runs "ssh" from its CLI.
// Only the shell channel belongs to the session; the jump connection stays
// cached for other sessions.
func (m *Manager) openCLIHop(ctx context.Context, jc *ssh.Client, jump, dev inventory.Device) (*Session, error) {
	sess, err := m.startSession(jc, dev)
	if err != nil {
		return nil, err
	}
	sess.via = jump.Name
	sess.strategy = StrategyCLIHop

	err = sess.awaitPrompt(ctx, jump.Username, jump.Password, false)
	if err == nil {
		err = sess.reach(ctx, hopCommand(dev), Credentials{Username: dev.Username, Password: dev.Password})
	}
	if err == nil {
		err = sess.prepare(ctx, dev.Secret)
	}
	if err != nil {
		sess.Close()
		return nil, err
	}
	m.log.Printf("Connected to %s via %s (CLI hop)", dev.Name, jump.Name)
	return sess, nil
}

// hopCommand is the IOS exec command that reaches dev from a jump router.
func hopCommand(dev inventory.Device) string {
	cmd := "ssh -l " + dev.Username
	if dev.Port != 0 && dev.Port != inventory.DefaultPort {
		cmd += " -p " + strconv.Itoa(dev.Port)
	}
	return cmd + " " + dev.Host
}

// startSession opens an interactive shell channel on client for dev.
func (m *Manager) startSession(client *ssh.Client, dev inventory.Device) (*Session, error) {
	ss, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("%s: open session channel: %w", dev.Name, err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 38400,
		ssh.TTY_OP_OSPEED: 38400,
	}
	if err := ss.RequestPty("vt100", 24, 511, modes); err != nil {
		ss.Close()
		return nil, fmt.Errorf("%s: request pty: %w", dev.Name, err)
	}
	stdin, err := ss.StdinPipe()
	if err != nil {
		ss.Close()
		return nil, fmt.Errorf("%s: stdin: %w", dev.Name, err)
	}
	stdout, err := ss.StdoutPipe()
	if err != nil {
		ss.Close()
		return nil, fmt.Errorf("%s: stdout: %w", dev.Name, err)
	}
	if err := ss.Shell(); err != nil {
		ss.Close()
		return nil, fmt.Errorf("%s: start shell: %w", dev.Name, err)
	}

	closers := []io.Closer{ss}
	var sessionLog io.Writer
	if dev.SessionLog != "" {
		f, err := os.OpenFile(dev.SessionLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			m.log.Warnf("Session log %s for %s disabled: %v", dev.SessionLog, dev.Name, err)
		} else {
			sessionLog = f
			closers = []io.Closer{f, ss}
		}
	}

	sh := newShell(stdout, stdin, sessionLog)
	sess := newSession(dev, sh, dev.Timeout(m.opts.Dialer.cfg.Timeout), m.opts.CommandTimeout)
	sess.closers = closers
	return sess, nil
}

// jumpClient returns a live connection to jump, reusing the cached one
// when it still answers keepalives.
//
// Expired entries are evicted first. The cache hides them from Get but
// keeps them until the next sweep, and overwriting one would drop its
// connection without closing it.
func (m *Manager) jumpClient(ctx context.Context, jump inventory.Device) (*ssh.Client, error) {
	m.jumpMu.Lock()
	defer m.jumpMu.Unlock()

	m.jumps.DeleteExpired()

	if v, ok := m.jumps.Get(jump.Name); ok {
		jc := v.(*ssh.Client)
		if alive(jc, keepaliveTimeout) {
			m.jumps.SetDefault(jump.Name, jc)
			m.log.Printf("Reusing jump host connection to %s", jump.Name)
			return jc, nil
		}
		m.log.Warnf("Jump host connection to %s is dead; reconnecting", jump.Name)
		m.jumps.Delete(jump.Name)
	}

	m.log.Printf("Connecting to jump host %s (%s)", jump.Name, jump.Address())
	jc, err := m.opts.Dialer.Dial(ctx, jump)
	if err != nil {
		return nil, fmt.Errorf("jump host %s: %w", jump.Name, err)
	}
	m.jumps.SetDefault(jump.Name, jc)
	return jc, nil
}

// dropJump evicts and closes the cached connection to name.
func (m *Manager) dropJump(name string) {
	m.jumpMu.Lock()
	defer m.jumpMu.Unlock()
	m.jumps.Delete(name)
}

// alive sends an OpenSSH keepalive. Any reply, including a refusal, proves
// the connection is up.
func alive(c *ssh.Client, timeout time.Duration) bool {
	res := make(chan error, 1)
	go func() {
		_, _, err := c.SendRequest("keepalive@openssh.com", true, nil)
		res <- err
	}()

	select {
	case err := <-res:
		return err == nil
	case <-time.After(timeout):
		return false
	}
}

func jumpMethod(dev inventory.Device) inventory.JumpMethod {
	if dev.JumpMethod == "" {
		return inventory.JumpAuto
	}
	return dev.JumpMethod
}

// strategyFor picks the strategy for the next open of dev.
func (m *Manager) strategyFor(dev inventory.Device) Strategy {
	switch jumpMethod(dev) {
	case inventory.JumpCLI:
		return StrategyCLIHop
	case inventory.JumpTunnel:
		return StrategyTunnel
	}
	if s, ok := m.Strategy(dev.Name); ok {
		return s
	}
	return StrategyTunnel
}

func (m *Manager) remember(name string, s Strategy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strategies[name] = s
}

// Strategy returns the jump strategy that last worked for the named device.
func (m *Manager) Strategy(name string) (Strategy, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.strategies[name]
	return s, ok
}

// Strategies returns a copy of every remembered jump strategy.
func (m *Manager) Strategies() map[string]Strategy {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.strategies)
}

// JumpHosts returns the names of the cached jump host connections, sorted.
// Connections idle past JumpIdle are closed and left out.
func (m *Manager) JumpHosts() []string {
	m.jumps.DeleteExpired()
	names := slices.Collect(maps.Keys(m.jumps.Items()))
	slices.Sort(names)
	return names
}

// Close closes every cached jump host connection and empties the cache.
// Sessions opened earlier through a tunnel or CLI hop lose their transport.
// The manager stays usable and later opens reconnect. Close is idempotent.
func (m *Manager) Close() error {
	m.jumpMu.Lock()
	defer m.jumpMu.Unlock()

	// Items skips expired entries and Flush does not run the eviction hook.
	m.jumps.DeleteExpired()

	var result *multierror.Error
	for name, item := range m.jumps.Items() {
		c, ok := item.Object.(*ssh.Client)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil && !isClosedError(err) {
			result = multierror.Append(result, fmt.Errorf("close jump host %s: %w", name, err))
			continue
		}
		m.log.Printf("Closed jump host connection to %s", name)
	}
	m.jumps.Flush()
	return result.ErrorOrNil()
}
