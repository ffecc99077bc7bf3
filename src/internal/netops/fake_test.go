// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netops

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/history"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/inventory"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/netssh"
	"github.com/stretchr/testify/require"
)

const invalidInput = "                   ^\n% Invalid input detected at '^' marker."

// fakeSession replays canned command output and records what was sent.
type fakeSession struct {
	dev  inventory.Device
	host string

	// outputs maps a command to its output. Commands without an entry
	// return no output.
	outputs map[string]string
	// sequence maps a command to successive outputs; the last one repeats.
	sequence map[string][]string

	configErr error
	configOut string
	reachErr  error

	mu       sync.Mutex
	sent     []string
	configs  [][]string
	answers  [][]netssh.Answer
	reached  []netssh.Credentials
	timeouts map[string]time.Duration
	closed   bool
}

func newFakeSession(name string) *fakeSession {
	return &fakeSession{
		dev:      inventory.Device{Name: name, Host: "192.0.2.1", Username: "admin"},
		host:     name,
		outputs:  map[string]string{},
		sequence: map[string][]string{},
		timeouts: map[string]time.Duration{},
	}
}

func (f *fakeSession) Device() inventory.Device { return f.dev }
func (f *fakeSession) Hostname() string         { return f.host }

func (f *fakeSession) SendCommand(ctx context.Context, cmd string) (string, error) {
	return f.SendCommandTimeout(ctx, cmd, 0)
}

func (f *fakeSession) SendCommandTimeout(ctx context.Context, cmd string, timeout time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, cmd)
	if timeout > 0 {
		f.timeouts[cmd] = timeout
	}
	if seq := f.sequence[cmd]; len(seq) > 0 {
		out := seq[0]
		if len(seq) > 1 {
			f.sequence[cmd] = seq[1:]
		}
		return out, nil
	}
	return f.outputs[cmd], nil
}

func (f *fakeSession) SendInteractive(ctx context.Context, cmd string, answers ...netssh.Answer) (string, error) {
	f.mu.Lock()
	f.answers = append(f.answers, answers)
	f.mu.Unlock()
	return f.SendCommand(ctx, cmd)
}

func (f *fakeSession) SendConfigSet(ctx context.Context, lines []string, answers ...netssh.Answer) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs = append(f.configs, lines)
	f.answers = append(f.answers, answers)
	if f.configErr != nil {
		return f.configOut, f.configErr
	}
	return f.configOut, nil
}

func (f *fakeSession) Reach(ctx context.Context, cmd string, creds netssh.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, cmd)
	f.reached = append(f.reached, creds)
	return f.reachErr
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSession) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

// lastConfig returns the most recent configuration set.
func (f *fakeSession) lastConfig() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.configs) == 0 {
		return nil
	}
	return f.configs[len(f.configs)-1]
}

// fakeConnector hands out fakeSessions by device name.
type fakeConnector struct {
	mu       sync.Mutex
	sessions map[string]*fakeSession
	direct   map[string]*fakeSession
	dialed   []inventory.Device
	opened   int
}

func newFakeConnector(sessions ...*fakeSession) *fakeConnector {
	c := &fakeConnector{sessions: map[string]*fakeSession{}, direct: map[string]*fakeSession{}}
	for _, s := range sessions {
		c.sessions[s.dev.Name] = s
	}
	return c
}

func (c *fakeConnector) Connect(_ context.Context, device string) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[device]
	if !ok {
		return nil, fmt.Errorf("%w: %s", inventory.ErrUnknownDevice, device)
	}
	c.opened++
	return s, nil
}

func (c *fakeConnector) ConnectDevice(_ context.Context, dev inventory.Device) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialed = append(c.dialed, dev)
	s, ok := c.direct[dev.Host]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return s, nil
}

// fakeRecorder keeps the audit trail in memory.
type fakeRecorder struct {
	mu      sync.Mutex
	backups []history.Backup
	changes []history.Change
}

func (r *fakeRecorder) RecordBackup(_ context.Context, b history.Backup) (history.Backup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backups = append(r.backups, b)
	return b, nil
}

func (r *fakeRecorder) RecordChange(_ context.Context, c history.Change) (history.Change, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
	return c, nil
}

func (r *fakeRecorder) lastChange(t *testing.T) history.Change {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.changes, "no change recorded")
	return r.changes[len(r.changes)-1]
}

func newTestService(t *testing.T, conn Connector, rec Recorder) *Service {
	t.Helper()
	svc, err := New(conn, rec, Options{
		BackupDir: t.TempDir(),
		Now:       func() time.Time { return time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return svc
}
