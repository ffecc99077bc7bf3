// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netops

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/history"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/inventory"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/ios"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/netssh"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/logger"
)

const (
	defaultBackupDir          = "backups"
	defaultPingCount          = 5
	defaultLogLines           = 50
	defaultSweepLimit         = 50
	defaultLongCommandTimeout = 2 * time.Minute
)

// Session is a logged-in CLI session on one device.
//
// *netssh.Session implements it.
type Session interface {
	Device() inventory.Device
	Hostname() string
	SendCommand(ctx context.Context, cmd string) (string, error)
	SendCommandTimeout(ctx context.Context, cmd string, timeout time.Duration) (string, error)
	SendInteractive(ctx context.Context, cmd string, answers ...netssh.Answer) (string, error)
	SendConfigSet(ctx context.Context, lines []string, answers ...netssh.Answer) (string, error)
	Reach(ctx context.Context, cmd string, creds netssh.Credentials) error
	Close() error
}

// Connector opens sessions on devices.
type Connector interface {
	// Connect opens a session on an inventory device by name.
	Connect(ctx context.Context, device string) (Session, error)
	// ConnectDevice opens a session on a device that need not be in the
	// inventory, such as a freshly bootstrapped router.
	ConnectDevice(ctx context.Context, dev inventory.Device) (Session, error)
}

// Recorder keeps the audit trail of backups and configuration changes.
//
// *history.Store implements it.
type Recorder interface {
	RecordBackup(ctx context.Context, b history.Backup) (history.Backup, error)
	RecordChange(ctx context.Context, c history.Change) (history.Change, error)
}

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	// BackupDir is where Backup writes files when no directory is given.
	BackupDir string
	// PingCount is the repeat count of connectivity checks.
	PingCount int
	// LogLines is how many syslog lines Logs fetches by default.
	LogLines int
	// SweepLimit caps the number of hosts a ping sweep covers.
	SweepLimit int
	// LongCommandTimeout bounds ping, traceroute, RSA key generation and
	// write memory.
	LongCommandTimeout time.Duration
	// VerifyDelay is the pause before a bootstrapped router is verified
	// over SSH, giving it time to start the SSH server.
	VerifyDelay time.Duration
	// Logger receives operation events.
	Logger logger.Logger
	// Now returns the current time; backup file names use it.
	Now func() time.Time
}

// Service runs network operations against the devices a Connector reaches.
type Service struct {
	conn Connector
	rec  Recorder
	opts Options
	log  logger.Logger
}

// New creates a Service.
//
// Parameters:
//   - conn: Opens device sessions. Required.
//   - rec: Audit trail; nil disables recording
//   - opts: Tuning options
//
// Returns:
//   - *Service: Ready to run operations
//   - error: If conn is nil
func New(conn Connector, rec Recorder, opts Options) (*Service, error) {
	if conn == nil {
		return nil, errors.New("netops: connector is required")
	}
	if opts.BackupDir == "" {
		opts.BackupDir = defaultBackupDir
	}
	if opts.PingCount <= 0 {
		opts.PingCount = defaultPingCount
	}
	if opts.LogLines <= 0 {
		opts.LogLines = defaultLogLines
	}
	if opts.SweepLimit <= 0 {
		opts.SweepLimit = defaultSweepLimit
	}
	if opts.LongCommandTimeout <= 0 {
		opts.LongCommandTimeout = defaultLongCommandTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{conn: conn, rec: rec, opts: opts, log: opts.Logger}, nil
}

// withSession opens a session on device, runs fn and closes the session.
func (s *Service) withSession(ctx context.Context, device string, fn func(Session) (*ios.Report, error)) (*ios.Report, error) {
	if err := requireDevice(device); err != nil {
		return nil, err
	}

	sess, err := s.conn.Connect(ctx, device)
	if err != nil {
		return nil, err
	}
	defer s.closeSession(device, sess)

	return fn(sess)
}

func (s *Service) closeSession(device string, sess Session) {
	if err := sess.Close(); err != nil {
		s.log.Warnf("Closing session on %s: %v", device, err)
	}
}

// show runs cmd and adds its output to rep under the command's name.
func show(ctx context.Context, sess Session, rep *ios.Report, cmd string) (string, error) {
	out, err := sess.SendCommand(ctx, cmd)
	if err != nil {
		return "", err
	}
	rep.AddOutput(cmd, out)
	return out, nil
}

// configure pushes lines and reports whether IOS accepted all of them. A
// rejected line fails rep; transport failures are returned.
func configure(ctx context.Context, sess Session, rep *ios.Report, lines []string, answers ...netssh.Answer) (bool, error) {
	out, err := sess.SendConfigSet(ctx, lines, answers...)
	rep.AddOutput("Configuration", out)
	if errors.Is(err, netssh.ErrCommandRejected) {
		rep.Fail("Configuration rejected by %s: %v", rep.Device, err)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// writeMemory saves the running configuration.
func (s *Service) writeMemory(ctx context.Context, sess Session, rep *ios.Report) error {
	out, err := sess.SendCommandTimeout(ctx, "write memory", s.opts.LongCommandTimeout)
	if err != nil {
		return err
	}
	rep.AddOutput("write memory", out)
	return nil
}

// record appends a change to the audit trail. Recording failures are logged
// and never fail the operation.
func (s *Service) record(ctx context.Context, operation string, rep *ios.Report, lines []string) {
	if s.rec == nil || rep == nil {
		return
	}
	_, err := s.rec.RecordChange(context.WithoutCancel(ctx), history.Change{
		Device:    rep.Device,
		Operation: operation,
		Commands:  lines,
		Success:   rep.Success,
		Message:   rep.Message,
	})
	if err != nil {
		s.log.Warnf("Recording %s on %s: %v", operation, rep.Device, err)
	}
}

// verdict maps a boolean check to PASS or FAIL.
func verdict(ok bool) string {
	if ok {
		return ios.StatusPass
	}
	return ios.StatusFail
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return strings.TrimSpace(s)
}

// ping runs an IOS ping with the long command timeout.
func (s *Service) ping(ctx context.Context, sess Session, target string, count int) (string, error) {
	out, err := sess.SendCommandTimeout(ctx, fmt.Sprintf("ping %s repeat %d", target, count), s.opts.LongCommandTimeout)
	if err != nil {
		return "", err
	}
	return out, nil
}
