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
	"net"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/inventory"
	"github.com/hashicorp/go-multierror"
)

// Strategy names how a session reached its device.
type Strategy string

const (
	// StrategyDirect is a plain SSH connection from this host.
	StrategyDirect Strategy = "direct"
	// StrategyTunnel is an SSH connection carried in a direct-tcpip channel
	// of the jump host's SSH connection.
	StrategyTunnel Strategy = "tunnel"
	// StrategyCLIHop is an interactive "ssh -l" typed into the jump
	// router's own CLI.
	StrategyCLIHop Strategy = "cli"
)

// Answer is a reply to an interactive question, e.g. "[confirm]".
type Answer struct {
	Pattern *regexp.Regexp
	Reply   string
}

// Credentials answer the login chat of a device reached from another
// device's CLI.
type Credentials struct {
	Username string
	Password string
	// Secret is the enable password. Devices without one are enabled
	// with a bare "enable".
	Secret string
}

// maxQuestions bounds the answers given to a single command.
const maxQuestions = 16

// Session is a logged-in CLI session on one IOS device.
//
// A Session is safe for concurrent use; commands are serialized.
type Session struct {
	device   inventory.Device
	via      string
	strategy Strategy

	sh       *shell
	hostname string
	prompt   *regexp.Regexp
	enabled  bool

	loginTimeout   time.Duration
	commandTimeout time.Duration

	// hops counts devices entered from this session's CLI. Each one is
	// left with "exit" on Close.
	hops    int
	closers []io.Closer

	mu        sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func newSession(dev inventory.Device, sh *shell, loginTimeout, commandTimeout time.Duration) *Session {
	return &Session{
		device:         dev,
		strategy:       StrategyDirect,
		sh:             sh,
		loginTimeout:   loginTimeout,
		commandTimeout: commandTimeout,
	}
}

// Device returns the inventory entry the session was opened for.
func (s *Session) Device() inventory.Device { return s.device }

// Hostname returns the hostname learned from the device prompt.
func (s *Session) Hostname() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hostname
}

// Prompt returns the pattern matching the device prompt in any mode.
func (s *Session) Prompt() *regexp.Regexp {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt
}

// Strategy reports how the device was reached.
func (s *Session) Strategy() Strategy { return s.strategy }

// Via returns the jump host name, or "" for direct sessions.
func (s *Session) Via() string { return s.via }

// Privileged reports whether the session is in enable mode.
func (s *Session) Privileged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// login drives the device from a fresh channel to a prompt with paging
// disabled.
//
// It answers Username:/Password: prompts (present on telnet and some AAA
// setups, usually absent after SSH auth), presses return on console-style
// banners, learns the hostname from the first prompt, enters enable mode
// when a secret is available, and disables paging.
func (s *Session) login(ctx context.Context, username, password, secret string) error {
	if err := s.awaitPrompt(ctx, username, password, false); err != nil {
		return err
	}
	return s.prepare(ctx, secret)
}

// prepare enables the session and disables paging once a prompt is known.
func (s *Session) prepare(ctx context.Context, secret string) error {
	if !s.enabled && secret != "" {
		if err := s.elevate(ctx, secret); err != nil {
			return err
		}
	}
	return s.disablePaging(ctx)
}

func (s *Session) disablePaging(ctx context.Context) error {
	for _, cmd := range []string{"terminal length 0", "terminal width 511"} {
		if _, err := s.exchange(ctx, cmd, s.commandTimeout); err != nil {
			return fmt.Errorf("%s: %w", cmd, err)
		}
	}
	return nil
}

// awaitPrompt answers login chat until any CLI prompt appears. When
// passwordSent is set, the password was already answered by the caller and
// another Password: prompt means it was rejected.
func (s *Session) awaitPrompt(ctx context.Context, username, password string, passwordSent bool) error {
	sentUser := false

	for range 8 {
		i, out, err := s.sh.expect(ctx, s.loginTimeout,
			loginFailedPattern, anyPromptPattern, usernamePattern, passwordPattern, pressReturnPattern)
		if err != nil {
			return fmt.Errorf("login to %s: %w", s.device.Name, err)
		}

		switch i {
		case 0:
			return fmt.Errorf("login to %s: %w: %s", s.device.Name, ErrAuthFailed, strings.TrimSpace(normalizeNewlines(out)))
		case 1:
			s.learnPrompt(out)
			return nil
		case 2:
			if sentUser {
				return fmt.Errorf("login to %s: %w", s.device.Name, ErrAuthFailed)
			}
			sentUser = true
			if err := s.sh.send(username); err != nil {
				return err
			}
		case 3:
			if passwordSent {
				return fmt.Errorf("login to %s: %w", s.device.Name, ErrAuthFailed)
			}
			passwordSent = true
			if err := s.sh.send(password); err != nil {
				return err
			}
		case 4:
			if err := s.sh.send(""); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("login to %s: %w: no prompt after login chat", s.device.Name, ErrTimeout)
}

// elevate sends "enable" and answers the password prompt with secret.
func (s *Session) elevate(ctx context.Context, secret string) error {
	if err := s.sh.send("enable"); err != nil {
		return err
	}
	i, out, err := s.sh.expect(ctx, s.commandTimeout, passwordPattern, s.prompt)
	if err != nil {
		return fmt.Errorf("enable on %s: %w", s.device.Name, err)
	}
	if i == 0 {
		if secret == "" {
			s.sh.send("")
			s.sh.expect(ctx, s.commandTimeout, s.prompt)
			return fmt.Errorf("enable on %s: %w: secret required", s.device.Name, ErrAuthFailed)
		}
		if err := s.sh.send(secret); err != nil {
			return err
		}
		if _, out, err = s.sh.expect(ctx, s.commandTimeout, s.prompt); err != nil {
			return fmt.Errorf("enable on %s: %w", s.device.Name, err)
		}
	}

	if _, _, marker, _ := parsePrompt(out); marker != '#' {
		return fmt.Errorf("enable on %s: %w: secret rejected", s.device.Name, ErrAuthFailed)
	}
	s.enabled = true
	return nil
}

func (s *Session) learnPrompt(out string) {
	host, _, marker, _ := parsePrompt(out)
	s.setHostname(host)
	s.enabled = marker == '#'
}

func (s *Session) setHostname(host string) {
	s.hostname = host
	s.prompt = PromptPattern(host)
}

// Reach runs cmd, such as "telnet 10.1.1.2", from the device's CLI and
// logs in to the device it connects to.
//
// Parameters:
//   - ctx: Bounds the login chat
//   - cmd: Exec command that opens a CLI connection to another device
//   - creds: Answers for Username:/Password: and the enable password
//
// Returns:
//   - error: ErrHopFailed when the connection is refused or the original
//     prompt comes back, ErrAuthFailed on rejected credentials
//
// Afterwards the session drives the new device with paging disabled, in
// enable mode if possible. Close leaves it with "exit" before tearing down
// the channel.
func (s *Session) Reach(ctx context.Context, cmd string, creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reach(ctx, cmd, creds); err != nil {
		return err
	}
	if !s.enabled {
		if err := s.elevate(ctx, creds.Secret); err != nil {
			return err
		}
	}
	return s.disablePaging(ctx)
}

// reach performs the login chat after cmd and switches the session to the
// prompt of the device it lands on.
func (s *Session) reach(ctx context.Context, cmd string, creds Credentials) error {
	origin, originName := s.prompt, s.hostname
	if err := s.sh.send(cmd); err != nil {
		return err
	}

	sentUser, sentPassword := false, false
	for range 8 {
		i, out, err := s.sh.expect(ctx, s.loginTimeout,
			hopFailedPattern, loginFailedPattern, origin,
			passwordPattern, usernamePattern, pressReturnPattern, anyPromptPattern)
		if err != nil {
			return fmt.Errorf("%s: %q: %w", originName, cmd, err)
		}

		switch i {
		case 0:
			return fmt.Errorf("%w: %s: %s", ErrHopFailed, cmd, strings.TrimSpace(hopFailedPattern.FindString(normalizeNewlines(out))))
		case 1:
			return fmt.Errorf("%s: %q: %w: %s", originName, cmd, ErrAuthFailed, strings.TrimSpace(normalizeNewlines(out)))
		case 2:
			return fmt.Errorf("%w: %s: %s returned to its prompt", ErrHopFailed, cmd, originName)
		case 3:
			if sentPassword {
				return fmt.Errorf("%s: %q: %w", originName, cmd, ErrAuthFailed)
			}
			sentPassword = true
			if err := s.sh.send(creds.Password); err != nil {
				return err
			}
		case 4:
			if sentUser {
				return fmt.Errorf("%s: %q: %w", originName, cmd, ErrAuthFailed)
			}
			sentUser = true
			if err := s.sh.send(creds.Username); err != nil {
				return err
			}
		case 5:
			if err := s.sh.send(""); err != nil {
				return err
			}
		case 6:
			s.learnPrompt(out)
			s.hops++
			return nil
		}
	}
	return fmt.Errorf("%w: %s: no prompt from the remote device", ErrHopFailed, cmd)
}

// SendCommand runs an exec-mode command and returns its output without
// the echoed command line and the trailing prompt.
func (s *Session) SendCommand(ctx context.Context, cmd string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exchange(ctx, cmd, s.commandTimeout)
}

// SendCommandTimeout is SendCommand with an explicit timeout, for slow
// commands such as traceroute or ping sweeps.
func (s *Session) SendCommandTimeout(ctx context.Context, cmd string, timeout time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exchange(ctx, cmd, timeout)
}

// SendInteractive runs cmd and answers questions the device asks before
// it returns to the prompt, such as "[confirm]" or the RSA modulus size.
// Output from all rounds is returned together.
func (s *Session) SendInteractive(ctx context.Context, cmd string, answers ...Answer) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exchange(ctx, cmd, s.commandTimeout, answers...)
}

// SendCommandExpect runs cmd and, if the device asks a question matching
// pattern before returning to the prompt, confirms it with a bare return.
func (s *Session) SendCommandExpect(ctx context.Context, cmd string, pattern *regexp.Regexp) (string, error) {
	return s.SendInteractive(ctx, cmd, Answer{Pattern: pattern})
}

// exchange sends cmd and waits for the prompt, answering questions on the
// way. The caller holds s.mu.
func (s *Session) exchange(ctx context.Context, cmd string, timeout time.Duration, answers ...Answer) (string, error) {
	if err := s.sh.send(cmd); err != nil {
		return "", err
	}

	patterns := make([]*regexp.Regexp, 0, len(answers)+1)
	patterns = append(patterns, s.prompt)
	for _, a := range answers {
		patterns = append(patterns, a.Pattern)
	}

	var transcript strings.Builder
	for range maxQuestions {
		i, out, err := s.sh.expect(ctx, timeout, patterns...)
		if err != nil {
			return "", fmt.Errorf("%s: command %q: %w", s.device.Name, cmd, err)
		}
		transcript.WriteString(out)
		if i == 0 {
			return cleanOutput(transcript.String(), cmd, s.prompt), nil
		}
		transcript.WriteString("\n")
		if err := s.sh.send(answers[i-1].Reply); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("%s: command %q: %w: too many questions", s.device.Name, cmd, ErrTimeout)
}

// SendConfigSet enters configuration mode, sends lines in order and
// returns to exec mode with "end".
//
// Parameters:
//   - ctx: Cancels the exchange
//   - lines: Configuration lines; an element may hold several newline
//     separated lines when the device reads them as one block (banners)
//   - answers: Replies to questions a line may trigger, such as the RSA
//     modulus size of "crypto key generate rsa"
//
// Returns:
//   - string: Transcript of the whole exchange
//   - error: ErrCommandRejected naming the first line IOS rejected (the
//     remaining lines are still sent, as IOS itself would continue), or a
//     transport error
//
// A "hostname" line changes the prompt; the session follows the change.
func (s *Session) SendConfigSet(ctx context.Context, lines []string, answers ...Answer) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var transcript strings.Builder
	record := func(cmd, out string) {
		transcript.WriteString(s.hostname)
		transcript.WriteString("(config)# ")
		transcript.WriteString(cmd)
		transcript.WriteString("\n")
		if out != "" {
			transcript.WriteString(out)
			transcript.WriteString("\n")
		}
	}

	if _, err := s.exchange(ctx, "configure terminal", s.commandTimeout); err != nil {
		return "", err
	}

	var rejected error
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		var (
			out string
			err error
		)
		if name, ok := strings.CutPrefix(strings.TrimSpace(line), "hostname "); ok {
			out, err = s.rename(ctx, line, strings.TrimSpace(name))
		} else {
			out, err = s.exchange(ctx, line, s.commandTimeout, answers...)
		}
		if err != nil {
			return transcript.String(), err
		}
		record(line, out)

		if marker, bad := rejectedLine(out); bad && rejected == nil {
			rejected = fmt.Errorf("%w: %q: %s", ErrCommandRejected, line, marker)
		}
	}

	out, err := s.exchange(ctx, "end", s.commandTimeout)
	if err != nil {
		return transcript.String(), err
	}
	if out != "" {
		transcript.WriteString(out)
		transcript.WriteString("\n")
	}

	return strings.TrimRight(transcript.String(), "\n"), rejected
}

// rename sends a hostname command and follows the prompt change.
func (s *Session) rename(ctx context.Context, line, newName string) (string, error) {
	if err := s.sh.send(line); err != nil {
		return "", err
	}
	next := PromptPattern(newName)
	i, out, err := s.sh.expect(ctx, s.commandTimeout, next, s.prompt)
	if err != nil {
		return "", fmt.Errorf("%s: command %q: %w", s.device.Name, line, err)
	}
	if i == 0 {
		s.setHostname(newName)
	}
	return cleanOutput(out, line, s.prompt), nil
}

// Close leaves any device entered from the CLI and releases the channel
// and connection the session owns. A shared jump host connection is never
// closed here. Close is idempotent.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		for range s.hops {
			s.sh.send("exit")
		}

		var result *multierror.Error
		for i := len(s.closers) - 1; i >= 0; i-- {
			if err := s.closers[i].Close(); err != nil && !isClosedError(err) {
				result = multierror.Append(result, err)
			}
		}
		s.sh.release()
		s.closeErr = result.ErrorOrNil()
	})
	return s.closeErr
}

// isClosedError reports errors that only mean "already closed".
func isClosedError(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}
