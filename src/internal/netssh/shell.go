// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netssh

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"sync"
	"time"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/helper/gc"
)

// shell is a minimal expect engine over an interactive CLI stream.
//
// A reader goroutine appends everything the device prints to a pooled
// buffer. expect scans that buffer for the first of several patterns and
// consumes the output up to the end of the match; the remainder stays
// buffered for the next call.
type shell struct {
	w io.Writer

	mu         sync.Mutex
	buf        gc.Buffer
	err        error
	sessionLog io.Writer

	notify chan struct{}
	done   chan struct{}
}

// newShell starts reading r in the background. sessionLog, when non-nil,
// receives a raw copy of everything read.
func newShell(r io.Reader, w io.Writer, sessionLog io.Writer) *shell {
	s := &shell{
		w:          w,
		buf:        gc.Default.Get(),
		sessionLog: sessionLog,
		notify:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	go s.pump(r)
	return s
}

func (s *shell) pump(r io.Reader) {
	defer close(s.done)

	p := make([]byte, 4096)
	for {
		n, err := r.Read(p)
		if n > 0 {
			s.mu.Lock()
			if s.buf != nil {
				s.buf.Write(p[:n])
			}
			if s.sessionLog != nil {
				s.sessionLog.Write(p[:n])
			}
			s.mu.Unlock()
			s.signal()
		}
		if err != nil {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			s.signal()
			return
		}
	}
}

func (s *shell) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// send writes line followed by a newline.
func (s *shell) send(line string) error {
	if _, err := io.WriteString(s.w, line+"\n"); err != nil {
		return fmt.Errorf("%w: write: %w", ErrClosed, err)
	}
	return nil
}

// expect waits until one of patterns matches the buffered output.
//
// Parameters:
//   - ctx: Cancels the wait
//   - timeout: Upper bound for the wait
//   - patterns: Candidates, checked in order on every new chunk of output
//
// Returns:
//   - int: Index of the matching pattern
//   - string: Output consumed, up to and including the match
//   - error: ErrTimeout, ErrClosed, or the context error
func (s *shell) expect(ctx context.Context, timeout time.Duration, patterns ...*regexp.Regexp) (int, string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		s.mu.Lock()
		if s.buf == nil {
			s.mu.Unlock()
			return -1, "", ErrClosed
		}

		data := s.buf.Bytes()
		for i, re := range patterns {
			if loc := re.FindIndex(data); loc != nil {
				out := string(data[:loc[1]])
				s.buf.Set(append([]byte(nil), data[loc[1]:]...))
				s.mu.Unlock()
				return i, out, nil
			}
		}

		pending := tail(data, 80)
		readErr := s.err
		s.mu.Unlock()

		if readErr != nil {
			return -1, "", fmt.Errorf("%w: %v (last output %q)", ErrClosed, readErr, pending)
		}

		select {
		case <-s.notify:
		case <-ctx.Done():
			return -1, "", ctx.Err()
		case <-timer.C:
			return -1, "", fmt.Errorf("%w after %s (last output %q)", ErrTimeout, timeout, pending)
		}
	}
}

// discard drops any buffered output.
func (s *shell) discard() {
	s.mu.Lock()
	if s.buf != nil {
		s.buf.Reset()
	}
	s.mu.Unlock()
}

// release returns the buffer to the pool once the reader has stopped.
// If the reader is still blocked, the buffer is left to the garbage collector.
func (s *shell) release() {
	select {
	case <-s.done:
	case <-time.After(100 * time.Millisecond):
		s.mu.Lock()
		s.buf = nil
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	if s.buf != nil {
		s.buf.Reset()
		gc.Default.Put(s.buf)
		s.buf = nil
	}
	s.mu.Unlock()
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(b)
}
