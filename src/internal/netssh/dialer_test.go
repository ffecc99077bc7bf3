// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netssh

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/inventory"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

// handshakeResult is the raw outcome of a client handshake with a router.
type handshakeResult struct {
	c     ssh.Conn
	chans <-chan ssh.NewChannel
	reqs  <-chan *ssh.Request
}

func handshakeWith(t *testing.T, r *fakeRouter, dev inventory.Device) handshakeResult {
	t.Helper()
	d, err := NewDialer(DialerConfig{InsecureIgnoreHostKey: true, Timeout: 5 * time.Second}, logger.Discard())
	require.NoError(t, err)

	conn, err := net.Dial("tcp", r.addr())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	c, chans, reqs, err := ssh.NewClientConn(conn, dev.Address(), d.ClientConfig(dev))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return handshakeResult{c: c, chans: chans, reqs: reqs}
}

// waitClosed reports whether c shuts down within a second.
func waitClosed(c ssh.Conn) bool {
	done := make(chan struct{})
	go func() {
		c.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(time.Second):
		return false
	}
}

func TestSettleHandshake(t *testing.T) {
	r1 := newFakeRouter(t, "R1")
	dev := r1.device("R1", "")

	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "completed handshake returns a client",
			testFunc: func(t *testing.T) {
				h := handshakeWith(t, r1, dev)
				client, err := settleHandshake(context.Background(), dev, time.Second,
					h.c, h.chans, h.reqs, nil, false, false)
				require.NoError(t, err)
				assert.True(t, alive(client, time.Second))
				client.Close()
			},
		},
		{
			name: "timeout firing after a completed handshake",
			testFunc: func(t *testing.T) {
				h := handshakeWith(t, r1, dev)
				client, err := settleHandshake(context.Background(), dev, time.Second,
					h.c, h.chans, h.reqs, nil, true, false)
				assert.Nil(t, client)
				assert.ErrorIs(t, err, ErrTimeout)
				assert.ErrorContains(t, err, "ssh handshake with R1")
				assert.True(t, waitClosed(h.c), "the connection is closed instead of returned")
			},
		},
		{
			name: "cancellation after a completed handshake",
			testFunc: func(t *testing.T) {
				h := handshakeWith(t, r1, dev)
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				client, err := settleHandshake(ctx, dev, time.Second,
					h.c, h.chans, h.reqs, nil, false, true)
				assert.Nil(t, client)
				assert.ErrorIs(t, err, context.Canceled)
				assert.True(t, waitClosed(h.c))
			},
		},
		{
			name: "handshake error with a done context",
			testFunc: func(t *testing.T) {
				ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
				defer cancel()
				<-ctx.Done()
				_, err := settleHandshake(ctx, dev, time.Second, nil, nil, nil, net.ErrClosed, false, false)
				assert.ErrorIs(t, err, context.DeadlineExceeded)
			},
		},
		{
			name: "authentication failure",
			testFunc: func(t *testing.T) {
				cause := errors.New("ssh: unable to authenticate, attempted methods [none password]")
				_, err := settleHandshake(context.Background(), dev, time.Second, nil, nil, nil, cause, false, false)
				assert.ErrorIs(t, err, ErrAuthFailed)
				assert.ErrorContains(t, err, "R1: ")
			},
		},
		{
			name: "other handshake errors are wrapped",
			testFunc: func(t *testing.T) {
				_, err := settleHandshake(context.Background(), dev, time.Second, nil, nil, nil, net.ErrClosed, false, false)
				assert.ErrorIs(t, err, net.ErrClosed)
				assert.NotErrorIs(t, err, ErrTimeout)
				assert.ErrorContains(t, err, "ssh handshake with R1")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}
