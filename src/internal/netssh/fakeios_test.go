// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netssh

import (
	"bufio"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/inventory"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

// fakeRouter is an SSH server that behaves enough like an IOS router to
// exercise login, enable, config mode, direct-tcpip forwarding and CLI hops.
type fakeRouter struct {
	t *testing.T

	hostname string
	username string
	password string
	secret   string

	// allowTunnel accepts direct-tcpip channels; otherwise they are
	// rejected as administratively prohibited.
	allowTunnel bool
	// shows maps exec commands to their output.
	shows map[string]string
	// peers maps "host:port" to routers reachable by "ssh -l" from the CLI.
	peers map[string]*fakeRouter
	// telnetPeers maps hosts to routers reachable by "telnet" without login.
	telnetPeers map[string]*fakeRouter

	listener net.Listener
	port     int

	conns          atomic.Int32
	tunnelRequests atomic.Int32
	hops           atomic.Int32
	// breakTunnels closes this many accepted tunnels before the handshake.
	breakTunnels atomic.Int32

	mu       sync.Mutex
	open     []*ssh.ServerConn
	received []string
}

var (
	hostKeyOnce sync.Once
	hostKey     ssh.Signer
)

func testHostKey(t *testing.T) ssh.Signer {
	hostKeyOnce.Do(func() {
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		hostKey, err = ssh.NewSignerFromKey(priv)
		require.NoError(t, err)
	})
	return hostKey
}

func newFakeRouter(t *testing.T, hostname string) *fakeRouter {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	r := &fakeRouter{
		t:           t,
		hostname:    hostname,
		username:    "admin",
		password:    "cisco",
		secret:      "class",
		shows:       map[string]string{},
		peers:       map[string]*fakeRouter{},
		telnetPeers: map[string]*fakeRouter{},
		listener:    l,
		port:        l.Addr().(*net.TCPAddr).Port,
	}
	cfg := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pw []byte) (*ssh.Permissions, error) {
			if c.User() == r.username && string(pw) == r.password {
				return nil, nil
			}
			return nil, errors.New("access denied")
		},
	}
	cfg.AddHostKey(testHostKey(t))

	go func() {
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}
			go r.serve(c, cfg)
		}
	}()
	t.Cleanup(func() {
		l.Close()
		r.dropConnections()
	})
	return r
}

// device returns an inventory entry for the router.
func (r *fakeRouter) device(name, jumpHost string) inventory.Device {
	return inventory.Device{
		Name:     name,
		Host:     "127.0.0.1",
		Port:     r.port,
		Username: r.username,
		Password: r.password,
		Secret:   r.secret,
		JumpHost: jumpHost,
	}
}

func (r *fakeRouter) addr() string {
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(r.port))
}

func (r *fakeRouter) link(peer *fakeRouter) { r.peers[peer.addr()] = peer }

// dropConnections closes every SSH connection the router accepted.
func (r *fakeRouter) dropConnections() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.open {
		c.Close()
	}
	r.open = nil
}

func (r *fakeRouter) commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.received...)
}

func (r *fakeRouter) record(line string) {
	r.mu.Lock()
	r.received = append(r.received, line)
	r.mu.Unlock()
}

func (r *fakeRouter) serve(c net.Conn, cfg *ssh.ServerConfig) {
	sconn, chans, reqs, err := ssh.NewServerConn(c, cfg)
	if err != nil {
		c.Close()
		return
	}
	r.conns.Add(1)
	r.mu.Lock()
	r.open = append(r.open, sconn)
	r.mu.Unlock()

	go ssh.DiscardRequests(reqs)
	for newCh := range chans {
		switch newCh.ChannelType() {
		case "session":
			go r.session(newCh)
		case "direct-tcpip":
			go r.tunnel(newCh)
		default:
			newCh.Reject(ssh.UnknownChannelType, "unsupported channel type")
		}
	}
}

func (r *fakeRouter) session(newCh ssh.NewChannel) {
	ch, reqs, err := newCh.Accept()
	if err != nil {
		return
	}
	for req := range reqs {
		switch req.Type {
		case "pty-req":
			req.Reply(true, nil)
		case "shell":
			req.Reply(true, nil)
			go func() {
				defer ch.Close()
				r.cli(bufio.NewReader(ch), ch, false)
			}()
		default:
			req.Reply(false, nil)
		}
	}
}

func (r *fakeRouter) tunnel(newCh ssh.NewChannel) {
	r.tunnelRequests.Add(1)

	var p struct {
		DestAddr string
		DestPort uint32
		OrigAddr string
		OrigPort uint32
	}
	if err := ssh.Unmarshal(newCh.ExtraData(), &p); err != nil {
		newCh.Reject(ssh.ConnectionFailed, "bad payload")
		return
	}
	if !r.allowTunnel {
		newCh.Reject(ssh.Prohibited, "administratively prohibited")
		return
	}

	target, err := net.Dial("tcp", net.JoinHostPort(p.DestAddr, strconv.Itoa(int(p.DestPort))))
	if err != nil {
		newCh.Reject(ssh.ConnectionFailed, err.Error())
		return
	}
	ch, reqs, err := newCh.Accept()
	if err != nil {
		target.Close()
		return
	}
	go ssh.DiscardRequests(reqs)

	if r.breakTunnels.Load() > 0 {
		r.breakTunnels.Add(-1)
		ch.Close()
		target.Close()
		return
	}

	go func() {
		io.Copy(ch, target)
		ch.Close()
	}()
	go func() {
		io.Copy(target, ch)
		target.Close()
	}()
}

func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// cli runs an IOS-like command loop. With askPassword set it first
// prompts for the password, as a router does for an incoming "ssh -l".
func (r *fakeRouter) cli(in *bufio.Reader, out io.Writer, askPassword bool) {
	w := func(s string) { io.WriteString(out, s) }

	if askPassword {
		w("Password: ")
		pw, err := readLine(in)
		if err != nil {
			return
		}
		if pw != r.password {
			w("\r\n% Authentication failed.\r\n")
			return
		}
	}

	host := r.hostname
	enabled := false
	mode := ""

	for {
		prompt := host
		if mode != "" {
			prompt += "(" + mode + ")"
		}
		if enabled {
			prompt += "#"
		} else {
			prompt += ">"
		}
		w("\r\n" + prompt)

		line, err := readLine(in)
		if err != nil {
			return
		}
		w(line + "\r\n")
		r.record(line)
		cmd := strings.TrimSpace(line)

		if mode != "" {
			switch {
			case cmd == "end":
				mode = ""
			case cmd == "exit":
				if mode == "config" {
					mode = ""
				} else {
					mode = "config"
				}
			case strings.HasPrefix(cmd, "hostname "):
				host = strings.TrimSpace(strings.TrimPrefix(cmd, "hostname "))
			case strings.HasPrefix(cmd, "interface "):
				mode = "config-if"
			case strings.HasPrefix(cmd, "router "):
				mode = "config-router"
			case strings.HasPrefix(cmd, "line "):
				mode = "config-line"
			case strings.HasPrefix(cmd, "banner "):
				w("Enter TEXT message.  End with the character '#'.\r\n")
				for {
					text, err := readLine(in)
					if err != nil {
						return
					}
					w(text + "\r\n")
					if strings.Contains(text, "#") {
						break
					}
				}
			case cmd == "crypto key generate rsa":
				w("The name for the keys will be: " + host + ".lab\r\nHow many bits in the modulus [512]: ")
				bits, err := readLine(in)
				if err != nil {
					return
				}
				w(bits + "\r\n% Generating " + bits + " bit RSA keys, keys will be non-exportable...\r\n[OK]\r\n")
				r.record("modulus " + bits)
			case strings.HasPrefix(cmd, "bogus"):
				w("                   ^\r\n% Invalid input detected at '^' marker.\r\n")
			}
			continue
		}

		switch {
		case cmd == "":
		case cmd == "enable":
			if enabled {
				continue
			}
			if r.secret == "" {
				enabled = true
				continue
			}
			w("Password: ")
			secret, err := readLine(in)
			if err != nil {
				return
			}
			if secret == r.secret {
				enabled = true
			} else {
				w("\r\n% Bad secrets\r\n")
			}
		case strings.HasPrefix(cmd, "terminal "):
		case cmd == "configure terminal":
			if !enabled {
				w("                   ^\r\n% Invalid input detected at '^' marker.\r\n")
				continue
			}
			w("Enter configuration commands, one per line.  End with CNTL/Z.\r\n")
			mode = "config"
		case cmd == "write memory":
			w("Building configuration...\r\n[OK]\r\n")
		case cmd == "clear ip ospf process":
			w("Reset ALL OSPF processes? [no]: ")
			answer, err := readLine(in)
			if err != nil {
				return
			}
			w(answer + "\r\n")
			r.record("answer " + answer)
		case strings.HasPrefix(cmd, "ssh "):
			r.hopFrom(cmd, in, out)
		case strings.HasPrefix(cmd, "telnet "):
			host := strings.TrimSpace(strings.TrimPrefix(cmd, "telnet "))
			peer, ok := r.telnetPeers[host]
			if !ok {
				w("Trying " + host + " ...\r\n% Connection timed out; remote host not responding\r\n")
				continue
			}
			r.hops.Add(1)
			w("Trying " + host + " ... Open\r\n\r\nPress RETURN to get started!\r\n")
			if _, err := readLine(in); err != nil {
				return
			}
			peer.cli(in, out, false)
			w("\r\n[Connection to " + host + " closed by foreign host]\r\n")
		case cmd == "exit":
			return
		default:
			if text, ok := r.shows[cmd]; ok {
				w(strings.ReplaceAll(text, "\n", "\r\n") + "\r\n")
				continue
			}
			w("                   ^\r\n% Invalid input detected at '^' marker.\r\n")
		}
	}
}

// hopFrom handles "ssh -l user [-p port] host" typed at the CLI.
func (r *fakeRouter) hopFrom(cmd string, in *bufio.Reader, out io.Writer) {
	fields := strings.Fields(cmd)
	port, host := "22", ""
	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "-l", "-p":
			if i+1 < len(fields) && fields[i] == "-p" {
				port = fields[i+1]
			}
			i++
		default:
			host = fields[i]
		}
	}

	peer, ok := r.peers[net.JoinHostPort(host, port)]
	if !ok {
		io.WriteString(out, "% Connection refused by remote host\r\n")
		return
	}
	r.hops.Add(1)
	peer.cli(in, out, true)
	io.WriteString(out, "\r\n[Connection to "+host+" closed by foreign host]\r\n")
}
