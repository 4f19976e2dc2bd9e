package transport

import (
	"bufio"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	ircerr "ircc/internal/errors"
	"ircc/internal/irc"
	"ircc/tunnel"
	"ircc/util"
)

// gateway is an in-process SSH server that honours direct-tcpip, the
// channel type behind ssh -L and ssh.Client.Dial.
type gateway struct {
	addr     string
	hostKey  ssh.PublicKey
	accepted atomic.Int32

	mu    sync.Mutex
	conns []net.Conn
}

func startGateway(t *testing.T) *gateway {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatal(err)
	}
	cfg := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == "ops" && string(pass) == "hunter2" {
				return nil, nil
			}
			return nil, fmt.Errorf("denied")
		},
	}
	cfg.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	g := &gateway{addr: ln.Addr().String(), hostKey: signer.PublicKey()}
	go func() {
		for {
			nc, err := ln.Accept()
			if err != nil {
				return
			}
			g.accepted.Add(1)
			g.mu.Lock()
			g.conns = append(g.conns, nc)
			g.mu.Unlock()
			go g.serve(nc, cfg)
		}
	}()
	t.Cleanup(g.drop)
	return g
}

// drop cuts every SSH connection from the server side.
func (g *gateway) drop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, c := range g.conns {
		c.Close()
	}
	g.conns = nil
}

func (g *gateway) serve(nc net.Conn, cfg *ssh.ServerConfig) {
	_, chans, reqs, err := ssh.NewServerConn(nc, cfg)
	if err != nil {
		nc.Close()
		return
	}
	go ssh.DiscardRequests(reqs)

	for nch := range chans {
		if nch.ChannelType() != "direct-tcpip" {
			nch.Reject(ssh.UnknownChannelType, "only direct-tcpip") //nolint:errcheck
			continue
		}
		var req struct {
			Host     string
			Port     uint32
			OrigHost string
			OrigPort uint32
		}
		if err := ssh.Unmarshal(nch.ExtraData(), &req); err != nil {
			nch.Reject(ssh.ConnectionFailed, err.Error()) //nolint:errcheck
			continue
		}
		target, err := net.Dial("tcp", net.JoinHostPort(req.Host, strconv.Itoa(int(req.Port))))
		if err != nil {
			nch.Reject(ssh.ConnectionFailed, err.Error()) //nolint:errcheck
			continue
		}
		ch, creqs, err := nch.Accept()
		if err != nil {
			target.Close()
			continue
		}
		go ssh.DiscardRequests(creqs)
		go func() {
			io.Copy(ch, target) //nolint:errcheck
			ch.Close()
		}()
		go func() {
			io.Copy(target, ch) //nolint:errcheck
			target.Close()
		}()
	}
}

func (g *gateway) config(t *testing.T) *tunnel.SSHConfig {
	host, port, err := util.SplitServer(g.addr, 22)
	if err != nil {
		t.Fatal(err)
	}
	return &tunnel.SSHConfig{
		User:        "ops",
		Host:        host,
		Port:        port,
		PromptPass:  true,
		Prompt:      func(string) ([]byte, error) { return []byte("hunter2"), nil },
		ConnTimeout: 2 * time.Second,
	}
}

// ircListener records the registration lines of each client and hangs
// up once it has both.
func ircListener(t *testing.T) (string, <-chan []string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	got := make(chan []string, 4)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				var lines []string
				sc := bufio.NewScanner(c)
				for len(lines) < 2 && sc.Scan() {
					lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
				}
				got <- lines
			}(conn)
		}
	}()
	return ln.Addr().String(), got
}

// register drives an IRC session over conn until the server hangs up
// and returns the lines the server received.
func register(t *testing.T, conn net.Conn, got <-chan []string) []string {
	t.Helper()
	sess := irc.NewSession(irc.Options{
		Identity: irc.Identity{Nick: "kcr_test", User: "kcr", RealName: "Karl Ramm"},
	})
	done := make(chan struct{})
	go func() {
		defer close(done)
		Drive(conn, sess) //nolint:errcheck
	}()

	select {
	case lines := <-got:
		<-done
		return lines
	case <-time.After(3 * time.Second):
		t.Fatal("server never saw the registration")
		return nil
	}
}

func TestSSHDialer_ForwardsSession(t *testing.T) {
	g := startGateway(t)
	ircAddr, got := ircListener(t)

	d := NewSSHDialer(g.config(t), util.NewLogger(0))
	defer d.Close()

	conn, err := d.Dial(context.Background(), "tcp", ircAddr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	lines := register(t, conn, got)
	want := []string{"NICK kcr_test", "USER kcr 0 * :Karl Ramm"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("server saw %q, want %q", lines, want)
	}
}

// TestSSHDialer_ReopensDroppedTunnel verifies the next Dial after the
// gateway connection dies opens a new one.
func TestSSHDialer_ReopensDroppedTunnel(t *testing.T) {
	g := startGateway(t)
	ircAddr, got := ircListener(t)

	d := NewSSHDialer(g.config(t), util.NewLogger(0))
	defer d.Close()

	conn, err := d.Dial(context.Background(), "tcp", ircAddr)
	if err != nil {
		t.Fatalf("first Dial: %v", err)
	}
	register(t, conn, got)
	conn.Close()

	g.drop()
	deadline := time.Now().Add(3 * time.Second)
	for d.Tunnel.IsAlive() {
		if time.Now().After(deadline) {
			t.Fatal("tunnel still alive after the gateway dropped it")
		}
		time.Sleep(5 * time.Millisecond)
	}

	conn, err = d.Dial(context.Background(), "tcp", ircAddr)
	if err != nil {
		t.Fatalf("second Dial: %v", err)
	}
	defer conn.Close()
	register(t, conn, got)

	if n := g.accepted.Load(); n != 2 {
		t.Errorf("gateway accepted %d connections, want 2", n)
	}
}

func TestSSHDialer_SharesOpenTunnel(t *testing.T) {
	g := startGateway(t)
	ircAddr, got := ircListener(t)

	d := NewSSHDialer(g.config(t), util.NewLogger(0))
	defer d.Close()

	for i := 0; i < 2; i++ {
		conn, err := d.Dial(context.Background(), "tcp", ircAddr)
		if err != nil {
			t.Fatalf("Dial %d: %v", i, err)
		}
		register(t, conn, got)
		conn.Close()
	}
	if n := g.accepted.Load(); n != 1 {
		t.Errorf("gateway accepted %d connections, want 1", n)
	}
}

func TestSSHDialer_AuthFailure(t *testing.T) {
	g := startGateway(t)
	cfg := g.config(t)
	cfg.Prompt = func(string) ([]byte, error) { return []byte("wrong"), nil }

	d := NewSSHDialer(cfg, util.NewLogger(0))
	defer d.Close()

	_, err := d.Dial(context.Background(), "tcp", "127.0.0.1:6667")
	var se *ircerr.SSHError
	if !errors.As(err, &se) || se.Op != "handshake" {
		t.Fatalf("err = %v, want an SSH handshake error", err)
	}
	if d.Tunnel.IsAlive() {
		t.Error("failed tunnel should not be alive")
	}
}

func TestSSHDialer_ForwardRefused(t *testing.T) {
	g := startGateway(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	closed := ln.Addr().String()
	ln.Close()

	d := NewSSHDialer(g.config(t), util.NewLogger(0))
	defer d.Close()

	_, err = d.Dial(context.Background(), "tcp", closed)
	var se *ircerr.SSHError
	if !errors.As(err, &se) || se.Op != "channel" {
		t.Fatalf("err = %v, want an SSH channel error", err)
	}
}

func TestSSHDialer_StrictHostKey(t *testing.T) {
	g := startGateway(t)
	ircAddr, got := ircListener(t)

	khPath := filepath.Join(t.TempDir(), "known_hosts")
	line := knownhosts.Line([]string{knownhosts.Normalize(g.addr)}, g.hostKey)
	if err := os.WriteFile(khPath, []byte(line+"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg := g.config(t)
	cfg.StrictHostKey = true
	cfg.KnownHosts = khPath

	d := NewSSHDialer(cfg, util.NewLogger(0))
	defer d.Close()

	conn, err := d.Dial(context.Background(), "tcp", ircAddr)
	if err != nil {
		t.Fatalf("Dial with a known host key: %v", err)
	}
	defer conn.Close()
	register(t, conn, got)
}

func TestSSHDialer_CancelledContext(t *testing.T) {
	g := startGateway(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewSSHDialer(g.config(t), util.NewLogger(0))
	defer d.Close()

	if _, err := d.Dial(ctx, "tcp", "127.0.0.1:6667"); err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
}
