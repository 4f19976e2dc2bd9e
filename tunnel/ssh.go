package tunnel

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	ircerr "ircc/internal/errors"
	"ircc/util"
)

// SSHConfig holds everything needed to dial an SSH gateway.
type SSHConfig struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	PromptPass    bool
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string

	// ConnTimeout bounds the TCP dial plus the SSH handshake when the
	// caller's context has no deadline (0 = 30s).
	ConnTimeout time.Duration

	// Prompt reads secrets (passwords, key passphrases).  Nil means
	// TerminalPrompt.
	Prompt Prompter
}

// Gateway returns "host:port" of the SSH server.
func (c *SSHConfig) Gateway() string { return util.FormatAddr(c.Host, c.Port) }

// SSHTunnel implements [Tunnel] over one SSH client connection.  The
// connection counts as alive until it drops or is closed; a later
// Connect opens a fresh one.
type SSHTunnel struct {
	config *SSHConfig
	logger *util.Logger

	mu     sync.RWMutex
	client *ssh.Client
}

// NewSSHTunnel creates a tunnel that is ready to [Connect].
func NewSSHTunnel(cfg *SSHConfig, logger *util.Logger) *SSHTunnel {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.ConnTimeout == 0 {
		cfg.ConnTimeout = 30 * time.Second
	}
	if cfg.Prompt == nil {
		cfg.Prompt = TerminalPrompt
	}
	return &SSHTunnel{config: cfg, logger: logger.Named("tunnel")}
}

// Connect opens the SSH connection unless one is already up.
func (t *SSHTunnel) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client != nil {
		return nil
	}
	client, err := t.handshake(ctx)
	if err != nil {
		return err
	}
	t.client = client
	go t.monitor(client)
	return nil
}

// handshake dials the gateway and authenticates.  Cancelling ctx
// aborts a handshake in progress.
func (t *SSHTunnel) handshake(ctx context.Context) (*ssh.Client, error) {
	cfg := t.config
	auth, err := BuildAuthMethods(cfg)
	if err != nil {
		return nil, ircerr.WrapSSH("auth", cfg.Host, cfg.Port, err)
	}
	hostKey, err := hostKeyCallback(cfg)
	if err != nil {
		return nil, ircerr.WrapSSH("hostkey", cfg.Host, cfg.Port, err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnTimeout)
		defer cancel()
	}

	addr := cfg.Gateway()
	t.logger.Debug("dialing %s as %s", addr, cfg.User)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, ircerr.Wrap("dial", addr, err)
	}

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKey,
	})
	if !stop() {
		// ctx ended mid-handshake and the connection is gone.
		if err == nil {
			c.Close()
		}
		return nil, ircerr.WrapSSH("handshake", cfg.Host, cfg.Port, ctx.Err())
	}
	if err != nil {
		conn.Close()
		return nil, ircerr.WrapSSH("handshake", cfg.Host, cfg.Port, err)
	}

	t.logger.Verbose("connected to %s", addr)
	return ssh.NewClient(c, chans, reqs), nil
}

// Dial asks the gateway to open a TCP connection to address, which is
// resolved on the gateway's side.
func (t *SSHTunnel) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	t.mu.RLock()
	client := t.client
	t.mu.RUnlock()

	if client == nil {
		return nil, ircerr.ErrTunnelClosed
	}

	t.logger.Debug("forwarding %s %s", network, address)
	conn, err := client.DialContext(ctx, network, address)
	if err != nil {
		return nil, ircerr.WrapSSH("channel", t.config.Host, t.config.Port,
			fmt.Errorf("forward to %s: %w", address, err))
	}
	return conn, nil
}

// Close shuts down the SSH connection.  Closing a closed tunnel is a
// no-op.
func (t *SSHTunnel) Close() error {
	t.mu.Lock()
	client := t.client
	t.client = nil
	t.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Close()
}

// IsAlive reports whether the SSH connection is up.
func (t *SSHTunnel) IsAlive() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.client != nil
}

// monitor forgets client once its connection ends.
func (t *SSHTunnel) monitor(client *ssh.Client) {
	err := client.Wait()

	t.mu.Lock()
	if t.client == client {
		t.client = nil
	}
	t.mu.Unlock()

	t.logger.Debug("connection ended: %v", err)
}
