// Package config defines the runtime configuration for ircc and
// provides helpers for parsing server and tunnel specifications.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"ircc/util"
)

// Config holds every tuneable for a single ircc session.
type Config struct {
	// ── Server ───────────────────────────────────────────────────────
	Host     string
	Port     int  // 0 = DefaultTLSPort or DefaultPlainPort
	TLS      bool // false with --no-tls
	Insecure bool // skip certificate verification
	Timeout  time.Duration

	// ── Identity ─────────────────────────────────────────────────────
	Nick        string
	User        string
	RealName    string
	Channel     string // joined when the server sends MODE
	QuitMessage string

	// MaxLine caps a buffered inbound line (0 = unlimited).
	MaxLine int

	// ── SSH tunnel ───────────────────────────────────────────────────
	TunnelSpec     string // raw user@host[:port] from -T
	TunnelEnabled  bool
	TunnelUser     string
	TunnelHost     string
	TunnelPort     int
	SSHKeyPath     string
	SSHPassword    bool // true → prompt interactively
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── Console ──────────────────────────────────────────────────────
	Plain       bool   // never use the line editor
	HistoryFile string // readline history ("" = none)

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
}

// Default returns a Config carrying the built-in defaults.
func Default() *Config {
	return &Config{
		Host:        DefaultHost,
		TLS:         true,
		Timeout:     DefaultConnTimeout,
		Nick:        DefaultNick,
		User:        DefaultUser,
		RealName:    DefaultRealName,
		Channel:     DefaultChannel,
		QuitMessage: DefaultQuitMessage,
		TunnelPort:  DefaultSSHPort,
		Verbose:     1,
	}
}

// ServerPort returns the port to dial, falling back to the standard
// port for the chosen transport.
func (c *Config) ServerPort() int {
	switch {
	case c.Port != 0:
		return c.Port
	case c.TLS:
		return DefaultTLSPort
	default:
		return DefaultPlainPort
	}
}

// Address returns the "host:port" to dial.
func (c *Config) Address() string {
	return util.FormatAddr(c.Host, c.ServerPort())
}

// ApplyTunnelSpec parses TunnelSpec into the tunnel fields and enables
// the tunnel.  An empty spec disables it.
func (c *Config) ApplyTunnelSpec() error {
	if c.TunnelSpec == "" {
		c.TunnelEnabled = false
		return nil
	}
	user, host, port, err := ParseTunnelSpec(c.TunnelSpec)
	if err != nil {
		return err
	}
	c.TunnelEnabled = true
	c.TunnelUser = user
	c.TunnelHost = host
	c.TunnelPort = port
	return nil
}

// ── Server-spec parser ───────────────────────────────────────────────

// ParseServerSpec splits "host[:port]" (IPv6 literals in brackets).
// Port is 0 when absent so that ServerPort can pick the default.
func ParseServerSpec(spec string) (host string, port int, err error) {
	return util.SplitServer(spec, 0)
}

// ── Tunnel-spec parser ───────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseTunnelSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid tunnel spec %q – expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid tunnel port %q", m[3])
		}
	}
	return user, host, port, nil
}
