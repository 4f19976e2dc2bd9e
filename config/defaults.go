package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// DefaultHost is the network ircc was written against.
	DefaultHost = "irc.oftc.net"

	// DefaultTLSPort is the conventional IRC-over-TLS port.
	DefaultTLSPort = 6697

	// DefaultPlainPort is the conventional cleartext IRC port.
	DefaultPlainPort = 6667

	DefaultNick     = "kcr_test"
	DefaultUser     = "kcr"
	DefaultRealName = "Karl Ramm"
	DefaultChannel  = "##kcr"

	// DefaultQuitMessage is sent with QUIT when none is configured.
	DefaultQuitMessage = "ALL DONE BYE BYE"

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultConnTimeout bounds the TCP connect, the SSH handshake and
	// the TLS handshake.
	DefaultConnTimeout = 30 * time.Second

	// DefaultPrompt is shown by the line editor.
	DefaultPrompt = "> "
)
