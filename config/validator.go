package config

import (
	"strings"

	ircerr "ircc/internal/errors"
)

// Validate checks that the configuration is internally consistent and
// that nothing would break the line framing on the wire.
func (c *Config) Validate() error {
	if c.Host == "" {
		return &ircerr.ConfigError{
			Field:   "host",
			Message: "server host is required",
			Hint:    "pass it as the first argument or set IRCC_HOST",
		}
	}
	if c.Port < 0 || c.Port > 65535 {
		return &ircerr.ConfigError{Field: "port", Value: c.Port, Message: "port out of range 1-65535"}
	}
	if c.Insecure && !c.TLS {
		return &ircerr.ConfigError{
			Field:   "insecure",
			Message: "certificate checks only apply to TLS",
			Hint:    "drop --insecure or --no-tls",
		}
	}
	if c.Timeout < 0 {
		return &ircerr.ConfigError{Field: "timeout", Value: c.Timeout, Message: "must not be negative"}
	}
	if c.MaxLine < 0 {
		return &ircerr.ConfigError{
			Field:   "max-line",
			Value:   c.MaxLine,
			Message: "must not be negative",
			Hint:    "use 0 for no limit",
		}
	}

	// Tokens of NICK, USER and JOIN; spaces would shift parameters.
	for _, f := range []struct{ name, value string }{
		{"nick", c.Nick},
		{"user", c.User},
		{"channel", c.Channel},
	} {
		if f.value == "" {
			return &ircerr.ConfigError{Field: f.name, Message: "must not be empty"}
		}
		if strings.ContainsAny(f.value, " \t\r\n") {
			return &ircerr.ConfigError{
				Field:   f.name,
				Value:   f.value,
				Message: "must be a single word",
			}
		}
	}
	// Trailing parameters may hold spaces but never a line break.
	for _, f := range []struct{ name, value string }{
		{"realname", c.RealName},
		{"quit-message", c.QuitMessage},
	} {
		if strings.ContainsAny(f.value, "\r\n") {
			return &ircerr.ConfigError{
				Field:   f.name,
				Value:   f.value,
				Message: "must not contain line breaks",
			}
		}
	}

	if c.TunnelEnabled && c.TunnelHost == "" {
		return &ircerr.ConfigError{
			Field:   "tunnel",
			Value:   c.TunnelSpec,
			Message: "tunnel host is required",
			Hint:    "expected [user@]host[:port]",
		}
	}
	if !c.TunnelEnabled && (c.SSHKeyPath != "" || c.SSHPassword || c.UseSSHAgent) {
		return &ircerr.ConfigError{
			Field:   "tunnel",
			Message: "SSH options given without a tunnel",
			Hint:    "add -T user@bastion",
		}
	}
	return nil
}
