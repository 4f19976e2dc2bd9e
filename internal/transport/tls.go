package transport

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	ircerr "ircc/internal/errors"
)

// TLSDialer layers a TLS client handshake over another Dialer, so the
// same code encrypts a direct TCP connection or one forwarded through
// an SSH tunnel.
type TLSDialer struct {
	Inner Dialer

	// Config is cloned per connection.  When ServerName is empty it is
	// filled from the dialled host; crypto/tls leaves IP literals out
	// of SNI and checks them against the certificate's IP SANs.
	Config *tls.Config

	// HandshakeTimeout bounds the TLS handshake when ctx has no
	// deadline of its own (0 = no limit).
	HandshakeTimeout time.Duration
}

// NewTLSDialer returns a TLSDialer over inner.  insecure disables
// certificate verification.
func NewTLSDialer(inner Dialer, insecure bool, timeout time.Duration) *TLSDialer {
	return &TLSDialer{
		Inner: inner,
		Config: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: insecure, //nolint:gosec // user opted out with --insecure
		},
		HandshakeTimeout: timeout,
	}
}

// Dial connects through Inner and completes the TLS handshake.
func (d *TLSDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	raw, err := d.Inner.Dial(ctx, network, address)
	if err != nil {
		return nil, err
	}

	cfg := d.Config.Clone()
	if cfg.ServerName == "" {
		host, _, splitErr := net.SplitHostPort(address)
		if splitErr != nil {
			host = address
		}
		cfg.ServerName = host
	}

	if _, ok := ctx.Deadline(); !ok && d.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.HandshakeTimeout)
		defer cancel()
	}

	conn := tls.Client(raw, cfg)
	if err := conn.HandshakeContext(ctx); err != nil {
		raw.Close()
		return nil, ircerr.Wrap("tls handshake", address, err)
	}
	return conn, nil
}

// Close releases the inner dialer.
func (d *TLSDialer) Close() error { return d.Inner.Close() }
