package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"ircc/tunnel"
	"ircc/util"
)

// SSHDialer reaches the server through an SSH gateway.  The gateway
// connection is opened by the first Dial and reopened by a later Dial
// if it dropped in between.
type SSHDialer struct {
	Tunnel  tunnel.Tunnel
	gateway string
	logger  *util.Logger
	mu      sync.Mutex
}

// NewSSHDialer returns a dialer over a not yet connected SSH tunnel.
func NewSSHDialer(cfg *tunnel.SSHConfig, logger *util.Logger) *SSHDialer {
	return &SSHDialer{
		Tunnel:  tunnel.NewSSHTunnel(cfg, logger),
		gateway: cfg.Gateway(),
		logger:  logger.Named("ssh"),
	}
}

// Dial forwards a connection to address through the gateway.
func (d *SSHDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.Tunnel.IsAlive() {
		d.logger.Verbose("opening tunnel via %s", d.gateway)
		if err := d.Tunnel.Connect(ctx); err != nil {
			return nil, fmt.Errorf("tunnel: %w", err)
		}
	}

	conn, err := d.Tunnel.Dial(ctx, network, address)
	if err != nil {
		return nil, err
	}
	d.logger.Verbose("forwarding to %s via %s", address, d.gateway)
	return conn, nil
}

// Close tears down the tunnel.
func (d *SSHDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Tunnel.Close()
}
