// Package transport provides abstractions for connection
// establishment and for driving an established stream.  Dialers handle
// the "how" of reaching the server (TCP, TLS, SSH-tunnelled); Drive
// turns the resulting net.Conn into a sequence of Handler callbacks so
// that protocol code never touches the read loop.
package transport

import (
	"context"
	"io"
	"net"
)

// Dialer opens outbound network connections.  Implementations include
// a plain TCP dialer, a TLS dialer layered over any other Dialer, and
// an SSH-tunnelled dialer that routes traffic through a bastion.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH session).  Stateless dialers return nil.
	Close() error
}

// Handler receives the lifecycle of one stream.  Drive invokes the
// methods from a single goroutine, in order:
//
//	ConnectionMade, DataReceived*, [ErrorReceived | EOFReceived], ConnectionLost
//
// Handlers must not retain the slice passed to DataReceived.
type Handler interface {
	// ConnectionMade hands over the write side of the stream.
	ConnectionMade(w io.Writer)

	// DataReceived delivers the next chunk read from the stream.
	DataReceived(p []byte)

	// ErrorReceived reports a read failure other than a clean close.
	ErrorReceived(err error)

	// EOFReceived reports that the peer finished sending.
	EOFReceived()

	// ConnectionLost is the final callback.  reason is nil for a
	// clean close.
	ConnectionLost(reason error)
}
