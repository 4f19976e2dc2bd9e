package transport

import (
	"errors"
	"io"
	"net"

	ircerr "ircc/internal/errors"
	"ircc/util"
)

// Drive runs the read loop of conn, reporting everything to h, and
// returns once the stream is finished.  It does not close conn; the
// owner closes it to stop Drive early, which is reported as a clean
// ConnectionLost(nil).
//
// The returned error is the reason passed to ConnectionLost.
func Drive(conn net.Conn, h Handler) error {
	h.ConnectionMade(conn)

	err := util.ReadChunks(conn, h.DataReceived)

	var reason error
	switch {
	case errors.Is(err, io.EOF):
		h.EOFReceived()
	case util.IsClosed(err):
		// Closed on our side.
	default:
		reason = ircerr.Wrap("read", remoteAddr(conn), err)
		h.ErrorReceived(reason)
	}

	h.ConnectionLost(reason)
	return reason
}

func remoteAddr(conn net.Conn) string {
	if a := conn.RemoteAddr(); a != nil {
		return a.String()
	}
	return "?"
}
