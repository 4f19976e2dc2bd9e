package util

import (
	"errors"
	"io"
	"net"
	"os"
)

// IsClosed reports whether err only says the stream ended or was
// closed locally: io.EOF, a closed net.Conn, a closed pipe or file.
// Such errors end a read loop without being worth reporting.
func IsClosed(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) || errors.Is(err, os.ErrClosed) {
		return true
	}
	// net.OpError wrapping "use of closed network connection"
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}

// ReadChunks reads r with a pooled buffer and hands every non-empty
// chunk to fn until r fails.  The final read error is returned as is
// (io.EOF included).  The slice passed to fn is only valid during the
// call.
func ReadChunks(r io.Reader, fn func(p []byte)) error {
	buf := GetBuf()
	defer PutBuf(buf)

	for {
		n, err := r.Read(*buf)
		if n > 0 {
			fn((*buf)[:n])
		}
		if err != nil {
			return err
		}
	}
}
