package irc

import (
	"bytes"

	ircerr "ircc/internal/errors"
)

// Line terminators.  The server side of the protocol uses CRLF; the
// local operator side uses LF.
const (
	CRLF = "\r\n"
	LF   = "\n"
)

// Framer turns an arbitrary byte stream into complete lines, keeping
// any trailing partial line for the next Feed.  It does no I/O and is
// not safe for concurrent use; each stream owns its own Framer.
type Framer struct {
	sep []byte
	buf []byte

	// MaxLine caps a line in bytes, terminator excluded (0 = unlimited).
	MaxLine int

	// discarding is set while the rest of an oversized line is skipped.
	discarding bool
}

// NewFramer returns a Framer splitting on sep.
func NewFramer(sep string) *Framer {
	return &Framer{sep: []byte(sep)}
}

// Feed appends p to the buffer and returns every complete line it now
// holds, in order, with the terminator stripped.
//
// With MaxLine set, a line longer than the cap is never returned.  Feed
// reports it as a *errors.LineError and returns only the lines before
// it; input after a complete oversized line stays buffered for the next
// Feed.  An unterminated tail that outgrows the cap is reported as soon
// as it does, and everything up to its terminator is skipped.
func (f *Framer) Feed(p []byte) ([]string, error) {
	f.buf = append(f.buf, p...)

	var (
		lines []string
		err   error
	)
	start := 0
	for err == nil {
		i := bytes.Index(f.buf[start:], f.sep)
		if i < 0 {
			break
		}
		line := f.buf[start : start+i]
		start += i + len(f.sep)

		switch {
		case f.discarding:
			f.discarding = false
		case f.MaxLine > 0 && len(line) > f.MaxLine:
			err = &ircerr.LineError{Len: len(line), Max: f.MaxLine}
		default:
			lines = append(lines, string(line))
		}
	}
	f.consume(start)
	if err != nil {
		return lines, err
	}

	// A trailing piece of the terminator is not part of the line.
	partial := f.partialSep()
	if f.MaxLine > 0 && !f.discarding && len(f.buf)-partial > f.MaxLine {
		err = &ircerr.LineError{Len: len(f.buf) - partial, Max: f.MaxLine}
		f.discarding = true
	}
	if f.discarding {
		f.consume(len(f.buf) - partial)
	}
	return lines, err
}

// consume drops the first n buffered bytes.
func (f *Framer) consume(n int) {
	if n > 0 {
		m := copy(f.buf, f.buf[n:])
		f.buf = f.buf[:m]
	}
}

// partialSep returns the length of the longest proper prefix of the
// terminator that ends the buffer.
func (f *Framer) partialSep() int {
	for k := len(f.sep) - 1; k > 0; k-- {
		if bytes.HasSuffix(f.buf, f.sep[:k]) {
			return k
		}
	}
	return 0
}

// Buffered returns the number of bytes held for an incomplete line.
func (f *Framer) Buffered() int { return len(f.buf) }

// Flush returns whatever partial line is buffered and clears it, for
// streams whose last line may lack a terminator.  The remainder of an
// oversized line is never returned.
func (f *Framer) Flush() string {
	tail := string(f.buf)
	if f.discarding {
		tail = ""
	}
	f.Reset()
	return tail
}

// Reset drops any partial line.
func (f *Framer) Reset() {
	f.buf = f.buf[:0]
	f.discarding = false
}
