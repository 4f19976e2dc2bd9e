// Package console is the operator's side of a session: it turns typed
// lines into protocol commands and prints whatever the session queues.
package console

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"ircc/internal/irc"
	"ircc/util"
)

// quitCommand ends the interactive loop when typed on its own line.
const quitCommand = "quit"

// Commander is the part of irc.Session the input reader drives.
type Commander interface {
	Send(line string) error
	RequestQuit(ctx context.Context, message string) error
}

// InputReader frames the local source into lines and dispatches each
// one on its own goroutine: blank lines are dropped, "quit" ends the
// session, anything else goes to the server untouched.
type InputReader struct {
	src    io.Reader
	sess   Commander
	logger *util.Logger
	framer *irc.Framer
	done   *irc.Completion
	wg     sync.WaitGroup
}

// NewInputReader returns a reader over src feeding sess.
func NewInputReader(src io.Reader, sess Commander, logger *util.Logger) *InputReader {
	return &InputReader{
		src:    src,
		sess:   sess,
		logger: logger.Named("console"),
		framer: irc.NewFramer(irc.LF),
		done:   irc.NewCompletion(),
	}
}

// Done is closed once a quit has been requested and the session has
// completed.
func (r *InputReader) Done() <-chan struct{} { return r.done.Done() }

// Run reads the source until it ends.  End of input counts as "quit"
// once every line already read has been handled.  A read failure other
// than end of input is returned without quitting.
func (r *InputReader) Run(ctx context.Context) error {
	err := util.ReadChunks(r.src, func(p []byte) {
		lines, _ := r.framer.Feed(p)
		for _, line := range lines {
			r.dispatch(ctx, line)
		}
	})

	if !util.IsClosed(err) {
		return fmt.Errorf("local input: %w", err)
	}
	if tail := r.framer.Flush(); tail != "" {
		r.dispatch(ctx, tail)
	}

	r.wg.Wait()
	if !r.done.Fired() {
		r.logger.Verbose("end of input")
		r.quit(ctx)
	}
	return nil
}

func (r *InputReader) dispatch(ctx context.Context, line string) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.line(ctx, line)
	}()
}

func (r *InputReader) line(ctx context.Context, line string) {
	r.logger.Debug("got: %s", line)

	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return
	case strings.EqualFold(trimmed, quitCommand):
		r.quit(ctx)
	default:
		// CRLF terminals leave a '\r' behind the LF split.
		if err := r.sess.Send(strings.TrimSuffix(line, "\r")); err != nil {
			r.logger.Error("%v", err)
		}
	}
}

// quit is the only path that fires the reader's latch.  Racing quits
// are harmless: the session sends QUIT once and the latch fires once.
func (r *InputReader) quit(ctx context.Context) {
	if err := r.sess.RequestQuit(ctx, ""); err != nil && ctx.Err() == nil {
		r.logger.Warn("quit: %v", err)
	}
	r.done.Complete(nil)
}
