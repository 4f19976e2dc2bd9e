package console

import (
	"context"
	"fmt"
	"io"

	"ircc/internal/irc"
	"ircc/util"
)

// EventSource is the part of irc.Session the output consumer drains.
type EventSource interface {
	NextEvent(ctx context.Context) (irc.Event, error)
}

// Display shows one event.  It is called from a single goroutine and
// should return promptly.
type Display interface {
	Show(ev irc.Event)
}

// DisplayFunc adapts a function to Display.
type DisplayFunc func(ev irc.Event)

// Show calls f(ev).
func (f DisplayFunc) Show(ev irc.Event) { f(ev) }

// PrintDisplay writes each event as a (time, kind, payload) record.
type PrintDisplay struct {
	W io.Writer
}

// Show implements Display.
func (d *PrintDisplay) Show(ev irc.Event) {
	fmt.Fprintf(d.W, "(%s, %s, %q)\n", ev.Time.Format("15:04:05.000"), ev.Kind, ev.Payload())
}

// OutputConsumer moves events from the session to a Display until its
// context is cancelled.
type OutputConsumer struct {
	src     EventSource
	display Display
	logger  *util.Logger
}

// NewOutputConsumer returns a consumer of src showing on display.
func NewOutputConsumer(src EventSource, display Display, logger *util.Logger) *OutputConsumer {
	return &OutputConsumer{src: src, display: display, logger: logger.Named("output")}
}

// Run delivers events until ctx is cancelled, then returns nil.
// Cancellation only takes effect while waiting for the next event: an
// event already taken off the queue is always shown, and one still on
// the queue is left there.
func (c *OutputConsumer) Run(ctx context.Context) error {
	c.logger.Debug("started")
	for {
		ev, err := c.src.NextEvent(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Debug("stopped")
				return nil
			}
			return err
		}
		c.display.Show(ev)
	}
}
