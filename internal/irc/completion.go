package irc

import (
	"context"
	"sync"
)

// Completion is a one-shot latch recording why something ended.  The
// first Complete wins; later calls are no-ops.  Any number of
// goroutines may wait on it.
type Completion struct {
	once   sync.Once
	done   chan struct{}
	reason error
}

// NewCompletion returns an unfired latch.
func NewCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// Complete fires the latch with reason (nil for a clean end).  It
// reports whether this call was the one that fired it.
func (c *Completion) Complete(reason error) bool {
	fired := false
	c.once.Do(func() {
		c.reason = reason
		close(c.done)
		fired = true
	})
	return fired
}

// Done is closed once the latch fires.
func (c *Completion) Done() <-chan struct{} { return c.done }

// Fired reports whether the latch has fired.
func (c *Completion) Fired() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Err returns the recorded reason, or nil if the latch has not fired.
func (c *Completion) Err() error {
	select {
	case <-c.done:
		return c.reason
	default:
		return nil
	}
}

// Wait blocks until the latch fires and returns the recorded reason.
// If ctx ends first, err is ctx.Err().
func (c *Completion) Wait(ctx context.Context) (reason, err error) {
	select {
	case <-c.done:
		return c.reason, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
