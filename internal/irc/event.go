package irc

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Kind classifies an Event.
type Kind int

const (
	KindLine         Kind = iota // a complete line from the server
	KindError                    // the transport failed
	KindDisconnected             // the transport is fully closed
	KindEOF                      // the server finished sending
)

func (k Kind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindError:
		return "error"
	case KindDisconnected:
		return "disconnected"
	case KindEOF:
		return "eof"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is something the session observed, stamped with the time it
// was queued.  Line is set for KindLine; Err for KindError and,
// when the close had a cause, KindDisconnected.
type Event struct {
	Time time.Time
	Kind Kind
	Line string
	Err  error
}

// Payload returns the event's payload as text: the line, the error
// message, or "".
func (e Event) Payload() string {
	switch {
	case e.Kind == KindLine:
		return e.Line
	case e.Err != nil:
		return e.Err.Error()
	default:
		return ""
	}
}

// Queue is an unbounded FIFO of events.  Put never blocks.  Next is
// meant for a single consumer; several consumers are safe but share the
// stream between them.
type Queue struct {
	mu    sync.Mutex
	items []Event
	ready chan struct{}
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Put appends ev.
func (q *Queue) Put(ev Event) {
	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()
	q.signal()
}

// Next removes and returns the oldest event, waiting for one if the
// queue is empty.  If ctx ends first, nothing is removed and ctx.Err()
// is returned.
func (q *Queue) Next(ctx context.Context) (Event, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			ev := q.items[0]
			q.items[0] = Event{}
			q.items = q.items[1:]
			more := len(q.items) > 0
			q.mu.Unlock()
			if more {
				// Pass the wakeup on to any other waiter.
				q.signal()
			}
			return ev, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case <-q.ready:
		}
	}
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
