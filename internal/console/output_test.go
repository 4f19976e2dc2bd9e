package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"ircc/internal/irc"
)

// collector is a Display that records events.
type collector struct {
	mu     sync.Mutex
	events []irc.Event
}

func (c *collector) Show(ev irc.Event) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *collector) snapshot() []irc.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]irc.Event(nil), c.events...)
}

func (c *collector) waitFor(t *testing.T, n int) []irc.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		evs := c.snapshot()
		if len(evs) >= n {
			return evs
		}
		if time.Now().After(deadline) {
			t.Fatalf("got %d events, want %d", len(evs), n)
		}
		time.Sleep(time.Millisecond)
	}
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func connectedSession() *irc.Session {
	s := irc.NewSession(irc.Options{Identity: irc.Identity{Nick: "n", User: "u", RealName: "r"}})
	s.ConnectionMade(nopWriter{})
	return s
}

func TestOutputConsumer_Order(t *testing.T) {
	s := connectedSession()
	disp := &collector{}
	oc := NewOutputConsumer(s, disp, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- oc.Run(ctx) }()

	s.DataReceived([]byte("one\r\ntwo\r\n"))
	s.DataReceived([]byte("three\r\n"))
	s.ConnectionLost(nil)

	evs := disp.waitFor(t, 4)
	for i, want := range []string{"one", "two", "three"} {
		if evs[i].Kind != irc.KindLine || evs[i].Line != want {
			t.Errorf("event %d = %+v, want line %q", i, evs[i], want)
		}
	}
	if evs[3].Kind != irc.KindDisconnected {
		t.Errorf("last event = %+v, want disconnected", evs[3])
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run: %v", err)
	}
}

// TestOutputConsumer_CancelWhileWaiting parks the consumer on an empty
// queue, cancels it, and checks later events stay undelivered.
func TestOutputConsumer_CancelWhileWaiting(t *testing.T) {
	s := connectedSession()
	disp := &collector{}
	oc := NewOutputConsumer(s, disp, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- oc.Run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}

	s.DataReceived([]byte("after\r\n"))
	time.Sleep(10 * time.Millisecond)
	if evs := disp.snapshot(); len(evs) != 0 {
		t.Errorf("delivered %d events after cancel", len(evs))
	}
	if s.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", s.Pending())
	}
}

type failingSource struct{ err error }

func (f failingSource) NextEvent(context.Context) (irc.Event, error) { return irc.Event{}, f.err }

func TestOutputConsumer_SourceError(t *testing.T) {
	boom := errors.New("boom")
	oc := NewOutputConsumer(failingSource{boom}, DisplayFunc(func(irc.Event) {}), quietLogger())
	if err := oc.Run(context.Background()); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestPrintDisplay(t *testing.T) {
	var buf bytes.Buffer
	d := &PrintDisplay{W: &buf}
	at := time.Date(2014, 3, 1, 12, 34, 56, 789_000_000, time.UTC)

	d.Show(irc.Event{Time: at, Kind: irc.KindLine, Line: `:srv NOTICE * :"hi"`})
	d.Show(irc.Event{Time: at, Kind: irc.KindError, Err: errors.New("reset")})
	d.Show(irc.Event{Time: at, Kind: irc.KindEOF})

	want := strings.Join([]string{
		`(12:34:56.789, line, ":srv NOTICE * :\"hi\"")`,
		`(12:34:56.789, error, "reset")`,
		`(12:34:56.789, eof, "")`,
	}, "\n") + "\n"
	if got := buf.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestOutputConsumer_NilLogger(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	oc := NewOutputConsumer(connectedSession(), DisplayFunc(func(irc.Event) {}), nil)
	if err := oc.Run(ctx); err != nil {
		t.Errorf("Run: %v", err)
	}
}
