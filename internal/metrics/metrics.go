// Package metrics provides lightweight, lock-free counters for tracking
// what an IRC session did: traffic in both directions, automatic
// replies, queued events and failures.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for one session.
// A nil Collector is safe to use: all methods become no-ops.
type Collector struct {
	bytesIn     atomic.Int64
	bytesOut    atomic.Int64
	linesIn     atomic.Int64
	linesOut    atomic.Int64
	autoReplies atomic.Int64
	events      atomic.Int64
	errorsTotal atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	connectedAt  time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Connection ───────────────────────────────────────────────────────

// Connected records the moment the transport came up.
func (c *Collector) Connected() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.connectedAt = time.Now()
	c.mu.Unlock()
}

// ── Traffic ──────────────────────────────────────────────────────────

// BytesReceived records n bytes read from the server.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// LineReceived records one complete inbound line.
func (c *Collector) LineReceived() {
	if c == nil {
		return
	}
	c.linesIn.Add(1)
}

// LineSent records one outbound line of n bytes (terminator included).
func (c *Collector) LineSent(n int64) {
	if c == nil {
		return
	}
	c.linesOut.Add(1)
	c.bytesOut.Add(n)
}

// AutoReply records a line the session sent on its own (PONG, JOIN).
func (c *Collector) AutoReply() {
	if c == nil {
		return
	}
	c.autoReplies.Add(1)
}

// EventQueued records one event placed on the session queue.
func (c *Collector) EventQueued() {
	if c == nil {
		return
	}
	c.events.Add(1)
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// LinesIn returns the number of complete lines received.
func (c *Collector) LinesIn() int64 {
	if c == nil {
		return 0
	}
	return c.linesIn.Load()
}

// LinesOut returns the number of lines sent.
func (c *Collector) LinesOut() int64 {
	if c == nil {
		return 0
	}
	return c.linesOut.Load()
}

// AutoReplies returns how many lines were sent automatically.
func (c *Collector) AutoReplies() int64 {
	if c == nil {
		return 0
	}
	return c.autoReplies.Load()
}

// EventsQueued returns how many events were queued.
func (c *Collector) EventsQueued() int64 {
	if c == nil {
		return 0
	}
	return c.events.Load()
}

// ── Errors ───────────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string `json:"uptime"`
	ConnectedFor     string `json:"connected_for,omitempty"`
	BytesIn          int64  `json:"bytes_in"`
	BytesOut         int64  `json:"bytes_out"`
	LinesIn          int64  `json:"lines_in"`
	LinesOut         int64  `json:"lines_out"`
	AutoReplies      int64  `json:"auto_replies"`
	EventsQueued     int64  `json:"events_queued"`
	ErrorsTotal      int64  `json:"errors_total"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:       time.Since(c.startTime).Truncate(time.Second).String(),
		BytesIn:      c.bytesIn.Load(),
		BytesOut:     c.bytesOut.Load(),
		LinesIn:      c.linesIn.Load(),
		LinesOut:     c.linesOut.Load(),
		AutoReplies:  c.autoReplies.Load(),
		EventsQueued: c.events.Load(),
		ErrorsTotal:  c.errorsTotal.Load(),
	}
	if !c.connectedAt.IsZero() {
		s.ConnectedFor = time.Since(c.connectedAt).Truncate(time.Second).String()
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
