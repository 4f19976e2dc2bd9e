// Package irc is the protocol session engine: it frames the server's
// byte stream into lines, performs the registration handshake, answers
// PING and the post-registration MODE automatically, and queues
// everything it sees for a single display consumer.
//
// A Session is driven by transport.Drive, which calls its Handler
// methods from the read goroutine.  Commands may be issued from any
// goroutine; writes are serialised.
package irc

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	ircerr "ircc/internal/errors"
	"ircc/internal/metrics"
	"ircc/util"
)

// DefaultQuitMessage is sent with QUIT when the caller gives none.
const DefaultQuitMessage = "ALL DONE BYE BYE"

// Protocol keywords the session reacts to.
const (
	keepaliveCommand = "PING"
	modeSet        = "MODE"
)

// State is the position of a Session in its lifecycle.
type State int32

const (
	StateConnecting  State = iota // created, transport not yet up
	StateEstablished              // handshake sent
	StateClosing                  // QUIT sent, waiting for the server to close
	StateClosed                   // completion fired
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateEstablished:
		return "established"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Identity is what the session registers with.
type Identity struct {
	Nick     string
	User     string
	RealName string
}

// Options configures a Session.  Zero fields take defaults.
type Options struct {
	Identity Identity

	// Channel is joined when the server applies our user modes.
	Channel string

	// QuitMessage replaces DefaultQuitMessage.
	QuitMessage string

	// MaxLine caps an unterminated inbound line (0 = unlimited).
	MaxLine int

	Logger  *util.Logger
	Metrics *metrics.Collector

	// Clock stamps events; defaults to time.Now.
	Clock func() time.Time
}

// Session is one IRC connection's state machine.  It implements
// transport.Handler.
type Session struct {
	id       string
	identity Identity
	channel  string
	quitMsg  string
	logger   *util.Logger
	metrics  *metrics.Collector
	clock    func() time.Time

	state atomic.Int32
	quit  atomic.Bool

	wmu sync.Mutex
	w   io.Writer

	// framer is only touched from the transport's read goroutine.
	framer *Framer
	events *Queue
	done   *Completion

	ready     chan struct{}
	readyOnce sync.Once
}

// NewSession returns a Session in StateConnecting.
func NewSession(opts Options) *Session {
	s := &Session{
		id:       uuid.NewString(),
		identity: opts.Identity,
		channel:  opts.Channel,
		quitMsg:  opts.QuitMessage,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		clock:    opts.Clock,
		framer:   NewFramer(CRLF),
		events:   NewQueue(),
		done:     NewCompletion(),
		ready:    make(chan struct{}),
	}
	s.framer.MaxLine = opts.MaxLine
	if s.quitMsg == "" {
		s.quitMsg = DefaultQuitMessage
	}
	if s.logger == nil {
		s.logger = util.NewLogger(int(util.LogQuiet))
	}
	s.logger = s.logger.Named("irc")
	if s.clock == nil {
		s.clock = time.Now
	}
	return s
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// ── transport.Handler ────────────────────────────────────────────────

// ConnectionMade binds the write side and sends NICK then USER.  The
// handshake holds the write lock so no other command can slip between
// the two lines.
func (s *Session) ConnectionMade(w io.Writer) {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	s.w = w
	s.state.CompareAndSwap(int32(StateConnecting), int32(StateEstablished))
	s.metrics.Connected()
	s.logger.Verbose("session %s established", s.id)

	err := s.writeLocked(fmt.Sprintf("NICK %s", s.identity.Nick))
	if err == nil {
		err = s.writeLocked(fmt.Sprintf("USER %s 0 * :%s", s.identity.User, s.identity.RealName))
	}
	if err != nil {
		s.logger.Error("handshake: %v", err)
	}
	s.readyOnce.Do(func() { close(s.ready) })
}

// DataReceived frames p and handles every complete line.  Data that
// arrives after the session has completed is dropped.
func (s *Session) DataReceived(p []byte) {
	if s.done.Fired() {
		return
	}
	s.metrics.BytesReceived(int64(len(p)))

	lines, err := s.framer.Feed(p)
	for _, line := range lines {
		s.lineReceived(line)
	}
	if err != nil {
		s.ErrorReceived(err)
	}
}

// ErrorReceived queues an error event and completes the session.
func (s *Session) ErrorReceived(err error) {
	s.logger.Error("transport: %v", err)
	s.metrics.RecordError(err.Error())
	s.enqueue(Event{Kind: KindError, Err: err})
	s.finish(err)
}

// EOFReceived queues an eof event and completes the session.
func (s *Session) EOFReceived() {
	s.logger.Verbose("server closed its side")
	s.enqueue(Event{Kind: KindEOF})
	s.finish(nil)
}

// ConnectionLost queues a disconnected event carrying reason and
// completes the session.
func (s *Session) ConnectionLost(reason error) {
	s.logger.Verbose("disconnected (reason: %v)", reason)
	s.enqueue(Event{Kind: KindDisconnected, Err: reason})
	s.finish(reason)
}

// lineReceived applies the automatic replies, then queues the line.
// The rules are independent and run in a fixed order.
func (s *Session) lineReceived(line string) {
	s.metrics.LineReceived()
	s.logger.Debug("%s", line)

	words := strings.Fields(line)
	if len(words) > 1 && strings.EqualFold(words[1], modeSet) {
		s.autoReply("JOIN %s", s.channel)
	}
	if len(words) > 0 && words[0] == keepaliveCommand {
		s.autoReply("PONG %s", strings.Join(words[1:], " "))
	}
	s.enqueue(Event{Kind: KindLine, Line: line})
}

func (s *Session) autoReply(format string, args ...interface{}) {
	if err := s.Command(format, args...); err != nil {
		s.logger.Warn("auto reply: %v", err)
		return
	}
	s.metrics.AutoReply()
}

func (s *Session) enqueue(ev Event) {
	ev.Time = s.clock()
	s.events.Put(ev)
	s.metrics.EventQueued()
}

func (s *Session) finish(reason error) {
	if s.done.Complete(reason) {
		s.state.Store(int32(StateClosed))
		s.logger.Verbose("session %s complete", s.id)
	}
}

// ── commands ─────────────────────────────────────────────────────────

// Command formats one protocol line and sends it.
func (s *Session) Command(format string, args ...interface{}) error {
	return s.write(fmt.Sprintf(format, args...))
}

// Send writes line as is, for operator input that must not be
// interpreted as a format string.
func (s *Session) Send(line string) error {
	return s.write(line)
}

func (s *Session) write(line string) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.writeLocked(line)
}

func (s *Session) writeLocked(line string) error {
	if s.w == nil {
		return ircerr.ErrNotConnected
	}
	if s.State() == StateClosed {
		return ircerr.ErrSessionClosed
	}

	s.logger.Debug("sent: %s", line)
	n, err := io.WriteString(s.w, line+CRLF)
	if err != nil {
		s.metrics.RecordError(err.Error())
		return fmt.Errorf("send %q: %w", verb(line), err)
	}
	s.metrics.LineSent(int64(n))
	return nil
}

// RequestQuit sends QUIT with message (DefaultQuitMessage or the
// configured one when empty) and waits until the session completes,
// which normally happens when the server closes the connection.  It
// never closes the transport itself.  Only the first call sends QUIT;
// later calls just wait.
func (s *Session) RequestQuit(ctx context.Context, message string) error {
	if message == "" {
		message = s.quitMsg
	}

	switch {
	case s.state.CompareAndSwap(int32(StateEstablished), int32(StateClosing)):
		s.quit.Store(true)
		if err := s.Command("QUIT :%s", message); err != nil {
			return err
		}
	case s.State() == StateConnecting:
		return ircerr.ErrNotConnected
	}

	_, err := s.done.Wait(ctx)
	return err
}

// ── consumers ────────────────────────────────────────────────────────

// QuitRequested reports whether QUIT has been sent, after which the
// server hanging up, even abruptly, is expected.
func (s *Session) QuitRequested() bool { return s.quit.Load() }

// AwaitCompletion blocks until the session completes and returns the
// recorded reason (nil for a clean close).  err is set only when ctx
// ends first.
func (s *Session) AwaitCompletion(ctx context.Context) (reason, err error) {
	return s.done.Wait(ctx)
}

// Ready is closed once the registration lines have been written.
func (s *Session) Ready() <-chan struct{} { return s.ready }

// Done is closed when the session completes.
func (s *Session) Done() <-chan struct{} { return s.done.Done() }

// Err returns the completion reason once Done is closed.
func (s *Session) Err() error { return s.done.Err() }

// NextEvent blocks until an event is queued and returns the oldest.
func (s *Session) NextEvent(ctx context.Context) (Event, error) {
	return s.events.Next(ctx)
}

// Pending returns the number of events not yet consumed.
func (s *Session) Pending() int { return s.events.Len() }

// verb returns the command word of line for error messages, so that
// message bodies are not echoed into logs.
func verb(line string) string {
	if i := strings.IndexByte(line, ' '); i >= 0 {
		return line[:i]
	}
	return line
}
