package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"ircc/internal/console"
	"ircc/internal/irc"
	"ircc/internal/metrics"
	"ircc/internal/transport"
	"ircc/util"
)

// QuitGrace bounds the QUIT handshake after an interrupt.
const QuitGrace = 3 * time.Second

// ClientMode dials the server, runs one IRC session over the
// connection and wires the operator console to it.
type ClientMode struct {
	Dialer  transport.Dialer
	Address string

	// Session carries identity and framing options.  Logger and
	// Metrics are filled in by Run.
	Session irc.Options

	Source  console.SourceConfig
	Logger  *util.Logger
	Metrics *metrics.Collector

	// Stdin/Stdout replace the operator console when set: input is
	// read without a line editor and events are printed to Stdout.
	// Override in tests for deterministic I/O.
	Stdin  io.Reader
	Stdout io.Writer
}

// Run connects and returns once the operator has quit, the session
// has ended, or ctx is cancelled.  An interrupt still tries to say
// QUIT before hanging up.  A session that ends on a transport error
// returns that error.
func (m *ClientMode) Run(ctx context.Context) error {
	defer m.Dialer.Close()
	log := m.Logger.Named("core")

	log.Verbose("connecting to %s", m.Address)

	conn, err := m.Dialer.Dial(ctx, "tcp", m.Address)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", m.Address, err)
	}
	defer conn.Close()

	log.Verbose("connected to %s", conn.RemoteAddr())

	opts := m.Session
	opts.Logger = m.Logger
	opts.Metrics = m.Metrics
	sess := irc.NewSession(opts)

	driven := make(chan struct{})
	go func() {
		defer close(driven)
		transport.Drive(conn, sess) //nolint:errcheck // reported through the session
	}()

	src, err := m.openSource()
	if err != nil {
		return fmt.Errorf("open console: %w", err)
	}
	defer src.Close()

	outCtx, stopOutput := context.WithCancel(context.Background())
	defer stopOutput()
	out := console.NewOutputConsumer(sess, &console.PrintDisplay{W: src.Output}, m.Logger)
	outDone := make(chan error, 1)
	go func() { outDone <- out.Run(outCtx) }()

	// Operator lines wait for the registration lines.
	select {
	case <-sess.Ready():
	case <-sess.Done():
	case <-ctx.Done():
	}

	reader := console.NewInputReader(src, sess, m.Logger)
	readErr := make(chan error, 1)
	go func() { readErr <- reader.Run(ctx) }()

	result := m.wait(ctx, log, sess, reader, readErr)

	stopOutput()
	if err := <-outDone; err != nil {
		log.Error("output: %v", err)
	}
	conn.Close()
	<-driven

	log.Verbose("session %s: %s", sess.ID(), m.Metrics.JSON())
	return result
}

// wait blocks for whichever ends first: the operator's quit, the
// session, a local input failure or ctx.
func (m *ClientMode) wait(ctx context.Context, log *util.Logger, sess *irc.Session,
	reader *console.InputReader, readErr <-chan error) error {

	select {
	case <-reader.Done():
		log.Verbose("quit")
		return nil

	case <-sess.Done():
		reason := sess.Err()
		if reason == nil || sess.QuitRequested() {
			log.Verbose("server closed the connection")
			return nil
		}
		return fmt.Errorf("session ended: %w", reason)

	case err := <-readErr:
		if err != nil {
			return err
		}
		<-reader.Done()
		return nil

	case <-ctx.Done():
		log.Info("interrupted, sending QUIT")
		qctx, cancel := context.WithTimeout(context.Background(), QuitGrace)
		defer cancel()
		err := sess.RequestQuit(qctx, "")
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			log.Verbose("quit: %v", err)
		}
		return nil
	}
}

func (m *ClientMode) openSource() (*console.Source, error) {
	if m.Stdin != nil {
		out := m.Stdout
		if out == nil {
			out = io.Discard
		}
		return &console.Source{Reader: m.Stdin, Output: out}, nil
	}
	cfg := m.Source
	cfg.Stdout = m.Stdout
	return console.OpenSource(cfg)
}
