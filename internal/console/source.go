package console

import (
	"errors"
	"io"
	"os"

	"github.com/ergochat/readline"
	"golang.org/x/term"
)

// historyLimit bounds the readline history file.
const historyLimit = 500

// SourceConfig selects and configures the local input device.
type SourceConfig struct {
	Stdin  *os.File
	Stdout io.Writer

	// Prompt is shown by the line editor; ignored for plain input.
	Prompt string

	// HistoryFile persists typed lines across runs ("" = none).
	HistoryFile string

	// Plain forces unedited byte input even on a terminal.
	Plain bool
}

// Source is the operator's input stream plus the writer that output
// should go to while it is open.  With a line editor, writes through
// Output keep the prompt intact.
type Source struct {
	io.Reader
	Output      io.Writer
	Interactive bool

	closer func() error
}

// Close releases the input device.  Plain sources leave stdin open.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// OpenSource returns a line-editing source when stdin is a terminal
// and a plain one otherwise (pipes, files, editors' shells).  The line
// editor always drives the process terminal.
func OpenSource(cfg SourceConfig) (*Source, error) {
	if cfg.Stdin == nil {
		cfg.Stdin = os.Stdin
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}

	plain := &Source{Reader: cfg.Stdin, Output: cfg.Stdout}
	if cfg.Plain || !isInteractive(cfg.Stdin) {
		return plain, nil
	}

	rl, err := readline.NewFromConfig(&readline.Config{
		Prompt:       cfg.Prompt,
		HistoryFile:  cfg.HistoryFile,
		HistoryLimit: historyLimit,
	})
	if err != nil {
		return nil, err
	}
	return newEditorSource(rl), nil
}

func isInteractive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) && os.Getenv("INSIDE_EMACS") == ""
}

// lineEditor is the subset of *readline.Instance an editor source uses.
type lineEditor interface {
	Readline() (string, error)
	Write(p []byte) (int, error)
	Close() error
}

// newEditorSource exposes a line editor as a byte stream: each edited
// line is written to a pipe with a trailing LF, so the input reader
// frames it exactly like piped input.  Ctrl-C and Ctrl-D end the stream.
func newEditorSource(ed lineEditor) *Source {
	pr, pw := io.Pipe()

	go func() {
		for {
			line, err := ed.Readline()
			if err != nil {
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					pw.Close()
				} else {
					pw.CloseWithError(err)
				}
				return
			}
			if _, err := io.WriteString(pw, line+"\n"); err != nil {
				return
			}
		}
	}()

	return &Source{
		Reader:      pr,
		Output:      ed,
		Interactive: true,
		closer: func() error {
			pr.Close()
			return ed.Close()
		},
	}
}
