// Package cmd wires up the CLI flags and dispatches to the client core.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	flag "github.com/spf13/pflag"

	"ircc/config"
	"ircc/internal/core"
	"ircc/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X ircc/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// stdout receives --version and --dry-run output.
var stdout io.Writer = os.Stdout //nolint:gochecknoglobals

// Execute parses args and runs the client.  Flags override IRCC_*
// environment variables, which override the built-in defaults.
func Execute(ctx context.Context, args []string) error {
	cfg := config.Default()
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("ircc", flag.ContinueOnError)

	// ── server ───────────────────────────────────────────────────
	noTLS := !cfg.TLS
	fs.BoolVar(&noTLS, "no-tls", noTLS, "Connect without TLS (default port 6667)")
	fs.BoolVar(&cfg.Insecure, "insecure", cfg.Insecure, "Skip TLS certificate verification")

	timeoutSec := int(cfg.Timeout / time.Second)
	fs.IntVarP(&timeoutSec, "timeout", "w", timeoutSec, "Connect and handshake timeout in seconds")
	fs.IntVar(&cfg.MaxLine, "max-line", cfg.MaxLine, "Longest inbound line in bytes (0 = unlimited)")

	// ── identity ─────────────────────────────────────────────────
	fs.StringVar(&cfg.Nick, "nick", cfg.Nick, "Nickname")
	fs.StringVar(&cfg.User, "user", cfg.User, "Username")
	fs.StringVar(&cfg.RealName, "realname", cfg.RealName, "Real name")
	fs.StringVar(&cfg.Channel, "channel", cfg.Channel, "Channel joined once the server sets our modes")
	fs.StringVar(&cfg.QuitMessage, "quit-message", cfg.QuitMessage, "Message sent with QUIT")

	// ── SSH tunnel ───────────────────────────────────────────────
	fs.StringVarP(&cfg.TunnelSpec, "tunnel", "T", cfg.TunnelSpec, "SSH tunnel via [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", cfg.SSHPassword, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")

	// ── console ──────────────────────────────────────────────────
	fs.BoolVar(&cfg.Plain, "plain", cfg.Plain, "Read input without the line editor")
	fs.StringVar(&cfg.HistoryFile, "history", cfg.HistoryFile, "Line editor history file")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	var quiet bool
	fs.BoolVarP(&quiet, "quiet", "q", false, "Only report errors")

	var showVersion, showHelp, dryRun bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")
	fs.BoolVar(&dryRun, "dry-run", false, "Validate the configuration and exit")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Fprintf(stdout, "ircc %s\n", version)
		return nil
	}

	cfg.TLS = !noTLS
	cfg.Timeout = time.Duration(timeoutSec) * time.Second
	if quiet {
		cfg.Verbose = 0
	}

	// ── positional arguments ─────────────────────────────────────
	if err := parsePositional(cfg, fs.Args()); err != nil {
		return err
	}

	// ── tunnel spec ──────────────────────────────────────────────
	if err := cfg.ApplyTunnelSpec(); err != nil {
		return fmt.Errorf("tunnel: %w", err)
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}

	if dryRun {
		printPlan(cfg)
		return nil
	}

	// ── build components ─────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)

	mode, err := core.Build(cfg, logger)
	if err != nil {
		return err
	}
	return mode.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

// parsePositional accepts [host[:port] [port]].
func parsePositional(cfg *config.Config, remaining []string) error {
	switch len(remaining) {
	case 0:
		return nil
	case 1, 2:
	default:
		return fmt.Errorf("too many arguments (use --help for usage)")
	}

	host, port, err := config.ParseServerSpec(remaining[0])
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	cfg.Host = host
	if port != 0 {
		cfg.Port = port
	}

	if len(remaining) == 2 {
		p, err := strconv.Atoi(remaining[1])
		if err != nil || p < 1 || p > 65535 {
			return fmt.Errorf("invalid port %q", remaining[1])
		}
		cfg.Port = p
	}
	return nil
}

// printPlan describes what a run would do.
func printPlan(cfg *config.Config) {
	transport := "tls"
	switch {
	case !cfg.TLS:
		transport = "plain"
	case cfg.Insecure:
		transport = "tls (unverified)"
	}
	fmt.Fprintf(stdout, "server:   %s (%s)\n", cfg.Address(), transport)
	if cfg.TunnelEnabled {
		fmt.Fprintf(stdout, "tunnel:   %s@%s\n", cfg.TunnelUser, util.FormatAddr(cfg.TunnelHost, cfg.TunnelPort))
	}
	fmt.Fprintf(stdout, "identity: %s (%s, %q)\n", cfg.Nick, cfg.User, cfg.RealName)
	fmt.Fprintf(stdout, "channel:  %s\n", cfg.Channel)
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `ircc – minimal interactive IRC client v%s

Connects, registers, joins a channel once the server sets our modes and
answers PING.  Every other typed line is sent to the server as is; type
"quit" to leave.

Usage:
  ircc [options] [host[:port] [port]]

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  ircc                                        irc.oftc.net:6697 over TLS
  ircc --nick gopher irc.libera.chat          Another network
  ircc --no-tls localhost 6667                Local test server
  ircc -T admin@bastion irc.internal          Through an SSH tunnel
  printf 'PRIVMSG #x :hi\nquit\n' | ircc      Scripted session
`)
}
