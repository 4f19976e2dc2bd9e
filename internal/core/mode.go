// Package core is the orchestration layer.  It composes a dialer
// chain, an IRC session and the operator console into one runnable
// client, and provides a builder that assembles it from a Config.
//
// Architecture layers (bottom → top):
//
//	transport  →  irc  →  console  →  core  →  cmd (CLI)
package core

import "context"

// Mode is a complete run of ircc from connection establishment to
// teardown.
type Mode interface {
	Run(ctx context.Context) error
}
