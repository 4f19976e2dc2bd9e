package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the IRCC_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("IRCC_HOST"); v != "" {
		cfg.Host = v
	}
	if v := envInt("IRCC_PORT"); v > 0 {
		cfg.Port = v
	}
	if envBool("IRCC_NO_TLS") {
		cfg.TLS = false
	}
	if envBool("IRCC_INSECURE") {
		cfg.Insecure = true
	}
	if v := envInt("IRCC_TIMEOUT"); v > 0 {
		cfg.Timeout = secondsDuration(v)
	}

	// Identity
	if v := os.Getenv("IRCC_NICK"); v != "" {
		cfg.Nick = v
	}
	if v := os.Getenv("IRCC_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("IRCC_REALNAME"); v != "" {
		cfg.RealName = v
	}
	if v := os.Getenv("IRCC_CHANNEL"); v != "" {
		cfg.Channel = v
	}
	if v := os.Getenv("IRCC_QUIT_MESSAGE"); v != "" {
		cfg.QuitMessage = v
	}
	if v := envInt("IRCC_MAX_LINE"); v > 0 {
		cfg.MaxLine = v
	}

	// SSH tunnel
	if v := os.Getenv("IRCC_TUNNEL"); v != "" {
		cfg.TunnelSpec = v
	}
	if v := os.Getenv("IRCC_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if envBool("IRCC_SSH_PASSWORD") {
		cfg.SSHPassword = true
	}
	if envBool("IRCC_SSH_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool("IRCC_STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := os.Getenv("IRCC_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}

	// Console
	if envBool("IRCC_PLAIN") {
		cfg.Plain = true
	}
	if v := os.Getenv("IRCC_HISTORY"); v != "" {
		cfg.HistoryFile = v
	}

	// Output
	if v := envInt("IRCC_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func secondsDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}
