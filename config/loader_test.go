package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_Strings(t *testing.T) {
	t.Setenv("IRCC_HOST", "irc.example.net")
	t.Setenv("IRCC_NICK", "gopher")
	t.Setenv("IRCC_USER", "gopher_u")
	t.Setenv("IRCC_REALNAME", "Go Pher")
	t.Setenv("IRCC_CHANNEL", "#go-nuts")
	t.Setenv("IRCC_QUIT_MESSAGE", "later")
	t.Setenv("IRCC_TUNNEL", "ops@bastion")
	t.Setenv("IRCC_SSH_KEY", "/tmp/id")
	t.Setenv("IRCC_KNOWN_HOSTS", "/tmp/kh")
	t.Setenv("IRCC_HISTORY", "/tmp/hist")

	cfg := Default()
	LoadFromEnv(cfg)

	checks := []struct{ name, got, want string }{
		{"Host", cfg.Host, "irc.example.net"},
		{"Nick", cfg.Nick, "gopher"},
		{"User", cfg.User, "gopher_u"},
		{"RealName", cfg.RealName, "Go Pher"},
		{"Channel", cfg.Channel, "#go-nuts"},
		{"QuitMessage", cfg.QuitMessage, "later"},
		{"TunnelSpec", cfg.TunnelSpec, "ops@bastion"},
		{"SSHKeyPath", cfg.SSHKeyPath, "/tmp/id"},
		{"KnownHostsPath", cfg.KnownHostsPath, "/tmp/kh"},
		{"HistoryFile", cfg.HistoryFile, "/tmp/hist"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}
}

func TestLoadFromEnv_Numbers(t *testing.T) {
	t.Setenv("IRCC_PORT", "7000")
	t.Setenv("IRCC_TIMEOUT", "5")
	t.Setenv("IRCC_MAX_LINE", "512")
	t.Setenv("IRCC_VERBOSE", "3")

	cfg := Default()
	LoadFromEnv(cfg)

	if cfg.Port != 7000 {
		t.Errorf("Port = %d, want 7000", cfg.Port)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
	}
	if cfg.MaxLine != 512 {
		t.Errorf("MaxLine = %d, want 512", cfg.MaxLine)
	}
	if cfg.Verbose != 3 {
		t.Errorf("Verbose = %d, want 3", cfg.Verbose)
	}
}

func TestLoadFromEnv_Booleans(t *testing.T) {
	tests := []struct {
		key   string
		value string
		check func(c *Config) bool
	}{
		{"IRCC_NO_TLS", "1", func(c *Config) bool { return !c.TLS }},
		{"IRCC_INSECURE", "true", func(c *Config) bool { return c.Insecure }},
		{"IRCC_SSH_PASSWORD", "yes", func(c *Config) bool { return c.SSHPassword }},
		{"IRCC_SSH_AGENT", "TRUE", func(c *Config) bool { return c.UseSSHAgent }},
		{"IRCC_STRICT_HOSTKEY", "Yes", func(c *Config) bool { return c.StrictHostKey }},
		{"IRCC_PLAIN", "1", func(c *Config) bool { return c.Plain }},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			cfg := Default()
			LoadFromEnv(cfg)
			if !tt.check(cfg) {
				t.Errorf("%s=%s not applied", tt.key, tt.value)
			}
		})
	}
}

func TestLoadFromEnv_IgnoresGarbage(t *testing.T) {
	t.Setenv("IRCC_PORT", "not-a-number")
	t.Setenv("IRCC_NO_TLS", "maybe")
	t.Setenv("IRCC_TIMEOUT", "-3")

	cfg := Default()
	LoadFromEnv(cfg)

	if cfg.Port != 0 {
		t.Errorf("Port = %d, want 0", cfg.Port)
	}
	if !cfg.TLS {
		t.Error("TLS should stay on")
	}
	if cfg.Timeout != DefaultConnTimeout {
		t.Errorf("Timeout = %v, want default", cfg.Timeout)
	}
}

func TestLoadFromEnv_EmptyKeepsDefaults(t *testing.T) {
	t.Setenv("IRCC_NICK", "")

	cfg := Default()
	LoadFromEnv(cfg)

	if cfg.Nick != DefaultNick {
		t.Errorf("Nick = %q, want %q", cfg.Nick, DefaultNick)
	}
}
