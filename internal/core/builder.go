package core

import (
	"ircc/config"
	"ircc/internal/console"
	"ircc/internal/irc"
	"ircc/internal/metrics"
	"ircc/internal/transport"
	"ircc/tunnel"
	"ircc/util"
)

// Build validates cfg and assembles the client it describes.
func Build(cfg *config.Config, logger *util.Logger) (Mode, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &ClientMode{
		Dialer:  buildDialer(cfg, logger),
		Address: cfg.Address(),
		Session: irc.Options{
			Identity: irc.Identity{
				Nick:     cfg.Nick,
				User:     cfg.User,
				RealName: cfg.RealName,
			},
			Channel:     cfg.Channel,
			QuitMessage: cfg.QuitMessage,
			MaxLine:     cfg.MaxLine,
		},
		Source: console.SourceConfig{
			Prompt:      config.DefaultPrompt,
			HistoryFile: cfg.HistoryFile,
			Plain:       cfg.Plain,
		},
		Logger:  logger,
		Metrics: metrics.New(),
	}, nil
}

// buildDialer chains TCP (or an SSH tunnel) under TLS unless TLS is
// switched off.
func buildDialer(cfg *config.Config, logger *util.Logger) transport.Dialer {
	var d transport.Dialer = &transport.TCPDialer{Timeout: cfg.Timeout}

	if cfg.TunnelEnabled {
		d = transport.NewSSHDialer(&tunnel.SSHConfig{
			User:          cfg.TunnelUser,
			Host:          cfg.TunnelHost,
			Port:          cfg.TunnelPort,
			KeyPath:       cfg.SSHKeyPath,
			PromptPass:    cfg.SSHPassword,
			UseAgent:      cfg.UseSSHAgent,
			StrictHostKey: cfg.StrictHostKey,
			KnownHosts:    cfg.KnownHostsPath,
			ConnTimeout:   cfg.Timeout,
		}, logger)
	}

	if cfg.TLS {
		d = transport.NewTLSDialer(d, cfg.Insecure, cfg.Timeout)
	}
	return d
}
