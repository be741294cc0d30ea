// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-jwtkeys.
//
// go-jwtkeys is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-jwtkeys/internal/config"
	"github.com/jeremyhahn/go-jwtkeys/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured keys as a JWK Set over HTTP",
		Long: `Serve the keys listed in the configuration file at
/.well-known/jwks.json, with /health and /metrics alongside.
SIGHUP reloads every key from its source; SIGINT and SIGTERM shut down
gracefully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.serverConfig(cmd, address)
			if err != nil {
				return err
			}

			logger, err := a.logger()
			if err != nil {
				return err
			}
			logger.Info("Starting jwtkeys server",
				"config", a.config.ConfigFile,
				"version", Version)

			ctx, stop := server.SetupSignalHandler()
			defer stop()

			srv, err := server.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			go srv.ReloadOnSignal(ctx)

			return srv.Start(ctx)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "listen address, overrides the configuration file")
	return cmd
}

// serverConfig loads the configuration file and lets explicitly set
// global flags and environment override its logging section.
func (a *app) serverConfig(cmd *cobra.Command, address string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if a.config.ConfigFile != "" {
		if cfg, err = config.Load(a.config.ConfigFile); err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	if a.viper.IsSet(flagLogLevel) {
		cfg.Logging.Level = a.config.LogLevel
	} else {
		a.config.LogLevel = cfg.Logging.Level
	}
	if a.viper.IsSet(flagLogFormat) {
		cfg.Logging.Format = a.config.LogFormat
	} else {
		a.config.LogFormat = cfg.Logging.Format
	}
	if cmd.Flags().Changed("address") {
		cfg.Server.Address = address
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
