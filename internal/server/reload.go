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

package server

import (
	"context"
	"fmt"

	"github.com/jeremyhahn/go-jwtkeys/pkg/logging"
)

// Reload re-reads every key from its source. The key list itself is fixed
// for the lifetime of the server; a failed reload keeps the previous set.
func (s *Server) Reload(ctx context.Context) error {
	s.log().Info("Reloading key set")

	if err := s.keys.Load(ctx); err != nil {
		return fmt.Errorf("failed to reload key set: %w", err)
	}

	s.log().Info("Key set reloaded", "keys", s.keys.Len())
	return nil
}

// ReloadLogging replaces the logger when level or format differ from the
// running configuration.
func (s *Server) ReloadLogging(cfg logging.Options) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg.Level == s.config.Logging.Level && cfg.Format == s.config.Logging.Format {
		return nil
	}

	newLogger, err := logging.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to reload logging configuration: %w", err)
	}

	s.logger.Info("Updating logging configuration",
		"old_level", s.config.Logging.Level,
		"new_level", cfg.Level,
		"old_format", s.config.Logging.Format,
		"new_format", cfg.Format)

	s.logger = newLogger
	s.config.Logging.Level = cfg.Level
	s.config.Logging.Format = cfg.Format
	return nil
}
