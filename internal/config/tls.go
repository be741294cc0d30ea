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

package config

import (
	"crypto/tls"
	"fmt"
)

// TLSConfig controls HTTPS for the JWKS server.
type TLSConfig struct {
	Enabled    bool   `yaml:"enabled"`
	CertFile   string `yaml:"cert_file"`
	KeyFile    string `yaml:"key_file"`
	MinVersion string `yaml:"min_version"` // TLS1.2, TLS1.3
}

// Validate checks that an enabled TLS section names its files and a known
// version.
func (cfg *TLSConfig) Validate() error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.CertFile == "" {
		return fmt.Errorf("%w: TLS cert_file is required when TLS is enabled", ErrInvalidConfig)
	}
	if cfg.KeyFile == "" {
		return fmt.Errorf("%w: TLS key_file is required when TLS is enabled", ErrInvalidConfig)
	}
	if _, err := parseTLSVersion(cfg.MinVersion); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// LoadTLSConfig loads a tls.Config from the TLSConfig struct. It returns
// nil when TLS is disabled.
func (cfg *TLSConfig) LoadTLSConfig() (*tls.Config, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load server certificate: %w", err)
	}

	minVersion, err := parseTLSVersion(cfg.MinVersion)
	if err != nil {
		return nil, err
	}

	// #nosec G402 - MinVersion is TLS 1.2 or higher
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   minVersion,
	}, nil
}

// parseTLSVersion accepts TLS1.2 and TLS1.3. Empty means TLS1.2.
func parseTLSVersion(version string) (uint16, error) {
	switch version {
	case "", "TLS1.2":
		return tls.VersionTLS12, nil
	case "TLS1.3":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("unsupported TLS min_version %q (must be TLS1.2 or TLS1.3)", version)
	}
}
