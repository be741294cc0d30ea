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
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeremyhahn/go-jwtkeys/internal/testutil"
	"github.com/jeremyhahn/go-jwtkeys/pkg/keysource"
	"github.com/jeremyhahn/go-jwtkeys/pkg/types"
)

// TestLoad_Success tests successful loading of a valid config file
func TestLoad_Success(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  address: "127.0.0.1:9000"
  read_timeout: 3s
  cache_max_age: 1m

logging:
  level: "debug"
  format: "json"

metrics:
  enabled: true

ratelimit:
  enabled: true
  requests_per_min: 120
  burst: 10

vault:
  address: "http://vault:8200"
  token: "root"

keys:
  - name: primary
    algorithm: RS512
    source: file
    path: /etc/jwtkeys/primary.pem
  - name: legacy
    source: vault
    path: jwt/legacy
    field: private
    kid: legacy-2024
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Address != "127.0.0.1:9000" {
		t.Errorf("Server.Address = %q, want 127.0.0.1:9000", cfg.Server.Address)
	}
	if cfg.Server.ReadTimeout != 3*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 3s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.CacheMaxAge != time.Minute {
		t.Errorf("Server.CacheMaxAge = %v, want 1m", cfg.Server.CacheMaxAge)
	}
	if cfg.Server.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("Server.WriteTimeout = %v, want default", cfg.Server.WriteTimeout)
	}
	if cfg.Server.JWKSPath != DefaultJWKSPath {
		t.Errorf("Server.JWKSPath = %q, want default", cfg.Server.JWKSPath)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != DefaultMetricsPath {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
	if cfg.RateLimit.RequestsPerMin != 120 || cfg.RateLimit.Burst != 10 {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.Vault.Mount != keysource.DefaultMount {
		t.Errorf("Vault.Mount = %q, want %q", cfg.Vault.Mount, keysource.DefaultMount)
	}

	if len(cfg.Keys) != 2 {
		t.Fatalf("len(Keys) = %d, want 2", len(cfg.Keys))
	}
	if cfg.Keys[0].AlgorithmValue() != types.RS512 {
		t.Errorf("Keys[0] algorithm = %s, want RS512", cfg.Keys[0].AlgorithmValue())
	}
	if cfg.Keys[1].AlgorithmValue() != types.RS256 {
		t.Errorf("Keys[1] algorithm = %s, want default RS256", cfg.Keys[1].AlgorithmValue())
	}
	if cfg.Keys[1].Use != "sig" {
		t.Errorf("Keys[1].Use = %q, want sig", cfg.Keys[1].Use)
	}
	if cfg.Keys[1].KeyID != "legacy-2024" {
		t.Errorf("Keys[1].KeyID = %q", cfg.Keys[1].KeyID)
	}

	spec := cfg.Keys[1].SourceSpec()
	if spec.Kind != keysource.KindVault || spec.Path != "jwt/legacy" || spec.Field != "private" {
		t.Errorf("SourceSpec() = %+v", spec)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load() should fail for a missing file")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("server: [unterminated"))
	if err == nil {
		t.Fatal("Parse() should fail for invalid YAML")
	}
	if !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() should validate: %v", err)
	}
	if cfg.Server.Address != DefaultAddress {
		t.Errorf("Server.Address = %q", cfg.Server.Address)
	}
	if cfg.Server.ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("Server.ShutdownTimeout = %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.RateLimit.Enabled {
		t.Error("rate limiting should be off by default")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
		{"bad route", func(c *Config) { c.Metrics.Path = "metrics" }},
		{"negative timeout", func(c *Config) { c.Server.ReadTimeout = -time.Second }},
		{"negative burst", func(c *Config) { c.RateLimit.Burst = -1 }},
		{"zero rate", func(c *Config) {
			c.RateLimit.Enabled = true
			c.RateLimit.RequestsPerMin = 0
		}},
		{"tls without cert", func(c *Config) {
			c.Server.TLS = TLSConfig{Enabled: true, KeyFile: "k.pem"}
		}},
		{"tls bad version", func(c *Config) {
			c.Server.TLS = TLSConfig{Enabled: true, CertFile: "c.pem", KeyFile: "k.pem", MinVersion: "TLS1.0"}
		}},
		{"key without name", func(c *Config) {
			c.Keys = []KeyConfig{{Algorithm: "RS256", Source: "file", Path: "a.pem"}}
		}},
		{"duplicate key name", func(c *Config) {
			k := KeyConfig{Name: "a", Algorithm: "RS256", Source: "file", Path: "a.pem"}
			c.Keys = []KeyConfig{k, k}
		}},
		{"non-RSA algorithm", func(c *Config) {
			c.Keys = []KeyConfig{{Name: "a", Algorithm: "ES256", Source: "file", Path: "a.pem"}}
		}},
		{"unknown algorithm", func(c *Config) {
			c.Keys = []KeyConfig{{Name: "a", Algorithm: "RS1", Source: "file", Path: "a.pem"}}
		}},
		{"unknown source", func(c *Config) {
			c.Keys = []KeyConfig{{Name: "a", Algorithm: "RS256", Source: "s3", Path: "a.pem"}}
		}},
		{"file without path", func(c *Config) {
			c.Keys = []KeyConfig{{Name: "a", Algorithm: "RS256", Source: "file"}}
		}},
		{"literal without pem", func(c *Config) {
			c.Keys = []KeyConfig{{Name: "a", Algorithm: "RS256", Source: "literal"}}
		}},
		{"vault without address", func(c *Config) {
			c.Keys = []KeyConfig{{Name: "a", Algorithm: "RS256", Source: "vault", Path: "jwt/a"}}
		}},
		{"uppercase key name", func(c *Config) {
			c.Keys = []KeyConfig{{Name: "Primary", Algorithm: "RS256", Source: "file", Path: "a.pem"}}
		}},
		{"vault path traversal", func(c *Config) {
			c.Vault.Address = "http://127.0.0.1:8200"
			c.Keys = []KeyConfig{{Name: "a", Algorithm: "RS256", Source: "vault", Path: "jwt/../sys"}}
		}},
		{"invalid kid", func(c *Config) {
			c.Keys = []KeyConfig{{Name: "a", Algorithm: "RS256", Source: "file", Path: "a.pem", KeyID: "my key"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error %v does not wrap ErrInvalidConfig", err)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("JWTKEYS_ADDRESS", ":7000")
	t.Setenv("JWTKEYS_LOG_LEVEL", "warn")
	t.Setenv("JWTKEYS_METRICS_ENABLED", "true")
	t.Setenv("JWTKEYS_RATELIMIT_REQUESTS_PER_MIN", "30")
	t.Setenv("VAULT_ADDR", "http://fallback:8200")
	t.Setenv("JWTKEYS_VAULT_ADDR", "http://primary:8200")
	t.Setenv("VAULT_TOKEN", "s.token")

	cfg, err := Parse([]byte("logging:\n  level: info\n"))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	if cfg.Server.Address != ":7000" {
		t.Errorf("Server.Address = %q", cfg.Server.Address)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should be true")
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.RequestsPerMin != 30 {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.Vault.Address != "http://primary:8200" {
		t.Errorf("Vault.Address = %q", cfg.Vault.Address)
	}
	if cfg.Vault.Token != "s.token" {
		t.Errorf("Vault.Token = %q", cfg.Vault.Token)
	}
}

func TestApplyEnvOverrides_InvalidValuesIgnored(t *testing.T) {
	t.Setenv("JWTKEYS_METRICS_ENABLED", "maybe")
	t.Setenv("JWTKEYS_RATELIMIT_REQUESTS_PER_MIN", "-5")

	cfg, err := Parse([]byte("metrics:\n  enabled: false\n"))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should be unchanged")
	}
	if cfg.RateLimit.Enabled || cfg.RateLimit.RequestsPerMin != DefaultRequestsPerMin {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
}

func TestVaultConfig_KeySourceConfig(t *testing.T) {
	v := VaultConfig{Address: "http://v:8200", Token: "t", Namespace: "ns", Mount: "kv"}
	ks := v.KeySourceConfig()
	if ks.Address != v.Address || ks.Token != "t" || ks.Namespace != "ns" || ks.Mount != "kv" {
		t.Errorf("KeySourceConfig() = %+v", ks)
	}
	if ks.MaxRetries >= 0 {
		t.Errorf("MaxRetries = %d, want client default", ks.MaxRetries)
	}
}

func TestTLSConfig_Disabled(t *testing.T) {
	cfg := &TLSConfig{}
	tlsCfg, err := cfg.LoadTLSConfig()
	if err != nil || tlsCfg != nil {
		t.Fatalf("LoadTLSConfig() = %v, %v; want nil, nil", tlsCfg, err)
	}
}

func TestTLSConfig_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := &TLSConfig{
		Enabled:  true,
		CertFile: filepath.Join(dir, "cert.pem"),
		KeyFile:  filepath.Join(dir, "key.pem"),
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if _, err := cfg.LoadTLSConfig(); err == nil {
		t.Fatal("LoadTLSConfig() should fail for missing files")
	}
}

func TestParseTLSVersion(t *testing.T) {
	for _, v := range []string{"", "TLS1.2", "TLS1.3"} {
		if _, err := parseTLSVersion(v); err != nil {
			t.Errorf("parseTLSVersion(%q) failed: %v", v, err)
		}
	}
	for _, v := range []string{"TLS1.0", "TLS1.1", "tls1.3"} {
		if _, err := parseTLSVersion(v); err == nil {
			t.Errorf("parseTLSVersion(%q) should fail", v)
		}
	}
}

func TestTLSConfig_Enabled(t *testing.T) {
	ca, err := testutil.GenerateTestCA()
	if err != nil {
		t.Fatalf("GenerateTestCA() error = %v", err)
	}
	serverCert, err := testutil.GenerateTestServerCert(ca)
	if err != nil {
		t.Fatalf("GenerateTestServerCert() error = %v", err)
	}
	certFile, keyFile, err := serverCert.WriteFiles(t.TempDir())
	if err != nil {
		t.Fatalf("WriteFiles() error = %v", err)
	}

	cfg := &TLSConfig{Enabled: true, CertFile: certFile, KeyFile: keyFile, MinVersion: "TLS1.3"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	tlsCfg, err := cfg.LoadTLSConfig()
	if err != nil {
		t.Fatalf("LoadTLSConfig() error = %v", err)
	}
	if tlsCfg.MinVersion != tls.VersionTLS13 {
		t.Errorf("MinVersion = %x, want %x", tlsCfg.MinVersion, tls.VersionTLS13)
	}
	if len(tlsCfg.Certificates) != 1 {
		t.Errorf("len(Certificates) = %d, want 1", len(tlsCfg.Certificates))
	}
}
