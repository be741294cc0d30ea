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
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/go-jwtkeys/pkg/encoding/jwk"
	"github.com/jeremyhahn/go-jwtkeys/pkg/keysource"
	"github.com/jeremyhahn/go-jwtkeys/pkg/logging"
	"github.com/jeremyhahn/go-jwtkeys/pkg/types"
	"github.com/jeremyhahn/go-jwtkeys/pkg/validation"
)

// Defaults applied by Default and by Load for unset fields.
const (
	DefaultAddress         = ":8080"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultCacheMaxAge     = 5 * time.Minute
	DefaultMetricsPath     = "/metrics"
	DefaultHealthPath      = "/health"
	DefaultJWKSPath        = "/.well-known/jwks.json"
	DefaultRequestsPerMin  = 600
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config represents the complete jwtkeys configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Vault     VaultConfig     `yaml:"vault"`
	Keys      []KeyConfig     `yaml:"keys"`
}

// ServerConfig contains JWKS server settings
type ServerConfig struct {
	Address         string        `yaml:"address"`
	JWKSPath        string        `yaml:"jwks_path"`
	HealthPath      string        `yaml:"health_path"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// CacheMaxAge sets Cache-Control max-age on the JWK Set response.
	CacheMaxAge time.Duration `yaml:"cache_max_age"`

	TLS TLSConfig `yaml:"tls"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the metrics endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// RateLimitConfig controls per-client rate limiting
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMin    int  `yaml:"requests_per_min"`
	Burst             int  `yaml:"burst"`
	TrustProxyHeaders bool `yaml:"trust_proxy_headers"`
}

// VaultConfig holds the connection used by keys whose source is vault.
type VaultConfig struct {
	Address       string `yaml:"address"`
	Token         string `yaml:"token"`
	Namespace     string `yaml:"namespace"`
	Mount         string `yaml:"mount"`
	TLSSkipVerify bool   `yaml:"tls_skip_verify"`
}

// KeyConfig declares one key published in the JWK Set.
type KeyConfig struct {
	Name      string `yaml:"name"`
	Algorithm string `yaml:"algorithm"`
	Source    string `yaml:"source"`
	Path      string `yaml:"path,omitempty"`
	Field     string `yaml:"field,omitempty"`
	PEM       string `yaml:"pem,omitempty"`
	Use       string `yaml:"use,omitempty"`

	// KeyID overrides the RFC 7638 thumbprint kid.
	KeyID string `yaml:"kid,omitempty"`
}

// Default returns a configuration with every default applied and no keys.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from a YAML file and applies environment variable overrides
func Load(path string) (*Config, error) {
	// #nosec G304 - Config file path is provided by admin/user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, then applies defaults, environment
// overrides and validation in that order.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Server.JWKSPath == "" {
		c.Server.JWKSPath = DefaultJWKSPath
	}
	if c.Server.HealthPath == "" {
		c.Server.HealthPath = DefaultHealthPath
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Server.CacheMaxAge == 0 {
		c.Server.CacheMaxAge = DefaultCacheMaxAge
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = logging.FormatText
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.RateLimit.RequestsPerMin == 0 {
		c.RateLimit.RequestsPerMin = DefaultRequestsPerMin
	}
	if c.Vault.Mount == "" {
		c.Vault.Mount = keysource.DefaultMount
	}
	for i := range c.Keys {
		if c.Keys[i].Algorithm == "" {
			c.Keys[i].Algorithm = types.RS256.String()
		}
		if c.Keys[i].Use == "" {
			c.Keys[i].Use = jwk.UseSignature
		}
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) {
	if addr := os.Getenv("JWTKEYS_ADDRESS"); addr != "" {
		cfg.Server.Address = addr
	}
	if level := os.Getenv("JWTKEYS_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("JWTKEYS_LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}
	if enabled := os.Getenv("JWTKEYS_METRICS_ENABLED"); enabled != "" {
		if v, err := strconv.ParseBool(enabled); err != nil {
			log.Printf("Warning: invalid JWTKEYS_METRICS_ENABLED value %q, keeping %t: %v",
				enabled, cfg.Metrics.Enabled, err)
		} else {
			cfg.Metrics.Enabled = v
		}
	}
	if rpm := os.Getenv("JWTKEYS_RATELIMIT_REQUESTS_PER_MIN"); rpm != "" {
		if v, err := strconv.Atoi(rpm); err != nil || v <= 0 {
			log.Printf("Warning: invalid JWTKEYS_RATELIMIT_REQUESTS_PER_MIN value %q, keeping %d",
				rpm, cfg.RateLimit.RequestsPerMin)
		} else {
			cfg.RateLimit.Enabled = true
			cfg.RateLimit.RequestsPerMin = v
		}
	}

	// Vault uses the standard client variables, with JWTKEYS_ taking priority.
	for _, name := range []string{"VAULT_ADDR", "JWTKEYS_VAULT_ADDR"} {
		if addr := os.Getenv(name); addr != "" {
			cfg.Vault.Address = addr
		}
	}
	for _, name := range []string{"VAULT_TOKEN", "JWTKEYS_VAULT_TOKEN"} {
		if token := os.Getenv(name); token != "" {
			cfg.Vault.Token = token
		}
	}
	for _, name := range []string{"VAULT_NAMESPACE", "JWTKEYS_VAULT_NAMESPACE"} {
		if ns := os.Getenv(name); ns != "" {
			cfg.Vault.Namespace = ns
		}
	}
}

// Validate checks the configuration. Every error wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: log level %q (must be debug, info, warn or error)", ErrInvalidConfig, c.Logging.Level)
	}
	switch c.Logging.Format {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("%w: log format %q (must be text or json)", ErrInvalidConfig, c.Logging.Format)
	}

	for _, p := range []string{c.Server.JWKSPath, c.Server.HealthPath, c.Metrics.Path} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("%w: route %q must start with /", ErrInvalidConfig, p)
		}
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: server timeouts must not be negative", ErrInvalidConfig)
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMin <= 0 {
		return fmt.Errorf("%w: ratelimit requests_per_min must be positive", ErrInvalidConfig)
	}
	if c.RateLimit.Burst < 0 {
		return fmt.Errorf("%w: ratelimit burst must not be negative", ErrInvalidConfig)
	}

	if err := c.Server.TLS.Validate(); err != nil {
		return err
	}

	names := make(map[string]struct{}, len(c.Keys))
	for i, key := range c.Keys {
		if key.Name == "" {
			return fmt.Errorf("%w: keys[%d]: name is required", ErrInvalidConfig, i)
		}
		if err := validation.ValidateKeyName(key.Name); err != nil {
			return fmt.Errorf("%w: keys[%d]: %v", ErrInvalidConfig, i, err)
		}
		if _, dup := names[key.Name]; dup {
			return fmt.Errorf("%w: keys[%d]: duplicate name %q", ErrInvalidConfig, i, key.Name)
		}
		names[key.Name] = struct{}{}

		if err := key.validate(); err != nil {
			return fmt.Errorf("%w: key %q: %v", ErrInvalidConfig, key.Name, err)
		}
		if keysource.Kind(key.Source) == keysource.KindVault && c.Vault.Address == "" {
			return fmt.Errorf("%w: key %q: vault address is required for vault sources", ErrInvalidConfig, key.Name)
		}
	}

	return nil
}

func (k KeyConfig) validate() error {
	alg, err := types.ParseAlgorithm(k.Algorithm)
	if err != nil {
		return err
	}
	if !alg.IsRSA() {
		return fmt.Errorf("algorithm %s is not an RSA signature algorithm", alg)
	}

	switch keysource.Kind(k.Source) {
	case keysource.KindLiteral:
		if strings.TrimSpace(k.PEM) == "" {
			return fmt.Errorf("pem is required for literal sources")
		}
	case keysource.KindFile:
		if k.Path == "" {
			return fmt.Errorf("path is required for %s sources", k.Source)
		}
	case keysource.KindVault:
		if k.Path == "" {
			return fmt.Errorf("path is required for %s sources", k.Source)
		}
		if err := validation.ValidateSecretPath(k.Path); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown source %q (must be literal, file or vault)", k.Source)
	}

	if k.KeyID != "" {
		if err := validation.ValidateKeyID(k.KeyID); err != nil {
			return err
		}
	}
	return nil
}

// AlgorithmValue returns the parsed algorithm. It is only meaningful after
// Validate has succeeded.
func (k KeyConfig) AlgorithmValue() types.Algorithm {
	alg, _ := types.ParseAlgorithm(k.Algorithm)
	return alg
}

// SourceSpec converts the key declaration into a keysource.Spec.
func (k KeyConfig) SourceSpec() keysource.Spec {
	return keysource.Spec{
		Kind:  keysource.Kind(k.Source),
		Value: k.PEM,
		Path:  k.Path,
		Field: k.Field,
	}
}

// KeySourceConfig converts the vault section for keysource.New. MaxRetries
// is left to the client default.
func (v VaultConfig) KeySourceConfig() *keysource.VaultConfig {
	return &keysource.VaultConfig{
		Address:       v.Address,
		Token:         v.Token,
		Namespace:     v.Namespace,
		Mount:         v.Mount,
		TLSSkipVerify: v.TLSSkipVerify,
		MaxRetries:    -1,
	}
}
