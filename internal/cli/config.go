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
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-jwtkeys/pkg/keysource"
	"github.com/jeremyhahn/go-jwtkeys/pkg/logging"
)

// EnvPrefix is the prefix of environment variables bound to global flags.
const EnvPrefix = "JWTKEYS"

// Global flag names.
const (
	flagConfig     = "config"
	flagOutput     = "output"
	flagLogLevel   = "log-level"
	flagLogFormat  = "log-format"
	flagVaultAddr  = "vault-addr"
	flagVaultToken = "vault-token"
	flagVaultNS    = "vault-namespace"
	flagVaultMount = "vault-mount"
)

// Config holds global CLI configuration resolved from flags, environment
// and defaults.
type Config struct {
	// ConfigFile is the path to the server configuration file
	ConfigFile string

	// OutputFormat controls output formatting (text, json)
	OutputFormat string

	LogLevel  string
	LogFormat string

	// Vault is used for "vault:" key references.
	Vault keysource.VaultConfig
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		OutputFormat: string(OutputFormatText),
		LogLevel:     "info",
		LogFormat:    logging.FormatText,
		Vault: keysource.VaultConfig{
			Mount:      keysource.DefaultMount,
			MaxRetries: -1,
		},
	}
}

// addGlobalFlags registers the persistent flags shared by every command.
func addGlobalFlags(flags *pflag.FlagSet) {
	defaults := NewConfig()
	flags.String(flagConfig, "", "server configuration file (YAML)")
	flags.StringP(flagOutput, "o", defaults.OutputFormat, "output format (text, json)")
	flags.String(flagLogLevel, defaults.LogLevel, "log level (debug, info, warn, error)")
	flags.String(flagLogFormat, defaults.LogFormat, "log format (text, json)")
	flags.String(flagVaultAddr, "", "Vault address for vault: key references")
	flags.String(flagVaultToken, "", "Vault token for vault: key references")
	flags.String(flagVaultNS, "", "Vault namespace")
	flags.String(flagVaultMount, defaults.Vault.Mount, "Vault KV v2 mount")
}

// newViper binds flags and JWTKEYS_* environment variables. The Vault
// flags also honor the standard VAULT_ADDR, VAULT_TOKEN and
// VAULT_NAMESPACE variables.
func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return nil, err
	}
	bindings := map[string][]string{
		flagVaultAddr:  {"JWTKEYS_VAULT_ADDR", "VAULT_ADDR"},
		flagVaultToken: {"JWTKEYS_VAULT_TOKEN", "VAULT_TOKEN"},
		flagVaultNS:    {"JWTKEYS_VAULT_NAMESPACE", "VAULT_NAMESPACE"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// resolveConfig reads the effective configuration from v.
func resolveConfig(v *viper.Viper) *Config {
	cfg := NewConfig()
	cfg.ConfigFile = v.GetString(flagConfig)
	cfg.OutputFormat = v.GetString(flagOutput)
	cfg.LogLevel = v.GetString(flagLogLevel)
	cfg.LogFormat = v.GetString(flagLogFormat)
	cfg.Vault.Address = v.GetString(flagVaultAddr)
	cfg.Vault.Token = v.GetString(flagVaultToken)
	cfg.Vault.Namespace = v.GetString(flagVaultNS)
	if mount := v.GetString(flagVaultMount); mount != "" {
		cfg.Vault.Mount = mount
	}
	return cfg
}
