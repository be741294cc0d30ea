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

package keysource

import (
	"context"
	"errors"
	"fmt"

	vault "github.com/hashicorp/vault/api"
)

const (
	// DefaultMount is the KV v2 mount used when none is configured.
	DefaultMount = "secret"

	// DefaultField is the secret field holding the PEM text.
	DefaultField = "pem"
)

// VaultConfig holds the connection settings for a Vault server.
type VaultConfig struct {
	// Address is the Vault server address, e.g. "https://vault:8200".
	Address string

	// Token is the Vault authentication token.
	Token string

	// Namespace is the Vault Enterprise namespace (optional).
	Namespace string

	// Mount is the KV v2 mount path. Defaults to DefaultMount.
	Mount string

	// TLSSkipVerify disables TLS certificate verification.
	TLSSkipVerify bool

	// MaxRetries overrides the client's retry count when non-negative.
	MaxRetries int
}

// NewClient returns a Vault API client for cfg.
func NewClient(cfg VaultConfig) (*vault.Client, error) {
	vaultConfig := vault.DefaultConfig()
	if cfg.Address != "" {
		vaultConfig.Address = cfg.Address
	}
	if cfg.MaxRetries >= 0 {
		vaultConfig.MaxRetries = cfg.MaxRetries
	}

	if cfg.TLSSkipVerify {
		if err := vaultConfig.ConfigureTLS(&vault.TLSConfig{Insecure: true}); err != nil {
			return nil, fmt.Errorf("%w: configure TLS: %v", ErrVaultConnection, err)
		}
	}

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVaultConnection, err)
	}
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}
	return client, nil
}

// Vault reads PEM text from one field of a KV v2 secret.
type Vault struct {
	kv    *vault.KVv2
	mount string
	path  string
	field string
}

// NewVault returns a Source for the secret at path under cfg.Mount.
func NewVault(cfg VaultConfig, path, field string) (*Vault, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewVaultWithClient(client, cfg.Mount, path, field)
}

// NewVaultWithClient is NewVault with an existing client.
func NewVaultWithClient(client *vault.Client, mount, path, field string) (*Vault, error) {
	if path == "" {
		return nil, ErrPathRequired
	}
	if mount == "" {
		mount = DefaultMount
	}
	if field == "" {
		field = DefaultField
	}
	return &Vault{
		kv:    client.KVv2(mount),
		mount: mount,
		path:  path,
		field: field,
	}, nil
}

// Load reads the latest version of the secret.
func (v *Vault) Load(ctx context.Context) (string, error) {
	secret, err := v.kv.Get(ctx, v.path)
	if err != nil {
		if errors.Is(err, vault.ErrSecretNotFound) {
			return "", fmt.Errorf("%w: %s", ErrSecretNotFound, v)
		}
		return "", fmt.Errorf("%w: %v", ErrVaultConnection, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, v)
	}

	raw, ok := secret.Data[v.field]
	if !ok {
		return "", fmt.Errorf("%w: %q in %s", ErrFieldMissing, v.field, v)
	}
	text, ok := raw.(string)
	if !ok || text == "" {
		return "", fmt.Errorf("%w: %s#%s", ErrEmptyKey, v, v.field)
	}
	return text, nil
}

func (v *Vault) String() string {
	return "vault:" + v.mount + "/" + v.path
}
