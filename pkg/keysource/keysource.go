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

// Package keysource loads PEM key material from the places a deployment
// keeps it: inline configuration, local files, or a HashiCorp Vault KV
// version 2 secret.
package keysource

import (
	"context"
	"crypto/rsa"
	"fmt"
	"os"
	"strings"

	"github.com/jeremyhahn/go-jwtkeys/pkg/encoding"
)

// Kind names a source implementation.
type Kind string

const (
	KindLiteral Kind = "literal"
	KindFile    Kind = "file"
	KindVault   Kind = "vault"
)

// Source yields PEM text.
type Source interface {
	// Load returns the PEM text. Implementations honor ctx cancellation.
	Load(ctx context.Context) (string, error)

	// String describes the source for logs. It never includes key material.
	String() string
}

// Spec describes a source declaratively, as it appears in configuration.
type Spec struct {
	Kind Kind

	// Value is the PEM text for KindLiteral.
	Value string

	// Path is the file path for KindFile or the secret path for KindVault.
	Path string

	// Field is the secret field for KindVault. Defaults to DefaultField.
	Field string
}

// New builds the Source described by spec. vault may be nil unless spec
// selects KindVault.
func New(spec Spec, vault *VaultConfig) (Source, error) {
	switch spec.Kind {
	case KindLiteral:
		return Literal(spec.Value), nil
	case KindFile:
		if spec.Path == "" {
			return nil, ErrPathRequired
		}
		return File{Path: spec.Path}, nil
	case KindVault:
		if vault == nil {
			return nil, fmt.Errorf("%w: no vault configuration", ErrVaultConnection)
		}
		return NewVault(*vault, spec.Path, spec.Field)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, spec.Kind)
	}
}

// Literal is PEM text held in memory.
type Literal string

// Load returns the literal text.
func (l Literal) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(string(l)) == "" {
		return "", ErrEmptyKey
	}
	return string(l), nil
}

func (l Literal) String() string {
	return "literal"
}

// File reads PEM text from a local file on every Load.
type File struct {
	Path string
}

// Load reads the file.
func (f File) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Path == "" {
		return "", ErrPathRequired
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("keysource: read %s: %w", f.Path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyKey, f.Path)
	}
	return string(data), nil
}

func (f File) String() string {
	return "file:" + f.Path
}

// LoadPrivateKey loads src and parses a PKCS#1 or PKCS#8 private key.
func LoadPrivateKey(ctx context.Context, src Source) (*encoding.PrivateKey, error) {
	text, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	key, err := encoding.PrivateKeyFromPEM(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}
	return key, nil
}

// LoadPublicKey loads src and returns the RSA public key it holds. Private
// key and certificate envelopes are accepted.
func LoadPublicKey(ctx context.Context, src Source) (*rsa.PublicKey, error) {
	text, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	pub, err := encoding.PublicKeyFromPEM(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}
	return pub, nil
}
