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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jeremyhahn/go-jwtkeys/pkg/keysource"
	"github.com/jeremyhahn/go-jwtkeys/pkg/metrics"
	"github.com/jeremyhahn/go-jwtkeys/pkg/validation"
)

// vaultPrefix marks a key reference stored in Vault.
const vaultPrefix = "vault:"

var errKeyRequired = errors.New("a key reference is required (--key)")

// readInput reads path, or standard input for "" and "-".
func (a *app) readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(a.in)
		if err != nil {
			return nil, fmt.Errorf("failed to read standard input: %w", err)
		}
		return data, nil
	}
	// #nosec G304 - input path is provided by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// keySource resolves a key reference: "-" reads standard input,
// "vault:<path>[#field]" reads a Vault KV v2 secret, anything else is a
// file path.
func (a *app) keySource(ref string) (keysource.Source, error) {
	switch {
	case ref == "":
		return nil, errKeyRequired
	case ref == "-":
		data, err := a.readInput("-")
		if err != nil {
			return nil, err
		}
		return keysource.Literal(data), nil
	case strings.HasPrefix(ref, vaultPrefix):
		path, field, _ := strings.Cut(strings.TrimPrefix(ref, vaultPrefix), "#")
		if err := validation.ValidateSecretPath(path); err != nil {
			return nil, err
		}
		vault := a.config.Vault
		return keysource.New(keysource.Spec{
			Kind:  keysource.KindVault,
			Path:  path,
			Field: field,
		}, &vault)
	default:
		return keysource.File{Path: ref}, nil
	}
}

// loadKeyText loads the PEM text behind ref.
func (a *app) loadKeyText(ctx context.Context, ref string) (string, error) {
	src, err := a.keySource(ref)
	if err != nil {
		return "", err
	}
	start := time.Now()
	text, err := src.Load(ctx)
	metrics.Observe(metrics.OpLoad, "", start, err)
	return text, err
}
