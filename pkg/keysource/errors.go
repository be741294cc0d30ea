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

import "errors"

var (
	// ErrUnknownKind is returned for a Spec whose Kind is not recognized.
	ErrUnknownKind = errors.New("keysource: unknown source kind")

	// ErrEmptyKey is returned when a source yields no PEM text.
	ErrEmptyKey = errors.New("keysource: empty key material")

	// ErrPathRequired is returned when a file or Vault source has no path.
	ErrPathRequired = errors.New("keysource: path required")

	// ErrSecretNotFound is returned when the Vault secret does not exist.
	ErrSecretNotFound = errors.New("keysource: secret not found")

	// ErrFieldMissing is returned when the Vault secret lacks the field.
	ErrFieldMissing = errors.New("keysource: secret field missing")

	// ErrVaultConnection is returned when the Vault client cannot be built
	// or the request fails.
	ErrVaultConnection = errors.New("keysource: vault connection failed")
)
