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

package jwt

import "errors"

var (
	// ErrInvalidKey is returned when a signing method is given a key of the
	// wrong type.
	ErrInvalidKey = errors.New("jwt: invalid key type")

	// ErrAlgorithmMismatch is returned when a signing.Signer is bound to a
	// different algorithm than the signing method.
	ErrAlgorithmMismatch = errors.New("jwt: algorithm mismatch")

	// ErrUnknownKeyID is returned when a token names a kid the verifier
	// does not hold.
	ErrUnknownKeyID = errors.New("jwt: unknown key ID")

	// ErrNoKeys is returned when a verifier holds no keys.
	ErrNoKeys = errors.New("jwt: no verification keys")
)
