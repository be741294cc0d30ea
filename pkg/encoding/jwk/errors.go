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

package jwk

import "errors"

var (
	// ErrNotRSA is returned when a JWK or PEM holds a non-RSA key.
	ErrNotRSA = errors.New("jwk: key is not an RSA key")

	// ErrInvalidJWK is returned when JSON does not decode to a usable key.
	ErrInvalidJWK = errors.New("jwk: invalid JSON web key")

	// ErrDuplicateKeyID is returned when two keys in a set share a kid.
	ErrDuplicateKeyID = errors.New("jwk: duplicate key ID")

	// ErrKeyNotFound is returned by Set.Lookup for an unknown kid.
	ErrKeyNotFound = errors.New("jwk: key not found")
)
