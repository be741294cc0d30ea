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

package encoding

import "errors"

var (
	// ErrMalformedKeyFormat is returned when a PEM envelope was recognized
	// but its content does not have the expected shape: bad base64, a
	// missing end marker, or a DER structure with the wrong field count.
	ErrMalformedKeyFormat = errors.New("encoding: malformed key format")

	// ErrUnsupportedKeyFormat is returned when no known PEM marker is
	// present, when an envelope kind cannot serve the requested operation,
	// or when a key reports an export format other than PKCS#1 or PKCS#8.
	ErrUnsupportedKeyFormat = errors.New("encoding: unsupported key format")

	// ErrInvalidPrivateKey is returned when a private key is nil or invalid
	ErrInvalidPrivateKey = errors.New("encoding: invalid private key")

	// ErrInvalidPublicKey is returned when a public key is nil or invalid
	ErrInvalidPublicKey = errors.New("encoding: invalid public key")

	// ErrInvalidData is returned when data is nil or empty
	ErrInvalidData = errors.New("encoding: invalid data")

	// ErrInvalidPassword is returned when a password is incorrect
	ErrInvalidPassword = errors.New("encoding: invalid password")

	// ErrPasswordRequired is returned when a password is required but not provided
	ErrPasswordRequired = errors.New("encoding: password required")
)
