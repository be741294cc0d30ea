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

package signing

import (
	"errors"

	"github.com/jeremyhahn/go-jwtkeys/pkg/types"
)

var (
	// ErrKeyRequired indicates a nil private key was provided
	ErrKeyRequired = errors.New("signing: private key is required")

	// ErrUnsupportedAlgorithm indicates the signing algorithm is not in the
	// RSA family
	ErrUnsupportedAlgorithm = types.ErrUnsupportedAlgorithm

	// ErrSigningFailed indicates the signing operation failed. It wraps
	// every fault raised while producing a signature.
	ErrSigningFailed = errors.New("signing: operation failed")
)
