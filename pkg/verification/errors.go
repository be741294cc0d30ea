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

package verification

import (
	"errors"

	"github.com/jeremyhahn/go-jwtkeys/pkg/types"
)

var (
	// ErrInvalidSignature indicates the verification ran and the signature
	// does not match the payload. Callers should treat it as a security
	// event, not a configuration fault.
	ErrInvalidSignature = errors.New("verification: invalid signature")

	// ErrVerificationFailed indicates verification could not be carried
	// out: a bad key or an algorithm the verifier does not implement.
	ErrVerificationFailed = errors.New("verification: operation failed")

	// ErrInvalidPublicKeyRSA indicates the RSA public key is nil or incomplete.
	ErrInvalidPublicKeyRSA = errors.New("verification: invalid RSA public key")

	// ErrUnsupportedAlgorithm indicates the algorithm is not accepted by
	// the verifier.
	ErrUnsupportedAlgorithm = types.ErrUnsupportedAlgorithm

	// ErrNoVerifier indicates no verifier in a set accepts an algorithm.
	ErrNoVerifier = errors.New("verification: no verifier accepts algorithm")
)
