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

// Package verification checks RSASSA-PKCS1-v1_5 signatures produced for
// the JOSE RS256, RS384 and RS512 algorithms.
package verification

import (
	"crypto/rsa"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"errors"
	"fmt"

	"github.com/jeremyhahn/go-jwtkeys/pkg/encoding"
	"github.com/jeremyhahn/go-jwtkeys/pkg/types"
)

// Verifier defines the interface for signature verification operations.
type Verifier interface {
	// Accepts reports whether the verifier implements alg. Callers use it
	// to pick a verifier from a set before calling Verify.
	Accepts(alg types.Algorithm) bool

	// Verify checks signature over payload. A mismatch returns
	// ErrInvalidSignature; any other failure wraps ErrVerificationFailed.
	Verify(alg types.Algorithm, payload, signature []byte) error
}

// rsaVerifier implements Verifier for an RSA public key.
type rsaVerifier struct {
	pub *rsa.PublicKey
}

// NewRSAVerifier returns a Verifier bound to pub. The key is checked on
// each Verify call, so a nil key yields ErrVerificationFailed there rather
// than a constructor error.
func NewRSAVerifier(pub *rsa.PublicKey) Verifier {
	return &rsaVerifier{pub: pub}
}

// NewRSAVerifierFromPEM parses an X.509 public key, certificate, PKCS#1
// public key, or private key PEM and returns a Verifier for its public key.
func NewRSAVerifierFromPEM(text string) (Verifier, error) {
	pub, err := encoding.PublicKeyFromPEM(text)
	if err != nil {
		return nil, err
	}
	return NewRSAVerifier(pub), nil
}

// Accepts reports true for RS256, RS384 and RS512 only.
func (v *rsaVerifier) Accepts(alg types.Algorithm) bool {
	return alg.IsRSA()
}

// Verify hashes payload with the digest of alg and checks signature with
// RSASSA-PKCS1-v1_5.
func (v *rsaVerifier) Verify(alg types.Algorithm, payload, signature []byte) error {
	if !v.Accepts(alg) {
		return fmt.Errorf("%w: %w: %q", ErrVerificationFailed, ErrUnsupportedAlgorithm, alg)
	}
	if v.pub == nil || v.pub.N == nil || v.pub.N.Sign() <= 0 {
		return fmt.Errorf("%w: %w", ErrVerificationFailed, ErrInvalidPublicKeyRSA)
	}

	hash := alg.Hash()
	if !hash.Available() {
		return fmt.Errorf("%w: hash %v unavailable", ErrVerificationFailed, hash)
	}
	hasher := hash.New()
	if _, err := hasher.Write(payload); err != nil {
		return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	err := rsa.VerifyPKCS1v15(v.pub, hash, hasher.Sum(nil), signature)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rsa.ErrVerification):
		return ErrInvalidSignature
	default:
		return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
}

// Select returns the first verifier in verifiers that accepts alg.
func Select(verifiers []Verifier, alg types.Algorithm) (Verifier, error) {
	for _, v := range verifiers {
		if v != nil && v.Accepts(alg) {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoVerifier, alg)
}
