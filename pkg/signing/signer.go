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

// Package signing produces RSASSA-PKCS1-v1_5 signatures for the JOSE
// RS256, RS384 and RS512 algorithms.
package signing

import (
	"crypto"
	"crypto/rsa"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"fmt"

	"github.com/jeremyhahn/go-jwtkeys/pkg/encoding"
	"github.com/jeremyhahn/go-jwtkeys/pkg/types"
)

// Signer binds an algorithm to an RSA private key. Both are fixed at
// construction. A Signer holds no per-call state and may be shared between
// goroutines.
type Signer struct {
	alg types.Algorithm
	key *rsa.PrivateKey
}

// NewSigner returns a Signer for alg and key. Algorithms outside the RS
// family are ErrUnsupportedAlgorithm.
func NewSigner(alg types.Algorithm, key *rsa.PrivateKey) (*Signer, error) {
	if !alg.IsRSA() {
		return nil, fmt.Errorf("%w: %q is not an RSA signature algorithm", ErrUnsupportedAlgorithm, alg)
	}
	if key == nil {
		return nil, fmt.Errorf("%w: %w", ErrSigningFailed, ErrKeyRequired)
	}
	return &Signer{
		alg: alg,
		key: key,
	}, nil
}

// NewSignerFromPEM parses a PKCS#1 or PKCS#8 PEM private key and returns
// a Signer for it.
func NewSignerFromPEM(alg types.Algorithm, text string) (*Signer, error) {
	key, err := encoding.PrivateKeyFromPEM(text)
	if err != nil {
		return nil, err
	}
	return NewSigner(alg, key.Key)
}

// Algorithm returns the bound algorithm.
func (s *Signer) Algorithm() types.Algorithm {
	return s.alg
}

// Public returns the public key corresponding to the bound private key.
func (s *Signer) Public() crypto.PublicKey {
	return &s.key.PublicKey
}

// Sign signs the bytes of payload and returns the raw signature.
func (s *Signer) Sign(payload string) ([]byte, error) {
	return s.SignBytes([]byte(payload))
}

// SignBytes signs payload and returns the raw signature. Each call hashes
// with a fresh digest state; RSASSA-PKCS1-v1_5 is deterministic, so equal
// inputs give equal signatures.
func (s *Signer) SignBytes(payload []byte) ([]byte, error) {
	hash := s.alg.Hash()
	if !hash.Available() {
		return nil, fmt.Errorf("%w: hash %v unavailable", ErrSigningFailed, hash)
	}

	hasher := hash.New()
	if _, err := hasher.Write(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}

	signature, err := rsa.SignPKCS1v15(nil, s.key, hash, hasher.Sum(nil))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}

	return signature, nil
}
