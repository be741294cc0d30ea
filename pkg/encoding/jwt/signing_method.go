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

import (
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jeremyhahn/go-jwtkeys/pkg/signing"
	"github.com/jeremyhahn/go-jwtkeys/pkg/types"
	"github.com/jeremyhahn/go-jwtkeys/pkg/verification"
)

// SigningMethod implements jwt.SigningMethod for the RSASSA-PKCS1-v1_5
// algorithms using this module's signer and verifier.
type SigningMethod struct {
	alg types.Algorithm
}

var (
	SigningMethodRS256 = &SigningMethod{alg: types.RS256}
	SigningMethodRS384 = &SigningMethod{alg: types.RS384}
	SigningMethodRS512 = &SigningMethod{alg: types.RS512}
)

// NewSigningMethod returns the signing method for alg.
func NewSigningMethod(alg types.Algorithm) (*SigningMethod, error) {
	switch alg {
	case types.RS256:
		return SigningMethodRS256, nil
	case types.RS384:
		return SigningMethodRS384, nil
	case types.RS512:
		return SigningMethodRS512, nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedAlgorithm, alg)
	}
}

// Alg returns the JOSE algorithm name.
func (m *SigningMethod) Alg() string {
	return m.alg.String()
}

// Sign signs signingString. key is a *signing.Signer bound to the same
// algorithm, or an *rsa.PrivateKey.
func (m *SigningMethod) Sign(signingString string, key any) ([]byte, error) {
	var signer *signing.Signer
	switch k := key.(type) {
	case *signing.Signer:
		if k.Algorithm() != m.alg {
			return nil, fmt.Errorf("%w: signer is %s, method is %s", ErrAlgorithmMismatch, k.Algorithm(), m.alg)
		}
		signer = k
	case *rsa.PrivateKey:
		var err error
		if signer, err = signing.NewSigner(m.alg, k); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidKey, key)
	}
	return signer.Sign(signingString)
}

// Verify checks sig over signingString. key is a verification.Verifier or
// an *rsa.PublicKey. A mismatch wraps both jwt.ErrSignatureInvalid and
// verification.ErrInvalidSignature.
func (m *SigningMethod) Verify(signingString string, sig []byte, key any) error {
	var verifier verification.Verifier
	switch k := key.(type) {
	case verification.Verifier:
		verifier = k
	case *rsa.PublicKey:
		verifier = verification.NewRSAVerifier(k)
	default:
		return fmt.Errorf("%w: %T", ErrInvalidKey, key)
	}

	err := verifier.Verify(m.alg, []byte(signingString), sig)
	if errors.Is(err, verification.ErrInvalidSignature) {
		return fmt.Errorf("%w: %w", jwt.ErrSignatureInvalid, err)
	}
	return err
}
