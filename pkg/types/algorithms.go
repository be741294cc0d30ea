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

package types

import (
	"crypto"
	"crypto/x509"
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedAlgorithm is returned when an algorithm or digest name is
// not known to this package.
var ErrUnsupportedAlgorithm = errors.New("types: unsupported algorithm")

// Algorithm is a JOSE signature algorithm identifier ("alg" header value).
//
// Only the RS family is implemented by the signer and verifier. The other
// variants exist so that callers holding a header value can be told that a
// verifier does not accept it.
type Algorithm string

const (
	// RS256 is RSASSA-PKCS1-v1_5 using SHA-256.
	RS256 Algorithm = "RS256"
	// RS384 is RSASSA-PKCS1-v1_5 using SHA-384.
	RS384 Algorithm = "RS384"
	// RS512 is RSASSA-PKCS1-v1_5 using SHA-512.
	RS512 Algorithm = "RS512"

	PS256 Algorithm = "PS256"
	PS384 Algorithm = "PS384"
	PS512 Algorithm = "PS512"
	ES256 Algorithm = "ES256"
	ES384 Algorithm = "ES384"
	ES512 Algorithm = "ES512"
	HS256 Algorithm = "HS256"
	HS384 Algorithm = "HS384"
	HS512 Algorithm = "HS512"
	EdDSA Algorithm = "EdDSA"
)

// algorithmInfo maps each algorithm to its digest and x509 identifier.
var algorithmInfo = map[Algorithm]struct {
	hash crypto.Hash
	sig  x509.SignatureAlgorithm
}{
	RS256: {crypto.SHA256, x509.SHA256WithRSA},
	RS384: {crypto.SHA384, x509.SHA384WithRSA},
	RS512: {crypto.SHA512, x509.SHA512WithRSA},
	PS256: {crypto.SHA256, x509.SHA256WithRSAPSS},
	PS384: {crypto.SHA384, x509.SHA384WithRSAPSS},
	PS512: {crypto.SHA512, x509.SHA512WithRSAPSS},
	ES256: {crypto.SHA256, x509.ECDSAWithSHA256},
	ES384: {crypto.SHA384, x509.ECDSAWithSHA384},
	ES512: {crypto.SHA512, x509.ECDSAWithSHA512},
	HS256: {crypto.SHA256, x509.UnknownSignatureAlgorithm},
	HS384: {crypto.SHA384, x509.UnknownSignatureAlgorithm},
	HS512: {crypto.SHA512, x509.UnknownSignatureAlgorithm},
	EdDSA: {crypto.Hash(0), x509.PureEd25519},
}

// RSAAlgorithms lists the algorithms implemented by the RSA signer and
// verifier, in ascending digest size.
func RSAAlgorithms() []Algorithm {
	return []Algorithm{RS256, RS384, RS512}
}

// ParseAlgorithm returns the Algorithm named by s. The match is exact
// except for surrounding whitespace, as JOSE algorithm names are case
// sensitive.
func ParseAlgorithm(s string) (Algorithm, error) {
	alg := Algorithm(strings.TrimSpace(s))
	if _, ok := algorithmInfo[alg]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, s)
	}
	return alg, nil
}

// String returns the JOSE name of the algorithm.
func (a Algorithm) String() string {
	return string(a)
}

// IsValid reports whether a is a known algorithm.
func (a Algorithm) IsValid() bool {
	_, ok := algorithmInfo[a]
	return ok
}

// IsRSA reports whether a belongs to the RSASSA-PKCS1-v1_5 family.
func (a Algorithm) IsRSA() bool {
	switch a {
	case RS256, RS384, RS512:
		return true
	default:
		return false
	}
}

// Hash returns the digest used by the algorithm, or zero for EdDSA and
// unknown algorithms.
func (a Algorithm) Hash() crypto.Hash {
	return algorithmInfo[a].hash
}

// SignatureAlgorithm returns the x509 signature algorithm identifier that
// corresponds to a.
func (a Algorithm) SignatureAlgorithm() x509.SignatureAlgorithm {
	info, ok := algorithmInfo[a]
	if !ok {
		return x509.UnknownSignatureAlgorithm
	}
	return info.sig
}

// AlgorithmFromSignatureAlgorithm is the inverse of SignatureAlgorithm for
// the asymmetric variants.
func AlgorithmFromSignatureAlgorithm(sig x509.SignatureAlgorithm) (Algorithm, error) {
	for alg, info := range algorithmInfo {
		if info.sig != x509.UnknownSignatureAlgorithm && info.sig == sig {
			return alg, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, sig)
}
