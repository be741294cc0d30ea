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

// Package jwk renders RSA key material as JSON Web Keys (RFC 7517) using
// go-jose. Keys may come from PEM text in any of the envelopes understood
// by the encoding package. Certificates contribute the x5c, x5t and
// x5t#S256 members.
//
// Unless an explicit key ID is given, kid is the RFC 7638 SHA-256
// thumbprint of the public key, so the same key always gets the same kid.
package jwk

import (
	"crypto"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/go-jose/go-jose/v4"
	"github.com/jeremyhahn/go-jwtkeys/pkg/encoding"
	"github.com/jeremyhahn/go-jwtkeys/pkg/encoding/x5t"
	"github.com/jeremyhahn/go-jwtkeys/pkg/types"
)

// UseSignature is the "use" value for signing keys.
const UseSignature = "sig"

// Options control the optional members of a generated JWK.
type Options struct {
	// Algorithm sets "alg". Empty leaves it out.
	Algorithm types.Algorithm

	// Use sets "use". Empty leaves it out.
	Use string

	// KeyID overrides the computed RFC 7638 kid.
	KeyID string
}

// KeyID returns the RFC 7638 SHA-256 thumbprint of pub, base64url encoded
// without padding.
func KeyID(pub *rsa.PublicKey) (string, error) {
	if pub == nil || pub.N == nil {
		return "", fmt.Errorf("%w: nil public key", encoding.ErrInvalidPublicKey)
	}
	key := jose.JSONWebKey{Key: pub}
	sum, err := key.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("jwk: thumbprint: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(sum), nil
}

// FromPublicKey returns a public JWK for pub.
func FromPublicKey(pub *rsa.PublicKey, opts Options) (*jose.JSONWebKey, error) {
	return build(pub, pub, nil, opts)
}

// FromPrivateKey returns a private JWK for key, including d, p, q, dp, dq
// and qi.
func FromPrivateKey(key *rsa.PrivateKey, opts Options) (*jose.JSONWebKey, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: nil private key", encoding.ErrInvalidPrivateKey)
	}
	if len(key.Primes) != 2 {
		return nil, fmt.Errorf("%w: multi-prime keys have no JWK form", encoding.ErrUnsupportedKeyFormat)
	}
	if key.Precomputed.Dp == nil {
		key.Precompute()
	}
	return build(key, &key.PublicKey, nil, opts)
}

// FromCertificates returns a public JWK for the leaf of chain with x5c,
// x5t and x5t#S256 populated.
func FromCertificates(chain []*x509.Certificate, opts Options) (*jose.JSONWebKey, error) {
	if len(chain) == 0 || chain[0] == nil {
		return nil, x5t.ErrEmptyCertificate
	}
	pub, ok := chain[0].PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: certificate holds %T", ErrNotRSA, chain[0].PublicKey)
	}
	if opts.Algorithm == "" {
		if alg, err := types.AlgorithmFromSignatureAlgorithm(chain[0].SignatureAlgorithm); err == nil && alg.IsRSA() {
			opts.Algorithm = alg
		}
	}
	return build(pub, pub, chain, opts)
}

// FromPEM returns a JWK for the key in text. Private key envelopes give a
// private JWK; call Public on the result to publish it.
func FromPEM(text string, opts Options) (*jose.JSONWebKey, error) {
	env, err := encoding.Decode(text)
	if err != nil {
		return nil, err
	}

	switch env.Kind {
	case encoding.KindX509Certificate:
		cert, err := encoding.Certificate(env)
		if err != nil {
			return nil, err
		}
		return FromCertificates([]*x509.Certificate{cert}, opts)
	case encoding.KindPKCS1Private, encoding.KindPKCS8Private:
		spec, err := encoding.PrivateKeySpec(env)
		if err != nil {
			return nil, err
		}
		key, err := spec.PrivateKey()
		if err != nil {
			return nil, err
		}
		return FromPrivateKey(key.Key, opts)
	default:
		pub, err := encoding.PublicKeyMaterial(env)
		if err != nil {
			return nil, err
		}
		return FromPublicKey(pub, opts)
	}
}

// PublicKey returns the RSA public key held by k, which may be public or
// private.
func PublicKey(k *jose.JSONWebKey) (*rsa.PublicKey, error) {
	if k == nil {
		return nil, ErrInvalidJWK
	}
	switch key := k.Key.(type) {
	case *rsa.PublicKey:
		return key, nil
	case *rsa.PrivateKey:
		return &key.PublicKey, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrNotRSA, k.Key)
	}
}

// Parse decodes a single RSA JWK from JSON.
func Parse(data []byte) (*jose.JSONWebKey, error) {
	var k jose.JSONWebKey
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWK, err)
	}
	if _, err := PublicKey(&k); err != nil {
		return nil, err
	}
	if !k.Valid() {
		return nil, ErrInvalidJWK
	}
	return &k, nil
}

// Marshal encodes k as compact JSON.
func Marshal(k *jose.JSONWebKey) ([]byte, error) {
	if k == nil {
		return nil, ErrInvalidJWK
	}
	return json.Marshal(k)
}

// MarshalIndent encodes k as indented JSON.
func MarshalIndent(k *jose.JSONWebKey, prefix, indent string) ([]byte, error) {
	if k == nil {
		return nil, ErrInvalidJWK
	}
	return json.MarshalIndent(k, prefix, indent)
}

func build(key any, pub *rsa.PublicKey, chain []*x509.Certificate, opts Options) (*jose.JSONWebKey, error) {
	if pub == nil || pub.N == nil || pub.E == 0 {
		return nil, fmt.Errorf("%w: incomplete RSA public key", encoding.ErrInvalidPublicKey)
	}
	if opts.Algorithm != "" && !opts.Algorithm.IsRSA() {
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedAlgorithm, opts.Algorithm)
	}

	kid := opts.KeyID
	if kid == "" {
		var err error
		if kid, err = KeyID(pub); err != nil {
			return nil, err
		}
	}

	k := &jose.JSONWebKey{
		Key:       key,
		KeyID:     kid,
		Algorithm: opts.Algorithm.String(),
		Use:       opts.Use,
	}

	if len(chain) > 0 {
		sha1Sum, err := digest("SHA-1", chain[0].Raw)
		if err != nil {
			return nil, err
		}
		sha256Sum, err := digest("SHA-256", chain[0].Raw)
		if err != nil {
			return nil, err
		}
		k.Certificates = chain
		k.CertificateThumbprintSHA1 = sha1Sum
		k.CertificateThumbprintSHA256 = sha256Sum
	}

	return k, nil
}

// digest returns the raw bytes behind an x5t value.
func digest(name string, der []byte) ([]byte, error) {
	thumbprint, err := x5t.Generate(name, der)
	if err != nil {
		return nil, err
	}
	return base64.RawURLEncoding.DecodeString(thumbprint)
}
