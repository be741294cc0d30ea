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
	"crypto/x509"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jeremyhahn/go-jwtkeys/pkg/encoding/jwk"
	"github.com/jeremyhahn/go-jwtkeys/pkg/encoding/x5t"
	"github.com/jeremyhahn/go-jwtkeys/pkg/signing"
	"github.com/jeremyhahn/go-jwtkeys/pkg/types"
	"github.com/jeremyhahn/go-jwtkeys/pkg/verification"
)

// Signer produces signed tokens with a fixed signing.Signer and headers.
type Signer struct {
	signer *signing.Signer
	method *SigningMethod
	kid    string
	x5t    string
}

// SignerOption configures a Signer.
type SignerOption func(*Signer) error

// WithKeyID sets the kid header. An empty kid removes the header.
func WithKeyID(kid string) SignerOption {
	return func(s *Signer) error {
		s.kid = kid
		return nil
	}
}

// WithCertificate sets the x5t header to the SHA-1 thumbprint of cert.
func WithCertificate(cert *x509.Certificate) SignerOption {
	return func(s *Signer) error {
		if cert == nil {
			return x5t.ErrEmptyCertificate
		}
		thumbprint, err := x5t.GenerateSHA1(cert.Raw)
		if err != nil {
			return err
		}
		s.x5t = thumbprint
		return nil
	}
}

// NewSigner returns a token signer for s. The kid header defaults to the
// RFC 7638 thumbprint of the signer's public key.
func NewSigner(s *signing.Signer, opts ...SignerOption) (*Signer, error) {
	if s == nil {
		return nil, signing.ErrKeyRequired
	}
	method, err := NewSigningMethod(s.Algorithm())
	if err != nil {
		return nil, err
	}

	pub, ok := s.Public().(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrInvalidKey, s.Public())
	}
	kid, err := jwk.KeyID(pub)
	if err != nil {
		return nil, err
	}

	ts := &Signer{
		signer: s,
		method: method,
		kid:    kid,
	}
	for _, opt := range opts {
		if err := opt(ts); err != nil {
			return nil, err
		}
	}
	return ts, nil
}

// KeyID returns the kid header value, if any.
func (s *Signer) KeyID() string {
	return s.kid
}

// SignClaims returns the compact serialization of a token carrying claims.
func (s *Signer) SignClaims(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(s.method, claims)
	if s.kid != "" {
		token.Header["kid"] = s.kid
	}
	if s.x5t != "" {
		token.Header["x5t"] = s.x5t
	}
	return token.SignedString(s.signer)
}

// Verifier checks token signatures against a set of keys and validates
// registered claims with the golang-jwt validator.
type Verifier struct {
	byKID   map[string]verification.Verifier
	ordered []verification.Verifier
	opts    []jwt.ParserOption
}

// NewVerifier returns an empty Verifier. opts are passed to the claims
// validator, e.g. jwt.WithIssuer or jwt.WithLeeway.
func NewVerifier(opts ...jwt.ParserOption) *Verifier {
	return &Verifier{
		byKID: make(map[string]verification.Verifier),
		opts:  opts,
	}
}

// NewVerifierFromSet returns a Verifier holding every key in set.
func NewVerifierFromSet(set *jwk.Set, opts ...jwt.ParserOption) (*Verifier, error) {
	v := NewVerifier(opts...)
	for _, k := range set.Keys() {
		pub, err := jwk.PublicKey(&k)
		if err != nil {
			return nil, err
		}
		v.AddKey(k.KeyID, verification.NewRSAVerifier(pub))
	}
	return v, nil
}

// AddKey registers verifier under kid. An empty kid registers a key that
// is only tried for tokens without a kid header.
func (v *Verifier) AddKey(kid string, verifier verification.Verifier) {
	if kid != "" {
		v.byKID[kid] = verifier
	}
	v.ordered = append(v.ordered, verifier)
}

// Parse verifies tokenString and decodes its claims into claims. Tokens
// with a kid header are checked against that key only; tokens without
// one are checked against each key in turn.
func (v *Verifier) Parse(tokenString string, claims jwt.Claims) (*jwt.Token, error) {
	if len(v.ordered) == 0 {
		return nil, ErrNoKeys
	}

	parser := jwt.NewParser(v.opts...)
	token, parts, err := parser.ParseUnverified(tokenString, claims)
	if err != nil {
		return nil, err
	}

	name, _ := token.Header["alg"].(string)
	alg, err := types.ParseAlgorithm(name)
	if err != nil {
		return token, fmt.Errorf("%w: %w", jwt.ErrTokenUnverifiable, err)
	}
	method, err := NewSigningMethod(alg)
	if err != nil {
		return token, fmt.Errorf("%w: %w", jwt.ErrTokenUnverifiable, err)
	}
	token.Method = method

	candidates := v.ordered
	if kid, ok := token.Header["kid"].(string); ok && kid != "" {
		verifier, found := v.byKID[kid]
		if !found {
			return token, fmt.Errorf("%w: %w: %q", jwt.ErrTokenUnverifiable, ErrUnknownKeyID, kid)
		}
		candidates = []verification.Verifier{verifier}
	}

	signingString := strings.Join(parts[0:2], ".")
	for _, verifier := range candidates {
		if err = method.Verify(signingString, token.Signature, verifier); err == nil {
			break
		}
	}
	if err != nil {
		return token, fmt.Errorf("%w: %w", jwt.ErrTokenSignatureInvalid, err)
	}

	if err := jwt.NewValidator(v.opts...).Validate(claims); err != nil {
		return token, fmt.Errorf("%w: %w", jwt.ErrTokenInvalidClaims, err)
	}

	token.Valid = true
	return token, nil
}

// ExtractKID returns the kid header of tokenString without verifying it.
func ExtractKID(tokenString string) (string, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	kid, _ := token.Header["kid"].(string)
	return kid, nil
}
