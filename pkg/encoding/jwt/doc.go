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

// Package jwt signs and verifies JSON Web Tokens with RSA keys handled by
// the signing and verification packages.
//
// It plugs into github.com/golang-jwt/jwt/v5 through SigningMethod, which
// implements jwt.SigningMethod for RS256, RS384 and RS512 by delegating to
// signing.Signer and verification.Verifier.
//
// # Signing
//
//	s, _ := signing.NewSignerFromPEM(types.RS256, privatePEM)
//	signer, _ := jwt.NewSigner(s)
//	token, err := signer.SignClaims(gojwt.MapClaims{"sub": "user123"})
//
// The kid header defaults to the RFC 7638 thumbprint of the public key.
// WithCertificate adds the x5t header for a signing certificate.
//
// # Verification
//
//	set, _ := jwk.ParseSet(jwksJSON)
//	verifier, _ := jwt.NewVerifierFromSet(set, gojwt.WithIssuer("issuer"))
//	token, err := verifier.Parse(tokenString, gojwt.MapClaims{})
//
// A bad signature fails with both gojwt.ErrTokenSignatureInvalid and
// verification.ErrInvalidSignature, so callers may test for either.
//
// # Thread Safety
//
// Signer is safe for concurrent use. Verifier is safe for concurrent use
// once its keys have been added.
package jwt
