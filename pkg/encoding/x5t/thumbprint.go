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

// Package x5t computes X.509 certificate thumbprints as used in the JOSE
// "x5t" and "x5t#S256" header parameters, and converts between thumbprints
// and the hex fingerprints printed by tools such as openssl.
package x5t

import (
	"crypto"
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/jeremyhahn/go-jwtkeys/pkg/encoding"
	"github.com/jeremyhahn/go-jwtkeys/pkg/types"
)

// DefaultDigest is used when no digest name is given.
const DefaultDigest = "SHA-1"

var (
	// ErrUnsupportedAlgorithm is returned for digest names outside the
	// supported set.
	ErrUnsupportedAlgorithm = types.ErrUnsupportedAlgorithm

	// ErrInvalidFingerprint is returned when a fingerprint is not hex.
	ErrInvalidFingerprint = errors.New("x5t: invalid fingerprint")

	// ErrInvalidThumbprint is returned when a thumbprint is not unpadded
	// base64url.
	ErrInvalidThumbprint = errors.New("x5t: invalid thumbprint")

	// ErrEmptyCertificate is returned when a certificate is required but
	// none was given.
	ErrEmptyCertificate = errors.New("x5t: empty certificate")
)

// digests is the supported set, keyed by normalized name.
var digests = map[string]crypto.Hash{
	"SHA1":       crypto.SHA1,
	"SHA224":     crypto.SHA224,
	"SHA256":     crypto.SHA256,
	"SHA384":     crypto.SHA384,
	"SHA512":     crypto.SHA512,
	"SHA512/224": crypto.SHA512_224,
	"SHA512/256": crypto.SHA512_256,
}

// Digest resolves a digest name such as "SHA-1", "sha256" or "SHA-512/256".
// Matching ignores case and hyphens. An empty name selects DefaultDigest.
func Digest(name string) (crypto.Hash, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultDigest
	}
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "-", ""))
	h, ok := digests[normalized]
	if !ok || !h.Available() {
		return 0, fmt.Errorf("%w: digest %q", ErrUnsupportedAlgorithm, name)
	}
	return h, nil
}

// Generate digests the DER bytes of a certificate with the named digest
// and returns the result as unpadded base64url. The bytes are not parsed,
// so any input, including an empty one, has a thumbprint.
func Generate(digestName string, cert []byte) (string, error) {
	h, err := Digest(digestName)
	if err != nil {
		return "", err
	}

	hasher := h.New()
	hasher.Write(cert)

	return base64.RawURLEncoding.EncodeToString(hasher.Sum(nil)), nil
}

// GenerateSHA1 returns the "x5t" value for cert.
func GenerateSHA1(cert []byte) (string, error) {
	return Generate("SHA-1", cert)
}

// GenerateSHA256 returns the "x5t#S256" value for cert.
func GenerateSHA256(cert []byte) (string, error) {
	return Generate("SHA-256", cert)
}

// GenerateFromPEM decodes a PEM certificate and returns its thumbprint.
// Envelopes other than CERTIFICATE are encoding.ErrUnsupportedKeyFormat.
func GenerateFromPEM(digestName, text string) (string, error) {
	env, err := encoding.Decode(text)
	if err != nil {
		return "", err
	}
	if env.Kind != encoding.KindX509Certificate {
		return "", fmt.Errorf("%w: %s is not a certificate", encoding.ErrUnsupportedKeyFormat, env.Kind)
	}
	return Generate(digestName, env.Bytes)
}

// FingerprintToThumbprint converts a hex fingerprint to unpadded base64url
// over the same bytes. Upper and lower case hex are accepted, as are the
// colon separators printed by openssl.
func FingerprintToThumbprint(fingerprint string) (string, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(fingerprint), ":", "")
	raw, err := hex.DecodeString(cleaned)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFingerprint, err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// ThumbprintToFingerprint converts an unpadded base64url thumbprint to a
// lowercase hex fingerprint over the same bytes.
func ThumbprintToFingerprint(thumbprint string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(thumbprint))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidThumbprint, err)
	}
	return hex.EncodeToString(raw), nil
}
