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

package encoding

import (
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"strings"

	"github.com/youmark/pkcs8"
)

// EncodePKCS8 encodes an RSA private key to ASN.1 DER PKCS#8 format.
// If a password is provided, the key will be encrypted (PBES2, AES-256-CBC).
// If password is nil or empty, the key will be encoded without encryption.
func EncodePKCS8(privateKey *rsa.PrivateKey, password []byte) ([]byte, error) {
	if privateKey == nil {
		return nil, ErrInvalidPrivateKey
	}

	der, err := pkcs8.MarshalPrivateKey(privateKey, password, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal PKCS#8: %w", err)
	}

	return der, nil
}

// DecodePKCS8 decodes ASN.1 DER PKCS#8 data to an RSA private key.
// Encrypted data needs a password; a wrong password yields ErrInvalidPassword.
// Keys of any other algorithm yield ErrUnsupportedKeyFormat.
func DecodePKCS8(data []byte, password []byte) (*rsa.PrivateKey, error) {
	if len(data) == 0 {
		return nil, ErrInvalidData
	}

	var (
		key any
		err error
	)
	if len(password) == 0 {
		key, err = pkcs8.ParsePKCS8PrivateKey(data)
	} else {
		key, err = pkcs8.ParsePKCS8PrivateKey(data, password)
	}
	if err != nil {
		if len(password) > 0 && isPasswordError(err) {
			return nil, ErrInvalidPassword
		}
		return nil, fmt.Errorf("%w: failed to parse PKCS#8: %v", ErrMalformedKeyFormat, err)
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: PKCS#8 key is %T, not RSA", ErrUnsupportedKeyFormat, key)
	}

	return rsaKey, nil
}

// EncodePublicKeyPKIX encodes an RSA public key to ASN.1 DER PKIX
// (SubjectPublicKeyInfo) format.
func EncodePublicKeyPKIX(publicKey *rsa.PublicKey) ([]byte, error) {
	if publicKey == nil || publicKey.N == nil {
		return nil, ErrInvalidPublicKey
	}

	der, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal PKIX public key: %w", err)
	}

	return der, nil
}

// isPasswordError checks if an error is related to an incorrect password.
// The pkcs8 package reports a bad password as a decryption or ASN.1
// structure error, depending on where the garbage plaintext fails.
func isPasswordError(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	for _, s := range []string{
		"incorrect password",
		"asn1: structure error",
		"tags don't match",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}

	return false
}
