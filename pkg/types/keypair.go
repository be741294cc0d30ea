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
	"encoding/binary"
	"hash/fnv"
)

// KeyPair pairs the PEM text of a public key with the PEM text of its
// private key. It is a value type: two pairs are equal when both strings
// are equal, and a KeyPair may be used directly as a map key.
type KeyPair struct {
	PublicKey  string
	PrivateKey string
}

// NewKeyPair returns a KeyPair holding the given PEM texts.
func NewKeyPair(publicKey, privateKey string) KeyPair {
	return KeyPair{
		PublicKey:  publicKey,
		PrivateKey: privateKey,
	}
}

// Equal reports whether both the public and private text match.
func (kp KeyPair) Equal(other KeyPair) bool {
	return kp.PublicKey == other.PublicKey && kp.PrivateKey == other.PrivateKey
}

// Hash returns a 64-bit FNV-1a hash over both strings. Each field is
// preceded by its length, so no split of the same bytes between the two
// fields hashes alike.
func (kp KeyPair) Hash() uint64 {
	h := fnv.New64a()
	for _, field := range []string{kp.PublicKey, kp.PrivateKey} {
		_ = binary.Write(h, binary.BigEndian, uint64(len(field)))
		_, _ = h.Write([]byte(field))
	}
	return h.Sum64()
}

// String omits the private key so a KeyPair can be logged safely.
func (kp KeyPair) String() string {
	if kp.PrivateKey == "" {
		return "KeyPair{private: <empty>}"
	}
	return "KeyPair{private: <redacted>}"
}
