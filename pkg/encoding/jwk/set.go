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

package jwk

import (
	"encoding/json"
	"fmt"

	"github.com/go-jose/go-jose/v4"
)

// Set is a JWK Set of public keys with unique key IDs.
type Set struct {
	keys []jose.JSONWebKey
}

// NewSet returns a Set holding the public halves of keys.
func NewSet(keys ...*jose.JSONWebKey) (*Set, error) {
	s := &Set{}
	for _, k := range keys {
		if err := s.Add(k); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add appends the public half of k. Private members never enter a Set.
func (s *Set) Add(k *jose.JSONWebKey) error {
	if _, err := PublicKey(k); err != nil {
		return err
	}
	if k.KeyID == "" {
		return fmt.Errorf("%w: key ID required", ErrInvalidJWK)
	}
	for _, existing := range s.keys {
		if existing.KeyID == k.KeyID {
			return fmt.Errorf("%w: %q", ErrDuplicateKeyID, k.KeyID)
		}
	}
	s.keys = append(s.keys, k.Public())
	return nil
}

// Len returns the number of keys.
func (s *Set) Len() int {
	return len(s.keys)
}

// Keys returns a copy of the keys in insertion order.
func (s *Set) Keys() []jose.JSONWebKey {
	out := make([]jose.JSONWebKey, len(s.keys))
	copy(out, s.keys)
	return out
}

// Lookup returns the key with the given kid.
func (s *Set) Lookup(kid string) (*jose.JSONWebKey, error) {
	for i := range s.keys {
		if s.keys[i].KeyID == kid {
			k := s.keys[i]
			return &k, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, kid)
}

// JSONWebKeySet returns the go-jose representation of the set.
func (s *Set) JSONWebKeySet() jose.JSONWebKeySet {
	return jose.JSONWebKeySet{Keys: s.Keys()}
}

// MarshalJSON encodes the set as {"keys":[...]}.
func (s *Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.JSONWebKeySet())
}

// ParseSet decodes a JWK Set. Keys that are not RSA are skipped, as RFC
// 7517 section 5 allows.
func ParseSet(data []byte) (*Set, error) {
	var raw struct {
		Keys []json.RawMessage `json:"keys"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWK, err)
	}

	s := &Set{}
	for _, msg := range raw.Keys {
		k, err := Parse(msg)
		if err != nil {
			continue
		}
		if k.KeyID == "" {
			pub, _ := PublicKey(k)
			if k.KeyID, err = KeyID(pub); err != nil {
				return nil, err
			}
		}
		if err := s.Add(k); err != nil {
			return nil, err
		}
	}
	return s, nil
}
