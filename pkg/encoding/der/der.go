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

// Package der reads and writes the one ASN.1 shape RSA key material needs:
// a DER SEQUENCE whose elements are all INTEGERs. It is not a general
// ASN.1 decoder.
package der

import (
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

var (
	// ErrNotSequence is returned when the input does not start with a
	// well formed DER SEQUENCE.
	ErrNotSequence = errors.New("der: input is not a DER SEQUENCE")

	// ErrTrailingData is returned when bytes follow the outer SEQUENCE.
	ErrTrailingData = errors.New("der: trailing data after SEQUENCE")

	// ErrNotInteger is returned when a SEQUENCE element is not a DER INTEGER.
	ErrNotInteger = errors.New("der: SEQUENCE element is not an INTEGER")

	// ErrNilInteger is returned by MarshalIntegerSequence for nil elements.
	ErrNilInteger = errors.New("der: nil integer")
)

// ReadIntegerSequence decodes b as a single SEQUENCE of INTEGERs and
// returns the integers in encoding order. Integers are two's complement
// big-endian with no size limit. The element count is not checked here;
// callers enforce the shape they expect.
func ReadIntegerSequence(b []byte) ([]*big.Int, error) {
	input := cryptobyte.String(b)

	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) {
		return nil, ErrNotSequence
	}
	if !input.Empty() {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingData, len(input))
	}

	var values []*big.Int
	for !seq.Empty() {
		if !seq.PeekASN1Tag(cryptobyte_asn1.INTEGER) {
			return nil, fmt.Errorf("%w: element %d", ErrNotInteger, len(values))
		}
		n := new(big.Int)
		if !seq.ReadASN1Integer(n) {
			return nil, fmt.Errorf("%w: element %d", ErrNotInteger, len(values))
		}
		values = append(values, n)
	}

	return values, nil
}

// MarshalIntegerSequence encodes values as a DER SEQUENCE of INTEGERs.
func MarshalIntegerSequence(values ...*big.Int) ([]byte, error) {
	var b cryptobyte.Builder
	for i, v := range values {
		if v == nil {
			return nil, fmt.Errorf("%w: element %d", ErrNilInteger, i)
		}
	}
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		for _, v := range values {
			b.AddASN1BigInt(v)
		}
	})
	return b.Bytes()
}
