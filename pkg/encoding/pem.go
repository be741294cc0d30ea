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
	"encoding/base64"
	"fmt"
	"strings"
	"unicode"
)

// LineWidth is the number of base64 characters per line in encoded PEM.
const LineWidth = 65

// Kind identifies which PEM envelope wraps a piece of key material.
type Kind int

const (
	KindUnknown Kind = iota
	KindPKCS1Private
	KindPKCS8Private
	KindX509Public
	KindX509Certificate
	KindPKCS1Public
	KindPKCS8Encrypted
)

// PEM block labels
const (
	PEMTypeRSAPrivateKey       = "RSA PRIVATE KEY"
	PEMTypePrivateKey          = "PRIVATE KEY"
	PEMTypePublicKey           = "PUBLIC KEY"
	PEMTypeCertificate         = "CERTIFICATE"
	PEMTypeRSAPublicKey        = "RSA PUBLIC KEY"
	PEMTypeEncryptedPrivateKey = "ENCRYPTED PRIVATE KEY"
)

// detectionOrder is the order in which Decode looks for prefix markers.
// The first marker found in the text decides the kind.
var detectionOrder = []Kind{
	KindPKCS1Private,
	KindPKCS8Private,
	KindX509Public,
	KindX509Certificate,
	KindPKCS1Public,
	KindPKCS8Encrypted,
}

// Label returns the PEM block label for k, or "" for KindUnknown.
func (k Kind) Label() string {
	switch k {
	case KindPKCS1Private:
		return PEMTypeRSAPrivateKey
	case KindPKCS8Private:
		return PEMTypePrivateKey
	case KindX509Public:
		return PEMTypePublicKey
	case KindX509Certificate:
		return PEMTypeCertificate
	case KindPKCS1Public:
		return PEMTypeRSAPublicKey
	case KindPKCS8Encrypted:
		return PEMTypeEncryptedPrivateKey
	default:
		return ""
	}
}

// Prefix returns the begin marker line for k.
func (k Kind) Prefix() string {
	return "-----BEGIN " + k.Label() + "-----"
}

// Suffix returns the end marker line for k.
func (k Kind) Suffix() string {
	return "-----END " + k.Label() + "-----"
}

// IsPrivate reports whether k wraps private key material.
func (k Kind) IsPrivate() bool {
	return k == KindPKCS1Private || k == KindPKCS8Private || k == KindPKCS8Encrypted
}

func (k Kind) String() string {
	switch k {
	case KindPKCS1Private:
		return "PKCS#1 private key"
	case KindPKCS8Private:
		return "PKCS#8 private key"
	case KindX509Public:
		return "X.509 public key"
	case KindX509Certificate:
		return "X.509 certificate"
	case KindPKCS1Public:
		return "PKCS#1 public key"
	case KindPKCS8Encrypted:
		return "encrypted PKCS#8 private key"
	default:
		return "unknown"
	}
}

// Envelope is the decoded content of one PEM block.
type Envelope struct {
	Kind  Kind
	Bytes []byte
}

// Decode finds the first known PEM envelope in text and returns its DER
// content. Markers are searched in a fixed priority order (PKCS#1 private,
// PKCS#8 private, X.509 public, X.509 certificate, PKCS#1 public,
// encrypted PKCS#8), so a text holding several blocks yields the block of
// the highest priority kind, not the first block in the text.
//
// All whitespace between the markers is ignored. PEM headers such as
// "Proc-Type" are not supported and surface as ErrMalformedKeyFormat.
func Decode(text string) (*Envelope, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedKeyFormat, ErrInvalidData)
	}

	for _, kind := range detectionOrder {
		prefix := kind.Prefix()
		start := strings.Index(text, prefix)
		if start < 0 {
			continue
		}

		body := text[start+len(prefix):]
		end := strings.Index(body, kind.Suffix())
		if end < 0 {
			return nil, fmt.Errorf("%w: %s has no end marker", ErrMalformedKeyFormat, kind)
		}

		der, err := base64.StdEncoding.DecodeString(stripWhitespace(body[:end]))
		if err != nil {
			return nil, fmt.Errorf("%w: %s body is not valid base64: %v", ErrMalformedKeyFormat, kind, err)
		}
		if len(der) == 0 {
			return nil, fmt.Errorf("%w: %s body is empty", ErrMalformedKeyFormat, kind)
		}

		return &Envelope{Kind: kind, Bytes: der}, nil
	}

	return nil, fmt.Errorf("%w: no recognized PEM marker", ErrUnsupportedKeyFormat)
}

// Encode wraps der in the markers for kind, base64 encoding the body and
// breaking it every LineWidth characters.
func Encode(kind Kind, der []byte) (string, error) {
	if kind.Label() == "" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedKeyFormat, kind)
	}
	if len(der) == 0 {
		return "", ErrInvalidData
	}

	body := base64.StdEncoding.EncodeToString(der)

	var sb strings.Builder
	sb.Grow(len(body) + len(body)/LineWidth + 2*len(kind.Suffix()) + 4)
	sb.WriteString(kind.Prefix())
	sb.WriteByte('\n')
	for len(body) > LineWidth {
		sb.WriteString(body[:LineWidth])
		sb.WriteByte('\n')
		body = body[LineWidth:]
	}
	sb.WriteString(body)
	sb.WriteByte('\n')
	sb.WriteString(kind.Suffix())
	sb.WriteByte('\n')

	return sb.String(), nil
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
