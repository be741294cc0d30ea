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
	"math"
	"math/big"

	"github.com/jeremyhahn/go-jwtkeys/pkg/encoding/der"
)

const (
	// pkcs1PrivateFields is version plus the eight RSAPrivateKey integers.
	pkcs1PrivateFields = 9

	// pkcs1PublicFields is modulus and public exponent.
	pkcs1PublicFields = 2
)

// KeyFormat is the encoding a private key is exported in.
type KeyFormat string

const (
	FormatPKCS1 KeyFormat = "PKCS#1"
	FormatPKCS8 KeyFormat = "PKCS#8"
)

// KeySpec is a private key as read from its envelope, before it is handed
// to crypto/rsa. A PKCS#1 spec carries the eight key integers in
// RSAPrivateKey order; a PKCS#8 spec carries the DER blob untouched.
type KeySpec struct {
	Format KeyFormat

	Modulus         *big.Int
	PublicExponent  *big.Int
	PrivateExponent *big.Int
	PrimeP          *big.Int
	PrimeQ          *big.Int
	PrimeExponentP  *big.Int
	PrimeExponentQ  *big.Int
	CRTCoefficient  *big.Int

	PKCS8 []byte

	password []byte
}

// Integers returns the eight PKCS#1 key integers in encoding order, or nil
// for a PKCS#8 spec.
func (s *KeySpec) Integers() []*big.Int {
	if s.Format != FormatPKCS1 {
		return nil
	}
	return []*big.Int{
		s.Modulus,
		s.PublicExponent,
		s.PrivateExponent,
		s.PrimeP,
		s.PrimeQ,
		s.PrimeExponentP,
		s.PrimeExponentQ,
		s.CRTCoefficient,
	}
}

// PrivateKey builds the RSA key described by s. A PKCS#1 spec whose
// integers are not a consistent RSA key is ErrMalformedKeyFormat.
func (s *KeySpec) PrivateKey() (*PrivateKey, error) {
	switch s.Format {
	case FormatPKCS1:
		key, err := s.pkcs1Key()
		if err != nil {
			return nil, err
		}
		return &PrivateKey{Key: key, Format: FormatPKCS1}, nil

	case FormatPKCS8:
		key, err := DecodePKCS8(s.PKCS8, s.password)
		if err != nil {
			return nil, err
		}
		return &PrivateKey{Key: key, Format: FormatPKCS8}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKeyFormat, s.Format)
	}
}

func (s *KeySpec) pkcs1Key() (*rsa.PrivateKey, error) {
	if err := checkPositive(s.Integers()); err != nil {
		return nil, err
	}
	e, err := publicExponent(s.PublicExponent)
	if err != nil {
		return nil, err
	}

	key := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{
			N: new(big.Int).Set(s.Modulus),
			E: e,
		},
		D: new(big.Int).Set(s.PrivateExponent),
		Primes: []*big.Int{
			new(big.Int).Set(s.PrimeP),
			new(big.Int).Set(s.PrimeQ),
		},
	}
	key.Precomputed.Dp = new(big.Int).Set(s.PrimeExponentP)
	key.Precomputed.Dq = new(big.Int).Set(s.PrimeExponentQ)
	key.Precomputed.Qinv = new(big.Int).Set(s.CRTCoefficient)

	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("%w: inconsistent RSA private key: %v", ErrMalformedKeyFormat, err)
	}
	key.Precompute()

	return key, nil
}

// PrivateKey is an RSA private key together with the format it reports
// for export.
type PrivateKey struct {
	Key    *rsa.PrivateKey
	Format KeyFormat
}

// NewPrivateKey pairs key with its export format.
func NewPrivateKey(key *rsa.PrivateKey, format KeyFormat) *PrivateKey {
	return &PrivateKey{Key: key, Format: format}
}

// Public returns the public half of the key.
func (k *PrivateKey) Public() *rsa.PublicKey {
	if k == nil || k.Key == nil {
		return nil
	}
	return &k.Key.PublicKey
}

// Encoded returns the DER encoding of the key in its reported format.
func (k *PrivateKey) Encoded() ([]byte, error) {
	if k == nil || k.Key == nil {
		return nil, ErrInvalidPrivateKey
	}
	switch k.Format {
	case FormatPKCS1:
		return x509.MarshalPKCS1PrivateKey(k.Key), nil
	case FormatPKCS8:
		return EncodePKCS8(k.Key, nil)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKeyFormat, k.Format)
	}
}

// PrivateKeySpec reads the private key held by env. PKCS#1 content must be
// a SEQUENCE of at least nine INTEGERs; fields one through eight are the
// key, field zero (the version) is skipped. PKCS#8 content is not
// inspected. Public key and certificate envelopes are
// ErrUnsupportedKeyFormat, as is an encrypted PKCS#8 envelope (use
// PrivateKeySpecWithPassword).
func PrivateKeySpec(env *Envelope) (*KeySpec, error) {
	return PrivateKeySpecWithPassword(env, nil)
}

// PrivateKeySpecWithPassword is PrivateKeySpec for envelopes that may be
// encrypted PKCS#8. The password is ignored for the other kinds.
func PrivateKeySpecWithPassword(env *Envelope, password []byte) (*KeySpec, error) {
	if env == nil {
		return nil, ErrInvalidData
	}

	switch env.Kind {
	case KindPKCS1Private:
		values, err := der.ReadIntegerSequence(env.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedKeyFormat, err)
		}
		if len(values) < pkcs1PrivateFields {
			return nil, fmt.Errorf("%w: PKCS#1 private key has %d fields, want %d",
				ErrMalformedKeyFormat, len(values), pkcs1PrivateFields)
		}
		if err := checkPositive(values[1:pkcs1PrivateFields]); err != nil {
			return nil, err
		}
		return &KeySpec{
			Format:          FormatPKCS1,
			Modulus:         values[1],
			PublicExponent:  values[2],
			PrivateExponent: values[3],
			PrimeP:          values[4],
			PrimeQ:          values[5],
			PrimeExponentP:  values[6],
			PrimeExponentQ:  values[7],
			CRTCoefficient:  values[8],
		}, nil

	case KindPKCS8Private:
		return &KeySpec{Format: FormatPKCS8, PKCS8: env.Bytes}, nil

	case KindPKCS8Encrypted:
		if len(password) == 0 {
			return nil, ErrPasswordRequired
		}
		return &KeySpec{Format: FormatPKCS8, PKCS8: env.Bytes, password: password}, nil

	default:
		return nil, fmt.Errorf("%w: %s is not a private key", ErrUnsupportedKeyFormat, env.Kind)
	}
}

// PublicKeyMaterial reads the RSA public key held by env. A PKCS#1 public
// key must be a SEQUENCE of exactly two INTEGERs. SubjectPublicKeyInfo and
// certificate content is parsed by crypto/x509; a non-RSA key in either is
// ErrUnsupportedKeyFormat.
func PublicKeyMaterial(env *Envelope) (*rsa.PublicKey, error) {
	if env == nil {
		return nil, ErrInvalidData
	}

	switch env.Kind {
	case KindPKCS1Public:
		values, err := der.ReadIntegerSequence(env.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedKeyFormat, err)
		}
		if len(values) != pkcs1PublicFields {
			return nil, fmt.Errorf("%w: PKCS#1 public key has %d fields, want %d",
				ErrMalformedKeyFormat, len(values), pkcs1PublicFields)
		}
		e, err := publicExponent(values[1])
		if err != nil {
			return nil, err
		}
		if values[0].Sign() <= 0 {
			return nil, fmt.Errorf("%w: non-positive modulus", ErrMalformedKeyFormat)
		}
		return &rsa.PublicKey{N: values[0], E: e}, nil

	case KindX509Public:
		pub, err := x509.ParsePKIXPublicKey(env.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedKeyFormat, err)
		}
		return asRSAPublicKey(pub)

	case KindX509Certificate:
		cert, err := Certificate(env)
		if err != nil {
			return nil, err
		}
		return asRSAPublicKey(cert.PublicKey)

	default:
		return nil, fmt.Errorf("%w: %s is not a public key", ErrUnsupportedKeyFormat, env.Kind)
	}
}

// Certificate parses the X.509 certificate held by env.
func Certificate(env *Envelope) (*x509.Certificate, error) {
	if env == nil {
		return nil, ErrInvalidData
	}
	if env.Kind != KindX509Certificate {
		return nil, fmt.Errorf("%w: %s is not a certificate", ErrUnsupportedKeyFormat, env.Kind)
	}
	cert, err := x509.ParseCertificate(env.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKeyFormat, err)
	}
	return cert, nil
}

// PrivateKeyFromPEM decodes text and builds the RSA private key it holds.
func PrivateKeyFromPEM(text string) (*PrivateKey, error) {
	return PrivateKeyFromEncryptedPEM(text, nil)
}

// PrivateKeyFromEncryptedPEM is PrivateKeyFromPEM for text that may hold an
// encrypted PKCS#8 key.
func PrivateKeyFromEncryptedPEM(text string, password []byte) (*PrivateKey, error) {
	env, err := Decode(text)
	if err != nil {
		return nil, err
	}
	spec, err := PrivateKeySpecWithPassword(env, password)
	if err != nil {
		return nil, err
	}
	return spec.PrivateKey()
}

// PublicKeyFromPEM decodes text and returns the RSA public key it holds.
// A private key envelope yields the public half of the private key.
func PublicKeyFromPEM(text string) (*rsa.PublicKey, error) {
	env, err := Decode(text)
	if err != nil {
		return nil, err
	}
	if env.Kind.IsPrivate() {
		spec, err := PrivateKeySpec(env)
		if err != nil {
			return nil, err
		}
		key, err := spec.PrivateKey()
		if err != nil {
			return nil, err
		}
		return key.Public(), nil
	}
	return PublicKeyMaterial(env)
}

// PEMFromPrivateKey encodes key in the format it reports: PKCS#1 as
// "RSA PRIVATE KEY", PKCS#8 as "PRIVATE KEY".
func PEMFromPrivateKey(key *PrivateKey) (string, error) {
	if key == nil || key.Key == nil {
		return "", ErrInvalidPrivateKey
	}

	var kind Kind
	switch key.Format {
	case FormatPKCS1:
		kind = KindPKCS1Private
	case FormatPKCS8:
		kind = KindPKCS8Private
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedKeyFormat, key.Format)
	}

	encoded, err := key.Encoded()
	if err != nil {
		return "", err
	}
	return Encode(kind, encoded)
}

// EncryptedPEMFromPrivateKey encodes key as password protected PKCS#8,
// regardless of the format it reports.
func EncryptedPEMFromPrivateKey(key *PrivateKey, password []byte) (string, error) {
	if key == nil || key.Key == nil {
		return "", ErrInvalidPrivateKey
	}
	if len(password) == 0 {
		return "", ErrPasswordRequired
	}
	encoded, err := EncodePKCS8(key.Key, password)
	if err != nil {
		return "", err
	}
	return Encode(KindPKCS8Encrypted, encoded)
}

// PEMFromPublicKey encodes pub as an X.509 SubjectPublicKeyInfo
// "PUBLIC KEY" block.
func PEMFromPublicKey(pub *rsa.PublicKey) (string, error) {
	encoded, err := EncodePublicKeyPKIX(pub)
	if err != nil {
		return "", err
	}
	return Encode(KindX509Public, encoded)
}

// PKCS1PEMFromPublicKey encodes pub as a PKCS#1 "RSA PUBLIC KEY" block.
func PKCS1PEMFromPublicKey(pub *rsa.PublicKey) (string, error) {
	if pub == nil || pub.N == nil {
		return "", ErrInvalidPublicKey
	}
	encoded, err := der.MarshalIntegerSequence(pub.N, big.NewInt(int64(pub.E)))
	if err != nil {
		return "", err
	}
	return Encode(KindPKCS1Public, encoded)
}

// PEMFromCertificate encodes the raw bytes of cert as a "CERTIFICATE" block.
func PEMFromCertificate(cert *x509.Certificate) (string, error) {
	if cert == nil || len(cert.Raw) == 0 {
		return "", ErrInvalidData
	}
	return Encode(KindX509Certificate, cert.Raw)
}

// checkPositive rejects a missing, zero or negative RSAPrivateKey field.
// rsa.PrivateKey.Validate compares magnitudes, so a flipped sign bit
// would otherwise pass.
func checkPositive(fields []*big.Int) error {
	for i, v := range fields {
		if v == nil || v.Sign() <= 0 {
			return fmt.Errorf("%w: PKCS#1 field %d is not positive", ErrMalformedKeyFormat, i+1)
		}
	}
	return nil
}

func publicExponent(v *big.Int) (int, error) {
	if v == nil || !v.IsInt64() || v.Int64() < 2 || v.Int64() > math.MaxInt32 {
		return 0, fmt.Errorf("%w: public exponent out of range", ErrMalformedKeyFormat)
	}
	return int(v.Int64()), nil
}

func asRSAPublicKey(pub any) (*rsa.PublicKey, error) {
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: public key is %T, not RSA", ErrUnsupportedKeyFormat, pub)
	}
	return rsaPub, nil
}
