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

package verification

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/jeremyhahn/go-jwtkeys/pkg/encoding"
	"github.com/jeremyhahn/go-jwtkeys/pkg/signing"
	"github.com/jeremyhahn/go-jwtkeys/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	keyOnce sync.Once
	key     *rsa.PrivateKey
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() {
		var err error
		key, err = rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
	})
	return key
}

func sign(t *testing.T, alg types.Algorithm, payload string) []byte {
	t.Helper()
	signer, err := signing.NewSigner(alg, testKey(t))
	require.NoError(t, err)
	sig, err := signer.Sign(payload)
	require.NoError(t, err)
	return sig
}

func TestAccepts(t *testing.T) {
	v := NewRSAVerifier(&testKey(t).PublicKey)

	for _, alg := range types.RSAAlgorithms() {
		assert.True(t, v.Accepts(alg), alg)
	}
	for _, alg := range []types.Algorithm{
		types.PS256, types.PS384, types.PS512,
		types.ES256, types.ES384, types.ES512,
		types.HS256, types.HS384, types.HS512,
		types.EdDSA, types.Algorithm("none"),
	} {
		assert.False(t, v.Accepts(alg), alg)
	}
}

func TestVerify_RoundTrip(t *testing.T) {
	v := NewRSAVerifier(&testKey(t).PublicKey)

	for _, alg := range types.RSAAlgorithms() {
		for _, payload := range []string{"a", "hello-world", "{\"sub\":\"1234567890\",\"name\":\"John Doe\"}", "ünïcødé ✓"} {
			sig := sign(t, alg, payload)
			assert.NoError(t, v.Verify(alg, []byte(payload), sig), "%s %q", alg, payload)
		}
	}
}

func TestVerify_HelloWorldScenario(t *testing.T) {
	k := testKey(t)

	text, err := encoding.PEMFromPrivateKey(encoding.NewPrivateKey(k, encoding.FormatPKCS1))
	require.NoError(t, err)
	parsed, err := encoding.PrivateKeyFromPEM(text)
	require.NoError(t, err)

	signer, err := signing.NewSigner(types.RS256, parsed.Key)
	require.NoError(t, err)
	sig, err := signer.Sign("hello-world")
	require.NoError(t, err)

	v := NewRSAVerifier(&k.PublicKey)
	require.NoError(t, v.Verify(types.RS256, []byte("hello-world"), sig))
	assert.ErrorIs(t, v.Verify(types.RS256, []byte("hello-World"), sig), ErrInvalidSignature)
}

func TestVerify_SingleBitFlip(t *testing.T) {
	payload := []byte("the quick brown fox")
	sig := sign(t, types.RS384, string(payload))
	v := NewRSAVerifier(&testKey(t).PublicKey)

	for i := 0; i < len(payload)*8; i++ {
		flipped := append([]byte(nil), payload...)
		flipped[i/8] ^= 1 << (i % 8)

		err := v.Verify(types.RS384, flipped, sig)
		assert.ErrorIs(t, err, ErrInvalidSignature, "bit %d", i)
		assert.NotErrorIs(t, err, ErrVerificationFailed)
	}
}

func TestVerify_TamperedSignature(t *testing.T) {
	sig := sign(t, types.RS256, "payload")
	sig[len(sig)/2] ^= 0x01

	err := NewRSAVerifier(&testKey(t).PublicKey).Verify(types.RS256, []byte("payload"), sig)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerify_WrongAlgorithm(t *testing.T) {
	sig := sign(t, types.RS256, "payload")
	err := NewRSAVerifier(&testKey(t).PublicKey).Verify(types.RS512, []byte("payload"), sig)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerify_WrongKey(t *testing.T) {
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	sig := sign(t, types.RS256, "payload")
	err = NewRSAVerifier(&other.PublicKey).Verify(types.RS256, []byte("payload"), sig)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerify_FailureCategories(t *testing.T) {
	sig := sign(t, types.RS256, "payload")

	tests := []struct {
		name string
		pub  *rsa.PublicKey
		alg  types.Algorithm
		want error
	}{
		{"nil key", nil, types.RS256, ErrInvalidPublicKeyRSA},
		{"empty key", &rsa.PublicKey{}, types.RS256, ErrInvalidPublicKeyRSA},
		{"non-RSA algorithm", &testKey(t).PublicKey, types.ES256, ErrUnsupportedAlgorithm},
		{"unknown algorithm", &testKey(t).PublicKey, types.Algorithm("RS1"), ErrUnsupportedAlgorithm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRSAVerifier(tt.pub).Verify(tt.alg, []byte("payload"), sig)
			assert.ErrorIs(t, err, ErrVerificationFailed)
			assert.ErrorIs(t, err, tt.want)
			assert.NotErrorIs(t, err, ErrInvalidSignature)
		})
	}
}

func TestNewRSAVerifierFromPEM(t *testing.T) {
	k := testKey(t)
	template := &x509.Certificate{
		SerialNumber: big.NewInt(7),
		Subject:      pkix.Name{CommonName: "verifier"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	raw, err := x509.CreateCertificate(rand.Reader, template, template, &k.PublicKey, k)
	require.NoError(t, err)
	certPEM, err := encoding.Encode(encoding.KindX509Certificate, raw)
	require.NoError(t, err)

	pubPEM, err := encoding.PEMFromPublicKey(&k.PublicKey)
	require.NoError(t, err)

	sig := sign(t, types.RS256, "payload")
	for name, text := range map[string]string{"certificate": certPEM, "public key": pubPEM} {
		v, err := NewRSAVerifierFromPEM(text)
		require.NoError(t, err, name)
		assert.NoError(t, v.Verify(types.RS256, []byte("payload"), sig), name)
	}

	_, err = NewRSAVerifierFromPEM("nothing")
	assert.ErrorIs(t, err, encoding.ErrUnsupportedKeyFormat)
}

type stubVerifier struct {
	alg types.Algorithm
}

func (s stubVerifier) Accepts(alg types.Algorithm) bool { return alg == s.alg }

func (s stubVerifier) Verify(types.Algorithm, []byte, []byte) error { return nil }

func TestSelect(t *testing.T) {
	rsaV := NewRSAVerifier(&testKey(t).PublicKey)
	ecV := stubVerifier{alg: types.ES256}
	set := []Verifier{nil, ecV, rsaV}

	got, err := Select(set, types.RS384)
	require.NoError(t, err)
	assert.Same(t, rsaV, got)

	got, err = Select(set, types.ES256)
	require.NoError(t, err)
	assert.Equal(t, ecV, got)

	_, err = Select(set, types.HS256)
	assert.ErrorIs(t, err, ErrNoVerifier)
}

func TestVerify_Concurrent(t *testing.T) {
	v := NewRSAVerifier(&testKey(t).PublicKey)
	sig := sign(t, types.RS256, "concurrent")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				assert.NoError(t, v.Verify(types.RS256, []byte("concurrent"), sig))
			} else {
				assert.ErrorIs(t, v.Verify(types.RS256, []byte("Concurrent"), sig), ErrInvalidSignature)
			}
		}(i)
	}
	wg.Wait()
}
