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

package signing

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"sync"
	"testing"

	"github.com/jeremyhahn/go-jwtkeys/pkg/encoding"
	"github.com/jeremyhahn/go-jwtkeys/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

// TestNewSigner tests the creation of a new signer
func TestNewSigner(t *testing.T) {
	key := generateKey(t)

	tests := []struct {
		name    string
		alg     types.Algorithm
		key     *rsa.PrivateKey
		wantErr error
	}{
		{"RS256", types.RS256, key, nil},
		{"RS384", types.RS384, key, nil},
		{"RS512", types.RS512, key, nil},
		{"PS256 rejected", types.PS256, key, ErrUnsupportedAlgorithm},
		{"ES256 rejected", types.ES256, key, ErrUnsupportedAlgorithm},
		{"HS256 rejected", types.HS256, key, ErrUnsupportedAlgorithm},
		{"unknown rejected", types.Algorithm("XX999"), key, ErrUnsupportedAlgorithm},
		{"nil key", types.RS256, nil, ErrSigningFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer, err := NewSigner(tt.alg, tt.key)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Nil(t, signer)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.alg, signer.Algorithm())
			assert.Equal(t, &key.PublicKey, signer.Public())
		})
	}
}

func TestNewSigner_NilKeyWrapsKeyRequired(t *testing.T) {
	_, err := NewSigner(types.RS256, nil)
	assert.ErrorIs(t, err, ErrKeyRequired)
}

func TestSign_VerifiesWithStdlib(t *testing.T) {
	key := generateKey(t)

	for _, alg := range types.RSAAlgorithms() {
		t.Run(alg.String(), func(t *testing.T) {
			signer, err := NewSigner(alg, key)
			require.NoError(t, err)

			sig, err := signer.Sign("hello-world")
			require.NoError(t, err)
			assert.Len(t, sig, key.Size())

			h := alg.Hash().New()
			h.Write([]byte("hello-world"))
			assert.NoError(t, rsa.VerifyPKCS1v15(&key.PublicKey, alg.Hash(), h.Sum(nil), sig))
		})
	}
}

func TestSign_Deterministic(t *testing.T) {
	signer, err := NewSigner(types.RS256, generateKey(t))
	require.NoError(t, err)

	a, err := signer.Sign("payload")
	require.NoError(t, err)
	b, err := signer.SignBytes([]byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := signer.Sign("payload2")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestSign_EmptyPayload(t *testing.T) {
	key := generateKey(t)
	signer, err := NewSigner(types.RS256, key)
	require.NoError(t, err)

	sig, err := signer.Sign("")
	require.NoError(t, err)

	digest := sha256.Sum256(nil)
	assert.NoError(t, rsa.VerifyPKCS1v15(&key.PublicKey, crypto.SHA256, digest[:], sig))
}

func TestSign_InvalidKeyIsSigningFailure(t *testing.T) {
	signer, err := NewSigner(types.RS256, &rsa.PrivateKey{})
	require.NoError(t, err)

	sig, err := signer.Sign("payload")
	assert.ErrorIs(t, err, ErrSigningFailed)
	assert.Nil(t, sig)
}

func TestSign_Concurrent(t *testing.T) {
	signer, err := NewSigner(types.RS512, generateKey(t))
	require.NoError(t, err)

	want, err := signer.Sign("shared")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := signer.Sign("shared")
			if err != nil {
				errs <- err
				return
			}
			if string(got) != string(want) {
				errs <- errors.New("signature mismatch")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestNewSignerFromPEM(t *testing.T) {
	key := generateKey(t)
	text, err := encoding.PEMFromPrivateKey(encoding.NewPrivateKey(key, encoding.FormatPKCS8))
	require.NoError(t, err)

	signer, err := NewSignerFromPEM(types.RS384, text)
	require.NoError(t, err)
	assert.True(t, key.PublicKey.Equal(signer.Public()))

	_, err = NewSignerFromPEM(types.RS256, "no key here")
	assert.ErrorIs(t, err, encoding.ErrUnsupportedKeyFormat)
}
