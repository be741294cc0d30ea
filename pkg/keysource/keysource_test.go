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

package keysource

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jeremyhahn/go-jwtkeys/pkg/encoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	keyOnce sync.Once
	testPEM string
	testKey *rsa.PrivateKey
)

func pemKey(t *testing.T) (string, *rsa.PrivateKey) {
	t.Helper()
	keyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		text, err := encoding.PEMFromPrivateKey(encoding.NewPrivateKey(key, encoding.FormatPKCS1))
		if err != nil {
			panic(err)
		}
		testKey, testPEM = key, text
	})
	return testPEM, testKey
}

// kvServer emulates the KV v2 read endpoint for a single secret.
func kvServer(t *testing.T, secretPath string, data map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get("X-Vault-Token"))
		w.Header().Set("Content-Type", "application/json")
		if r.Method != http.MethodGet || r.URL.Path != "/v1/secret/data/"+secretPath {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"data": data,
				"metadata": map[string]any{
					"created_time":  "2025-01-01T00:00:00Z",
					"deletion_time": "",
					"destroyed":     false,
					"version":       1,
				},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLiteral(t *testing.T) {
	text, _ := pemKey(t)

	got, err := Literal(text).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, text, got)

	_, err = Literal("  \n").Load(context.Background())
	assert.ErrorIs(t, err, ErrEmptyKey)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Literal(text).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	assert.NotContains(t, Literal(text).String(), "BEGIN")
}

func TestFile(t *testing.T) {
	text, key := pemKey(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "signing.pem")
	require.NoError(t, os.WriteFile(path, []byte(text), 0600))

	src := File{Path: path}
	got, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, text, got)

	priv, err := LoadPrivateKey(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, key.Equal(priv.Key))
	assert.Equal(t, encoding.FormatPKCS1, priv.Format)

	pub, err := LoadPublicKey(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, key.PublicKey.Equal(pub))

	_, err = File{Path: filepath.Join(dir, "missing.pem")}.Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)

	empty := filepath.Join(dir, "empty.pem")
	require.NoError(t, os.WriteFile(empty, nil, 0600))
	_, err = File{Path: empty}.Load(context.Background())
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestLoadPrivateKey_BadPEM(t *testing.T) {
	_, err := LoadPrivateKey(context.Background(), Literal("not a key"))
	assert.ErrorIs(t, err, encoding.ErrUnsupportedKeyFormat)
}

func TestNew(t *testing.T) {
	src, err := New(Spec{Kind: KindLiteral, Value: "x"}, nil)
	require.NoError(t, err)
	assert.IsType(t, Literal(""), src)

	src, err = New(Spec{Kind: KindFile, Path: "/tmp/key.pem"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "file:/tmp/key.pem", src.String())

	_, err = New(Spec{Kind: KindFile}, nil)
	assert.ErrorIs(t, err, ErrPathRequired)

	_, err = New(Spec{Kind: KindVault, Path: "jwt"}, nil)
	assert.ErrorIs(t, err, ErrVaultConnection)

	src, err = New(Spec{Kind: KindVault, Path: "jwt/signing"}, &VaultConfig{Address: "http://127.0.0.1:1", Token: "t"})
	require.NoError(t, err)
	assert.Equal(t, "vault:secret/jwt/signing", src.String())

	_, err = New(Spec{Kind: "s3"}, nil)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestVault_Load(t *testing.T) {
	text, key := pemKey(t)
	srv := kvServer(t, "jwt/signing", map[string]any{"pem": text, "other": 42})

	src, err := NewVault(VaultConfig{Address: srv.URL, Token: "test-token"}, "jwt/signing", "")
	require.NoError(t, err)

	got, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, text, got)

	pub, err := LoadPublicKey(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, key.PublicKey.Equal(pub))
}

func TestVault_Errors(t *testing.T) {
	srv := kvServer(t, "jwt/signing", map[string]any{"other": 42, "blank": ""})
	cfg := VaultConfig{Address: srv.URL, Token: "test-token"}

	missing, err := NewVault(cfg, "jwt/absent", "")
	require.NoError(t, err)
	_, err = missing.Load(context.Background())
	assert.ErrorIs(t, err, ErrSecretNotFound)

	noField, err := NewVault(cfg, "jwt/signing", "pem")
	require.NoError(t, err)
	_, err = noField.Load(context.Background())
	assert.ErrorIs(t, err, ErrFieldMissing)

	wrongType, err := NewVault(cfg, "jwt/signing", "other")
	require.NoError(t, err)
	_, err = wrongType.Load(context.Background())
	assert.ErrorIs(t, err, ErrEmptyKey)

	blank, err := NewVault(cfg, "jwt/signing", "blank")
	require.NoError(t, err)
	_, err = blank.Load(context.Background())
	assert.ErrorIs(t, err, ErrEmptyKey)

	_, err = NewVault(cfg, "", "")
	assert.ErrorIs(t, err, ErrPathRequired)
}

func TestVault_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errors":["permission denied"]}`))
	}))
	t.Cleanup(srv.Close)

	src, err := NewVault(VaultConfig{Address: srv.URL, Token: "test-token"}, "jwt/signing", "")
	require.NoError(t, err)
	_, err = src.Load(context.Background())
	assert.ErrorIs(t, err, ErrVaultConnection)
}
