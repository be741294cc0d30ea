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

package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-jose/go-jose/v4"

	"github.com/jeremyhahn/go-jwtkeys/internal/config"
	"github.com/jeremyhahn/go-jwtkeys/pkg/encoding/jwk"
	"github.com/jeremyhahn/go-jwtkeys/pkg/health"
	"github.com/jeremyhahn/go-jwtkeys/pkg/keysource"
	"github.com/jeremyhahn/go-jwtkeys/pkg/metrics"
)

// ErrNoKeys is returned when a key ring would publish an empty set.
var ErrNoKeys = errors.New("server: no keys configured")

// snapshot is an immutable rendering of the published JWK Set.
type snapshot struct {
	set      *jwk.Set
	body     []byte
	etag     string
	loadedAt time.Time
}

// KeyRing loads the configured keys and holds the current JWK Set.
// Readers never block on a reload.
type KeyRing struct {
	mu      sync.Mutex // serializes Load
	current atomic.Pointer[snapshot]
	keys    []config.KeyConfig
	vault   *keysource.VaultConfig
}

// NewKeyRing returns an empty KeyRing for keys.
func NewKeyRing(keys []config.KeyConfig, vault config.VaultConfig) *KeyRing {
	return &KeyRing{
		keys:  keys,
		vault: vault.KeySourceConfig(),
	}
}

// Load reads every configured key and swaps in the new set. On error the
// previous set stays published.
func (kr *KeyRing) Load(ctx context.Context) error {
	kr.mu.Lock()
	defer kr.mu.Unlock()

	if len(kr.keys) == 0 {
		return ErrNoKeys
	}

	set := &jwk.Set{}
	for _, kc := range kr.keys {
		key, err := kr.loadKey(ctx, kc)
		if err != nil {
			return fmt.Errorf("server: key %q: %w", kc.Name, err)
		}
		if err := set.Add(key); err != nil {
			return fmt.Errorf("server: key %q: %w", kc.Name, err)
		}
	}

	body, err := set.MarshalJSON()
	if err != nil {
		return fmt.Errorf("server: encode key set: %w", err)
	}
	sum := sha256.Sum256(body)

	kr.current.Store(&snapshot{
		set:      set,
		body:     body,
		etag:     `"` + hex.EncodeToString(sum[:16]) + `"`,
		loadedAt: time.Now(),
	})
	metrics.SetKeysPublished(set.Len())
	return nil
}

func (kr *KeyRing) loadKey(ctx context.Context, kc config.KeyConfig) (*jose.JSONWebKey, error) {
	alg := kc.AlgorithmValue()

	src, err := keysource.New(kc.SourceSpec(), kr.vault)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	text, err := src.Load(ctx)
	metrics.Observe(metrics.OpLoad, alg, start, err)
	if err != nil {
		return nil, err
	}

	start = time.Now()
	key, err := jwk.FromPEM(text, jwk.Options{
		Algorithm: alg,
		Use:       kc.Use,
		KeyID:     kc.KeyID,
	})
	metrics.Observe(metrics.OpEncode, alg, start, err)
	return key, err
}

// Set returns the published set, or nil before the first successful Load.
func (kr *KeyRing) Set() *jwk.Set {
	if snap := kr.current.Load(); snap != nil {
		return snap.set
	}
	return nil
}

// Len returns the number of published keys.
func (kr *KeyRing) Len() int {
	if set := kr.Set(); set != nil {
		return set.Len()
	}
	return 0
}

// body returns the encoded set and its ETag.
func (kr *KeyRing) body() ([]byte, string, bool) {
	snap := kr.current.Load()
	if snap == nil {
		return nil, "", false
	}
	return bytes.Clone(snap.body), snap.etag, true
}

// Check reports the key ring as a readiness check.
func (kr *KeyRing) Check(ctx context.Context) health.CheckResult {
	snap := kr.current.Load()
	if snap == nil || snap.set.Len() == 0 {
		return health.CheckResult{
			Name:    "keys",
			Status:  health.StatusUnhealthy,
			Message: "no keys loaded",
		}
	}
	return health.CheckResult{
		Name:    "keys",
		Status:  health.StatusHealthy,
		Message: fmt.Sprintf("%d keys loaded at %s", snap.set.Len(), snap.loadedAt.UTC().Format(time.RFC3339)),
	}
}
