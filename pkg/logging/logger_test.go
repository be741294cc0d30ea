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

package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "info", Format: FormatJSON, Output: &buf})
	require.NoError(t, err)

	l.With("component", "jwks").Info("served", "keys", 2)
	l.Debug("hidden")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "served", record["msg"])
	assert.Equal(t, "jwks", record["component"])
	assert.Equal(t, float64(2), record["keys"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNew_TextDebug(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "debug", Output: &buf})
	require.NoError(t, err)
	assert.True(t, l.DebugEnabled())

	l.Debugf("loaded %d keys", 3)
	l.Error(errors.New("boom"), "op", "sign")
	l.MaybeError(nil)

	out := buf.String()
	assert.Contains(t, out, "loaded 3 keys")
	assert.Contains(t, out, "msg=boom")
	assert.Contains(t, out, "op=sign")
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Options{Format: "xml"})
	assert.Error(t, err)

	_, err = New(Options{Level: "loud"})
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestNewLogger(t *testing.T) {
	assert.False(t, DefaultLogger().DebugEnabled())
	assert.True(t, NewLogger(true).DebugEnabled())
	assert.NotNil(t, NewLogger(false).Slog())
}
