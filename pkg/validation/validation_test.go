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


package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateKeyID(t *testing.T) {
	tests := []struct {
		name    string
		keyID   string
		wantErr bool
	}{
		// Valid key IDs
		{"valid alphanumeric", "mykey123", false},
		{"valid with dash", "my-signing-key", false},
		{"valid with underscore", "my_signing_key", false},
		{"valid with dot", "app.production.key", false},
		{"valid thumbprint", "NzbLsXh8uDCcd-6MNwXF4W_7noWXFZAfHkxZsRGC9Xs", false},
		{"valid single char", "a", false},

		// Invalid key IDs
		{"empty string", "", true},
		{"null byte", "key\x00name", true},
		{"path traversal", "../key", true},
		{"absolute path unix", "/etc/passwd", true},
		{"control character", "key\nname", true},
		{"control character tab", "key\tname", true},
		{"special char space", "my key", true},
		{"special char semicolon", "key;name", true},
		{"special char quote", "key'name", true},
		{"special char percent", "key%name", true},
		{"base64 padding", "abc=", true},
		{"base64 plus", "a+b", true},
		{"too long", strings.Repeat("a", 256), true},
		{"del character", "key\x7fname", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKeyID(tt.keyID)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateKeyID(%q) error = %v, wantErr %v", tt.keyID, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("ValidateKeyID(%q) error = %v, want ErrInvalidInput", tt.keyID, err)
			}
		})
	}
}

func TestValidateKeyName(t *testing.T) {
	tests := []struct {
		name    string
		keyName string
		wantErr bool
	}{
		{"valid simple", "primary", false},
		{"valid with dash", "signing-2025", false},
		{"valid numbers", "k1", false},

		{"empty", "", true},
		{"uppercase", "Primary", true},
		{"underscore", "signing_key", true},
		{"dot", "signing.key", true},
		{"slash", "jwt/signing", true},
		{"control character", "key\n", true},
		{"too long", strings.Repeat("a", 65), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKeyName(tt.keyName)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateKeyName(%q) error = %v, wantErr %v", tt.keyName, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSecretPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"valid single segment", "signing", false},
		{"valid nested", "jwt/signing", false},
		{"valid with dots", "jwt/keys.v2/signing", false},

		{"empty", "", true},
		{"leading slash", "/jwt/signing", true},
		{"trailing slash", "jwt/signing/", true},
		{"double slash", "jwt//signing", true},
		{"parent reference", "jwt/../sys/policy", true},
		{"current reference", "./jwt", true},
		{"null byte", "jwt\x00signing", true},
		{"newline", "jwt/signing\n", true},
		{"space", "jwt/my key", true},
		{"fragment", "jwt/signing#pem", true},
		{"query", "jwt/signing?version=1", true},
		{"too long", strings.Repeat("a/", 257), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSecretPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSecretPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeForLog(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"normal string", "hello world", "hello world"},
		{"with newline", "hello\nworld", "helloworld"},
		{"with carriage return", "hello\rworld", "helloworld"},
		{"log injection", "user\n[ERROR] forged entry", "user[ERROR] forged entry"},
		{"with null byte", "hello\x00world", "helloworld"},
		{"empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeForLog(tt.input); got != tt.want {
				t.Errorf("SanitizeForLog(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}

	long := SanitizeForLog(strings.Repeat("a", 1500))
	if !strings.HasSuffix(long, "...[truncated]") || len(long) != 1000+len("...[truncated]") {
		t.Errorf("SanitizeForLog did not truncate: len = %d", len(long))
	}
}
