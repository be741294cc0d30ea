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


// Package validation checks identifiers that arrive from configuration
// files, command lines and HTTP paths before they reach a key source or a
// JWK Set lookup.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidInput is wrapped by every validation failure.
var ErrInvalidInput = errors.New("validation: invalid input")

const (
	maxKeyIDLength      = 255
	maxKeyNameLength    = 64
	maxSecretPathLength = 512
	maxLogLength        = 1000
)

var (
	// keyNamePattern matches configuration key names (lowercase alphanumeric + hyphens)
	keyNamePattern = regexp.MustCompile(`^[a-z0-9\-]+$`)

	// keyIDPattern covers RFC 7638 thumbprints (base64url) and
	// operator-chosen key IDs
	keyIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]+$`)

	// secretPathPattern matches Vault KV paths
	secretPathPattern = regexp.MustCompile(`^[a-zA-Z0-9_\-\./]+$`)
)

// ValidateKeyID validates a JWK "kid" value.
// Rejects:
// - empty strings
// - control characters and null bytes
// - values longer than 255 characters
// - characters outside a-z, A-Z, 0-9, -, _ and .
func ValidateKeyID(kid string) error {
	if kid == "" {
		return fmt.Errorf("%w: key ID cannot be empty", ErrInvalidInput)
	}

	// Check length before the pattern (prevent ReDoS)
	if len(kid) > maxKeyIDLength {
		return fmt.Errorf("%w: key ID too long (max %d characters)", ErrInvalidInput, maxKeyIDLength)
	}

	if hasControl(kid) {
		return fmt.Errorf("%w: key ID contains control characters", ErrInvalidInput)
	}

	if !keyIDPattern.MatchString(kid) {
		return fmt.Errorf("%w: key ID contains invalid characters (allowed: a-z, A-Z, 0-9, -, _, .)", ErrInvalidInput)
	}

	return nil
}

// ValidateKeyName validates the name of a configured key.
// Key names must be simple lowercase identifiers.
func ValidateKeyName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: key name cannot be empty", ErrInvalidInput)
	}

	if len(name) > maxKeyNameLength {
		return fmt.Errorf("%w: key name too long (max %d characters)", ErrInvalidInput, maxKeyNameLength)
	}

	if !keyNamePattern.MatchString(name) {
		return fmt.Errorf("%w: key name %q contains invalid characters (allowed: a-z, 0-9, -)", ErrInvalidInput, SanitizeForLog(name))
	}

	return nil
}

// ValidateSecretPath validates a Vault KV secret path such as
// "jwt/signing". The path is relative to the mount, so a leading slash,
// empty segments and parent directory references are rejected.
func ValidateSecretPath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: secret path cannot be empty", ErrInvalidInput)
	}

	// Check for null bytes (can bypass some path checks)
	if strings.Contains(path, "\x00") || hasControl(path) {
		return fmt.Errorf("%w: secret path contains control characters", ErrInvalidInput)
	}

	if len(path) > maxSecretPathLength {
		return fmt.Errorf("%w: secret path too long (max %d characters)", ErrInvalidInput, maxSecretPathLength)
	}

	if strings.HasPrefix(path, "/") {
		return fmt.Errorf("%w: secret path must be relative to the mount", ErrInvalidInput)
	}

	for _, segment := range strings.Split(path, "/") {
		switch segment {
		case "":
			return fmt.Errorf("%w: secret path contains an empty segment", ErrInvalidInput)
		case ".", "..":
			return fmt.Errorf("%w: secret path contains path traversal attempt", ErrInvalidInput)
		}
	}

	if !secretPathPattern.MatchString(path) {
		return fmt.Errorf("%w: secret path contains invalid characters (allowed: a-z, A-Z, 0-9, -, _, ., /)", ErrInvalidInput)
	}

	return nil
}

// SanitizeForLog sanitizes a string for safe logging (prevents log injection).
func SanitizeForLog(s string) string {
	// Remove control characters and null bytes
	s = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)

	// Limit length to prevent log flooding
	if len(s) > maxLogLength {
		s = s[:maxLogLength] + "...[truncated]"
	}

	return s
}

func hasControl(s string) bool {
	for _, r := range s {
		if r < 32 || r == 127 {
			return true
		}
	}
	return false
}
