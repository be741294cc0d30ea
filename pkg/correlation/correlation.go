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

// Package correlation attaches a request identifier to HTTP requests and
// their contexts so log lines from one request can be joined.
package correlation

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

type contextKey struct{}

const (
	// RequestIDHeader is the HTTP header carrying the request ID.
	RequestIDHeader = "X-Request-ID"

	// CorrelationIDHeader is accepted as an alternative inbound header.
	CorrelationIDHeader = "X-Correlation-ID"
)

// validID bounds inbound IDs to printable tokens so they are safe to log
// and echo back.
var validID = regexp.MustCompile(`^[A-Za-z0-9._:\-]{1,128}$`)

// WithID returns a copy of ctx carrying id.
func WithID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, id)
}

// ID returns the ID stored in ctx, or "" if there is none.
func ID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}

// NewID generates a random UUID v4.
func NewID() string {
	return uuid.New().String()
}

// FromRequest returns the inbound ID of r if it is well formed, or a new one.
func FromRequest(r *http.Request) string {
	for _, h := range []string{RequestIDHeader, CorrelationIDHeader} {
		if id := r.Header.Get(h); id != "" && validID.MatchString(id) {
			return id
		}
	}
	return NewID()
}

// Middleware stores the request ID in the request context and echoes it in
// the X-Request-ID response header.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := FromRequest(r)
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
	})
}
