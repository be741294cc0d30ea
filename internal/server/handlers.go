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
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jeremyhahn/go-jwtkeys/pkg/encoding/jwk"
	"github.com/jeremyhahn/go-jwtkeys/pkg/validation"
)

// ContentTypeJWKSet is the RFC 7517 media type for a JWK Set.
const ContentTypeJWKSet = "application/jwk-set+json"

// ContentTypeJWK is the RFC 7517 media type for a single JWK.
const ContentTypeJWK = "application/jwk+json"

// jwksHandler serves the key set with caching headers and answers a
// matching If-None-Match with 304.
func (s *Server) jwksHandler(w http.ResponseWriter, r *http.Request) {
	body, etag, ok := s.keys.body()
	if !ok {
		writeError(w, ErrKeysUnavailable, http.StatusServiceUnavailable)
		return
	}

	h := w.Header()
	h.Set("ETag", etag)
	h.Set("Cache-Control", "public, max-age="+strconv.Itoa(int(s.config.Server.CacheMaxAge.Seconds())))

	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	h.Set("Content-Type", ContentTypeJWKSet)
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(body)
}

// etagMatches applies the weak comparison of RFC 9110 section 13.1.2 to an
// If-None-Match list.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}
	return false
}

// keyHandler serves a single public JWK by key ID.
func (s *Server) keyHandler(w http.ResponseWriter, r *http.Request) {
	set := s.keys.Set()
	if set == nil {
		writeError(w, ErrKeysUnavailable, http.StatusServiceUnavailable)
		return
	}

	kid := chi.URLParam(r, "kid")
	if err := validation.ValidateKeyID(kid); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}

	key, err := set.Lookup(kid)
	if err != nil {
		if errors.Is(err, jwk.ErrKeyNotFound) {
			writeError(w, err, http.StatusNotFound)
			return
		}
		writeError(w, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(int(s.config.Server.CacheMaxAge.Seconds())))
	writeJSON(w, ContentTypeJWK, key, http.StatusOK)
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func writeError(w http.ResponseWriter, err error, statusCode int) {
	writeJSON(w, "application/json", ErrorResponse{
		Error: err.Error(),
		Code:  statusCode,
	}, statusCode)
}

func writeJSON(w http.ResponseWriter, contentType string, data any, statusCode int) {
	body, err := json.Marshal(data)
	if err != nil {
		http.Error(w, ErrInternal.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}
