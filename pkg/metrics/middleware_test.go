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

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMiddleware_RoutePattern(t *testing.T) {
	Enable()
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	router := chi.NewRouter()
	router.Use(HTTPMiddleware)
	router.Get("/keys/{kid}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, kid := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/keys/"+kid, nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/keys/{kid}", "418")))
	assert.Equal(t, 0.0, testutil.ToFloat64(HTTPRequestsInFlight))
}

func TestHTTPMiddleware_StatusCodes(t *testing.T) {
	Enable()

	testCases := []struct {
		name       string
		statusCode int
		write      bool
	}{
		{"implicit 200", http.StatusOK, true},
		{"404", http.StatusNotFound, false},
		{"500", http.StatusInternalServerError, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			HTTPRequestsTotal.Reset()

			handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tc.write {
					_, _ = w.Write([]byte("ok"))
					return
				}
				w.WriteHeader(tc.statusCode)
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/anything", nil))
			assert.Equal(t, tc.statusCode, rec.Code)

			assert.Equal(t, 1.0, testutil.ToFloat64(
				HTTPRequestsTotal.WithLabelValues(http.MethodPost, unmatchedRoute, strconv.Itoa(tc.statusCode))))
		})
	}
}

func TestHTTPMiddleware_Disabled(t *testing.T) {
	Disable()
	defer Enable()
	HTTPRequestsTotal.Reset()

	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, testutil.CollectAndCount(HTTPRequestsTotal))
}

func TestHandler_ExposesNamespace(t *testing.T) {
	Enable()
	RecordOperation(OpParse, "", StatusSuccess, 0.001)

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "jwtkeys_operations_total"))
}
