/*
File: internal/middleware/middleware.go
Description: HTTP middleware for the producer-facing API: shared-key
authorization for publishers and CORS for browser-based operators.
*/
// Package middleware provides the HTTP middleware shared by the API service.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// RequireProducerKey guards producer endpoints with a shared API key supplied
// either as "Authorization: Bearer <key>" or in "X-API-Key". An empty
// configured key disables the check (local mode).
func RequireProducerKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			supplied := r.Header.Get("X-API-Key")
			if supplied == "" {
				supplied = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			}
			if subtle.ConstantTimeCompare([]byte(supplied), []byte(key)) != 1 {
				WriteJSONError(w, http.StatusUnauthorized, "missing or invalid producer key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORS answers preflight requests and stamps the allowed origin on responses.
// No configured origins means no CORS headers at all.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if _, ok := allowed[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
