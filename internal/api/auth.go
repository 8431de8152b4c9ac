package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// authorized checks the configured API key against Authorization: Bearer or
// X-API-Key. An empty configured key disables authentication (dev mode).
func (s *Server) authorized(r *http.Request) bool {
	if s.Cfg.APIKey == "" {
		return true
	}
	got := r.Header.Get("X-API-Key")
	if authz := r.Header.Get("Authorization"); got == "" && strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		got = strings.TrimSpace(authz[len("Bearer "):])
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.Cfg.APIKey)) == 1
}

// RequireKey guards a handler behind the API key.
func (s *Server) RequireKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			writeProblem(w, http.StatusUnauthorized, "Unauthorized", "missing or invalid API key", r.URL.Path)
			return
		}
		next(w, r)
	}
}
