package httpapi

import (
	"crypto/hmac"
	"net/http"
	"strings"
)

// requireAdmin gates the admin routes behind a bearer token. An empty
// configured token disables the admin API outright rather than leaving it
// open.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AdminToken == "" {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin API disabled"})
			return
		}

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || !hmac.Equal([]byte(token), []byte(s.cfg.AdminToken)) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or missing token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
