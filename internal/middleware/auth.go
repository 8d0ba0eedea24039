package middleware

import (
	"net/http"
	"strings"
)

// AuthCookie is set by a successful login.
const AuthCookie = "authenticated"

// publicPrefixes are reachable without logging in.
var publicPrefixes = []string{"/static/", "/css/", "/js/"}

// AuthMiddleware lets a request through when it carries the auth cookie.
// The login page, static assets and the metrics endpoint stay public.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(AuthCookie)
		if err != nil || cookie.Value != "true" {
			// API and AJAX callers get a status code instead of a redirect
			if strings.HasPrefix(r.URL.Path, "/api/") ||
				r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
				r.Header.Get("Content-Type") == "application/json" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isPublic(path string) bool {
	switch path {
	case "/login", "/auth/login", "/metrics":
		return true
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
