package http

import (
	"net/http"
	"strings"

	"fintrack/internal/auth"
)

var (
	protectedPages = []string{"/dashboard", "/expenses", "/income", "/budgets", "/goals"}
	authPages      = []string{"/login", "/register"}
)

// RouteGuard redirects page navigation on cookie presence alone. It never
// validates the session; the API gate does that.
func RouteGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		hasSession := auth.SessionID(r) != ""

		if !hasSession && hasAnyPrefix(path, protectedPages) {
			http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
			return
		}
		if hasSession && isOneOf(path, authPages) {
			http.Redirect(w, r, "/dashboard", http.StatusTemporaryRedirect)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func isOneOf(path string, paths []string) bool {
	for _, p := range paths {
		if path == p {
			return true
		}
	}
	return false
}
