package auth

import (
	"crypto/subtle"
	"net/http"
	"snoozer/internal/http/handlers/response"
	"strings"
)

const (
	AUTH_TOKEN_PREFIX  = "Bearer "
	AUTH_TOKEN_MAX_LEN = 1024
)

func ParseToken(r *http.Request) (token string, ok bool) {
	header := r.Header.Get("authorization")
	if header == "" {
		return token, false
	}
	parts := strings.SplitN(header, AUTH_TOKEN_PREFIX, 2)
	if len(parts) != 2 || parts[0] != "" {
		return token, false
	}
	if len(parts[1]) > AUTH_TOKEN_MAX_LEN {
		return token, false
	}
	return parts[1], true
}

// RequireAPIToken rejects requests that do not carry the configured bearer
// token. An empty token disables the API altogether.
func RequireAPIToken(apiToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			token, ok := ParseToken(r)
			if !ok || apiToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(apiToken)) != 1 {
				response.RenderUnauthorized(rw)
				return
			}
			next.ServeHTTP(rw, r)
		})
	}
}
