package service

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"
)

type middleware func(http.Handler) http.Handler

// chain applies mws so that the first one runs first.
func chain(mws ...middleware) middleware {
	return func(h http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			h = mws[i](h)
		}
		return h
	}
}

// requireAPIKey accepts "Authorization: Bearer <key>" for any configured
// key. With no keys configured every request passes.
func requireAPIKey(keys []string) middleware {
	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				writeError(w, newError(CodeUnauthorized, "Unauthorized"))
				return
			}
			if !knownKey(keys, token) {
				writeError(w, newError(CodeUnauthorized, "Invalid API key"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func knownKey(keys []string, token string) bool {
	found := false
	for _, k := range keys {
		if subtle.ConstantTimeCompare([]byte(k), []byte(token)) == 1 {
			found = true
		}
	}
	return found
}

// rateLimit limits each client IP to perMinute requests. Zero disables it.
func rateLimit(perMinute int) middleware {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		perMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "Too many requests", Code: "RATE_LIMITED"})
		}),
	)
}
