package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/JonMunkholm/eleitores/internal/config"
	"github.com/JonMunkholm/eleitores/internal/logging"
)

// APIKeyHeader carries the shared key for /api routes.
const APIKeyHeader = "X-API-Key"

// APIKeyAuth guards the routes it is mounted on with a shared key, sent as
// X-API-Key or as an Authorization bearer token. It is a no-op unless
// RequireAPIKey is set; with the flag set and no keys configured every
// request is refused.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	if !cfg.RequireAPIKey {
		return func(next http.Handler) http.Handler { return next }
	}

	// Keys are compared as digests so every comparison has the same length.
	digests := make([][sha256.Size]byte, 0, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			digests = append(digests, sha256.Sum256([]byte(k)))
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := presentedKey(r)
			switch {
			case key == "":
				rejectAuth(w, r, http.StatusUnauthorized, "missing API key", "AUTH_MISSING_KEY")
			case !keyMatches(sha256.Sum256([]byte(key)), digests):
				rejectAuth(w, r, http.StatusForbidden, "invalid API key", "AUTH_INVALID_KEY")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func presentedKey(r *http.Request) string {
	if k := strings.TrimSpace(r.Header.Get(APIKeyHeader)); k != "" {
		return k
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// keyMatches checks every configured key so timing does not reveal which
// one matched.
func keyMatches(got [sha256.Size]byte, digests [][sha256.Size]byte) bool {
	match := 0
	for i := range digests {
		match |= subtle.ConstantTimeCompare(got[:], digests[i][:])
	}
	return match == 1
}

func rejectAuth(w http.ResponseWriter, r *http.Request, status int, message, code string) {
	logging.FromContext(r.Context()).Warn("api key rejected",
		"reason", code,
		"method", r.Method,
		"path", r.URL.Path,
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code})
}
