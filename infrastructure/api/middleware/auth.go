package middleware

import (
	"crypto/subtle"
	"net/http"
)

// APIKeyHeader carries the API key on protected requests.
const APIKeyHeader = "X-API-KEY"

// AuthConfig holds the accepted API keys. With no keys, authentication is
// disabled.
type AuthConfig struct {
	keys [][]byte
}

// NewAuthConfigWithKeys creates an AuthConfig accepting the given keys.
// Empty keys are ignored.
func NewAuthConfigWithKeys(keys []string) AuthConfig {
	cfg := AuthConfig{}
	for _, k := range keys {
		if k != "" {
			cfg.keys = append(cfg.keys, []byte(k))
		}
	}
	return cfg
}

// Enabled reports whether any key is configured.
func (c AuthConfig) Enabled() bool {
	return len(c.keys) > 0
}

// Valid reports whether key matches a configured key.
func (c AuthConfig) Valid(key string) bool {
	candidate := []byte(key)
	for _, k := range c.keys {
		if subtle.ConstantTimeCompare(k, candidate) == 1 {
			return true
		}
	}
	return false
}

// WriteProtect requires a valid X-API-KEY on mutating methods. GET, HEAD and
// OPTIONS pass through, as does everything when auth is disabled.
func WriteProtect(config AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.Enabled() || isReadOnly(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			key := r.Header.Get(APIKeyHeader)
			if key == "" {
				WriteError(w, r, NewAuthenticationError("missing "+APIKeyHeader+" header"), nil)
				return
			}
			if !config.Valid(key) {
				WriteError(w, r, NewAuthenticationError("invalid API key"), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isReadOnly(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
