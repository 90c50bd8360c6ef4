package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/auth"
)

// APIKeyHeader carries the admin API key.
const APIKeyHeader = "X-Api-Key"

// Security authenticates admin requests via HMAC-SHA256 hashed API keys.
type Security struct {
	apikeys auth.Repository
	pepper  []byte
}

// NewSecurity creates a Security with the given API key repository and HMAC
// pepper.
func NewSecurity(apikeys auth.Repository, pepper []byte) *Security {
	return &Security{apikeys: apikeys, pepper: pepper}
}

// HashKey computes the stored hash for a raw API key.
func (s *Security) HashKey(key string) []byte {
	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(key))
	return mac.Sum(nil)
}

// RequireAdmin is a middleware that rejects requests without a valid admin
// API key. The key is HMAC-hashed, looked up, and compared in constant time
// to prevent timing side-channels.
func (s *Security) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(APIKeyHeader)
		if key == "" {
			respondError(w, http.StatusUnauthorized, "missing api key")
			return
		}

		hash := s.HashKey(key)
		info, err := s.apikeys.FindByHash(r.Context(), hex.EncodeToString(hash))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		stored, err := hex.DecodeString(info.KeyHash)
		if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !info.HasScope(auth.ScopeAdmin) {
			respondError(w, http.StatusForbidden, "admin scope required")
			return
		}

		next.ServeHTTP(w, r)
	})
}
