package auth

import (
	"context"

	"github.com/go-faster/errors"
)

// ScopeAdmin grants access to the administrative API surface.
const ScopeAdmin = "admin"

// ErrKeyNotFound is returned when no active key matches the presented hash.
// Callers respond 401 without revealing whether the key ever existed.
var ErrKeyNotFound = errors.New("api key not found")

// APIKeyInfo holds the identity and permission data for a validated API key.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
	Scopes  []string
}

// HasScope reports whether the key carries the given scope.
func (i *APIKeyInfo) HasScope(scope string) bool {
	for _, s := range i.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}
