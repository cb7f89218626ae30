package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/renolab/planscan/internal/api/response"
	"github.com/renolab/planscan/internal/store"
	"github.com/renolab/planscan/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// keyPrefixLen is the number of leading raw-key characters stored in
// plaintext for lookup. Must match the prefix length used at key creation.
const keyPrefixLen = 8

// Auth authenticates requests against stored API keys and enforces scopes.
type Auth struct {
	store store.Store
}

func NewAuth(s store.Store) *Auth {
	return &Auth{store: s}
}

// Authenticate resolves the Bearer token to an API key and stashes the key
// prefix and scopes in the request context for downstream middleware.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawKey := bearerToken(r)
		if len(rawKey) < keyPrefixLen {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Missing or invalid Authorization header", nil)
			return
		}

		prefix := rawKey[:keyPrefixLen]
		key, err := a.matchKey(r.Context(), prefix, rawKey)
		if err != nil {
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to validate API key", nil)
			return
		}
		if key == nil {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Invalid API key", nil)
			return
		}

		// Touch last_used_at off the request path.
		go a.store.UpdateAPIKeyLastUsed(context.Background(), key.ID)

		ctx := setKeyPrefix(r.Context(), prefix)
		ctx = setScopes(ctx, key.Scopes)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// matchKey finds the key whose bcrypt hash matches rawKey among all active
// keys sharing the prefix. Returns nil when none match.
func (a *Auth) matchKey(ctx context.Context, prefix, rawKey string) (*models.APIKey, error) {
	candidates, err := a.store.GetAPIKeyByPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}
	for _, k := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(k.KeyHash), []byte(rawKey)) == nil {
			return k, nil
		}
	}
	return nil, nil
}

// RequireScope rejects authenticated requests whose key lacks the scope.
func (a *Auth) RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, s := range getScopes(r) {
				if s == scope {
					next.ServeHTTP(w, r)
					return
				}
			}
			response.Error(w, http.StatusForbidden,
				"FORBIDDEN", "Insufficient permissions", nil)
		})
	}
}

func bearerToken(r *http.Request) string {
	const scheme = "bearer "
	auth := r.Header.Get("Authorization")
	if len(auth) <= len(scheme) || !strings.EqualFold(auth[:len(scheme)], scheme) {
		return ""
	}
	return strings.TrimSpace(auth[len(scheme):])
}
