package middleware

import (
	"context"
	"net/http"
)

// ctxKey is a private type so context values set here cannot collide with
// values set by other packages.
type ctxKey int

const (
	ctxKeyPrefix ctxKey = iota
	ctxScopes
)

func setKeyPrefix(ctx context.Context, prefix string) context.Context {
	return context.WithValue(ctx, ctxKeyPrefix, prefix)
}

func getKeyPrefix(r *http.Request) (string, bool) {
	prefix, ok := r.Context().Value(ctxKeyPrefix).(string)
	return prefix, ok
}

func setScopes(ctx context.Context, scopes []string) context.Context {
	return context.WithValue(ctx, ctxScopes, scopes)
}

func getScopes(r *http.Request) []string {
	scopes, _ := r.Context().Value(ctxScopes).([]string)
	return scopes
}

// ExportedKeyPrefixKey exposes the key-prefix context key to tests.
func ExportedKeyPrefixKey() any {
	return ctxKeyPrefix
}
