package aps

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/renolab/planscan/internal/config"
)

// newTestClient wires a Client against a fake remote service. The token
// endpoint is registered automatically; callers add the handlers their
// scenario needs.
func newTestClient(t *testing.T, mux *http.ServeMux, cfg config.APSConfig) (*Client, *httptest.Server) {
	t.Helper()

	mux.HandleFunc("/authentication/v2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg.BaseURL = srv.URL
	if cfg.ClientID == "" {
		cfg.ClientID = "id"
	}
	if cfg.ClientSecret == "" {
		cfg.ClientSecret = "secret"
	}
	if cfg.Nickname == "" {
		cfg.Nickname = "planscan"
	}

	c := NewClient(cfg)
	c.client = srv.Client()
	c.tokens.client = srv.Client()
	return c, srv
}

// requireBearer fails the test when a request lacks the test bearer token.
func requireBearer(t *testing.T, r *http.Request) {
	t.Helper()
	if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
		t.Errorf("unexpected Authorization header: %q", got)
	}
}
