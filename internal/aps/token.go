package aps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// tokenSafetyMargin keeps a cached token from expiring mid-call: a token is
// reused only while now+margin is still before its expiry.
const tokenSafetyMargin = 60 * time.Second

const tokenScope = "code:all data:read data:write bucket:create bucket:read"

// TokenSource obtains and caches a bearer token for the remote service.
// Safe for concurrent use; the check-then-refresh sequence is a critical
// section so racing callers never issue duplicate refresh requests.
type TokenSource struct {
	baseURL      string
	clientID     string
	clientSecret string
	client       *http.Client
	now          func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenSource creates a TokenSource. The cache starts empty; the first
// Token call performs the initial grant.
func NewTokenSource(baseURL, clientID, clientSecret string, client *http.Client) *TokenSource {
	return &TokenSource{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       client,
		now:          time.Now,
	}
}

// Token returns a valid bearer token, refreshing the cache when the current
// one is within the safety margin of its expiry. The cache is left unset
// when the token endpoint rejects the grant.
func (t *TokenSource) Token(ctx context.Context) (string, error) {
	if t.clientID == "" || t.clientSecret == "" {
		return "", ErrAuthNotConfigured
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && t.now().Add(tokenSafetyMargin).Before(t.expiresAt) {
		return t.token, nil
	}

	t.token = ""
	t.expiresAt = time.Time{}

	form := url.Values{
		"grant_type": {"client_credentials"},
		"scope":      {tokenScope},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.baseURL+"/authentication/v2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("building token request: %w", err)
	}
	req.SetBasicAuth(t.clientID, t.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrAuthRejected, resp.StatusCode)
	}

	var grant struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if grant.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access_token", ErrAuthRejected)
	}

	t.token = grant.AccessToken
	t.expiresAt = t.now().Add(time.Duration(grant.ExpiresIn) * time.Second)
	return t.token, nil
}
