// Package aps is the client for the remote Design Automation conversion
// service: token grants, signed object transfer URLs, versioned
// bundle/activity resources, and workitem submission/polling.
package aps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/renolab/planscan/internal/config"
)

// Sentinel errors for remote service failures.
var (
	ErrAuthNotConfigured   = errors.New("aps client credentials not configured")
	ErrAuthRejected        = errors.New("aps token request rejected")
	ErrBucketNotConfigured = errors.New("aps bucket not configured")
	ErrResourceConflict    = errors.New("aps resource lookup failed")
	ErrRequestFailed       = errors.New("aps request failed")
)

// TimeoutError is returned by WaitForWorkItem when the deadline passes while
// the workitem is still non-terminal. It carries the workitem id so a caller
// may re-poll or abandon.
type TimeoutError struct {
	WorkItemID string
	Elapsed    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("workitem %s still running after %s", e.WorkItemID, e.Elapsed)
}

// Client talks to the remote conversion service. The embedded token source
// is the only shared mutable state; everything else is per-call.
type Client struct {
	cfg    config.APSConfig
	tokens *TokenSource
	client *http.Client
}

// NewClient creates a Client from config. Called once at server startup.
func NewClient(cfg config.APSConfig) *Client {
	hc := &http.Client{Timeout: 30 * time.Second}
	return &Client{
		cfg:    cfg,
		tokens: NewTokenSource(cfg.BaseURL, cfg.ClientID, cfg.ClientSecret, hc),
		client: hc,
	}
}

// daURL builds a Design Automation endpoint URL.
func (c *Client) daURL(path string) string {
	return c.cfg.BaseURL + "/da/us-east/v3" + path
}

// qualifiedID returns the alias-qualified id callers use to reference the
// latest version of a named resource.
func (c *Client) qualifiedID(name string) string {
	return fmt.Sprintf("%s.%s+%s", c.cfg.Nickname, name, aliasID)
}

// doJSON issues an authenticated JSON request and decodes the response body
// into out (when out is non-nil and the body is present). It returns the
// HTTP status code; network-layer errors propagate unchanged.
func (c *Client) doJSON(ctx context.Context, method, url string, body, out any) (int, error) {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encoding request body: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
		}
		return resp.StatusCode, nil
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, nil
}
