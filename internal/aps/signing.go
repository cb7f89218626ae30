package aps

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// signedURLMinutes is the fixed expiration window for signed transfer URLs.
const signedURLMinutes = 60

// AccessMode selects the direction of a signed transfer URL.
type AccessMode string

const (
	AccessRead  AccessMode = "read"
	AccessWrite AccessMode = "write"
)

// SignObjectURL issues a time-limited URL granting direct read or write
// access to one object. An empty bucket falls back to the configured
// default; with neither set the call fails with ErrBucketNotConfigured.
// No retry is performed here; callers decide whether to retry.
func (c *Client) SignObjectURL(ctx context.Context, objectKey string, access AccessMode, bucket string) (string, error) {
	if bucket == "" {
		bucket = c.cfg.Bucket
	}
	if bucket == "" {
		return "", ErrBucketNotConfigured
	}

	u := fmt.Sprintf("%s/oss/v2/buckets/%s/objects/%s/signed?access=%s",
		c.cfg.BaseURL, url.PathEscape(bucket), url.PathEscape(objectKey), access)

	body := map[string]any{"minutesExpiration": signedURLMinutes}
	var signed struct {
		SignedURL string `json:"signedUrl"`
	}

	status, err := c.doJSON(ctx, http.MethodPost, u, body, &signed)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("%w: signing %s/%s: status %d", ErrRequestFailed, bucket, objectKey, status)
	}
	if signed.SignedURL == "" {
		return "", fmt.Errorf("%w: signing %s/%s: empty signedUrl", ErrRequestFailed, bucket, objectKey)
	}
	return signed.SignedURL, nil
}
