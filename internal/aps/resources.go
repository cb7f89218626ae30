package aps

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// aliasID is the single mutable alias that always points at the latest
// version of a bundle or activity.
const aliasID = "prod"

// ResourceKind distinguishes the two versioned remote resource collections.
type ResourceKind string

const (
	KindAppBundle ResourceKind = "appbundles"
	KindActivity  ResourceKind = "activities"
)

// ResourceInfo describes the state of a bundle or activity after a setup call.
type ResourceInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version int    `json:"version"`
	Created bool   `json:"created"`
}

// AppBundleDefinition describes the packaged extraction program deployed to
// the remote execution engine.
type AppBundleDefinition struct {
	Name        string
	Engine      string
	Description string
	Payload     []byte
}

// ActivityParameter declares one input or output argument of an activity.
type ActivityParameter struct {
	Verb        string `json:"verb"`
	LocalName   string `json:"localName,omitempty"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// ActivityDefinition binds a bundle to an execution engine and declares its
// input/output arguments.
type ActivityDefinition struct {
	Name        string
	Engine      string
	Description string
	CommandLine []string
	AppBundleID string
	Parameters  map[string]ActivityParameter
}

// uploadParameters is the presigned upload target returned by a bundle
// create/version call. FormData fields are passed through verbatim.
type uploadParameters struct {
	EndpointURL string            `json:"endpointURL"`
	FormData    map[string]string `json:"formData"`
}

type resourceResponse struct {
	Version          int               `json:"version"`
	UploadParameters *uploadParameters `json:"uploadParameters,omitempty"`
}

// SetupAppBundle creates or version-bumps the extraction bundle, repoints
// the prod alias, and uploads the packaged payload to the presigned target.
// Concurrent setup calls on the same name race remotely; run this as a
// singleton administrative operation.
func (c *Client) SetupAppBundle(ctx context.Context, def AppBundleDefinition) (ResourceInfo, error) {
	createBody := map[string]any{
		"id":          def.Name,
		"engine":      def.Engine,
		"description": def.Description,
	}
	versionBody := map[string]any{
		"engine":      def.Engine,
		"description": def.Description,
	}

	info, up, err := c.setupResource(ctx, KindAppBundle, def.Name, createBody, versionBody)
	if err != nil {
		return ResourceInfo{}, err
	}

	if up == nil {
		return ResourceInfo{}, fmt.Errorf("%w: bundle %s version %d returned no upload target",
			ErrRequestFailed, def.Name, info.Version)
	}
	if err := c.uploadBundlePayload(ctx, up, def.Payload); err != nil {
		return ResourceInfo{}, err
	}
	return info, nil
}

// SetupActivity creates or version-bumps the parameterized invocation
// definition and repoints the prod alias.
func (c *Client) SetupActivity(ctx context.Context, def ActivityDefinition) (ResourceInfo, error) {
	createBody := map[string]any{
		"id":          def.Name,
		"engine":      def.Engine,
		"description": def.Description,
		"commandLine": def.CommandLine,
		"appbundles":  []string{def.AppBundleID},
		"parameters":  def.Parameters,
	}
	versionBody := map[string]any{
		"engine":      def.Engine,
		"description": def.Description,
		"commandLine": def.CommandLine,
		"appbundles":  []string{def.AppBundleID},
		"parameters":  def.Parameters,
	}

	info, _, err := c.setupResource(ctx, KindActivity, def.Name, createBody, versionBody)
	return info, err
}

// setupResource is the shared create-or-version flow. The existence check
// fetches the alias-qualified id: 404 means absent, anything else non-200 is
// ErrResourceConflict. Absent resources get version 1 plus a fresh prod
// alias; present ones get a new version and an alias patch. Two partial
// failure shapes are repaired on retry: a version left behind without an
// alias (create returns 409, so a new version is cut instead), and an alias
// that already exists (alias create returns 409, so it is patched).
func (c *Client) setupResource(ctx context.Context, kind ResourceKind, name string, createBody, versionBody any) (ResourceInfo, *uploadParameters, error) {
	qualified := c.qualifiedID(name)

	status, err := c.doJSON(ctx, http.MethodGet, c.daURL(fmt.Sprintf("/%s/%s", kind, qualified)), nil, nil)
	if err != nil {
		return ResourceInfo{}, nil, fmt.Errorf("checking %s %s: %w", kind, qualified, err)
	}
	exists := status == http.StatusOK
	if !exists && status != http.StatusNotFound {
		return ResourceInfo{}, nil, fmt.Errorf("%w: checking %s %s: status %d", ErrResourceConflict, kind, qualified, status)
	}

	var rr resourceResponse
	created := false

	if !exists {
		status, err = c.doJSON(ctx, http.MethodPost, c.daURL(fmt.Sprintf("/%s", kind)), createBody, &rr)
		if err != nil {
			return ResourceInfo{}, nil, fmt.Errorf("creating %s %s: %w", kind, name, err)
		}
		switch {
		case status == http.StatusConflict:
			// Orphaned unaliased version from an earlier partial failure.
			status, err = c.doJSON(ctx, http.MethodPost, c.daURL(fmt.Sprintf("/%s/%s/versions", kind, name)), versionBody, &rr)
			if err != nil {
				return ResourceInfo{}, nil, fmt.Errorf("versioning %s %s: %w", kind, name, err)
			}
			if status >= 300 {
				return ResourceInfo{}, nil, fmt.Errorf("%w: versioning %s %s: status %d", ErrRequestFailed, kind, name, status)
			}
		case status >= 300:
			return ResourceInfo{}, nil, fmt.Errorf("%w: creating %s %s: status %d", ErrRequestFailed, kind, name, status)
		default:
			created = true
			if rr.Version == 0 {
				rr.Version = 1
			}
		}

		if err := c.setAlias(ctx, kind, name, rr.Version, false); err != nil {
			return ResourceInfo{}, nil, err
		}
	} else {
		status, err = c.doJSON(ctx, http.MethodPost, c.daURL(fmt.Sprintf("/%s/%s/versions", kind, name)), versionBody, &rr)
		if err != nil {
			return ResourceInfo{}, nil, fmt.Errorf("versioning %s %s: %w", kind, name, err)
		}
		if status >= 300 {
			return ResourceInfo{}, nil, fmt.Errorf("%w: versioning %s %s: status %d", ErrRequestFailed, kind, name, status)
		}

		if err := c.setAlias(ctx, kind, name, rr.Version, true); err != nil {
			return ResourceInfo{}, nil, err
		}
	}

	return ResourceInfo{
		ID:      qualified,
		Name:    name,
		Version: rr.Version,
		Created: created,
	}, rr.UploadParameters, nil
}

// setAlias points the prod alias at version. With patch=false it creates the
// alias first and falls back to a patch on conflict.
func (c *Client) setAlias(ctx context.Context, kind ResourceKind, name string, version int, patch bool) error {
	if !patch {
		body := map[string]any{"id": aliasID, "version": version}
		status, err := c.doJSON(ctx, http.MethodPost, c.daURL(fmt.Sprintf("/%s/%s/aliases", kind, name)), body, nil)
		if err != nil {
			return fmt.Errorf("creating alias for %s %s: %w", kind, name, err)
		}
		if status < 300 {
			return nil
		}
		if status != http.StatusConflict {
			return fmt.Errorf("%w: creating alias for %s %s: status %d", ErrRequestFailed, kind, name, status)
		}
		// Alias survived an earlier partial failure; repoint it instead.
	}

	body := map[string]any{"version": version}
	status, err := c.doJSON(ctx, http.MethodPatch, c.daURL(fmt.Sprintf("/%s/%s/aliases/%s", kind, name, aliasID)), body, nil)
	if err != nil {
		return fmt.Errorf("patching alias for %s %s: %w", kind, name, err)
	}
	if status >= 300 {
		return fmt.Errorf("%w: patching alias for %s %s: status %d", ErrRequestFailed, kind, name, status)
	}
	return nil
}

// uploadBundlePayload posts the packaged program to the presigned upload
// target. The multipart fields supplied by the remote system are written
// verbatim, in their given order unspecified, with the file part last.
func (c *Client) uploadBundlePayload(ctx context.Context, up *uploadParameters, payload []byte) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for field, value := range up.FormData {
		if err := mw.WriteField(field, value); err != nil {
			return fmt.Errorf("writing upload field %s: %w", field, err)
		}
	}
	fw, err := mw.CreateFormFile("file", "bundle.zip")
	if err != nil {
		return fmt.Errorf("creating upload file part: %w", err)
	}
	if _, err := fw.Write(payload); err != nil {
		return fmt.Errorf("writing upload payload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("finalizing upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, up.EndpointURL, &buf)
	if err != nil {
		return fmt.Errorf("building upload request: %w", err)
	}
	// The upload target is presigned; no bearer token.
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("uploading bundle payload: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: uploading bundle payload: status %d", ErrRequestFailed, resp.StatusCode)
	}
	return nil
}
