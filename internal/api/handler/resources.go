package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/renolab/planscan/internal/api/response"
	"github.com/renolab/planscan/internal/aps"
	"github.com/renolab/planscan/internal/config"
)

// ResourceManager provisions the remote bundle and activity resources.
type ResourceManager interface {
	SetupAppBundle(ctx context.Context, def aps.AppBundleDefinition) (aps.ResourceInfo, error)
	SetupActivity(ctx context.Context, def aps.ActivityDefinition) (aps.ResourceInfo, error)
}

// NewSetupResourcesHandler returns the handler for POST /api/v1/admin/resources.
// It provisions (or version-bumps) the extraction bundle and its activity and
// repoints their prod aliases. Setup races remotely when invoked concurrently,
// so operators run it as a one-off administrative call, not per request.
func NewSetupResourcesHandler(rm ResourceManager, cfg config.APSConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			BundlePayload string `json:"bundle_payload"`
			Description   string `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.BundlePayload == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "bundle_payload is required", nil)
			return
		}
		payload, err := base64.StdEncoding.DecodeString(req.BundlePayload)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "bundle_payload must be base64", nil)
			return
		}

		bundleInfo, err := rm.SetupAppBundle(r.Context(), aps.AppBundleDefinition{
			Name:        cfg.BundleName,
			Engine:      cfg.Engine,
			Description: req.Description,
			Payload:     payload,
		})
		if err != nil {
			writeSetupError(w, err)
			return
		}

		activityInfo, err := rm.SetupActivity(r.Context(), aps.ActivityDefinition{
			Name:        cfg.ActivityName,
			Engine:      cfg.Engine,
			Description: req.Description,
			CommandLine: []string{
				fmt.Sprintf(`$(engine.path)\accoreconsole.exe /i "$(args[inputFile].path)" /al "$(appbundles[%s].path)"`, cfg.BundleName),
			},
			AppBundleID: bundleInfo.ID,
			Parameters: map[string]aps.ActivityParameter{
				"inputFile": {Verb: "get", LocalName: "input.dwg", Required: true},
				"result":    {Verb: "put", LocalName: "result.json", Required: true},
			},
		})
		if err != nil {
			writeSetupError(w, err)
			return
		}

		response.JSON(w, map[string]any{
			"app_bundle": bundleInfo,
			"activity":   activityInfo,
		})
	}
}

func writeSetupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, aps.ErrAuthNotConfigured):
		response.Error(w, http.StatusServiceUnavailable, "REMOTE_NOT_CONFIGURED",
			"Conversion service credentials are not configured", nil)
	case errors.Is(err, aps.ErrAuthRejected):
		response.Error(w, http.StatusBadGateway, "REMOTE_AUTH_REJECTED",
			"Conversion service rejected the configured credentials", nil)
	case errors.Is(err, aps.ErrResourceConflict):
		response.Error(w, http.StatusConflict, "RESOURCE_CONFLICT",
			"Remote resource is in an unexpected state", nil)
	default:
		response.Error(w, http.StatusBadGateway, "REMOTE_ERROR",
			"Conversion service request failed", nil)
	}
}
