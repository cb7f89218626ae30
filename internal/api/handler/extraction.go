package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/renolab/planscan/internal/api/response"
	"github.com/renolab/planscan/internal/cache"
	"github.com/renolab/planscan/internal/store"
	"github.com/renolab/planscan/pkg/models"
)

// Extractor triggers the async extraction pipeline.
type Extractor interface {
	TriggerExtract(ctx context.Context, floorPlanID uuid.UUID, objectKey string) (*models.ExtractionJob, error)
}

// NewTriggerExtractionHandler returns the handler for POST /api/v1/extractions.
// The drawing defaults to the floor plan's stored object key; the pipeline
// runs in the background and the response is 202 plus the pending job.
func NewTriggerExtractionHandler(st store.Store, svc Extractor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FloorPlanID string `json:"floor_plan_id"`
			ObjectKey   string `json:"object_key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		floorPlanID, err := uuid.Parse(req.FloorPlanID)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "floor_plan_id must be a valid UUID", nil)
			return
		}

		plan, err := st.GetFloorPlan(r.Context(), floorPlanID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Floor plan not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load floor plan", nil)
			return
		}

		objectKey := req.ObjectKey
		if objectKey == "" {
			objectKey = plan.ObjectKey
		}
		if objectKey == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"object_key is required when the floor plan has no stored drawing", nil)
			return
		}

		job, err := svc.TriggerExtract(r.Context(), plan.ID, objectKey)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to trigger extraction", nil)
			return
		}

		response.Accepted(w, job)
	}
}

// NewGetExtractionHandler returns the handler for GET /api/v1/extractions/{jobID}.
// Non-terminal polls are answered from the Redis status mirror when it holds
// an entry for the job, so a client polling every few seconds does not hit
// Postgres on each request. Terminal statuses and cache misses read the full
// job row, including the extraction result.
func NewGetExtractionHandler(st store.Store, ca cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "jobID must be a valid UUID", nil)
			return
		}

		if status, ok, err := ca.GetExtractionJobStatus(r.Context(), jobID); err == nil && ok &&
			status != models.ExtractionJobCompleted && status != models.ExtractionJobFailed {
			response.JSON(w, map[string]string{
				"id":     jobID.String(),
				"status": status,
			})
			return
		}

		job, err := st.GetExtractionJob(r.Context(), jobID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Extraction job not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load extraction job", nil)
			return
		}

		response.JSON(w, job)
	}
}
