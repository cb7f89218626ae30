// Package handler contains the HTTP handlers behind the API router. Each
// constructor takes the narrow dependency surface it needs and returns a
// plain http.HandlerFunc.
package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/renolab/planscan/internal/analysis"
	"github.com/renolab/planscan/internal/api/response"
	"github.com/renolab/planscan/internal/cache"
	"github.com/renolab/planscan/internal/store"
	"github.com/renolab/planscan/pkg/models"
)

const analysisCacheTTL = time.Hour

// NewCreateFloorPlanHandler returns the handler for POST /api/v1/floorplans.
// It registers a drawing name, storage object key, and the raw parse result
// supplied by the upstream geometry source.
func NewCreateFloorPlanHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name        string                 `json:"name"`
			ObjectKey   string                 `json:"object_key"`
			ParseResult *models.DwgParseResult `json:"parse_result"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Name == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "name is required", nil)
			return
		}
		if req.ParseResult == nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "parse_result is required", nil)
			return
		}

		now := time.Now().UTC()
		plan := &models.FloorPlan{
			ID:          uuid.New(),
			Name:        req.Name,
			ObjectKey:   req.ObjectKey,
			ParseResult: *req.ParseResult,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := st.CreateFloorPlan(r.Context(), plan); err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				response.Error(w, http.StatusConflict, "DUPLICATE", "Floor plan already exists", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create floor plan", nil)
			return
		}

		response.Created(w, plan)
	}
}

// NewAnalyzeFloorPlanHandler returns the handler for
// POST /api/v1/floorplans/{floorPlanID}/analyze. Classification is pure and
// deterministic, so the resulting document is cached keyed by a hash of the
// parse result; re-registering a plan with different geometry produces a
// different hash and a fresh run.
func NewAnalyzeFloorPlanHandler(st store.Store, ca cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		floorPlanID, err := uuid.Parse(chi.URLParam(r, "floorPlanID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "floorPlanID must be a valid UUID", nil)
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

		key := cache.AnalysisKey(plan.ID, parseResultHash(plan.ParseResult))
		if data, found, _ := ca.Get(r.Context(), key); found {
			var cached models.FloorPlanAnalysis
			if err := json.Unmarshal(data, &cached); err == nil {
				response.JSON(w, &cached)
				return
			}
		}

		doc := analysis.Analyze(plan.ID, plan.ParseResult)

		if err := st.CreateAnalysis(r.Context(), doc); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to persist analysis", nil)
			return
		}

		if data, err := json.Marshal(doc); err == nil {
			_ = ca.Set(r.Context(), key, data, analysisCacheTTL)
		}

		response.JSON(w, doc)
	}
}

// NewGetAnalysisHandler returns the handler for
// GET /api/v1/floorplans/{floorPlanID}/analysis. Returns the most recent
// persisted analysis for the plan.
func NewGetAnalysisHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		floorPlanID, err := uuid.Parse(chi.URLParam(r, "floorPlanID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "floorPlanID must be a valid UUID", nil)
			return
		}

		doc, err := st.GetAnalysisByFloorPlan(r.Context(), floorPlanID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "No analysis for this floor plan", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load analysis", nil)
			return
		}

		response.JSON(w, doc)
	}
}

func parseResultHash(res models.DwgParseResult) string {
	raw, err := json.Marshal(res)
	if err != nil {
		return "unhashable"
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8])
}
