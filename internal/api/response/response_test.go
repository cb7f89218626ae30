package response_test

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/renolab/planscan/internal/api/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestJSON_WrapsDataEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	response.JSON(w, map[string]any{"summary": "벽체 3개, 내력벽 1개"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "벽체 3개, 내력벽 1개", data["summary"])
}

func TestCreated(t *testing.T) {
	w := httptest.NewRecorder()
	response.Created(w, map[string]string{"id": "fp-1", "name": "아파트 101동"})

	assert.Equal(t, http.StatusCreated, w.Code)

	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "fp-1", data["id"])
	assert.Equal(t, "아파트 101동", data["name"])
}

func TestAccepted(t *testing.T) {
	w := httptest.NewRecorder()
	response.Accepted(w, map[string]string{"job_id": "j1", "status": "pending"})

	assert.Equal(t, http.StatusAccepted, w.Code)

	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "pending", data["status"])
}

func TestCollection_IncludesMeta(t *testing.T) {
	w := httptest.NewRecorder()
	items := []map[string]string{{"id": "1"}, {"id": "2"}}
	response.Collection(w, items, response.PaginationMeta{
		Page: 1, Limit: 20, Total: 41, HasNext: true,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Len(t, body["data"].([]any), 2)

	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(1), meta["page"])
	assert.Equal(t, float64(41), meta["total"])
	assert.Equal(t, true, meta["has_next"])
}

func TestError_WithDetails(t *testing.T) {
	w := httptest.NewRecorder()
	response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request", map[string][]string{
		"object_key": {"object_key is required"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	errObj := decode(t, w)["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
	assert.Equal(t, "Invalid request", errObj["message"])
	assert.NotNil(t, errObj["details"])
}

func TestError_OmitsNilDetails(t *testing.T) {
	w := httptest.NewRecorder()
	response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Floor plan not found", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)

	errObj := decode(t, w)["error"].(map[string]any)
	assert.Equal(t, "RESOURCE_NOT_FOUND", errObj["code"])
	_, hasDetails := errObj["details"]
	assert.False(t, hasDetails)
}

func TestWrite_UnencodablePayload(t *testing.T) {
	w := httptest.NewRecorder()
	response.JSON(w, math.Inf(1))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	errObj := decode(t, w)["error"].(map[string]any)
	assert.Equal(t, "INTERNAL_ERROR", errObj["code"])
}
