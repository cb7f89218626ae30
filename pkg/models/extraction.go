package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ExtractionJobPending   = "pending"
	ExtractionJobRunning   = "running"
	ExtractionJobCompleted = "completed"
	ExtractionJobFailed    = "failed"
)

// ExtractionJob tracks one async extraction pipeline run. The API returns a
// job id on POST /api/v1/extractions; the client polls
// GET /api/v1/extractions/{job_id} until status is completed or failed.
//
// A completed job may still carry a negative outcome: when the remote
// conversion workitem ends failed or cancelled, the pipeline ran to
// completion and the result records Success=false. Only infrastructure
// failures mark the job itself failed.
type ExtractionJob struct {
	ID             uuid.UUID `db:"id"              json:"id"`
	FloorPlanID    uuid.UUID `db:"floor_plan_id"   json:"floor_plan_id"`
	ObjectKey      string    `db:"object_key"      json:"object_key"`
	Status         string    `db:"status"          json:"status"`
	Success        *bool     `db:"success"         json:"success,omitempty"`
	ErrorMessage   *string   `db:"error_message"   json:"error_message,omitempty"`
	ReferenceCount *int      `db:"reference_count" json:"reference_count,omitempty"`

	// Result carries the decoded references once the job completes; nil
	// while the job is still in flight.
	Result *ExtractionResult `db:"result" json:"result,omitempty"`

	StartedAt   *time.Time `db:"started_at"   json:"started_at,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"   json:"updated_at"`
}

// Vec3 is a 3D point or scale factor in drawing coordinates.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ExtractedReference is one geometric reference decoded from a conversion
// result payload. Immutable once decoded.
type ExtractedReference struct {
	Handle   string  `json:"handle"`
	Name     string  `json:"name"`
	Position Vec3    `json:"position"`
	Layer    string  `json:"layer"`
	Rotation float64 `json:"rotation"`
	Scale    Vec3    `json:"scale"`
}

// ExtractionResult is the outcome of one extract run. A rejected or
// cancelled remote job is an expected outcome, reported here as data
// (Success=false plus Error), never as a Go error.
type ExtractionResult struct {
	Success    bool                 `json:"success"`
	Error      string               `json:"error,omitempty"`
	References []ExtractedReference `json:"references"`
}
