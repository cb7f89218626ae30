package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/renolab/planscan/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error

	CreateFloorPlan(ctx context.Context, plan *models.FloorPlan) error
	GetFloorPlan(ctx context.Context, id uuid.UUID) (*models.FloorPlan, error)

	CreateExtractionJob(ctx context.Context, job *models.ExtractionJob) error
	GetExtractionJob(ctx context.Context, id uuid.UUID) (*models.ExtractionJob, error)
	UpdateExtractionJobStatus(ctx context.Context, id uuid.UUID, status string, opts ...JobUpdateOption) error

	CreateAnalysis(ctx context.Context, analysis *models.FloorPlanAnalysis) error
	GetAnalysisByFloorPlan(ctx context.Context, floorPlanID uuid.UUID) (*models.FloorPlanAnalysis, error)
}

type jobUpdateParams struct {
	ErrorMessage *string
	Result       *models.ExtractionResult
}

type JobUpdateOption func(*jobUpdateParams)

// WithErrorMessage records an infrastructure failure message on the job.
func WithErrorMessage(msg string) JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.ErrorMessage = &msg
	}
}

// WithResult records the extraction outcome on the job. A result with
// Success=false is a completed job with a negative outcome, not a failure.
func WithResult(res *models.ExtractionResult) JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.Result = res
	}
}
