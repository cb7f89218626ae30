package extract

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/renolab/planscan/internal/aps"
	"github.com/renolab/planscan/internal/cache"
	"github.com/renolab/planscan/internal/store"
	"github.com/renolab/planscan/pkg/models"
)

// statusTTL bounds how long a job status entry lives in the cache.
const statusTTL = 30 * time.Minute

// Remote is the subset of the conversion service client the pipeline needs.
type Remote interface {
	SignObjectURL(ctx context.Context, objectKey string, access aps.AccessMode, bucket string) (string, error)
	SubmitWorkItem(ctx context.Context, inputURL, outputURL string) (aps.WorkItem, error)
	WaitForWorkItem(ctx context.Context, id string, timeout, interval time.Duration) (aps.WorkItem, error)
}

// Service orchestrates remote extraction runs.
type Service struct {
	remote       Remote
	store        store.Store
	cache        cache.Cache
	client       *http.Client
	jobTimeout   time.Duration
	pollInterval time.Duration
}

// NewService creates a new extraction Service.
func NewService(remote Remote, st store.Store, ca cache.Cache, jobTimeout, pollInterval time.Duration) *Service {
	return &Service{
		remote:       remote,
		store:        st,
		cache:        ca,
		client:       &http.Client{Timeout: 60 * time.Second},
		jobTimeout:   jobTimeout,
		pollInterval: pollInterval,
	}
}

// Extract runs one full extraction against the remote service: sign the
// input for reading, sign a fresh result key for writing, submit a
// workitem and poll it to completion, then download and decode the result.
//
// A workitem that ends failed or cancelled is a valid outcome, not an
// error: the returned result carries Success=false and the remote status
// text, and err is nil. Errors are reserved for infrastructure problems
// (signing, submission, polling, download, decode).
func (s *Service) Extract(ctx context.Context, objectKey string) (*models.ExtractionResult, error) {
	inputURL, err := s.remote.SignObjectURL(ctx, objectKey, aps.AccessRead, "")
	if err != nil {
		return nil, fmt.Errorf("signing input %s: %w", objectKey, err)
	}

	// Every run writes to its own result key so concurrent extractions
	// never clobber each other.
	resultKey := fmt.Sprintf("results/%s.json", uuid.New())
	outputURL, err := s.remote.SignObjectURL(ctx, resultKey, aps.AccessWrite, "")
	if err != nil {
		return nil, fmt.Errorf("signing result %s: %w", resultKey, err)
	}

	wi, err := s.remote.SubmitWorkItem(ctx, inputURL, outputURL)
	if err != nil {
		return nil, err
	}

	wi, err = s.remote.WaitForWorkItem(ctx, wi.ID, s.jobTimeout, s.pollInterval)
	if err != nil {
		return nil, err
	}

	if wi.Status.Negative() {
		return &models.ExtractionResult{
			Success: false,
			Error:   fmt.Sprintf("workitem %s ended with status %s", wi.ID, wi.Status),
		}, nil
	}

	refs, err := s.downloadResult(ctx, resultKey)
	if err != nil {
		return nil, err
	}

	return &models.ExtractionResult{Success: true, References: refs}, nil
}

func (s *Service) downloadResult(ctx context.Context, resultKey string) ([]models.ExtractedReference, error) {
	downloadURL, err := s.remote.SignObjectURL(ctx, resultKey, aps.AccessRead, "")
	if err != nil {
		return nil, fmt.Errorf("signing result download %s: %w", resultKey, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building result download request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading result %s: %w", resultKey, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading result %s: status %d", resultKey, resp.StatusCode)
	}

	refs, err := DecodeResult(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding result %s: %w", resultKey, err)
	}
	return refs, nil
}

// TriggerExtract creates a pending job and dispatches the extraction in a
// background goroutine. Returns the job immediately without waiting for
// the remote run to complete.
func (s *Service) TriggerExtract(ctx context.Context, floorPlanID uuid.UUID, objectKey string) (*models.ExtractionJob, error) {
	if objectKey == "" {
		return nil, fmt.Errorf("invalid extraction request: object key is required")
	}

	job := &models.ExtractionJob{
		ID:          uuid.New(),
		FloorPlanID: floorPlanID,
		ObjectKey:   objectKey,
		Status:      models.ExtractionJobPending,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := s.store.CreateExtractionJob(ctx, job); err != nil {
		return nil, fmt.Errorf("creating extraction job: %w", err)
	}

	_ = s.cache.SetExtractionJobStatus(ctx, job.ID, models.ExtractionJobPending, statusTTL)

	go s.runExtract(job.ID, objectKey)

	return job, nil
}

// runExtract performs the actual extraction in a goroutine. It recovers
// from panics and always marks the job as completed or failed.
func (s *Service) runExtract(jobID uuid.UUID, objectKey string) {
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in runExtract", "error", r, "job_id", jobID)
			_ = s.store.UpdateExtractionJobStatus(ctx, jobID, models.ExtractionJobFailed,
				store.WithErrorMessage(fmt.Sprintf("panic: %v", r)))
			_ = s.cache.SetExtractionJobStatus(ctx, jobID, models.ExtractionJobFailed, statusTTL)
		}
	}()

	_ = s.store.UpdateExtractionJobStatus(ctx, jobID, models.ExtractionJobRunning)
	_ = s.cache.SetExtractionJobStatus(ctx, jobID, models.ExtractionJobRunning, statusTTL)

	res, err := s.Extract(ctx, objectKey)
	if err != nil {
		_ = s.store.UpdateExtractionJobStatus(ctx, jobID, models.ExtractionJobFailed,
			store.WithErrorMessage(err.Error()))
		_ = s.cache.SetExtractionJobStatus(ctx, jobID, models.ExtractionJobFailed, statusTTL)
		return
	}

	// A Success=false result still completes the job; the negative
	// outcome lives in the result columns, not the job status.
	_ = s.store.UpdateExtractionJobStatus(ctx, jobID, models.ExtractionJobCompleted,
		store.WithResult(res))
	_ = s.cache.SetExtractionJobStatus(ctx, jobID, models.ExtractionJobCompleted, statusTTL)
}
