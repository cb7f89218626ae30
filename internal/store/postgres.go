package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/renolab/planscan/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- API Keys ---

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, name, key_hash, key_prefix, scopes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		key.ID, key.Name, key.KeyHash, key.KeyPrefix, key.Scopes, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAPIKeys(ctx context.Context) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE deleted_at IS NULL ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Floor Plans ---

func (s *PostgresStore) CreateFloorPlan(ctx context.Context, plan *models.FloorPlan) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO floor_plans (id, name, object_key, parse_result, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		plan.ID, plan.Name, plan.ObjectKey, plan.ParseResult, plan.CreatedAt, plan.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create floor plan: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetFloorPlan(ctx context.Context, id uuid.UUID) (*models.FloorPlan, error) {
	var p models.FloorPlan
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, object_key, parse_result, created_at, updated_at
		 FROM floor_plans WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.ObjectKey, &p.ParseResult, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get floor plan: %w", err)
	}
	return &p, nil
}

// --- Extraction Jobs ---

func (s *PostgresStore) CreateExtractionJob(ctx context.Context, job *models.ExtractionJob) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO extraction_jobs (id, floor_plan_id, object_key, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		job.ID, job.FloorPlanID, job.ObjectKey, job.Status, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create extraction job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetExtractionJob(ctx context.Context, id uuid.UUID) (*models.ExtractionJob, error) {
	var j models.ExtractionJob
	err := s.pool.QueryRow(ctx,
		`SELECT id, floor_plan_id, object_key, status, success, error_message, reference_count,
		        result, started_at, completed_at, created_at, updated_at
		 FROM extraction_jobs WHERE id = $1`, id,
	).Scan(&j.ID, &j.FloorPlanID, &j.ObjectKey, &j.Status, &j.Success, &j.ErrorMessage,
		&j.ReferenceCount, &j.Result, &j.StartedAt, &j.CompletedAt, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get extraction job: %w", err)
	}
	return &j, nil
}

var validTransitions = map[string][]string{
	models.ExtractionJobPending: {models.ExtractionJobRunning},
	models.ExtractionJobRunning: {models.ExtractionJobCompleted, models.ExtractionJobFailed},
}

func (s *PostgresStore) UpdateExtractionJobStatus(ctx context.Context, id uuid.UUID, status string, opts ...JobUpdateOption) error {
	params := &jobUpdateParams{}
	for _, opt := range opts {
		opt(params)
	}

	var currentStatus string
	err := s.pool.QueryRow(ctx, `SELECT status FROM extraction_jobs WHERE id = $1`, id).Scan(&currentStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get extraction job status: %w", err)
	}

	allowed := validTransitions[currentStatus]
	valid := false
	for _, a := range allowed {
		if a == status {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid extraction job status transition: %s -> %s", currentStatus, status)
	}

	now := time.Now().UTC()
	query := `UPDATE extraction_jobs SET status = $2, updated_at = $3`
	args := []any{id, status, now}
	argIdx := 4

	if status == models.ExtractionJobRunning {
		query += fmt.Sprintf(", started_at = $%d", argIdx)
		args = append(args, now)
		argIdx++
	}
	if status == models.ExtractionJobCompleted || status == models.ExtractionJobFailed {
		query += fmt.Sprintf(", completed_at = $%d", argIdx)
		args = append(args, now)
		argIdx++
	}
	if params.ErrorMessage != nil {
		query += fmt.Sprintf(", error_message = $%d", argIdx)
		args = append(args, *params.ErrorMessage)
		argIdx++
	}
	if params.Result != nil {
		query += fmt.Sprintf(", success = $%d, reference_count = $%d, result = $%d", argIdx, argIdx+1, argIdx+2)
		args = append(args, params.Result.Success, len(params.Result.References), params.Result)
		argIdx += 3
		if !params.Result.Success && params.Result.Error != "" {
			query += fmt.Sprintf(", error_message = $%d", argIdx)
			args = append(args, params.Result.Error)
			argIdx++
		}
	}

	query += " WHERE id = $1"

	_, err = s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update extraction job status: %w", err)
	}
	return nil
}

// --- Analyses ---

func (s *PostgresStore) CreateAnalysis(ctx context.Context, a *models.FloorPlanAnalysis) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO analyses (id, floor_plan_id, image_width, image_height, estimated_area,
		                       room_count, bathroom_count, elements, summary, warnings, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.FloorPlanID, a.ImageWidth, a.ImageHeight, a.EstimatedArea,
		a.RoomCount, a.BathroomCount, a.Elements, a.Summary, a.Warnings, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create analysis: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAnalysisByFloorPlan(ctx context.Context, floorPlanID uuid.UUID) (*models.FloorPlanAnalysis, error) {
	var a models.FloorPlanAnalysis
	err := s.pool.QueryRow(ctx,
		`SELECT id, floor_plan_id, image_width, image_height, estimated_area,
		        room_count, bathroom_count, elements, summary, warnings, created_at
		 FROM analyses WHERE floor_plan_id = $1
		 ORDER BY created_at DESC LIMIT 1`, floorPlanID,
	).Scan(&a.ID, &a.FloorPlanID, &a.ImageWidth, &a.ImageHeight, &a.EstimatedArea,
		&a.RoomCount, &a.BathroomCount, &a.Elements, &a.Summary, &a.Warnings, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis by floor plan: %w", err)
	}
	return &a, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
