package cache

import (
	"fmt"

	"github.com/google/uuid"
)

// Key builders. Every Redis key the service writes is minted here so the
// namespaces stay in one place.

// ExtractionJobKey mirrors the status of one extraction job.
func ExtractionJobKey(jobID uuid.UUID) string {
	return fmt.Sprintf("extraction:%s", jobID)
}

// AnalysisKey caches a finished analysis, scoped to the parse-result hash
// so stale geometry never satisfies a lookup.
func AnalysisKey(floorPlanID uuid.UUID, resultHash string) string {
	return fmt.Sprintf("analysis:%s:%s", floorPlanID, resultHash)
}

// RateLimitKey holds the request counter for one API key prefix.
func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}
