// Package extract runs the remote extraction pipeline: signed transfer of
// the input drawing, workitem submission and polling, and decoding of the
// result payload into typed geometric references.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/renolab/planscan/pkg/models"
)

// ErrDecode marks a malformed extraction result payload.
var ErrDecode = errors.New("malformed extraction result payload")

type resultPayload struct {
	References []referencePayload `json:"references"`
}

// referencePayload uses pointers for required fields so absence is
// distinguishable from zero values.
type referencePayload struct {
	Handle   *string     `json:"handle"`
	Name     *string     `json:"name"`
	Position models.Vec3 `json:"position"`
	Layer    string      `json:"layer"`
	Rotation float64     `json:"rotation"`
	Scale    models.Vec3 `json:"scale"`
}

// DecodeResult parses a downloaded result payload into typed extracted
// references. Validation is structural only (required fields present,
// numeric fields parseable); domain plausibility such as coordinate
// ranges is not checked here.
func DecodeResult(r io.Reader) ([]models.ExtractedReference, error) {
	var payload resultPayload
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if payload.References == nil {
		return nil, fmt.Errorf("%w: missing references field", ErrDecode)
	}

	refs := make([]models.ExtractedReference, 0, len(payload.References))
	for i, rp := range payload.References {
		if rp.Handle == nil || *rp.Handle == "" {
			return nil, fmt.Errorf("%w: reference %d missing handle", ErrDecode, i)
		}
		if rp.Name == nil {
			return nil, fmt.Errorf("%w: reference %d missing name", ErrDecode, i)
		}
		refs = append(refs, models.ExtractedReference{
			Handle:   *rp.Handle,
			Name:     *rp.Name,
			Position: rp.Position,
			Layer:    rp.Layer,
			Rotation: rp.Rotation,
			Scale:    rp.Scale,
		})
	}
	return refs, nil
}
