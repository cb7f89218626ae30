// Package analysis maps raw parsed floor plan elements into classified
// structural elements and derives the renovation summary. Everything here
// is pure: no I/O, no hidden state, same input yields same output.
package analysis

import (
	"strings"

	"github.com/renolab/planscan/pkg/models"
)

// rule is one row of the classification table: the semantic decision for a
// raw category plus the fixed placeholder box used when the parser supplied
// no dimensions. Defaults are placeholders the simulator front end depends
// on, not estimates; they must not be computed.
type rule struct {
	role          models.ElementRole
	demolishable  bool
	risk          models.RiskLevel
	confidence    float64
	defaultWidth  float64
	defaultHeight float64
	caution       string
	defaultLabel  string
}

var (
	loadBearingWallRule = rule{
		role:         models.RoleLoadBearingWall,
		demolishable: false,
		risk:         models.RiskHigh,
		confidence:   0.85,
		defaultWidth: 10, defaultHeight: 2,
		defaultLabel: "내력벽",
	}
	partitionWallRule = rule{
		role:         models.RoleNonBearingWall,
		demolishable: true,
		risk:         models.RiskLow,
		confidence:   0.85,
		defaultWidth: 10, defaultHeight: 2,
		defaultLabel: "벽체",
	}
	doorRule = rule{
		role:         models.RoleDoor,
		demolishable: true,
		risk:         models.RiskNone,
		confidence:   0.90,
		defaultWidth: 3, defaultHeight: 1,
		defaultLabel: "문",
	}
	windowRule = rule{
		role:         models.RoleWindow,
		demolishable: false,
		risk:         models.RiskHigh,
		confidence:   0.90,
		defaultWidth: 4, defaultHeight: 1,
		caution:      "외벽 창호는 철거할 수 없습니다",
		defaultLabel: "창문",
	}
	bathroomRule = rule{
		role:         models.RolePlumbing,
		demolishable: true,
		risk:         models.RiskMedium,
		confidence:   0.80,
		defaultWidth: 2, defaultHeight: 2,
		caution:      "배관 이설 공사가 필요합니다",
		defaultLabel: "욕실 설비",
	}
	kitchenRule = rule{
		role:         models.RolePlumbing,
		demolishable: true,
		risk:         models.RiskMedium,
		confidence:   0.80,
		defaultWidth: 2, defaultHeight: 2,
		caution:      "가스 및 배관 이설 공사가 필요합니다",
		defaultLabel: "주방 설비",
	}
	fixtureRule = rule{
		role:         models.RoleElectrical,
		demolishable: true,
		risk:         models.RiskLow,
		confidence:   0.75,
		defaultWidth: 1, defaultHeight: 1,
		defaultLabel: "전기 설비",
	}
)

// Classify maps a floor plan's per-category raw element lists into a fresh
// sequence of structural elements. Output order is stable: walls, doors,
// windows, bathroom fixtures, kitchen fixtures, generic fixtures, each
// category preserving input order. Furniture and rooms produce no elements.
func Classify(res models.DwgParseResult) []models.StructuralElement {
	total := len(res.Walls) + len(res.Doors) + len(res.Windows) +
		len(res.BathroomFixtures) + len(res.KitchenFixtures) + len(res.Fixtures)
	out := make([]models.StructuralElement, 0, total)

	for _, el := range res.Walls {
		out = append(out, applyRule(wallRule(el.Layer), el))
	}
	for _, el := range res.Doors {
		out = append(out, applyRule(doorRule, el))
	}
	for _, el := range res.Windows {
		out = append(out, applyRule(windowRule, el))
	}
	for _, el := range res.BathroomFixtures {
		out = append(out, applyRule(bathroomRule, el))
	}
	for _, el := range res.KitchenFixtures {
		out = append(out, applyRule(kitchenRule, el))
	}
	for _, el := range res.Fixtures {
		out = append(out, applyRule(fixtureRule, el))
	}

	return out
}

// wallRule selects the wall row: a layer name containing "load" in any case
// marks the wall load-bearing.
func wallRule(layer string) rule {
	if strings.Contains(strings.ToLower(layer), "load") {
		return loadBearingWallRule
	}
	return partitionWallRule
}

// applyRule produces one structural element from a raw element and its
// table row. Missing dimensions always yield the row's fixed default box.
func applyRule(r rule, el models.RawElement) models.StructuralElement {
	label := el.Name
	if label == "" {
		label = r.defaultLabel
	}

	width := r.defaultWidth
	if el.Width != nil {
		width = *el.Width
	}
	height := r.defaultHeight
	if el.Height != nil {
		height = *el.Height
	}

	return models.StructuralElement{
		Role:         r.role,
		Label:        label,
		Box:          models.BoundingBox{X: el.X, Y: el.Y, Width: width, Height: height},
		Demolishable: r.demolishable,
		Risk:         r.risk,
		Caution:      r.caution,
		Confidence:   r.confidence,
	}
}
