package models

// ElementRole is the semantic role assigned to a classified structural element.
type ElementRole string

const (
	RoleLoadBearingWall ElementRole = "load_bearing_wall"
	RoleNonBearingWall  ElementRole = "non_bearing_wall"
	RolePillar          ElementRole = "pillar"
	RoleBeam            ElementRole = "beam"
	RoleWindow          ElementRole = "window"
	RoleDoor            ElementRole = "door"
	RolePlumbing        ElementRole = "plumbing"
	RoleElectrical      ElementRole = "electrical"
	RoleHVAC            ElementRole = "hvac"
)

// RiskLevel is a coarse ordinal estimating demolition difficulty/danger.
type RiskLevel string

const (
	RiskNone   RiskLevel = "none"
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// riskOrder maps risk levels to a numeric ordering for comparisons.
var riskOrder = map[RiskLevel]int{
	RiskNone:   0,
	RiskLow:    1,
	RiskMedium: 2,
	RiskHigh:   3,
}

// Severity returns the numeric ordering of a risk level. Unknown levels rank
// below none.
func (r RiskLevel) Severity() int {
	if s, ok := riskOrder[r]; ok {
		return s
	}
	return -1
}

// BoundingBox is a 2D axis-aligned box in drawing coordinates.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// StructuralElement is one classified, renovation-relevant building feature.
// Instances are produced fresh on every classification run and never mutated.
type StructuralElement struct {
	Role         ElementRole `json:"role"`
	Label        string      `json:"label"`
	Box          BoundingBox `json:"box"`
	Demolishable bool        `json:"demolishable"`
	Risk         RiskLevel   `json:"risk"`
	Caution      string      `json:"caution,omitempty"`
	Confidence   float64     `json:"confidence"`
}
