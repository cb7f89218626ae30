package models

import (
	"time"

	"github.com/google/uuid"
)

// FloorPlan is an uploaded drawing plus the raw parse result supplied by the
// upstream geometry source.
type FloorPlan struct {
	ID          uuid.UUID      `db:"id"           json:"id"`
	Name        string         `db:"name"         json:"name"`
	ObjectKey   string         `db:"object_key"   json:"object_key"`
	ParseResult DwgParseResult `db:"parse_result" json:"parse_result"`
	CreatedAt   time.Time      `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"   json:"updated_at"`
}

// FloorPlanAnalysis is the normalized analysis document returned to the
// simulator front end. It is constructed once per classification run.
type FloorPlanAnalysis struct {
	ID            uuid.UUID           `db:"id"             json:"id"`
	FloorPlanID   uuid.UUID           `db:"floor_plan_id"  json:"floor_plan_id"`
	ImageWidth    int                 `db:"image_width"    json:"image_width"`
	ImageHeight   int                 `db:"image_height"   json:"image_height"`
	EstimatedArea float64             `db:"estimated_area" json:"estimated_area"`
	RoomCount     int                 `db:"room_count"     json:"room_count"`
	BathroomCount int                 `db:"bathroom_count" json:"bathroom_count"`
	Elements      []StructuralElement `db:"elements"       json:"elements"`
	Summary       string              `db:"summary"        json:"summary"`
	Warnings      []string            `db:"warnings"       json:"warnings"`
	CreatedAt     time.Time           `db:"created_at"     json:"created_at"`
}
