// Package models contains shared data models used across the planscan codebase.
package models

// RawElementType is the coarse category tag assigned by the DWG parsing
// collaborator. Classification only acts on a subset of these.
type RawElementType string

const (
	RawWall      RawElementType = "wall"
	RawDoor      RawElementType = "door"
	RawWindow    RawElementType = "window"
	RawColumn    RawElementType = "column"
	RawRoom      RawElementType = "room"
	RawBathroom  RawElementType = "bathroom"
	RawKitchen   RawElementType = "kitchen"
	RawFixture   RawElementType = "fixture"
	RawFurniture RawElementType = "furniture"
	RawOther     RawElementType = "other"
)

// RawElement is one loosely-typed element from the upstream DWG parser.
// It is read-only input to classification; width/height are optional and
// nil means the parser could not measure the element.
type RawElement struct {
	ID         string         `json:"id"`
	Type       RawElementType `json:"type"`
	Name       string         `json:"name"`
	Layer      string         `json:"layer"`
	X          float64        `json:"x"`
	Y          float64        `json:"y"`
	Width      *float64       `json:"width,omitempty"`
	Height     *float64       `json:"height,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Room is a closed region detected by the upstream parser.
type Room struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Area float64 `json:"area"`
}

// FloorPlanMeta carries nominal drawing metadata from the upstream parser.
type FloorPlanMeta struct {
	FloorType     string  `json:"floor_type"`
	ImageWidth    int     `json:"image_width"`
	ImageHeight   int     `json:"image_height"`
	EstimatedArea float64 `json:"estimated_area"`
	RoomCount     int     `json:"room_count"`
	BathroomCount int     `json:"bathroom_count"`
}

// DwgParseResult is the per-category element breakdown supplied by the
// upstream geometry source. The classification engine consumes exactly
// this shape.
type DwgParseResult struct {
	Walls            []RawElement  `json:"walls"`
	Doors            []RawElement  `json:"doors"`
	Windows          []RawElement  `json:"windows"`
	BathroomFixtures []RawElement  `json:"bathroom_fixtures"`
	KitchenFixtures  []RawElement  `json:"kitchen_fixtures"`
	Fixtures         []RawElement  `json:"fixtures"`
	Furniture        []RawElement  `json:"furniture"`
	Rooms            []Room        `json:"rooms"`
	Meta             FloorPlanMeta `json:"meta"`
}
