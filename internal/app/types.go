package app

import (
	"errors"

	"github.com/klabast/wb-services/garden-planner/internal/garden"
)

// Error messages
const (
	ErrInvalidDateFormat = "Invalid date format (expected YYYY-MM-DD)"
	ErrInvalidLevel      = "Invalid experience level"
	ErrInvalidFormat     = "Invalid format"
	ErrInvalidRequest    = "Invalid request body"
	ErrUnknownVariety    = "Unknown variety"
	ErrUnknownGroup      = "Unknown crop group"
	ErrInvalidCell       = "Cell is outside the bed"
	ErrMissingName       = "Missing variety name"
	ErrInternalServer    = "Internal server error"
)

var errNoCropSelected = errors.New("no crop selected")

// VarietyView is a variety with its spacing guidance resolved
type VarietyView struct {
	garden.Variety
	Spacing string `json:"spacing"`
}

// LayoutView is the JSON form of a session's bed
type LayoutView struct {
	Rows     int        `json:"rows"`
	Cols     int        `json:"cols"`
	Cells    [][]string `json:"cells"`
	Selected string     `json:"selected,omitempty"`
}

// CellRequest addresses a bed cell. Crop is optional for placement and
// ignored for clearing.
type CellRequest struct {
	Row  *int   `json:"row"`
	Col  *int   `json:"col"`
	Crop string `json:"crop"`
}

// SelectRequest chooses the crop for later placements
type SelectRequest struct {
	Crop string `json:"crop"`
}

// ZoneView is the answer to a ZIP lookup
type ZoneView struct {
	ZIP       string `json:"zip"`
	Zone      string `json:"zone,omitempty"`
	ZoneKnown bool   `json:"zone_known"`
	Frost     string `json:"frost"`
}
