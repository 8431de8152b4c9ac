package model

import (
	"time"

	"labroute/internal/solver"
)

// Wire types for the HTTP API. Times of day are "HH:MM" strings in the
// depot's local day; the validator converts them to seconds for the solver.

type SolveRequest struct {
	Name      string        `json:"name,omitempty"`
	Stops     []StopIn      `json:"stops"`
	Depot     *DepotIn      `json:"depot,omitempty"`
	Fleet     *FleetIn      `json:"fleet,omitempty"`
	Matrix    *MatrixIn     `json:"matrix,omitempty"`
	BudgetSec int           `json:"budgetSec,omitempty"`
	Save      bool          `json:"save,omitempty"`
}

type StopIn struct {
	ID         string        `json:"id"`
	Location   *GeoPoint     `json:"location"`
	Windows    []ClockWindow `json:"windows"`
	ServiceSec int           `json:"serviceSec,omitempty"`
}

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type ClockWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DepotIn overrides the configured depot for a single request.
type DepotIn struct {
	Location *GeoPoint     `json:"location"`
	Windows  []ClockWindow `json:"windows,omitempty"`
}

// FleetIn overrides the configured fleet. Zero caps mean unbounded.
type FleetIn struct {
	Vehicles       int     `json:"vehicles,omitempty"`
	MaxWaitMin     int     `json:"maxWaitMin,omitempty"`
	MaxDurationMin int     `json:"maxDurationMin,omitempty"`
	CostPerKm      float64 `json:"costPerKm,omitempty"`
	CostPerHour    float64 `json:"costPerHour,omitempty"`
	CostPerRoute   float64 `json:"costPerRoute,omitempty"`
}

// MatrixIn carries a caller-supplied travel matrix. Row/column 0 is the
// depot, then stops in request order. When absent the configured matrix
// provider is queried instead.
type MatrixIn struct {
	TravelSec [][]int `json:"travelSec"`
	DistanceM [][]int `json:"distanceM"`
}

// Plan is a persisted solve result.
type Plan struct {
	ID        string           `json:"id"`
	Name      string           `json:"name,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	Request   SolveRequest     `json:"request"`
	Solution  *solver.Solution `json:"solution"`
}
