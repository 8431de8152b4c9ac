package solver

import (
	"errors"
	"testing"
)

// symMatrix builds a symmetric matrix from an upper-triangular list of
// (travel seconds, distance meters) pairs. pairs[i][j] addresses locations
// i < j; diagonal entries are zero.
func symMatrix(n int, set func(travel, dist [][]int)) Matrix {
	travel := make([][]int, n)
	dist := make([][]int, n)
	for i := range travel {
		travel[i] = make([]int, n)
		dist[i] = make([]int, n)
	}
	set(travel, dist)
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			if travel[i][j] == 0 {
				travel[i][j] = travel[j][i]
			}
			if dist[i][j] == 0 {
				dist[i][j] = dist[j][i]
			}
		}
	}
	return Matrix{TravelSec: travel, DistanceM: dist}
}

func wideDepot() Depot {
	return Depot{Lat: 53.05, Lon: 9.03, Windows: []Window{{Open: 0, Close: 86400}}}
}

func TestBuildProblemExpandsTwoWindowStops(t *testing.T) {
	stops := []Stop{
		{ID: "a", Lat: 53.1, Lon: 9.1, Windows: []Window{{28800, 36000}, {50400, 57600}}, ServiceSec: 300},
		{ID: "b", Lat: 53.2, Lon: 9.2, Windows: []Window{{32400, 39600}}, ServiceSec: 600},
	}
	m := symMatrix(3, func(tr, d [][]int) {
		tr[0][1], d[0][1] = 600, 5000
		tr[0][2], d[0][2] = 900, 8000
		tr[1][2], d[1][2] = 300, 2500
	})
	p, err := BuildProblem(stops, wideDepot(), VehicleConfig{Count: 2}, m)
	if err != nil {
		t.Fatalf("BuildProblem: %v", err)
	}
	if len(p.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(p.Nodes))
	}
	n1, n2, n3 := p.Nodes[0], p.Nodes[1], p.Nodes[2]
	if n1.StopID != "a" || n1.WindowIdx != 0 || n2.StopID != "a" || n2.WindowIdx != 1 {
		t.Fatalf("two-window stop not expanded in order: %+v %+v", n1, n2)
	}
	if n1.MatrixIdx != n2.MatrixIdx {
		t.Fatalf("nodes of the same stop must share a matrix index: %d vs %d", n1.MatrixIdx, n2.MatrixIdx)
	}
	if n3.StopID != "b" || n3.MatrixIdx != 2 {
		t.Fatalf("unexpected third node: %+v", n3)
	}
	if n1.ID != 1 || n2.ID != 2 || n3.ID != 3 {
		t.Fatalf("node ids not sequential: %d %d %d", n1.ID, n2.ID, n3.ID)
	}
}

func TestBuildProblemEmpty(t *testing.T) {
	_, err := BuildProblem(nil, wideDepot(), VehicleConfig{Count: 1}, Matrix{})
	if !errors.Is(err, ErrEmptyProblem) {
		t.Fatalf("got %v, want ErrEmptyProblem", err)
	}
}

func TestBuildProblemDuplicateStop(t *testing.T) {
	stops := []Stop{
		{ID: "a", Lat: 1, Lon: 1, Windows: []Window{{0, 3600}}},
		{ID: "a", Lat: 2, Lon: 2, Windows: []Window{{0, 3600}}},
	}
	m := symMatrix(3, func(tr, d [][]int) {})
	_, err := BuildProblem(stops, wideDepot(), VehicleConfig{Count: 1}, m)
	if !errors.Is(err, ErrDuplicateStop) {
		t.Fatalf("got %v, want ErrDuplicateStop", err)
	}
}

func TestBuildProblemIncompleteMatrix(t *testing.T) {
	stops := []Stop{{ID: "a", Lat: 1, Lon: 1, Windows: []Window{{0, 3600}}}}

	// Matrix sized for the stop but missing the depot row.
	m := Matrix{TravelSec: [][]int{{0}}, DistanceM: [][]int{{0}}}
	if _, err := BuildProblem(stops, wideDepot(), VehicleConfig{Count: 1}, m); !errors.Is(err, ErrIncompleteMatrix) {
		t.Fatalf("undersized: got %v, want ErrIncompleteMatrix", err)
	}

	// Ragged row.
	m = Matrix{
		TravelSec: [][]int{{0, 1}, {1}},
		DistanceM: [][]int{{0, 1}, {1, 0}},
	}
	if _, err := BuildProblem(stops, wideDepot(), VehicleConfig{Count: 1}, m); !errors.Is(err, ErrIncompleteMatrix) {
		t.Fatalf("ragged: got %v, want ErrIncompleteMatrix", err)
	}
}

func TestBuildProblemInfeasibleNode(t *testing.T) {
	depot := wideDepot()
	m := symMatrix(2, func(tr, d [][]int) {
		tr[0][1], d[0][1] = 1800, 15000
	})

	// Window closes before the vehicle can possibly arrive.
	stops := []Stop{{ID: "a", Lat: 1, Lon: 1, Windows: []Window{{0, 1000}}}}
	if _, err := BuildProblem(stops, depot, VehicleConfig{Count: 1}, m); !errors.Is(err, ErrInfeasibleNode) {
		t.Fatalf("unreachable window: got %v, want ErrInfeasibleNode", err)
	}

	// Reachable window, but the minimal round trip breaks the duration cap.
	stops = []Stop{{ID: "a", Lat: 1, Lon: 1, Windows: []Window{{0, 36000}}, ServiceSec: 600}}
	cfg := VehicleConfig{Count: 1, MaxDurationSec: 3000}
	if _, err := BuildProblem(stops, depot, cfg, m); !errors.Is(err, ErrInfeasibleNode) {
		t.Fatalf("duration cap: got %v, want ErrInfeasibleNode", err)
	}

	// Return lands after the last depot window closed.
	lateDepot := Depot{Lat: 0, Lon: 0, Windows: []Window{{Open: 0, Close: 3000}}}
	stops = []Stop{{ID: "a", Lat: 1, Lon: 1, Windows: []Window{{0, 36000}}, ServiceSec: 600}}
	if _, err := BuildProblem(stops, lateDepot, VehicleConfig{Count: 1}, m); !errors.Is(err, ErrInfeasibleNode) {
		t.Fatalf("depot window: got %v, want ErrInfeasibleNode", err)
	}
}

func TestBuildProblemDefaultsUnitRates(t *testing.T) {
	stops := []Stop{{ID: "a", Lat: 1, Lon: 1, Windows: []Window{{0, 36000}}}}
	m := symMatrix(2, func(tr, d [][]int) {
		tr[0][1], d[0][1] = 600, 5000
	})
	p, err := BuildProblem(stops, wideDepot(), VehicleConfig{Count: 1}, m)
	if err != nil {
		t.Fatalf("BuildProblem: %v", err)
	}
	if p.Config.CostPerKm != 1 || p.Config.CostPerHour != 1 {
		t.Fatalf("zero rates not defaulted: %+v", p.Config)
	}
}
