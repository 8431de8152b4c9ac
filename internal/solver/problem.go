package solver

import "fmt"

// Node is one mandatory visit obligation derived from a stop window. A stop
// with two windows yields two nodes at the same location, each bound to
// exactly one window.
type Node struct {
	ID         int // 1-based, stable for a given input order
	StopID     string
	WindowIdx  int // which of the stop's windows this node serves
	MatrixIdx  int // shared between nodes of the same stop
	Window     Window
	ServiceSec int
	Lat, Lon   float64
}

// Problem is the assembled constraint problem: expanded nodes, merged depot
// windows, fleet configuration, and the travel matrix. Immutable once built.
type Problem struct {
	Nodes  []Node
	Depot  Depot
	Config VehicleConfig
	Matrix Matrix

	depotWindows []Window // sorted, disjoint
}

// DepotWindows returns the merged depot delivery windows the return
// disjunction ranges over.
func (p *Problem) DepotWindows() []Window {
	return append([]Window(nil), p.depotWindows...)
}

// BuildProblem validates all inputs and expands stops into solver nodes.
// Matrix index i+1 corresponds to stops[i]; index 0 is the depot.
//
// Returns ErrEmptyProblem for zero nodes, ErrIncompleteMatrix if the matrix
// does not cover depot plus every stop, and ErrInfeasibleNode if some node
// cannot be served even by a dedicated vehicle (window unreachable from the
// depot, or the minimal depot-node-depot tour breaks the duration or wait
// cap, or misses every depot window).
func BuildProblem(stops []Stop, depot Depot, cfg VehicleConfig, m Matrix) (*Problem, error) {
	if err := depot.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(stops))
	var nodes []Node
	for i, s := range stops {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("stop %s: %w", s.ID, ErrDuplicateStop)
		}
		seen[s.ID] = true
		for wi, w := range s.Windows {
			nodes = append(nodes, Node{
				ID:         len(nodes) + 1,
				StopID:     s.ID,
				WindowIdx:  wi,
				MatrixIdx:  i + 1,
				Window:     w,
				ServiceSec: s.ServiceSec,
				Lat:        s.Lat,
				Lon:        s.Lon,
			})
		}
	}
	if len(nodes) == 0 {
		return nil, ErrEmptyProblem
	}
	if err := m.Validate(len(stops) + 1); err != nil {
		return nil, err
	}
	if cfg.CostPerKm == 0 && cfg.CostPerHour == 0 {
		// Unit rates keep marginal-cost comparisons meaningful when no
		// money rates are configured.
		cfg.CostPerKm = 1
		cfg.CostPerHour = 1
	}
	p := &Problem{
		Nodes:        nodes,
		Depot:        depot,
		Config:       cfg,
		Matrix:       m,
		depotWindows: depot.mergedWindows(),
	}
	for ni := range p.Nodes {
		if err := p.precheckNode(ni); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// precheckNode is a fast single-node feasibility check, not a search: can a
// dedicated vehicle serve just this node and hand in at the depot? Leaving
// the depot is free in time, so the best case arrives at
// max(travel, window open).
func (p *Problem) precheckNode(ni int) error {
	n := p.Nodes[ni]
	travelOut := p.Matrix.travel(0, n.MatrixIdx)
	arrival := max(travelOut, n.Window.Open)
	if arrival >= n.Window.Close {
		return fmt.Errorf("node %d (stop %s window %d): earliest arrival %ds misses window [%d,%d): %w",
			n.ID, n.StopID, n.WindowIdx, arrival, n.Window.Open, n.Window.Close, ErrInfeasibleNode)
	}
	departure := arrival - travelOut
	back := arrival + n.ServiceSec + p.Matrix.travel(n.MatrixIdx, 0)
	handIn, _, ok := p.resolveReturn(back)
	if !ok {
		return fmt.Errorf("node %d (stop %s window %d): return at %ds misses every depot window: %w",
			n.ID, n.StopID, n.WindowIdx, back, ErrInfeasibleNode)
	}
	if p.Config.MaxDurationSec > 0 && handIn-departure > p.Config.MaxDurationSec {
		return fmt.Errorf("node %d (stop %s window %d): minimal tour takes %ds, cap %ds: %w",
			n.ID, n.StopID, n.WindowIdx, handIn-departure, p.Config.MaxDurationSec, ErrInfeasibleNode)
	}
	if p.Config.MaxWaitSec > 0 && handIn-back > p.Config.MaxWaitSec {
		return fmt.Errorf("node %d (stop %s window %d): depot wait %ds exceeds cap %ds: %w",
			n.ID, n.StopID, n.WindowIdx, handIn-back, p.Config.MaxWaitSec, ErrInfeasibleNode)
	}
	return nil
}

// resolveReturn resolves the depot-return disjunction for a raw arrival time
// back at the depot. The vehicle may idle in front of the depot until the
// next window opens; arriving after the last close is infeasible. Returns
// the hand-in time, the window index used, and feasibility.
func (p *Problem) resolveReturn(back int) (handIn, windowIdx int, ok bool) {
	for k, w := range p.depotWindows {
		t := max(back, w.Open)
		if t < w.Close {
			return t, k, true
		}
	}
	return 0, 0, false
}
