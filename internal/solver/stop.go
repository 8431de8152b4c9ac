// Package solver implements the pickup routing core: a vehicle routing
// problem with per-stop pickup time windows and disjunctive depot delivery
// windows. Stops are expanded into mandatory visit nodes, an initial set of
// routes is constructed greedily, then improved by local search under a
// wall-clock budget.
package solver

import (
	"fmt"
	"math"
	"sort"
)

// Window is a half-open interval [Open, Close) in seconds since depot-local
// midnight.
type Window struct {
	Open  int
	Close int
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t int) bool { return t >= w.Open && t < w.Close }

func (w Window) validate() error {
	if w.Open < 0 || w.Open >= w.Close {
		return fmt.Errorf("%w: [%d,%d)", ErrInvalidWindow, w.Open, w.Close)
	}
	return nil
}

// Stop is one physical pickup location with one or two disjoint mandatory
// pickup windows. Immutable input to BuildProblem.
type Stop struct {
	ID         string
	Lat, Lon   float64
	Windows    []Window // 1 or 2, disjoint, in order
	ServiceSec int
}

// Validate checks the stop invariants: coordinates in range, 1..2 windows,
// each well-formed, and the second window strictly after the first.
func (s Stop) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("stop without id: %w", ErrDuplicateStop)
	}
	if err := validateCoords(s.Lat, s.Lon); err != nil {
		return fmt.Errorf("stop %s: %w", s.ID, err)
	}
	if len(s.Windows) < 1 || len(s.Windows) > 2 {
		return fmt.Errorf("stop %s: %d windows: %w", s.ID, len(s.Windows), ErrInvalidWindow)
	}
	for _, w := range s.Windows {
		if err := w.validate(); err != nil {
			return fmt.Errorf("stop %s: %w", s.ID, err)
		}
	}
	if len(s.Windows) == 2 && s.Windows[1].Open < s.Windows[0].Close {
		return fmt.Errorf("stop %s: [%d,%d) then [%d,%d): %w", s.ID,
			s.Windows[0].Open, s.Windows[0].Close,
			s.Windows[1].Open, s.Windows[1].Close, ErrOverlappingWindows)
	}
	if s.ServiceSec < 0 {
		return fmt.Errorf("stop %s: negative service duration: %w", s.ID, ErrInvalidWindow)
	}
	return nil
}

// Depot is the single start/end location. A vehicle may leave at any time but
// must arrive back inside one of the delivery windows.
type Depot struct {
	Lat, Lon float64
	Windows  []Window
}

// Validate checks coordinates and that at least one well-formed delivery
// window is present.
func (d Depot) Validate() error {
	if err := validateCoords(d.Lat, d.Lon); err != nil {
		return fmt.Errorf("depot: %w", err)
	}
	if len(d.Windows) == 0 {
		return fmt.Errorf("depot has no delivery window: %w", ErrInvalidWindow)
	}
	for _, w := range d.Windows {
		if err := w.validate(); err != nil {
			return fmt.Errorf("depot: %w", err)
		}
	}
	return nil
}

// mergedWindows returns the depot windows sorted and with overlapping or
// touching intervals merged, so the return disjunction ranges over disjoint
// windows only.
func (d Depot) mergedWindows() []Window {
	wins := append([]Window(nil), d.Windows...)
	sort.Slice(wins, func(i, j int) bool {
		if wins[i].Open != wins[j].Open {
			return wins[i].Open < wins[j].Open
		}
		return wins[i].Close < wins[j].Close
	})
	merged := wins[:1]
	for _, w := range wins[1:] {
		last := &merged[len(merged)-1]
		if w.Open <= last.Close {
			if w.Close > last.Close {
				last.Close = w.Close
			}
			continue
		}
		merged = append(merged, w)
	}
	return merged
}

// VehicleConfig describes the homogeneous fleet and the cost objective.
// Vehicles are interchangeable; only Count matters.
type VehicleConfig struct {
	// Count is the maximum number of routes. 0 means no vehicle is
	// available, which is infeasible for any non-empty problem.
	Count int

	// MaxWaitSec caps the accumulated waiting time per route, including
	// waiting at the depot for a delivery window to open. 0 = unbounded.
	MaxWaitSec int

	// MaxDurationSec caps the elapsed time from depot departure to depot
	// hand-in. 0 = unbounded.
	MaxDurationSec int

	// Cost rates. If both CostPerKm and CostPerHour are zero the problem
	// builder substitutes unit rates so the objective stays meaningful.
	CostPerKm   float64
	CostPerHour float64

	// CostPerRoute adds a fixed charge per opened route, putting pressure
	// on route count. 0 disables it.
	CostPerRoute float64
}

func (c VehicleConfig) validate() error {
	if c.Count < 0 {
		return fmt.Errorf("vehicle count %d: %w", c.Count, ErrInvalidWindow)
	}
	if c.MaxWaitSec < 0 || c.MaxDurationSec < 0 {
		return fmt.Errorf("negative cap: %w", ErrInvalidWindow)
	}
	if c.CostPerKm < 0 || c.CostPerHour < 0 || c.CostPerRoute < 0 {
		return fmt.Errorf("negative cost rate: %w", ErrInvalidWindow)
	}
	return nil
}

func validateCoords(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: (%v, %v)", ErrMissingCoordinates, lat, lon)
	}
	return nil
}
