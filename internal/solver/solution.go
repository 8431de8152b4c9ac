package solver

import "time"

// Termination reasons for the improvement phase.
const (
	TerminationConverged = "converged" // no improving move left
	TerminationTimedOut  = "timed_out" // budget elapsed or context canceled
)

// Visit is one served node in a finished route, with its derived timing.
type Visit struct {
	NodeID       int    `json:"nodeId"`
	StopID       string `json:"stopId"`
	WindowIndex  int    `json:"windowIndex"`
	ArrivalSec   int    `json:"arrivalSec"`
	WaitSec      int    `json:"waitSec"`
	DepartureSec int    `json:"departureSec"`
	ServiceSec   int    `json:"serviceSec"`
}

// Route is one vehicle tour: depot -> visits -> depot, frozen after search.
type Route struct {
	Visits       []Visit `json:"visits"`
	DepartureSec int     `json:"departureSec"`
	ReturnSec    int     `json:"returnSec"` // raw arrival back at the depot
	HandInSec    int     `json:"handInSec"` // after waiting for a delivery window
	DepotWindow  int     `json:"depotWindow"`
	DistanceM    int     `json:"distanceM"`
	DriveSec     int     `json:"driveSec"`
	WaitSec      int     `json:"waitSec"`
	ServiceSec   int     `json:"serviceSec"`
	DurationSec  int     `json:"durationSec"`
	Cost         float64 `json:"cost"`
}

// Stats reports what the search did.
type Stats struct {
	Iterations      int           `json:"iterations"` // improvement moves evaluated
	Improvements    int           `json:"improvements"`
	ConstructedCost float64       `json:"constructedCost"`
	FinalCost       float64       `json:"finalCost"`
	Elapsed         time.Duration `json:"elapsedNs"`
}

// Solution is the frozen output of a solve: every node appears in exactly
// one route exactly once.
type Solution struct {
	Routes          []Route `json:"routes"`
	TotalDistanceM  int     `json:"totalDistanceM"`
	TotalDriveSec   int     `json:"totalDriveSec"`
	TotalWaitSec    int     `json:"totalWaitSec"`
	TotalServiceSec int     `json:"totalServiceSec"`
	TotalCost       float64 `json:"totalCost"`
	Termination     string  `json:"termination"`
	Stats           Stats   `json:"stats"`
}

// freeze turns the internal route orders into the reported Solution.
func (p *Problem) freeze(routes [][]int, stats Stats, termination string) *Solution {
	sol := &Solution{Termination: termination, Stats: stats}
	for _, order := range routes {
		if len(order) == 0 {
			continue
		}
		s, ok := p.scheduleRoute(order)
		if !ok {
			// Routes are only ever mutated through feasible moves.
			panic("solver: frozen route is infeasible")
		}
		r := Route{
			DepartureSec: s.Departure,
			ReturnSec:    s.Back,
			HandInSec:    s.HandIn,
			DepotWindow:  s.WindowIdx,
			DistanceM:    s.DistM,
			DriveSec:     s.DriveSec,
			WaitSec:      s.WaitSec,
			ServiceSec:   s.ServiceSec,
			DurationSec:  s.DurationSec(),
			Cost:         p.scheduleCost(s),
		}
		for i, ni := range order {
			n := p.Nodes[ni]
			r.Visits = append(r.Visits, Visit{
				NodeID:       n.ID,
				StopID:       n.StopID,
				WindowIndex:  n.WindowIdx,
				ArrivalSec:   s.Visits[i].Arrival,
				WaitSec:      s.Visits[i].Wait,
				DepartureSec: s.Visits[i].Departure,
				ServiceSec:   n.ServiceSec,
			})
		}
		sol.Routes = append(sol.Routes, r)
		sol.TotalDistanceM += r.DistanceM
		sol.TotalDriveSec += r.DriveSec
		sol.TotalWaitSec += r.WaitSec
		sol.TotalServiceSec += r.ServiceSec
		sol.TotalCost += r.Cost
	}
	sol.Stats.FinalCost = sol.TotalCost
	return sol
}
