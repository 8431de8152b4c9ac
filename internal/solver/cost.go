package solver

// visitTiming is the derived schedule at one node of a route.
type visitTiming struct {
	Arrival   int // clock time reaching the node, before waiting
	Wait      int // idle time until the window opens
	Departure int // Arrival + Wait + service
}

// schedule is the fully propagated timing of one route. All quantities in
// seconds; DistM in meters.
type schedule struct {
	Departure  int // depot departure
	Visits     []visitTiming
	Back       int // raw arrival back at the depot
	HandIn     int // Back plus any idle waiting for a delivery window
	WindowIdx  int // which merged depot window the hand-in fell into
	DistM      int
	DriveSec   int
	WaitSec    int // node waits plus depot wait
	ServiceSec int
}

// DurationSec is the elapsed time from depot departure to hand-in. It equals
// drive + wait + service by construction.
func (s schedule) DurationSec() int { return s.HandIn - s.Departure }

// scheduleRoute propagates arrival times along order (indices into p.Nodes)
// and resolves the depot-return disjunction.
//
// The depot start is free: departure is back-computed so the vehicle reaches
// its first node at max(window open, earliest possible), which removes any
// wait at the first node. Waiting at later nodes and in front of the depot
// is derived as max(0, open - arrival) and counts toward the wait cap.
//
// Returns ok=false when any hard constraint fails: a node window missed, no
// depot window reachable, or a wait/duration cap exceeded. Infeasible
// schedules are pruning conditions during search, not user-visible errors.
func (p *Problem) scheduleRoute(order []int) (schedule, bool) {
	var s schedule
	if len(order) == 0 {
		return s, false
	}
	first := p.Nodes[order[0]]
	travelOut := p.Matrix.travel(0, first.MatrixIdx)
	arrival := max(travelOut, first.Window.Open)
	if arrival >= first.Window.Close {
		return s, false
	}
	s.Departure = arrival - travelOut
	s.Visits = make([]visitTiming, 0, len(order))
	s.DriveSec = travelOut
	s.DistM = p.Matrix.dist(0, first.MatrixIdx)
	t := arrival
	prevIdx := first.MatrixIdx
	for i, ni := range order {
		n := p.Nodes[ni]
		if i > 0 {
			s.DriveSec += p.Matrix.travel(prevIdx, n.MatrixIdx)
			s.DistM += p.Matrix.dist(prevIdx, n.MatrixIdx)
			t += p.Matrix.travel(prevIdx, n.MatrixIdx)
		}
		if t >= n.Window.Close {
			return schedule{}, false
		}
		wait := 0
		if t < n.Window.Open {
			wait = n.Window.Open - t
			t = n.Window.Open
		}
		s.WaitSec += wait
		s.ServiceSec += n.ServiceSec
		s.Visits = append(s.Visits, visitTiming{Arrival: t - wait, Wait: wait, Departure: t + n.ServiceSec})
		t += n.ServiceSec
		prevIdx = n.MatrixIdx
	}
	s.DriveSec += p.Matrix.travel(prevIdx, 0)
	s.DistM += p.Matrix.dist(prevIdx, 0)
	s.Back = t + p.Matrix.travel(prevIdx, 0)
	handIn, widx, ok := p.resolveReturn(s.Back)
	if !ok {
		return schedule{}, false
	}
	s.HandIn = handIn
	s.WindowIdx = widx
	s.WaitSec += handIn - s.Back
	if p.Config.MaxWaitSec > 0 && s.WaitSec > p.Config.MaxWaitSec {
		return schedule{}, false
	}
	if p.Config.MaxDurationSec > 0 && s.DurationSec() > p.Config.MaxDurationSec {
		return schedule{}, false
	}
	return s, true
}

// scheduleCost is the monetary objective over one route:
// km * CostPerKm + elapsed hours * CostPerHour + CostPerRoute.
// Construction and improvement optimize exactly this quantity.
func (p *Problem) scheduleCost(s schedule) float64 {
	km := float64(s.DistM) / 1000.0
	hours := float64(s.DriveSec+s.WaitSec+s.ServiceSec) / 3600.0
	return km*p.Config.CostPerKm + hours*p.Config.CostPerHour + p.Config.CostPerRoute
}

// routeCost evaluates order and returns its cost, or ok=false when the
// route is infeasible.
func (p *Problem) routeCost(order []int) (float64, bool) {
	s, ok := p.scheduleRoute(order)
	if !ok {
		return 0, false
	}
	return p.scheduleCost(s), true
}
