package solver

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// costEpsilon separates real improvements from float noise. A move is
// accepted only if it reduces total cost by more than this.
const costEpsilon = 1e-9

// Progress is a point-in-time snapshot of a running solve, delivered to
// Options.Progress between improvement sweeps.
type Progress struct {
	Phase        string  `json:"phase"` // "constructing" | "improving"
	Iterations   int     `json:"iterations"`
	Improvements int     `json:"improvements"`
	BestCost     float64 `json:"bestCost"`
	Routes       int     `json:"routes"`
}

// Options tune a solve beyond the problem definition.
type Options struct {
	// Budget is the wall-clock budget for the improvement phase.
	// Construction always runs to completion. <=0 skips improvement.
	Budget time.Duration

	// Workers is the number of goroutines scoring candidate moves.
	// Values <=1 evaluate serially. Scoring is read-only; the winning
	// move is always applied by the calling goroutine, and the accepted
	// move is identical regardless of worker count.
	Workers int

	// Progress, when non-nil, receives snapshots between sweeps. Called
	// on the solving goroutine; keep it cheap.
	Progress func(Progress)
}

// Solve builds the problem and runs both search phases. It is the single
// entry point of the core: pure computation, no I/O, reentrant across
// concurrent calls with independent inputs.
func Solve(ctx context.Context, stops []Stop, depot Depot, cfg VehicleConfig, m Matrix, budget time.Duration) (*Solution, error) {
	p, err := BuildProblem(stops, depot, cfg, m)
	if err != nil {
		return nil, err
	}
	return SolveProblem(ctx, p, Options{Budget: budget})
}

// SolveProblem runs construction and improvement on an already-built
// problem. The returned solution covers every node exactly once; on budget
// exhaustion or cancellation the best solution found so far is returned,
// never a partially applied move.
func SolveProblem(ctx context.Context, p *Problem, opts Options) (*Solution, error) {
	e := &engine{p: p, opts: opts}
	start := time.Now()

	routes, err := e.construct(ctx)
	if err != nil {
		return nil, err
	}
	constructed := e.totalCost(routes)
	e.stats.ConstructedCost = constructed
	e.report("constructing", constructed, routes)

	termination := TerminationTimedOut
	if opts.Budget > 0 {
		var timedOut bool
		routes, timedOut = e.improve(ctx, routes, time.Now().Add(opts.Budget))
		if !timedOut {
			termination = TerminationConverged
		}
	}
	e.stats.Elapsed = time.Since(start)
	return p.freeze(routes, e.stats, termination), nil
}

type engine struct {
	p     *Problem
	opts  Options
	stats Stats
}

func (e *engine) report(phase string, best float64, routes [][]int) {
	if e.opts.Progress == nil {
		return
	}
	open := 0
	for _, r := range routes {
		if len(r) > 0 {
			open++
		}
	}
	e.opts.Progress(Progress{
		Phase:        phase,
		Iterations:   e.stats.Iterations,
		Improvements: e.stats.Improvements,
		BestCost:     best,
		Routes:       open,
	})
}

// construct builds an initial feasible assignment by greedy cheapest
// insertion: the (node, route, position) with the smallest marginal cost
// among all unplaced nodes and open routes wins each round. Ties go to the
// smaller resulting route wait, then the smaller node id. A new route opens
// only when no existing route can feasibly accept any remaining node.
func (e *engine) construct(ctx context.Context) ([][]int, error) {
	n := len(e.p.Nodes)
	unplaced := make([]int, n)
	for i := range unplaced {
		unplaced[i] = i
	}
	var routes [][]int
	costs := []float64{}

	for len(unplaced) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("construction canceled: %w", err)
		}
		ins, ok := e.bestInsertion(unplaced, routes, costs)
		if !ok {
			if len(routes) >= e.p.Config.Count {
				return nil, e.constructionFailure(unplaced)
			}
			routes = append(routes, nil)
			costs = append(costs, 0)
			ins, ok = e.bestInsertion(unplaced, routes[len(routes)-1:], costs[len(costs)-1:])
			if !ok {
				return nil, e.constructionFailure(unplaced)
			}
			ins.route += len(routes) - 1
		}
		order := insertAt(routes[ins.route], ins.pos, unplaced[ins.node])
		routes[ins.route] = order
		costs[ins.route] = ins.cost
		unplaced = removeAt(unplaced, ins.node)
	}
	return routes, nil
}

type insertion struct {
	node  int // index into the unplaced slice
	route int
	pos   int
	cost  float64 // resulting route cost
	delta float64
	wait  int
}

// bestInsertion scans unplaced x routes x positions and returns the cheapest
// feasible insertion, or ok=false when none exists.
func (e *engine) bestInsertion(unplaced []int, routes [][]int, costs []float64) (insertion, bool) {
	best := insertion{delta: math.MaxFloat64}
	found := false
	for ui, ni := range unplaced {
		for ri, order := range routes {
			for pos := 0; pos <= len(order); pos++ {
				cand := insertAt(order, pos, ni)
				s, ok := e.p.scheduleRoute(cand)
				if !ok {
					continue
				}
				c := e.p.scheduleCost(s)
				delta := c - costs[ri]
				better := false
				switch {
				case !found:
					better = true
				case delta < best.delta-costEpsilon:
					better = true
				case delta <= best.delta+costEpsilon:
					if s.WaitSec < best.wait {
						better = true
					} else if s.WaitSec == best.wait && e.p.Nodes[ni].ID < e.p.Nodes[unplaced[best.node]].ID {
						better = true
					}
				}
				if better {
					best = insertion{node: ui, route: ri, pos: pos, cost: c, delta: delta, wait: s.WaitSec}
					found = true
				}
			}
		}
	}
	return best, found
}

func (e *engine) constructionFailure(unplaced []int) error {
	n := e.p.Nodes[unplaced[0]]
	return fmt.Errorf("node %d (stop %s window %d) cannot be placed with %d vehicle(s): %w",
		n.ID, n.StopID, n.WindowIdx, e.p.Config.Count, ErrNoFeasibleConstruction)
}

// Neighborhood move kinds, in evaluation order.
const (
	moveRelocate = iota // take node at (a,i), reinsert at (b,j)
	moveSwap            // exchange nodes (a,i) and (b,j)
	moveReverse         // reverse segment [i..j] of route a
)

type move struct {
	kind       int
	a, i, b, j int
}

// improve runs local search until no improving move exists or the deadline
// passes. Moves are enumerated in a fixed lexicographic order (kind, route,
// position) and the first strictly improving feasible move of each sweep is
// applied, so results are reproducible for identical inputs. Returns the
// routes after the last accepted move and whether the deadline cut in.
func (e *engine) improve(ctx context.Context, routes [][]int, deadline time.Time) ([][]int, bool) {
	costs := make([]float64, len(routes))
	for i, r := range routes {
		c, ok := e.p.routeCost(r)
		if !ok && len(r) > 0 {
			panic("solver: constructed route is infeasible")
		}
		costs[i] = c
	}
	for {
		if expired(ctx, deadline) {
			return compactRoutes(routes), true
		}
		moves := e.enumerateMoves(routes)
		mv, ok, timedOut := e.firstImproving(ctx, deadline, routes, costs, moves)
		if timedOut {
			return compactRoutes(routes), true
		}
		if !ok {
			return compactRoutes(routes), false
		}
		routes, costs = e.apply(routes, costs, mv)
		e.stats.Improvements++
		e.report("improving", e.totalCost(routes), routes)
	}
}

// enumerateMoves lists every candidate move for the current routes in the
// canonical order. Only non-empty routes generate moves.
func (e *engine) enumerateMoves(routes [][]int) []move {
	var moves []move
	for a := range routes {
		if len(routes[a]) == 0 {
			continue
		}
		for i := range routes[a] {
			for b := range routes {
				limit := len(routes[b])
				if b == a {
					limit = len(routes[b]) - 1
				}
				for j := 0; j <= limit; j++ {
					if b == a && j == i {
						continue
					}
					moves = append(moves, move{kind: moveRelocate, a: a, i: i, b: b, j: j})
				}
			}
		}
	}
	for a := range routes {
		for b := a + 1; b < len(routes); b++ {
			for i := range routes[a] {
				for j := range routes[b] {
					moves = append(moves, move{kind: moveSwap, a: a, i: i, b: b, j: j})
				}
			}
		}
	}
	for a := range routes {
		for i := 0; i < len(routes[a]); i++ {
			for j := i + 1; j < len(routes[a]); j++ {
				moves = append(moves, move{kind: moveReverse, a: a, i: i, j: j})
			}
		}
	}
	return moves
}

// firstImproving returns the earliest move in the list that strictly
// reduces total cost while staying feasible. With Workers > 1, moves are
// scored in parallel blocks against the read-only routes; the earliest
// improving index still wins, so the outcome matches serial evaluation.
func (e *engine) firstImproving(ctx context.Context, deadline time.Time, routes [][]int, costs []float64, moves []move) (move, bool, bool) {
	workers := e.opts.Workers
	if workers <= 1 {
		for k, mv := range moves {
			if k%64 == 0 && expired(ctx, deadline) {
				return move{}, false, true
			}
			e.stats.Iterations++
			if _, ok := e.evalMove(routes, costs, mv); ok {
				return mv, true, false
			}
		}
		return move{}, false, false
	}

	const block = 512
	results := make([]bool, block)
	for off := 0; off < len(moves); off += block {
		if expired(ctx, deadline) {
			return move{}, false, true
		}
		end := off + block
		if end > len(moves) {
			end = len(moves)
		}
		var wg sync.WaitGroup
		chunk := (end - off + workers - 1) / workers
		for w := 0; w < workers; w++ {
			lo := off + w*chunk
			hi := lo + chunk
			if hi > end {
				hi = end
			}
			if lo >= hi {
				continue
			}
			wg.Add(1)
			go func(lo, hi int) {
				defer wg.Done()
				for k := lo; k < hi; k++ {
					_, ok := e.evalMove(routes, costs, moves[k])
					results[k-off] = ok
				}
			}(lo, hi)
		}
		wg.Wait()
		e.stats.Iterations += end - off
		for k := off; k < end; k++ {
			if results[k-off] {
				return moves[k], true, false
			}
		}
	}
	return move{}, false, false
}

// evalMove scores a single move against a read-only snapshot. It never
// mutates routes. Returns the total-cost delta and whether the move is a
// strict, feasible improvement.
func (e *engine) evalMove(routes [][]int, costs []float64, mv move) (float64, bool) {
	switch mv.kind {
	case moveRelocate:
		node := routes[mv.a][mv.i]
		if mv.a == mv.b {
			cand := insertAt(removeAt(routes[mv.a], mv.i), mv.j, node)
			c, ok := e.p.routeCost(cand)
			if !ok {
				return 0, false
			}
			delta := c - costs[mv.a]
			return delta, delta < -costEpsilon
		}
		candA := removeAt(routes[mv.a], mv.i)
		costA := 0.0
		if len(candA) > 0 {
			var ok bool
			costA, ok = e.p.routeCost(candA)
			if !ok {
				return 0, false
			}
		}
		candB := insertAt(routes[mv.b], mv.j, node)
		costB, ok := e.p.routeCost(candB)
		if !ok {
			return 0, false
		}
		delta := costA + costB - costs[mv.a] - costs[mv.b]
		return delta, delta < -costEpsilon
	case moveSwap:
		candA := append([]int(nil), routes[mv.a]...)
		candB := append([]int(nil), routes[mv.b]...)
		candA[mv.i], candB[mv.j] = candB[mv.j], candA[mv.i]
		costA, ok := e.p.routeCost(candA)
		if !ok {
			return 0, false
		}
		costB, ok := e.p.routeCost(candB)
		if !ok {
			return 0, false
		}
		delta := costA + costB - costs[mv.a] - costs[mv.b]
		return delta, delta < -costEpsilon
	default: // moveReverse
		cand := append([]int(nil), routes[mv.a]...)
		for x, y := mv.i, mv.j; x < y; x, y = x+1, y-1 {
			cand[x], cand[y] = cand[y], cand[x]
		}
		c, ok := e.p.routeCost(cand)
		if !ok {
			return 0, false
		}
		delta := c - costs[mv.a]
		return delta, delta < -costEpsilon
	}
}

// apply executes an accepted move. Route mutation happens only here, on the
// solving goroutine.
func (e *engine) apply(routes [][]int, costs []float64, mv move) ([][]int, []float64) {
	switch mv.kind {
	case moveRelocate:
		node := routes[mv.a][mv.i]
		if mv.a == mv.b {
			routes[mv.a] = insertAt(removeAt(routes[mv.a], mv.i), mv.j, node)
		} else {
			routes[mv.a] = removeAt(routes[mv.a], mv.i)
			routes[mv.b] = insertAt(routes[mv.b], mv.j, node)
		}
	case moveSwap:
		routes[mv.a][mv.i], routes[mv.b][mv.j] = routes[mv.b][mv.j], routes[mv.a][mv.i]
	default:
		for x, y := mv.i, mv.j; x < y; x, y = x+1, y-1 {
			routes[mv.a][x], routes[mv.a][y] = routes[mv.a][y], routes[mv.a][x]
		}
	}
	touched := []int{mv.a, mv.b}
	if mv.kind == moveReverse {
		touched = touched[:1] // b is unused for reversals
	}
	for _, ri := range touched {
		if len(routes[ri]) == 0 {
			costs[ri] = 0
			continue
		}
		c, ok := e.p.routeCost(routes[ri])
		if !ok {
			panic("solver: accepted move produced an infeasible route")
		}
		costs[ri] = c
	}
	return routes, costs
}

func (e *engine) totalCost(routes [][]int) float64 {
	total := 0.0
	for _, r := range routes {
		if len(r) == 0 {
			continue
		}
		c, ok := e.p.routeCost(r)
		if ok {
			total += c
		}
	}
	return total
}

func expired(ctx context.Context, deadline time.Time) bool {
	return ctx.Err() != nil || !time.Now().Before(deadline)
}

func compactRoutes(routes [][]int) [][]int {
	out := routes[:0]
	for _, r := range routes {
		if len(r) > 0 {
			out = append(out, r)
		}
	}
	return out
}

func insertAt(order []int, pos, node int) []int {
	out := make([]int, 0, len(order)+1)
	out = append(out, order[:pos]...)
	out = append(out, node)
	out = append(out, order[pos:]...)
	return out
}

func removeAt(order []int, pos int) []int {
	out := make([]int, 0, len(order)-1)
	out = append(out, order[:pos]...)
	out = append(out, order[pos+1:]...)
	return out
}
