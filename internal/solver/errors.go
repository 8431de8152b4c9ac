package solver

import "errors"

// Input validation errors. Any of these means the solve never started.
var (
	// ErrInvalidWindow is returned when a time window has open >= close,
	// or a service duration is negative.
	ErrInvalidWindow = errors.New("invalid time window")

	// ErrOverlappingWindows is returned when a stop's two windows overlap
	// or the second window opens before the first. Windows are never
	// silently reordered.
	ErrOverlappingWindows = errors.New("overlapping time windows")

	// ErrMissingCoordinates is returned when a latitude/longitude is NaN
	// or outside the valid range.
	ErrMissingCoordinates = errors.New("missing or invalid coordinates")

	// ErrDuplicateStop is returned when two stops share an ID.
	ErrDuplicateStop = errors.New("duplicate stop id")

	// ErrIncompleteMatrix is returned when the travel matrix is non-square
	// or does not cover every node index.
	ErrIncompleteMatrix = errors.New("incomplete travel matrix")

	// ErrEmptyProblem is returned when there are no nodes to route.
	ErrEmptyProblem = errors.New("empty problem")

	// ErrInfeasibleNode is returned at build time when a node's window can
	// not be met even by a dedicated vehicle serving only that node.
	ErrInfeasibleNode = errors.New("node infeasible in isolation")
)

// ErrNoFeasibleConstruction is returned when the construction phase cannot
// place every node within the vehicle count and hard constraints. The caller
// must relax configuration; the engine never auto-relaxes.
var ErrNoFeasibleConstruction = errors.New("no feasible construction")
