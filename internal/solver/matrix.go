package solver

import "fmt"

// Matrix holds precomputed travel times and distances for every ordered pair
// of locations. Index 0 is the depot; index i (1..N) is the i-th stop in
// input order. Both nodes expanded from a two-window stop share the stop's
// matrix index. The core treats the matrix as opaque: it never computes,
// caches, or refreshes it.
type Matrix struct {
	TravelSec [][]int // seconds, asymmetric allowed
	DistanceM [][]int // meters
}

// Validate checks that both matrices are square with dimension n.
func (m Matrix) Validate(n int) error {
	if len(m.TravelSec) != n || len(m.DistanceM) != n {
		return fmt.Errorf("%w: got %dx? travel, %dx? distance, want %d locations",
			ErrIncompleteMatrix, len(m.TravelSec), len(m.DistanceM), n)
	}
	for i := 0; i < n; i++ {
		if len(m.TravelSec[i]) != n {
			return fmt.Errorf("%w: travel row %d has %d entries, want %d",
				ErrIncompleteMatrix, i, len(m.TravelSec[i]), n)
		}
		if len(m.DistanceM[i]) != n {
			return fmt.Errorf("%w: distance row %d has %d entries, want %d",
				ErrIncompleteMatrix, i, len(m.DistanceM[i]), n)
		}
	}
	return nil
}

func (m Matrix) travel(from, to int) int { return m.TravelSec[from][to] }
func (m Matrix) dist(from, to int) int   { return m.DistanceM[from][to] }
