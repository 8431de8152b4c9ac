// Package matrix acquires travel-time/distance matrices for the solver from
// external routing services or an offline estimator. The solver core never
// touches this package; it only consumes the finished solver.Matrix.
package matrix

import (
	"context"
	"fmt"

	"labroute/internal/config"
	"labroute/internal/solver"
)

// Coord is a WGS84 coordinate pair. Index 0 of a request is the depot.
type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Provider produces a square matrix over the given coordinates. Providers do
// not retry: a failed fetch is returned to the caller as-is.
type Provider interface {
	Name() string
	BuildMatrix(ctx context.Context, coords []Coord) (solver.Matrix, error)
}

// Penalty values for unreachable pairs, matching what downstream feasibility
// checks will always reject.
const (
	penaltyTravelSec = 1_000_000
	penaltyDistM     = 1_000_000_000
)

// New selects a provider from configuration and wraps it in the Redis cache
// when a Redis URL is configured.
func New(cfg config.Config) (Provider, error) {
	var p Provider
	switch cfg.Matrix.Provider {
	case "osrm", "":
		p = NewOSRM(cfg.Matrix.OSRMBaseURL, cfg.Matrix.RequestsPerSec)
	case "google":
		if cfg.Matrix.GoogleAPIKey == "" {
			return nil, fmt.Errorf("matrix: google provider needs GOOGLE_MAPS_API_KEY")
		}
		p = NewGoogle(cfg.Matrix.GoogleAPIKey, cfg.Matrix.RequestsPerSec)
	case "haversine":
		p = NewHaversine(cfg.Matrix.SpeedKph)
	default:
		return nil, fmt.Errorf("matrix: unknown provider %q", cfg.Matrix.Provider)
	}
	if cfg.RedisURL != "" {
		c, err := NewCache(cfg.RedisURL, p, cfg.Matrix.CacheTTLMin)
		if err != nil {
			return nil, err
		}
		p = c
	}
	return p, nil
}

func emptyMatrix(n int) solver.Matrix {
	travel := make([][]int, n)
	dist := make([][]int, n)
	for i := range travel {
		travel[i] = make([]int, n)
		dist[i] = make([]int, n)
	}
	return solver.Matrix{TravelSec: travel, DistanceM: dist}
}
