package matrix

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"labroute/internal/solver"
)

// OSRM queries the OSRM table service for durations and distances. The
// public demo server is rate limited, so requests go through a limiter.
type OSRM struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewOSRM builds a provider against baseURL (e.g. the public
// router.project-osrm.org). requestsPerSec <= 0 disables throttling.
func NewOSRM(baseURL string, requestsPerSec float64) *OSRM {
	lim := rate.NewLimiter(rate.Inf, 1)
	if requestsPerSec > 0 {
		lim = rate.NewLimiter(rate.Limit(requestsPerSec), 1)
	}
	return &OSRM{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
		limiter: lim,
	}
}

func (o *OSRM) Name() string { return "osrm" }

type osrmTable struct {
	Code      string       `json:"code"`
	Durations [][]*float64 `json:"durations"`
	Distances [][]*float64 `json:"distances"`
}

// BuildMatrix calls /table/v1/driving with duration and distance
// annotations. Null elements (unroutable pairs) get penalty values.
func (o *OSRM) BuildMatrix(ctx context.Context, coords []Coord) (solver.Matrix, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return solver.Matrix{}, fmt.Errorf("matrix: osrm throttle: %w", err)
	}
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = fmt.Sprintf("%f,%f", c.Lon, c.Lat)
	}
	url := fmt.Sprintf("%s/table/v1/driving/%s?annotations=duration,distance", o.baseURL, strings.Join(parts, ";"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return solver.Matrix{}, fmt.Errorf("matrix: osrm request: %w", err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return solver.Matrix{}, fmt.Errorf("matrix: osrm call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return solver.Matrix{}, fmt.Errorf("matrix: osrm status %d", resp.StatusCode)
	}
	var table osrmTable
	if err := json.NewDecoder(resp.Body).Decode(&table); err != nil {
		return solver.Matrix{}, fmt.Errorf("matrix: osrm decode: %w", err)
	}
	if table.Code != "Ok" {
		return solver.Matrix{}, fmt.Errorf("matrix: osrm code %s", table.Code)
	}
	n := len(coords)
	if len(table.Durations) != n || len(table.Distances) != n {
		return solver.Matrix{}, fmt.Errorf("matrix: osrm returned %dx matrix, want %d", len(table.Durations), n)
	}
	m := emptyMatrix(n)
	for i := 0; i < n; i++ {
		if len(table.Durations[i]) != n || len(table.Distances[i]) != n {
			return solver.Matrix{}, fmt.Errorf("matrix: osrm row %d incomplete", i)
		}
		for j := 0; j < n; j++ {
			m.TravelSec[i][j] = cellOrPenalty(table.Durations[i][j], penaltyTravelSec)
			m.DistanceM[i][j] = cellOrPenalty(table.Distances[i][j], penaltyDistM)
		}
	}
	return m, nil
}

func cellOrPenalty(v *float64, penalty int) int {
	if v == nil {
		return penalty
	}
	return int(math.Round(*v))
}
