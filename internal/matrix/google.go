package matrix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"labroute/internal/solver"
)

const googleEndpoint = "https://routes.googleapis.com/distanceMatrix/v2:computeRouteMatrix"

// Google queries the Routes API computeRouteMatrix endpoint.
type Google struct {
	apiKey   string
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
}

func NewGoogle(apiKey string, requestsPerSec float64) *Google {
	lim := rate.NewLimiter(rate.Inf, 1)
	if requestsPerSec > 0 {
		lim = rate.NewLimiter(rate.Limit(requestsPerSec), 1)
	}
	return &Google{
		apiKey:   apiKey,
		endpoint: googleEndpoint,
		client:   &http.Client{Timeout: 120 * time.Second},
		limiter:  lim,
	}
}

func (g *Google) Name() string { return "google" }

type googleWaypoint struct {
	Waypoint struct {
		Location struct {
			LatLng struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"latLng"`
		} `json:"location"`
	} `json:"waypoint"`
}

type googleElement struct {
	OriginIndex      int    `json:"originIndex"`
	DestinationIndex int    `json:"destinationIndex"`
	Duration         string `json:"duration"` // "123s"
	DistanceMeters   int    `json:"distanceMeters"`
	Status           struct {
		Code int `json:"code"`
	} `json:"status"`
}

func (g *Google) BuildMatrix(ctx context.Context, coords []Coord) (solver.Matrix, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return solver.Matrix{}, fmt.Errorf("matrix: google throttle: %w", err)
	}
	points := make([]googleWaypoint, len(coords))
	for i, c := range coords {
		points[i].Waypoint.Location.LatLng.Latitude = c.Lat
		points[i].Waypoint.Location.LatLng.Longitude = c.Lon
	}
	body, err := json.Marshal(map[string]any{
		"origins":      points,
		"destinations": points,
		"travelMode":   "DRIVE",
	})
	if err != nil {
		return solver.Matrix{}, fmt.Errorf("matrix: google encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return solver.Matrix{}, fmt.Errorf("matrix: google request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", g.apiKey)
	req.Header.Set("X-Goog-FieldMask", "originIndex,destinationIndex,duration,distanceMeters,status")

	resp, err := g.client.Do(req)
	if err != nil {
		return solver.Matrix{}, fmt.Errorf("matrix: google call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return solver.Matrix{}, fmt.Errorf("matrix: google status %d", resp.StatusCode)
	}
	var elements []googleElement
	if err := json.NewDecoder(resp.Body).Decode(&elements); err != nil {
		return solver.Matrix{}, fmt.Errorf("matrix: google decode: %w", err)
	}
	m := emptyMatrix(len(coords))
	for _, el := range elements {
		if el.OriginIndex < 0 || el.OriginIndex >= len(coords) ||
			el.DestinationIndex < 0 || el.DestinationIndex >= len(coords) {
			return solver.Matrix{}, fmt.Errorf("matrix: google element out of range: %d,%d", el.OriginIndex, el.DestinationIndex)
		}
		if el.Status.Code != 0 {
			m.TravelSec[el.OriginIndex][el.DestinationIndex] = penaltyTravelSec
			m.DistanceM[el.OriginIndex][el.DestinationIndex] = penaltyDistM
			continue
		}
		m.TravelSec[el.OriginIndex][el.DestinationIndex] = parseGoogleDuration(el.Duration)
		m.DistanceM[el.OriginIndex][el.DestinationIndex] = el.DistanceMeters
	}
	return m, nil
}

// parseGoogleDuration handles the "123s" wire form; malformed values fall
// back to zero, matching self-pairs the API omits entirely.
func parseGoogleDuration(s string) int {
	s = strings.TrimSuffix(s, "s")
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int(f)
}
