package matrix

import (
	"context"
	"math"

	"labroute/internal/solver"
)

// Haversine is an offline estimator: great-circle distance at a constant
// assumed speed. Useful for tests and for dry runs without a routing
// service; real road networks should use OSRM or Google.
type Haversine struct {
	speedKph float64
}

func NewHaversine(speedKph float64) *Haversine {
	if speedKph <= 0 {
		speedKph = 50
	}
	return &Haversine{speedKph: speedKph}
}

func (h *Haversine) Name() string { return "haversine" }

func (h *Haversine) BuildMatrix(_ context.Context, coords []Coord) (solver.Matrix, error) {
	m := emptyMatrix(len(coords))
	mps := h.speedKph / 3.6
	for i, a := range coords {
		for j, b := range coords {
			if i == j {
				continue
			}
			d := haversineMeters(a.Lat, a.Lon, b.Lat, b.Lon)
			m.DistanceM[i][j] = int(math.Round(d))
			m.TravelSec[i][j] = int(math.Round(d / mps))
		}
	}
	return m, nil
}

func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
