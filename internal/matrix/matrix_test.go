package matrix

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

var testCoords = []Coord{
	{Lat: 53.054218, Lon: 9.031621}, // depot
	{Lat: 53.10, Lon: 9.10},
	{Lat: 53.20, Lon: 9.05},
}

func TestHaversineMatrix(t *testing.T) {
	p := NewHaversine(50)
	m, err := p.BuildMatrix(context.Background(), testCoords)
	if err != nil {
		t.Fatalf("BuildMatrix: %v", err)
	}
	n := len(testCoords)
	for i := 0; i < n; i++ {
		if m.TravelSec[i][i] != 0 || m.DistanceM[i][i] != 0 {
			t.Errorf("self pair %d not zero", i)
		}
		for j := 0; j < n; j++ {
			if i != j && m.TravelSec[i][j] <= 0 {
				t.Errorf("travel %d->%d = %d", i, j, m.TravelSec[i][j])
			}
			if m.TravelSec[i][j] != m.TravelSec[j][i] {
				t.Errorf("haversine should be symmetric: %d->%d", i, j)
			}
		}
	}
	// ~0.05 degrees of latitude is ~5.5 km; at 50 km/h that is ~400s.
	if d := m.DistanceM[0][1]; d < 4000 || d > 9000 {
		t.Errorf("depot->1 distance %dm implausible", d)
	}
}

func TestOSRMBuildMatrix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("annotations") != "duration,distance" {
			t.Errorf("annotations = %q", r.URL.Query().Get("annotations"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"code": "Ok",
			"durations": [[0, 600.4], [610.0, 0]],
			"distances": [[0, 5000.6], [null, 0]]
		}`))
	}))
	defer srv.Close()

	p := NewOSRM(srv.URL, 0)
	m, err := p.BuildMatrix(context.Background(), testCoords[:2])
	if err != nil {
		t.Fatalf("BuildMatrix: %v", err)
	}
	if m.TravelSec[0][1] != 600 || m.TravelSec[1][0] != 610 {
		t.Errorf("durations = %v", m.TravelSec)
	}
	if m.DistanceM[0][1] != 5001 {
		t.Errorf("distance rounded = %d, want 5001", m.DistanceM[0][1])
	}
	if m.DistanceM[1][0] != penaltyDistM {
		t.Errorf("null element should get the penalty, got %d", m.DistanceM[1][0])
	}
}

func TestOSRMErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"code": "NoTable"}`))
	}))
	defer srv.Close()
	if _, err := NewOSRM(srv.URL, 0).BuildMatrix(context.Background(), testCoords[:2]); err == nil {
		t.Fatal("expected error for non-Ok code")
	}
}

func TestGoogleBuildMatrix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Goog-Api-Key") != "test-key" {
			t.Errorf("api key header missing")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"originIndex":0,"destinationIndex":1,"duration":"600s","distanceMeters":5000,"status":{}},
			{"originIndex":1,"destinationIndex":0,"duration":"610s","distanceMeters":5100,"status":{}},
			{"originIndex":0,"destinationIndex":0,"duration":"0s","distanceMeters":0,"status":{}},
			{"originIndex":1,"destinationIndex":1,"status":{"code":5}}
		]`))
	}))
	defer srv.Close()

	p := NewGoogle("test-key", 0)
	p.endpoint = srv.URL
	m, err := p.BuildMatrix(context.Background(), testCoords[:2])
	if err != nil {
		t.Fatalf("BuildMatrix: %v", err)
	}
	if m.TravelSec[0][1] != 600 || m.DistanceM[1][0] != 5100 {
		t.Errorf("matrix = %v / %v", m.TravelSec, m.DistanceM)
	}
	if m.TravelSec[1][1] != penaltyTravelSec {
		t.Errorf("failed element should get the penalty, got %d", m.TravelSec[1][1])
	}
}

func TestCacheKeyStable(t *testing.T) {
	a := cacheKey("osrm", testCoords)
	b := cacheKey("osrm", testCoords)
	if a != b {
		t.Fatal("cache key not deterministic")
	}
	if a == cacheKey("google", testCoords) {
		t.Error("provider must be part of the key")
	}
	moved := append([]Coord(nil), testCoords...)
	moved[1].Lat += 0.01
	if a == cacheKey("osrm", moved) {
		t.Error("coordinates must be part of the key")
	}
	// Sub-centimeter jitter rounds away.
	jittered := append([]Coord(nil), testCoords...)
	jittered[1].Lat += 1e-9
	if a != cacheKey("osrm", jittered) {
		t.Error("float noise should not fragment the cache")
	}
}
