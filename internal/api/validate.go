package api

import (
	"fmt"

	"labroute/internal/config"
	"labroute/internal/matrix"
	"labroute/internal/model"
	"labroute/internal/solver"
)

// solveInput is a request converted into solver terms. Matrix is nil when
// the caller did not supply one and the provider has to be queried.
type solveInput struct {
	Stops  []solver.Stop
	Depot  solver.Depot
	Fleet  solver.VehicleConfig
	Coords []matrix.Coord // depot first, then stops in request order
	Matrix *solver.Matrix
}

// buildSolveInput merges the request with configured defaults and converts
// clock windows into seconds. Structural problems (bad clock strings,
// missing locations) surface here; feasibility is the solver's job.
func buildSolveInput(req model.SolveRequest, cfg config.Config) (solveInput, error) {
	var in solveInput

	if req.Depot != nil {
		if req.Depot.Location == nil {
			return solveInput{}, fmt.Errorf("depot: location required")
		}
		in.Depot = solver.Depot{Lat: req.Depot.Location.Lat, Lon: req.Depot.Location.Lng}
		ws, err := clockWindows(req.Depot.Windows)
		if err != nil {
			return solveInput{}, fmt.Errorf("depot: %w", err)
		}
		in.Depot.Windows = ws
	} else {
		d, err := cfg.Depot.SolverDepot()
		if err != nil {
			return solveInput{}, fmt.Errorf("depot: %w", err)
		}
		in.Depot = d
	}
	in.Coords = append(in.Coords, matrix.Coord{Lat: in.Depot.Lat, Lon: in.Depot.Lon})

	defaultService := cfg.Fleet.DefaultServiceMin * 60
	for i, s := range req.Stops {
		if s.ID == "" {
			return solveInput{}, fmt.Errorf("stops[%d]: id required", i)
		}
		if s.Location == nil {
			return solveInput{}, fmt.Errorf("stops[%d] %s: location required", i, s.ID)
		}
		ws, err := clockWindows(s.Windows)
		if err != nil {
			return solveInput{}, fmt.Errorf("stops[%d] %s: %w", i, s.ID, err)
		}
		svc := s.ServiceSec
		if svc == 0 {
			svc = defaultService
		}
		in.Stops = append(in.Stops, solver.Stop{
			ID:         s.ID,
			Lat:        s.Location.Lat,
			Lon:        s.Location.Lng,
			Windows:    ws,
			ServiceSec: svc,
		})
		in.Coords = append(in.Coords, matrix.Coord{Lat: s.Location.Lat, Lon: s.Location.Lng})
	}

	in.Fleet = cfg.Fleet.VehicleConfig()
	if f := req.Fleet; f != nil {
		if f.Vehicles > 0 {
			in.Fleet.Count = f.Vehicles
		}
		if f.MaxWaitMin > 0 {
			in.Fleet.MaxWaitSec = f.MaxWaitMin * 60
		}
		if f.MaxDurationMin > 0 {
			in.Fleet.MaxDurationSec = f.MaxDurationMin * 60
		}
		if f.CostPerKm > 0 {
			in.Fleet.CostPerKm = f.CostPerKm
		}
		if f.CostPerHour > 0 {
			in.Fleet.CostPerHour = f.CostPerHour
		}
		if f.CostPerRoute > 0 {
			in.Fleet.CostPerRoute = f.CostPerRoute
		}
	}

	if req.Matrix != nil {
		n := len(req.Stops) + 1
		m := solver.Matrix{TravelSec: req.Matrix.TravelSec, DistanceM: req.Matrix.DistanceM}
		if err := m.Validate(n); err != nil {
			return solveInput{}, fmt.Errorf("matrix: %w", err)
		}
		in.Matrix = &m
	}
	return in, nil
}

func clockWindows(ws []model.ClockWindow) ([]solver.Window, error) {
	out := make([]solver.Window, 0, len(ws))
	for _, w := range ws {
		open, err := config.ParseClock(w.Start)
		if err != nil {
			return nil, err
		}
		clos, err := config.ParseClock(w.End)
		if err != nil {
			return nil, err
		}
		out = append(out, solver.Window{Open: open, Close: clos})
	}
	return out, nil
}
