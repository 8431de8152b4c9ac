// Package config loads service configuration from an optional YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"labroute/internal/solver"
)

// ClockWindow is a [from, to) interval given as "HH:MM" local clock times.
type ClockWindow struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// DepotConfig locates the lab and its delivery windows.
type DepotConfig struct {
	Lat     float64       `yaml:"lat"`
	Lon     float64       `yaml:"lon"`
	Windows []ClockWindow `yaml:"windows"`
}

// FleetConfig carries the default vehicle configuration. Minutes in the file
// to match how dispatchers think; converted to seconds for the solver.
type FleetConfig struct {
	Vehicles            int     `yaml:"vehicles"`
	DefaultServiceMin   int     `yaml:"defaultServiceMin"`
	MaxWaitMin          int     `yaml:"maxWaitMin"`
	MaxRouteDurationMin int     `yaml:"maxRouteDurationMin"`
	CostPerKm           float64 `yaml:"costPerKm"`
	CostPerHour         float64 `yaml:"costPerHour"`
	CostPerRoute        float64 `yaml:"costPerRoute"`
}

// MatrixConfig selects and tunes the travel-matrix provider.
type MatrixConfig struct {
	Provider       string  `yaml:"provider"` // osrm | google | haversine
	OSRMBaseURL    string  `yaml:"osrmBaseUrl"`
	GoogleAPIKey   string  `yaml:"googleApiKey"`
	SpeedKph       float64 `yaml:"speedKph"` // haversine estimator speed
	RequestsPerSec float64 `yaml:"requestsPerSec"`
	CacheTTLMin    int     `yaml:"cacheTtlMin"`
}

// SolveConfig tunes the search defaults.
type SolveConfig struct {
	BudgetSec int `yaml:"budgetSec"`
	Workers   int `yaml:"workers"`
}

// Config is the root configuration value.
type Config struct {
	Port        string       `yaml:"port"`
	DatabaseURL string       `yaml:"databaseUrl"`
	RedisURL    string       `yaml:"redisUrl"`
	APIKey      string       `yaml:"apiKey"`
	Depot       DepotConfig  `yaml:"depot"`
	Fleet       FleetConfig  `yaml:"fleet"`
	Matrix      MatrixConfig `yaml:"matrix"`
	Solve       SolveConfig  `yaml:"solve"`
}

// Default returns the built-in defaults: six vehicles, five minutes of
// service per pickup, a four hour wait cap, no duration cap, 30 s of search.
func Default() Config {
	return Config{
		Port: "8080",
		Fleet: FleetConfig{
			Vehicles:          6,
			DefaultServiceMin: 5,
			MaxWaitMin:        240,
		},
		Matrix: MatrixConfig{
			Provider:       "osrm",
			OSRMBaseURL:    "https://router.project-osrm.org",
			SpeedKph:       50,
			RequestsPerSec: 1,
			CacheTTLMin:    60,
		},
		Solve: SolveConfig{BudgetSec: 30, Workers: 1},
	}
}

// Load reads path (if non-empty) over the defaults, then applies environment
// overrides: PORT, DATABASE_URL, REDIS_URL, API_KEY, MATRIX_PROVIDER,
// OSRM_BASE_URL, GOOGLE_MAPS_API_KEY, SOLVE_BUDGET_SEC.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("MATRIX_PROVIDER"); v != "" {
		cfg.Matrix.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("OSRM_BASE_URL"); v != "" {
		cfg.Matrix.OSRMBaseURL = v
	}
	if v := os.Getenv("GOOGLE_MAPS_API_KEY"); v != "" {
		cfg.Matrix.GoogleAPIKey = v
	}
	if v := os.Getenv("SOLVE_BUDGET_SEC"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: SOLVE_BUDGET_SEC: %w", err)
		}
		cfg.Solve.BudgetSec = n
	}
	return cfg, nil
}

// VehicleConfig converts the fleet defaults into the solver's configuration.
func (f FleetConfig) VehicleConfig() solver.VehicleConfig {
	return solver.VehicleConfig{
		Count:          f.Vehicles,
		MaxWaitSec:     f.MaxWaitMin * 60,
		MaxDurationSec: f.MaxRouteDurationMin * 60,
		CostPerKm:      f.CostPerKm,
		CostPerHour:    f.CostPerHour,
		CostPerRoute:   f.CostPerRoute,
	}
}

// SolverDepot converts the depot section, parsing the clock windows.
func (d DepotConfig) SolverDepot() (solver.Depot, error) {
	out := solver.Depot{Lat: d.Lat, Lon: d.Lon}
	for _, w := range d.Windows {
		win, err := w.Window()
		if err != nil {
			return solver.Depot{}, err
		}
		out.Windows = append(out.Windows, win)
	}
	return out, nil
}

// Window parses the clock pair into a solver window.
func (w ClockWindow) Window() (solver.Window, error) {
	open, err := ParseClock(w.From)
	if err != nil {
		return solver.Window{}, err
	}
	clos, err := ParseClock(w.To)
	if err != nil {
		return solver.Window{}, err
	}
	return solver.Window{Open: open, Close: clos}, nil
}

// ParseClock converts "HH:MM" into seconds since local midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("config: clock time %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("config: clock time %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("config: clock time %q: %w", s, err)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 {
		return 0, fmt.Errorf("config: clock time %q out of range", s)
	}
	return h*3600 + m*60, nil
}
