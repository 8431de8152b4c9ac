package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"labroute/internal/solver"
)

// Problem represents an RFC7807 problem details response body.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, instance string) {
	writeJSON(w, status, Problem{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}

// solveStatus maps solver errors onto HTTP statuses: malformed input is
// unprocessable, a well-formed but unsolvable instance is a conflict.
func solveStatus(err error) (int, string) {
	switch {
	case errors.Is(err, solver.ErrInvalidWindow),
		errors.Is(err, solver.ErrOverlappingWindows),
		errors.Is(err, solver.ErrMissingCoordinates),
		errors.Is(err, solver.ErrDuplicateStop),
		errors.Is(err, solver.ErrIncompleteMatrix),
		errors.Is(err, solver.ErrEmptyProblem):
		return http.StatusUnprocessableEntity, "Invalid problem"
	case errors.Is(err, solver.ErrInfeasibleNode),
		errors.Is(err, solver.ErrNoFeasibleConstruction):
		return http.StatusConflict, "Infeasible problem"
	}
	return http.StatusInternalServerError, "Solve failed"
}
