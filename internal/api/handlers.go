package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"labroute/internal/buildinfo"
	"labroute/internal/metrics"
	"labroute/internal/model"
	"labroute/internal/solver"
	"labroute/internal/store"
)

// SolveHandler handles POST /v1/solve: builds the travel matrix, runs the
// search, and optionally persists the result as a plan.
func (s *Server) SolveHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	plan, status, prob := s.solve(r.Context(), req, nil)
	if prob != nil {
		metrics.SolveRuns.WithLabelValues(outcomeFor(status)).Inc()
		writeProblem(w, status, prob.Title, prob.Detail, r.URL.Path)
		return
	}
	metrics.SolveRuns.WithLabelValues(plan.Solution.Termination).Inc()
	metrics.SolveRoutes.Observe(float64(len(plan.Solution.Routes)))
	writeJSON(w, http.StatusOK, plan)
}

// solve runs the full pipeline shared by the plain and streaming endpoints.
// On failure it returns an HTTP status plus problem content instead of a plan.
func (s *Server) solve(ctx context.Context, req model.SolveRequest, progress func(solver.Progress)) (model.Plan, int, *Problem) {
	in, err := buildSolveInput(req, s.Cfg)
	if err != nil {
		return model.Plan{}, http.StatusUnprocessableEntity, &Problem{Title: "Invalid solve request", Detail: err.Error()}
	}

	m := solver.Matrix{}
	if in.Matrix != nil {
		m = *in.Matrix
	} else {
		m, err = s.Matrix.BuildMatrix(ctx, in.Coords)
		if err != nil {
			log.Printf("matrix provider %s: %v", s.Matrix.Name(), err)
			return model.Plan{}, http.StatusBadGateway, &Problem{Title: "Matrix provider failed", Detail: err.Error()}
		}
	}

	p, err := solver.BuildProblem(in.Stops, in.Depot, in.Fleet, m)
	if err != nil {
		status, title := solveStatus(err)
		return model.Plan{}, status, &Problem{Title: title, Detail: err.Error()}
	}

	budget := time.Duration(s.Cfg.Solve.BudgetSec) * time.Second
	if req.BudgetSec > 0 {
		budget = time.Duration(req.BudgetSec) * time.Second
	}
	started := time.Now()
	sol, err := solver.SolveProblem(ctx, p, solver.Options{
		Budget:   budget,
		Workers:  s.Cfg.Solve.Workers,
		Progress: progress,
	})
	metrics.SolveDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		status, title := solveStatus(err)
		return model.Plan{}, status, &Problem{Title: title, Detail: err.Error()}
	}

	plan := model.Plan{Name: req.Name, Request: req, Solution: sol}
	if req.Save {
		plan, err = s.Store.SavePlan(ctx, plan)
		if err != nil {
			return model.Plan{}, http.StatusInternalServerError, &Problem{Title: "Save plan failed", Detail: err.Error()}
		}
	}
	return plan, 0, nil
}

func outcomeFor(status int) string {
	switch status {
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		return "invalid"
	case http.StatusConflict:
		return "infeasible"
	}
	return "error"
}

// PlansHandler handles GET /v1/plans.
func (s *Server) PlansHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	items, next, err := s.Store.ListPlans(r.Context(), r.URL.Query().Get("cursor"), limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List plans failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

// PlanByIDHandler handles GET/DELETE /v1/plans/{id}.
func (s *Server) PlanByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/plans/")
	if id == "" || strings.Contains(id, "/") {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	switch r.Method {
	case http.MethodGet:
		plan, err := s.Store.GetPlan(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Plan not found", "", r.URL.Path)
			return
		}
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Get plan failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, plan)
	case http.MethodDelete:
		err := s.Store.DeletePlan(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Plan not found", "", r.URL.Path)
			return
		}
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Delete plan failed", err.Error(), r.URL.Path)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// HealthHandler reports liveness plus build information.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	info := buildinfo.Info()
	info["status"] = "ok"
	writeJSON(w, http.StatusOK, info)
}

// ReadyHandler reports readiness: the store must answer.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.Store.Ping(ctx); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Store unavailable", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
