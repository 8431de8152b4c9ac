package store

import (
	"context"
	"errors"

	"labroute/internal/model"
)

// Store is the plan persistence interface used by the API server.
type Store interface {
	SavePlan(ctx context.Context, plan model.Plan) (model.Plan, error)
	GetPlan(ctx context.Context, id string) (model.Plan, error)
	ListPlans(ctx context.Context, cursor string, limit int) (items []model.Plan, nextCursor string, err error)
	DeletePlan(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

var ErrNotFound = errors.New("not found")
