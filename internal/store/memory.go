package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"labroute/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu    sync.Mutex
	plans map[string]model.Plan // id -> plan
	order []string              // insertion order for stable listing
}

func NewMemory() *Memory {
	return &Memory{plans: map[string]model.Plan{}}
}

func (m *Memory) SavePlan(ctx context.Context, plan model.Plan) (model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if plan.ID == "" {
		plan.ID = uuid.New().String()
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}
	if _, ok := m.plans[plan.ID]; !ok {
		m.order = append(m.order, plan.ID)
	}
	m.plans[plan.ID] = plan
	return plan, nil
}

func (m *Memory) GetPlan(ctx context.Context, id string) (model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return model.Plan{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) ListPlans(ctx context.Context, cursor string, limit int) ([]model.Plan, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	start := 0
	if cursor != "" {
		for i, id := range m.order {
			if id == cursor {
				start = i + 1
				break
			}
		}
	}
	out := []model.Plan{}
	for i := start; i < len(m.order) && len(out) < limit; i++ {
		out = append(out, m.plans[m.order[i]])
	}
	var next string
	if start+len(out) < len(m.order) && len(out) > 0 {
		next = out[len(out)-1].ID
	}
	return out, next, nil
}

func (m *Memory) DeletePlan(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[id]; !ok {
		return ErrNotFound
	}
	delete(m.plans, id)
	for i, pid := range m.order {
		if pid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }
