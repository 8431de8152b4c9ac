package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"labroute/internal/model"
)

// Postgres persists plans in a single table with JSONB payloads.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	p := &Postgres{db: db}
	if err := p.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS plans (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		request JSONB NOT NULL,
		solution JSONB NOT NULL
	)`)
	return err
}

func (p *Postgres) SavePlan(ctx context.Context, plan model.Plan) (model.Plan, error) {
	if plan.ID == "" {
		plan.ID = uuid.New().String()
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}
	req, err := json.Marshal(plan.Request)
	if err != nil {
		return model.Plan{}, err
	}
	sol, err := json.Marshal(plan.Solution)
	if err != nil {
		return model.Plan{}, err
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO plans (id, name, created_at, request, solution)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, request=EXCLUDED.request, solution=EXCLUDED.solution`,
		plan.ID, plan.Name, plan.CreatedAt, req, sol)
	if err != nil {
		return model.Plan{}, err
	}
	return plan, nil
}

func (p *Postgres) GetPlan(ctx context.Context, id string) (model.Plan, error) {
	var plan model.Plan
	var req, sol []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT id::text, name, created_at, request, solution FROM plans WHERE id::text=$1`, id).
		Scan(&plan.ID, &plan.Name, &plan.CreatedAt, &req, &sol)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Plan{}, ErrNotFound
	}
	if err != nil {
		return model.Plan{}, err
	}
	if err := json.Unmarshal(req, &plan.Request); err != nil {
		return model.Plan{}, err
	}
	if err := json.Unmarshal(sol, &plan.Solution); err != nil {
		return model.Plan{}, err
	}
	return plan, nil
}

func (p *Postgres) ListPlans(ctx context.Context, cursor string, limit int) ([]model.Plan, string, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows *sql.Rows
	var err error
	if cursor != "" {
		rows, err = p.db.QueryContext(ctx, `SELECT id::text, name, created_at, request, solution
			FROM plans WHERE id::text > $1 ORDER BY id LIMIT $2`, cursor, limit)
	} else {
		rows, err = p.db.QueryContext(ctx, `SELECT id::text, name, created_at, request, solution
			FROM plans ORDER BY id LIMIT $1`, limit)
	}
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []model.Plan{}
	for rows.Next() {
		var plan model.Plan
		var req, sol []byte
		if err := rows.Scan(&plan.ID, &plan.Name, &plan.CreatedAt, &req, &sol); err != nil {
			return nil, "", err
		}
		if err := json.Unmarshal(req, &plan.Request); err != nil {
			return nil, "", err
		}
		if err := json.Unmarshal(sol, &plan.Solution); err != nil {
			return nil, "", err
		}
		out = append(out, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	var next string
	if len(out) == limit {
		next = out[len(out)-1].ID
	}
	return out, next, nil
}

func (p *Postgres) DeletePlan(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM plans WHERE id::text=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }
