// Package api implements the HTTP surface of the routing service.
package api

import (
	"strings"

	"labroute/internal/config"
	"labroute/internal/matrix"
	"labroute/internal/store"
)

type Server struct {
	Cfg    config.Config
	Store  store.Store
	Matrix matrix.Provider
}

// NewServer wires the store and matrix provider from configuration.
// Without a DATABASE_URL plans live in memory.
func NewServer(cfg config.Config) (*Server, error) {
	var st store.Store
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		st = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		st = sp
	}
	prov, err := matrix.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Server{Cfg: cfg, Store: st, Matrix: prov}, nil
}
