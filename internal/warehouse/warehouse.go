// Package warehouse executes transactional reads and writes against the
// authoritative analytical store. All downstream stores are projections of
// what is written here.
package warehouse

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a query resolves to zero rows.
var ErrNotFound = errors.New("warehouse: not found")

// Gateway handles all warehouse operations for the sync engine.
type Gateway struct {
	db *pgxpool.Pool
}

// New creates a new Gateway instance with the provided connection pool.
func New(db *pgxpool.Pool) *Gateway {
	return &Gateway{db: db}
}

// Pool exposes the underlying pool for components that share the warehouse
// connection, such as the audit recorder.
func (g *Gateway) Pool() *pgxpool.Pool {
	return g.db
}

// Ping verifies warehouse connectivity.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.db.Ping(ctx)
}
