// Package catalog writes to the secondary read-optimized store consulted by
// live pricing code. It is an eventually-consistent mirror of the warehouse;
// failures here are logged by callers, never fatal.
package catalog

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store mirrors selected warehouse rows into the realtime catalog database.
type Store struct {
	db *pgxpool.Pool
}

// New creates a new Store instance with the provided connection pool.
func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// UpsertConfig mirrors one autopricing config key/value.
func (s *Store) UpsertConfig(ctx context.Context, key, value string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO autopricing_config (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value
	`, key, value)
	return err
}
