// Package audit appends an immutable record of who changed what. The trail
// is write-only from the orchestrators' perspective and is recorded
// independently of whether downstream propagation succeeds.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ticket-ops/catalog-sync-go/internal/models"
)

// Recorder appends audit log entries to the warehouse.
type Recorder struct {
	db *pgxpool.Pool
}

// New creates a new Recorder instance with the provided connection pool.
func New(db *pgxpool.Pool) *Recorder {
	return &Recorder{db: db}
}

// Record inserts one entry. ID and timestamp are filled in when absent so
// callers only provide the who/what.
func (r *Recorder) Record(ctx context.Context, entry models.AuditLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Created.IsZero() {
		entry.Created = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO audit_log (id, operation, module, acting_user, data, created)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.ID, entry.Operation, entry.Module, entry.User, entry.Data, entry.Created)
	return err
}
