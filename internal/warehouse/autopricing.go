package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ticket-ops/catalog-sync-go/internal/models"
)

// UpsertConfigWithHistory upserts the live config row and appends one history
// row inside a single warehouse transaction. The row-level lock taken by the
// upsert is the only point of serialization for concurrent writers of the
// same key.
func (g *Gateway) UpsertConfigWithHistory(ctx context.Context, key, value, updatedBy string) error {
	tx, err := g.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin config transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO autopricing_config (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("upsert config row: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO autopricing_config_history (key, value, updated_by, history_timestamp)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
	`, key, value, updatedBy)
	if err != nil {
		return fmt.Errorf("append config history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit config transaction: %w", err)
	}
	return nil
}

// GetAllConfig returns every live config key/value ordered by key.
func (g *Gateway) GetAllConfig(ctx context.Context) ([]models.AutopricingConfigEntry, error) {
	rows, err := g.db.Query(ctx, `SELECT key, value FROM autopricing_config ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.AutopricingConfigEntry{}
	for rows.Next() {
		var e models.AutopricingConfigEntry
		if err := rows.Scan(&e.Key, &e.Value); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetConfigHistory returns the full append-only history, newest first.
func (g *Gateway) GetConfigHistory(ctx context.Context) ([]models.AutopricingConfigHistoryEntry, error) {
	rows, err := g.db.Query(ctx, `
		SELECT key, value, updated_by, history_timestamp
		FROM autopricing_config_history
		ORDER BY history_timestamp DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.AutopricingConfigHistoryEntry{}
	for rows.Next() {
		var e models.AutopricingConfigHistoryEntry
		if err := rows.Scan(&e.Key, &e.Value, &e.UpdatedBy, &e.Timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
