package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ticket-ops/catalog-sync-go/internal/models"
)

// mappingTables whitelists the per-marketplace mapping tables so the
// marketplace name is never interpolated into SQL from user input.
var mappingTables = map[models.Marketplace]struct {
	table    string
	idColumn string
}{
	models.MarketplaceViagogo: {table: "viagogo_event_mapping", idColumn: "viagogo_event_id"},
	models.MarketplaceVivid:   {table: "vivid_event_mapping", idColumn: "vivid_event_id"},
}

// MappingStore runs single-row conditional updates against one marketplace's
// event-mapping table. Rows are pre-populated by the discovery process; the
// store only ever updates them.
type MappingStore struct {
	db          *pgxpool.Pool
	marketplace models.Marketplace
	table       string
	idColumn    string
}

// NewMappingStore returns the store for one secondary marketplace.
func NewMappingStore(db *pgxpool.Pool, marketplace models.Marketplace) (*MappingStore, error) {
	t, ok := mappingTables[marketplace]
	if !ok {
		return nil, fmt.Errorf("unsupported marketplace: %s", marketplace)
	}
	return &MappingStore{
		db:          db,
		marketplace: marketplace,
		table:       t.table,
		idColumn:    t.idColumn,
	}, nil
}

// Marketplace returns the marketplace this store is scoped to.
func (s *MappingStore) Marketplace() models.Marketplace {
	return s.marketplace
}

// SetEventID records the secondary-marketplace identifier and clears any
// ignore marker in the same statement, keeping the two fields mutually
// exclusive. Last write wins; there is no optimistic-concurrency check.
func (s *MappingStore) SetEventID(ctx context.Context, eventCode, secondaryID string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, ignore = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE event_code = $1
	`, s.table, s.idColumn)
	tag, err := s.db.Exec(ctx, query, eventCode, secondaryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetIgnore marks or unmarks an event as not-to-be-mapped. Marking clears the
// identifier in the same statement; unmarking sets the marker to an explicit
// NULL, never a falsy string.
func (s *MappingStore) SetIgnore(ctx context.Context, eventCode string, ignore bool) error {
	var query string
	if ignore {
		query = fmt.Sprintf(`
			UPDATE %s
			SET ignore = 'True', %s = NULL, updated_at = CURRENT_TIMESTAMP
			WHERE event_code = $1
		`, s.table, s.idColumn)
	} else {
		query = fmt.Sprintf(`
			UPDATE %s
			SET ignore = NULL, updated_at = CURRENT_TIMESTAMP
			WHERE event_code = $1
		`, s.table)
	}
	tag, err := s.db.Exec(ctx, query, eventCode)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearEventID removes the secondary-marketplace identifier, returning the
// event to the unmapped state.
func (s *MappingStore) ClearEventID(ctx context.Context, eventCode string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE event_code = $1
	`, s.table, s.idColumn)
	tag, err := s.db.Exec(ctx, query, eventCode)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns the mapping row for one event code.
func (s *MappingStore) Get(ctx context.Context, eventCode string) (*models.EventMapping, error) {
	query := fmt.Sprintf(`
		SELECT event_code, %s, ignore, updated_at
		FROM %s
		WHERE event_code = $1
	`, s.idColumn, s.table)

	var m models.EventMapping
	err := s.db.QueryRow(ctx, query, eventCode).Scan(&m.EventCode, &m.SecondaryID, &m.Ignore, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UnmappedEvents returns one page of events with no secondary identifier.
func (s *MappingStore) UnmappedEvents(ctx context.Context, page, pageSize int) ([]models.UnmappedEvent, error) {
	offset := (page - 1) * pageSize
	query := fmt.Sprintf(`
		SELECT e.event_name, e.start_date, e.datetime_added, e.venue, e.event_code,
		       e.url, e.available_seats, m.ignore IS NOT NULL AS ignore
		FROM ticketmaster_events e
		JOIN %s m ON m.event_code = e.event_code
		WHERE m.%s IS NULL
		ORDER BY e.event_code
		LIMIT $1 OFFSET $2
	`, s.table, s.idColumn)

	rows, err := s.db.Query(ctx, query, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.UnmappedEvent{}
	for rows.Next() {
		var ev models.UnmappedEvent
		if err := rows.Scan(
			&ev.EventName, &ev.StartDate, &ev.DatetimeAdded, &ev.Venue, &ev.EventCode,
			&ev.URL, &ev.AvailableSeats, &ev.Ignore,
		); err != nil {
			return nil, err
		}
		ev.Primary = "Ticketmaster"
		events = append(events, ev)
	}
	return events, rows.Err()
}

// SearchMapped returns mapped events filtered by name or canonical code.
func (s *MappingStore) SearchMapped(ctx context.Context, search models.MappedEventSearch) ([]models.MappedEvent, error) {
	query := fmt.Sprintf(`
		SELECT e.event_name, e.event_code, m.%s, e.start_date, e.venue
		FROM ticketmaster_events e
		JOIN %s m ON m.event_code = e.event_code
		WHERE m.%s IS NOT NULL
	`, s.idColumn, s.table, s.idColumn)

	var args []any
	switch {
	case search.EventName != nil:
		query += ` AND e.event_name ILIKE $1`
		args = append(args, "%"+*search.EventName+"%")
	case search.EventCode != nil:
		query += ` AND e.event_code = $1`
		args = append(args, *search.EventCode)
	}
	query += ` ORDER BY e.event_code`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.MappedEvent{}
	for rows.Next() {
		var ev models.MappedEvent
		if err := rows.Scan(&ev.EventName, &ev.EventCode, &ev.SecondaryID, &ev.StartDate, &ev.Venue); err != nil {
			return nil, err
		}
		ev.Primary = "Ticketmaster"
		events = append(events, ev)
	}
	return events, rows.Err()
}
