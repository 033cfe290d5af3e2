package warehouse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ticket-ops/catalog-sync-go/internal/models"
)

// ResolveEvent materializes a BlacklistEntry from the canonical events table,
// looked up by ticketmaster id or by event code. Secondary-marketplace event
// ids are joined in from the universal mapping table for the requested
// markets.
func (g *Gateway) ResolveEvent(ctx context.Context, ticketmasterID, eventCode string, markets []string, addedBy string) (*models.BlacklistEntry, error) {
	var (
		query string
		arg   string
		notes string
	)
	switch {
	case ticketmasterID != "":
		query = `
			SELECT id, event_code, event_name, start_date, url
			FROM ticketmaster_events
			WHERE id = $1
		`
		arg = ticketmasterID
		notes = models.NotesBlacklistTicketmasterID
	case eventCode != "":
		query = `
			SELECT id, event_code, event_name, start_date, url
			FROM ticketmaster_events
			WHERE event_code = $1
		`
		arg = eventCode
		notes = models.NotesBlacklistEventCode
	default:
		return nil, fmt.Errorf("resolve event: no identifier given")
	}

	var entry models.BlacklistEntry
	err := g.db.QueryRow(ctx, query, arg).Scan(
		&entry.ID, &entry.EventCode, &entry.EventName, &entry.StartDate, &entry.URL,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve event: %w", err)
	}

	marketStr := joinMarkets(markets)
	entry.Notes = &notes
	entry.ExpirationDate = entry.StartDate
	entry.AddedBy = &addedBy
	entry.Market = &marketStr
	entry.CreatedAt = time.Now()

	if entry.EventCode != nil {
		if err := g.attachSecondaryEventIDs(ctx, &entry, markets); err != nil {
			return nil, err
		}
	}

	return &entry, nil
}

// ResolveListing materializes a BlacklistEntry from the listing-level rows,
// keyed by the location part of the external identifier. Secondary event ids
// supplied on the request win over absent warehouse values.
func (g *Gateway) ResolveListing(ctx context.Context, req models.CreateBlacklistRequest, addedBy string) (*models.BlacklistEntry, error) {
	externalID := req.ListingID
	if req.Criteria == models.CriteriaListingSection {
		externalID = req.SectionID
	}

	query := `
		SELECT event_id, event_code, event_name, start_date, url,
		       viagogo_event_id, vivid_event_id, seatgeek_event_id, gotickets_event_id
		FROM ticketmaster_listings
		WHERE location_id = split_part($1, ';', 1)
		ORDER BY event_id
		LIMIT 1
	`

	var entry models.BlacklistEntry
	err := g.db.QueryRow(ctx, query, externalID).Scan(
		&entry.ID, &entry.EventCode, &entry.EventName, &entry.StartDate, &entry.URL,
		&entry.ViagogoEventID, &entry.VividEventID, &entry.SeatgeekEventID, &entry.GoticketsEventID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve listing: %w", err)
	}

	if entry.ViagogoEventID == nil {
		entry.ViagogoEventID = req.ViagogoEventID
	}
	if entry.VividEventID == nil {
		entry.VividEventID = req.VividEventID
	}
	if entry.SeatgeekEventID == nil {
		entry.SeatgeekEventID = req.SeatgeekEventID
	}
	if entry.GoticketsEventID == nil {
		entry.GoticketsEventID = req.GoticketsEventID
	}

	marketStr := joinMarkets(req.Market)
	entry.Market = &marketStr
	entry.AddedBy = &addedBy
	entry.ExpirationDate = entry.StartDate
	entry.CreatedAt = time.Now()

	var notes string
	if req.Criteria == models.CriteriaListingSection {
		notes = models.NotesBlacklistSectionCode
		section := req.Section
		entry.Section = &section
	} else {
		notes = models.NotesBlacklistListingID
		entry.Section = nil
	}
	entry.Notes = &notes

	return &entry, nil
}

func (g *Gateway) attachSecondaryEventIDs(ctx context.Context, entry *models.BlacklistEntry, markets []string) error {
	query := `
		SELECT matched_event_id, market
		FROM universal_event_mapping
		WHERE event_code = $1 AND market = ANY($2)
	`
	rows, err := g.db.Query(ctx, query, *entry.EventCode, lowerAll(markets))
	if err != nil {
		return fmt.Errorf("attach secondary event ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var matchedID, market string
		if err := rows.Scan(&matchedID, &market); err != nil {
			return fmt.Errorf("attach secondary event ids: %w", err)
		}
		id := matchedID
		switch models.Marketplace(market) {
		case models.MarketplaceViagogo:
			entry.ViagogoEventID = &id
		case models.MarketplaceVivid:
			entry.VividEventID = &id
		case models.MarketplaceSeatgeek:
			entry.SeatgeekEventID = &id
		case models.MarketplaceGotickets:
			entry.GoticketsEventID = &id
		}
	}
	return rows.Err()
}

// IsBlocked reports whether a matching blacklist entry already exists.
func (g *Gateway) IsBlocked(ctx context.Context, eventCode, notes string, section *string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM blacklist
			WHERE event_code = $1 AND notes = $2 AND section IS NOT DISTINCT FROM $3
		)
	`
	var exists bool
	err := g.db.QueryRow(ctx, query, eventCode, notes, section).Scan(&exists)
	return exists, err
}

// InsertBlacklist inserts the authoritative blacklist row.
func (g *Gateway) InsertBlacklist(ctx context.Context, entry *models.BlacklistEntry) error {
	query := `
		INSERT INTO blacklist
		(id, event_code, event_name, start_date, notes, url, section, expiration_date, added_by, market,
		 viagogo_event_id, vivid_event_id, seatgeek_event_id, gotickets_event_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := g.db.Exec(ctx, query,
		entry.ID, entry.EventCode, entry.EventName, entry.StartDate, entry.Notes,
		entry.URL, entry.Section, entry.ExpirationDate, entry.AddedBy, entry.Market,
		entry.ViagogoEventID, entry.VividEventID, entry.SeatgeekEventID, entry.GoticketsEventID,
	)
	return err
}

// DeleteBlacklist hard-deletes one blacklist row. ErrNotFound when nothing
// matched.
func (g *Gateway) DeleteBlacklist(ctx context.Context, req models.DeleteBlacklistRequest) error {
	var query string
	args := []any{req.ID, req.EventCode, req.Notes}
	if req.Section != nil {
		query = `
			DELETE FROM blacklist
			WHERE id = $1 AND event_code = $2 AND notes = $3 AND section = $4
		`
		args = append(args, *req.Section)
	} else {
		query = `
			DELETE FROM blacklist
			WHERE id = $1 AND event_code = $2 AND notes = $3 AND section IS NULL
		`
	}
	tag, err := g.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertChangeLog appends one row to the per-module blacklist change log,
// recording what changed and who changed it. Separate from the shared audit
// trail, which serializes the whole entry.
func (g *Gateway) InsertChangeLog(ctx context.Context, operation models.AuditOperation, entry *models.BlacklistEntry, addedBy string) error {
	query := `
		INSERT INTO blacklist_change_log
		(id, operation, event_code, event_name, start_date, section, url, added_by, market)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := g.db.Exec(ctx, query,
		uuid.New().String(), string(operation), entry.EventCode, entry.EventName,
		entry.StartDate, entry.Section, entry.URL, addedBy, entry.Market,
	)
	return err
}

// InsertCompat re-writes the denormalized copy consumed by downstream query
// tooling. It is a projection of the authoritative row, not a second source
// of truth.
func (g *Gateway) InsertCompat(ctx context.Context, entry *models.BlacklistEntry) error {
	query := `
		INSERT INTO blacklist_compat
		(id, event_name, start_date, created, notes, url, section, expiration_date, added_by, market)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP, $4, $5, $6, $7, $8, $9)
	`
	_, err := g.db.Exec(ctx, query,
		entry.ID, entry.EventName, entry.StartDate, entry.Notes, entry.URL,
		entry.Section, entry.ExpirationDate, entry.AddedBy, entry.Market,
	)
	return err
}

// DeleteCompat removes the denormalized copy.
func (g *Gateway) DeleteCompat(ctx context.Context, id string, section *string) error {
	if section != nil {
		_, err := g.db.Exec(ctx, `DELETE FROM blacklist_compat WHERE id = $1 AND section = $2`, id, *section)
		return err
	}
	_, err := g.db.Exec(ctx, `DELETE FROM blacklist_compat WHERE id = $1`, id)
	return err
}

// ListBlacklist returns one page of blacklist entries, optionally filtered
// by event code, event name or URL.
func (g *Gateway) ListBlacklist(ctx context.Context, page, pageSize int, search string) (*models.BlacklistPage, error) {
	offset := (page - 1) * pageSize

	baseQuery := `
		SELECT id, event_code, event_name, start_date, notes, url, section,
		       expiration_date, added_by, market, created_at,
		       viagogo_event_id, vivid_event_id, seatgeek_event_id, gotickets_event_id
		FROM blacklist
	`
	countQuery := `SELECT COUNT(*) FROM blacklist`

	var (
		rows pgx.Rows
		err  error
	)
	if search != "" {
		where := ` WHERE event_code ILIKE $3 OR event_name ILIKE $3 OR url ILIKE $3`
		rows, err = g.db.Query(ctx, baseQuery+where+` ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
			pageSize, offset, "%"+search+"%")
	} else {
		rows, err = g.db.Query(ctx, baseQuery+` ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
			pageSize, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pageOut := &models.BlacklistPage{Items: []models.BlacklistEntry{}}
	for rows.Next() {
		var entry models.BlacklistEntry
		if err := rows.Scan(
			&entry.ID, &entry.EventCode, &entry.EventName, &entry.StartDate, &entry.Notes,
			&entry.URL, &entry.Section, &entry.ExpirationDate, &entry.AddedBy, &entry.Market,
			&entry.CreatedAt, &entry.ViagogoEventID, &entry.VividEventID,
			&entry.SeatgeekEventID, &entry.GoticketsEventID,
		); err != nil {
			return nil, err
		}
		pageOut.Items = append(pageOut.Items, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := g.db.QueryRow(ctx, countQuery).Scan(&pageOut.Total); err != nil {
		return nil, err
	}
	return pageOut, nil
}

func joinMarkets(markets []string) string {
	return strings.Join(lowerAll(markets), ",")
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(strings.TrimSpace(s)))
	}
	return out
}
