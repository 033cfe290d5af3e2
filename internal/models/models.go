// Package models contains the data models and DTOs for the catalog sync engine.
package models

import (
	"time"
)

// Marketplace identifies a secondary marketplace a canonical event can be
// mapped to.
type Marketplace string

// Marketplace constants define the secondary marketplaces the engine manages.
const (
	MarketplaceViagogo   Marketplace = "viagogo"
	MarketplaceVivid     Marketplace = "vivid"
	MarketplaceSeatgeek  Marketplace = "seatgeek"
	MarketplaceGotickets Marketplace = "gotickets"
)

// BlacklistCriteria selects how a blacklist target is resolved from the
// warehouse before it is materialized into an entry.
type BlacklistCriteria string

// BlacklistCriteria constants define the supported resolution paths.
const (
	CriteriaTicketmasterID BlacklistCriteria = "ticketmaster_id"
	CriteriaEventCode      BlacklistCriteria = "event_code"
	CriteriaListingID      BlacklistCriteria = "listing_id"
	CriteriaListingSection BlacklistCriteria = "listing_section"
)

// Reason notes recorded on a blacklist entry per criteria, consumed
// downstream as event_blacklisted_reason.
const (
	NotesBlacklistTicketmasterID = "blacklist_tm_id"
	NotesBlacklistEventCode      = "blacklist_event_code"
	NotesBlacklistListingID      = "blacklist_listing_id"
	NotesBlacklistSectionCode    = "blacklist_section_code"
)

// BlacklistEntry identifies a blocked unit of inventory. At least one of
// event code, listing id, or section-scoped id is always set; duplicates are
// not prevented by the store and consumers treat them idempotently.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type BlacklistEntry struct {
	ID               string     `json:"id"`
	EventCode        *string    `json:"event_code"`
	EventName        *string    `json:"event_name"`
	StartDate        *time.Time `json:"start_date"`
	Notes            *string    `json:"notes"`
	URL              *string    `json:"url"`
	Section          *string    `json:"section"`
	ExpirationDate   *time.Time `json:"expiration_date"`
	AddedBy          *string    `json:"added_by"`
	Market           *string    `json:"market"`
	CreatedAt        time.Time  `json:"created_at"`
	ViagogoEventID   *string    `json:"viagogo_event_id,omitempty"`
	VividEventID     *string    `json:"vivid_event_id,omitempty"`
	SeatgeekEventID  *string    `json:"seatgeek_event_id,omitempty"`
	GoticketsEventID *string    `json:"gotickets_event_id,omitempty"`
}

// CreateBlacklistRequest is the tagged-variant request for blacklist
// creation; Criteria decides which identifier fields must be present.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type CreateBlacklistRequest struct {
	Criteria         BlacklistCriteria `json:"criteria"`
	TicketmasterID   string            `json:"id,omitempty"`
	EventCode        string            `json:"event_code,omitempty"`
	ListingID        string            `json:"listing_id,omitempty"`
	Section          string            `json:"section,omitempty"`
	SectionID        string            `json:"section_id,omitempty"`
	Market           []string          `json:"market"`
	ViagogoEventID   *string           `json:"viagogo_event_id,omitempty"`
	VividEventID     *string           `json:"vivid_event_id,omitempty"`
	SeatgeekEventID  *string           `json:"seatgeek_event_id,omitempty"`
	GoticketsEventID *string           `json:"gotickets_event_id,omitempty"`
}

// DeleteBlacklistRequest removes one blacklist entry. Section narrows the
// match for section-scoped blocks.
type DeleteBlacklistRequest struct {
	ID        string  `json:"id" binding:"required"`
	EventCode string  `json:"event_code" binding:"required"`
	Notes     string  `json:"notes" binding:"required"`
	Section   *string `json:"section,omitempty"`
}

// BlacklistPage is a paginated blacklist listing.
type BlacklistPage struct {
	Items []BlacklistEntry `json:"items"`
	Total int              `json:"total"`
}

// EventMapping is the link between a canonical event and its identifier in
// one secondary marketplace. SecondaryID and Ignore are mutually exclusive;
// the orchestrator clears the opposing field on every transition.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type EventMapping struct {
	EventCode   string     `json:"event_code"`
	SecondaryID *string    `json:"secondary_id"`
	Ignore      *string    `json:"ignore"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// UnmappedEvent is a warehouse event that has no secondary-marketplace
// identifier yet.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type UnmappedEvent struct {
	EventName      string     `json:"event_name"`
	StartDate      *time.Time `json:"start_date"`
	DatetimeAdded  *time.Time `json:"datetime_added"`
	Venue          *string    `json:"venue"`
	EventCode      string     `json:"event_code"`
	URL            *string    `json:"url"`
	AvailableSeats *int       `json:"available_seats"`
	Ignore         bool       `json:"ignore"`
	Primary        string     `json:"primary"`
}

// MappedEvent is an event with an active secondary-marketplace identifier.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type MappedEvent struct {
	EventName   string     `json:"event_name"`
	EventCode   string     `json:"event_code"`
	SecondaryID string     `json:"secondary_id"`
	StartDate   *time.Time `json:"start_date"`
	Venue       *string    `json:"venue"`
	Primary     string     `json:"primary"`
}

// MappedEventSearch filters mapped events by name or canonical code.
type MappedEventSearch struct {
	EventName *string `json:"event_name,omitempty"`
	EventCode *string `json:"ticketmaster_event_code,omitempty"`
}

// UpdateMappingRequest sets the secondary-marketplace identifier.
type UpdateMappingRequest struct {
	EventCode   string `json:"ticketmaster_event_code" binding:"required"`
	SecondaryID string `json:"secondary_event_id" binding:"required"`
}

// UpdateIgnoreRequest marks or unmarks an event as not-to-be-mapped.
type UpdateIgnoreRequest struct {
	EventCode string `json:"ticketmaster_event_code" binding:"required"`
	Ignore    bool   `json:"ignore"`
}

// RemoveMappingRequest clears the secondary-marketplace identifier.
type RemoveMappingRequest struct {
	EventCode string `json:"ticketmaster_event_code" binding:"required"`
}

// AutopricingConfigEntry is one live key/value configuration row.
type AutopricingConfigEntry struct {
	Key   string  `json:"key"`
	Value *string `json:"value"`
}

// AutopricingConfigHistoryEntry is one append-only history row. History is
// never mutated or deleted.
type AutopricingConfigHistoryEntry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedBy string    `json:"updated_by"`
	Timestamp time.Time `json:"history_timestamp"`
}

// ConfigUpdateRequest upserts one config key.
type ConfigUpdateRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value" binding:"required"`
}

// AccountFeeRow is one (account, sub-account) row in the wide-column store.
// FeePct holds the fixed-point percentage (percentage x 100).
type AccountFeeRow struct {
	ID     string `json:"id" dynamodbav:"id"`
	SubID  string `json:"sub_id" dynamodbav:"sub_id"`
	FeePct int64  `json:"fee_pct" dynamodbav:"fee_pct"`
}

// RowFailure describes one wide-column row that did not converge during
// fan-out propagation.
type RowFailure struct {
	SubID  string `json:"sub_id"`
	Reason string `json:"reason"`
}

// FanoutReport aggregates a fan-out propagation so operators can target
// repair instead of getting a single pass/fail boolean.
type FanoutReport struct {
	PartitionKey string       `json:"partition_key"`
	Updated      int          `json:"updated"`
	Failed       []RowFailure `json:"failed,omitempty"`
}

// AllFailed reports whether no row converged.
func (r *FanoutReport) AllFailed() bool {
	return r.Updated == 0 && len(r.Failed) > 0
}

// AuditOperation tags an audit log entry with the mutation kind.
type AuditOperation string

// AuditOperation constants.
const (
	AuditOperationCreate AuditOperation = "create"
	AuditOperationUpdate AuditOperation = "update"
	AuditOperationDelete AuditOperation = "delete"
)

// AuditLogEntry is an immutable record of who changed what. It is written by
// every mutation orchestrator and never read back by them.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type AuditLogEntry struct {
	ID        string         `json:"id"`
	Operation AuditOperation `json:"operation"`
	Module    string         `json:"module"`
	User      string         `json:"user"`
	Data      string         `json:"data"`
	Created   time.Time      `json:"created"`
}

// ErrorResponse is the JSON error body returned by the HTTP layer.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ErrorResponse struct {
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
}
