// Package outbox formats and publishes mutation notifications for
// out-of-process workers (listing crawlers, purge jobs).
package outbox

import (
	"strings"
	"time"

	"github.com/ticket-ops/catalog-sync-go/internal/models"
)

// SchemaVersion is carried by every envelope so producers and consumers can
// evolve independently.
const SchemaVersion = 1

// Action values carried by blacklist notifications.
const (
	ActionCreate = "create"
	ActionDelete = "delete"
)

// BlacklistMessage is the queue envelope for a blacklist create or delete.
// Epoch fields are microseconds since the Unix epoch; string twins use
// "2006-01-02 15:04:05".
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type BlacklistMessage struct {
	SchemaVersion                int      `json:"schema_version"`
	Action                       string   `json:"action"`
	ID                           string   `json:"id"`
	SubID                        string   `json:"sub_id"`
	SeatingSection               string   `json:"seating_section"`
	EventBlacklistedAt           int64    `json:"event_blacklisted_at"`
	EventBlacklistedAtStr        string   `json:"event_blacklisted_at_str"`
	EventBlacklistedReason       string   `json:"event_blacklisted_reason"`
	EventBlacklistedExpiresAt    int64    `json:"event_blacklisted_expires_at"`
	EventBlacklistedExpiresAtStr string   `json:"event_blacklisted_expires_at_str"`
	Market                       []string `json:"market"`
	ViagogoEventID               *string  `json:"viagogo_event_id,omitempty"`
	VividEventID                 *string  `json:"vivid_event_id,omitempty"`
	SeatgeekEventID              *string  `json:"seatgeek_event_id,omitempty"`
	GoticketsEventID             *string  `json:"gotickets_event_id,omitempty"`
}

// SyncTriggerMessage asks an out-of-process worker for an on-demand sync,
// e.g. an immediate inventory fetch after a new event mapping.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type SyncTriggerMessage struct {
	SchemaVersion int    `json:"schema_version"`
	TriggerType   string `json:"trigger_type"`
	Marketplace   string `json:"marketplace"`
	EventCode     string `json:"event_code"`
	SecondaryID   string `json:"secondary_event_id,omitempty"`
	RequestedBy   string `json:"requested_by"`
	RequestedAt   string `json:"requested_at"`
}

// Trigger types for SyncTriggerMessage.
const (
	TriggerInventoryFetch = "inventory_fetch"
	TriggerMappingRemoved = "mapping_removed"
)

const envelopeTimeLayout = "2006-01-02 15:04:05"

// NewBlacklistMessage builds the envelope for one blacklist entry. Times
// default to the entry start date, matching what downstream purge jobs key
// expiry on.
func NewBlacklistMessage(action string, entry *models.BlacklistEntry) *BlacklistMessage {
	msg := &BlacklistMessage{
		SchemaVersion: SchemaVersion,
		Action:        action,
		SubID:         "blacklisted",
		Market:        []string{},
	}

	eventCode := ""
	if entry.EventCode != nil {
		eventCode = *entry.EventCode
	}
	msg.ID = "ticketmaster_event#" + eventCode

	if entry.Section != nil {
		msg.SeatingSection = *entry.Section
	}
	if entry.Notes != nil {
		msg.EventBlacklistedReason = *entry.Notes
	}
	if entry.StartDate != nil {
		msg.EventBlacklistedAt = epochMicros(*entry.StartDate)
		msg.EventBlacklistedAtStr = entry.StartDate.Format(envelopeTimeLayout)
	}
	expires := entry.ExpirationDate
	if expires == nil {
		expires = entry.StartDate
	}
	if expires != nil {
		msg.EventBlacklistedExpiresAt = epochMicros(*expires)
		msg.EventBlacklistedExpiresAtStr = expires.Format(envelopeTimeLayout)
	}
	if entry.Market != nil && *entry.Market != "" {
		msg.Market = splitMarkets(*entry.Market)
	}

	msg.ViagogoEventID = entry.ViagogoEventID
	msg.VividEventID = entry.VividEventID
	msg.SeatgeekEventID = entry.SeatgeekEventID
	msg.GoticketsEventID = entry.GoticketsEventID

	return msg
}

// NewSyncTrigger builds an on-demand sync request for one mapping change.
func NewSyncTrigger(triggerType string, marketplace models.Marketplace, eventCode, secondaryID, requestedBy string) *SyncTriggerMessage {
	return &SyncTriggerMessage{
		SchemaVersion: SchemaVersion,
		TriggerType:   triggerType,
		Marketplace:   string(marketplace),
		EventCode:     eventCode,
		SecondaryID:   secondaryID,
		RequestedBy:   requestedBy,
		RequestedAt:   time.Now().UTC().Format(envelopeTimeLayout),
	}
}

func epochMicros(t time.Time) int64 {
	return t.UnixMicro()
}

func splitMarkets(market string) []string {
	var out []string
	for _, m := range strings.Split(market, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}
