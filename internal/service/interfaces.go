// Package service contains the mutation orchestrators. Each orchestrator
// owns one mutation type, sequences the warehouse write ahead of every
// downstream projection, and defines the partial-failure behavior.
package service

import (
	"context"

	"github.com/ticket-ops/catalog-sync-go/internal/models"
	"github.com/ticket-ops/catalog-sync-go/internal/outbox"
)

// BlacklistStore is the warehouse surface the blacklist orchestrator needs.
type BlacklistStore interface {
	ResolveEvent(ctx context.Context, ticketmasterID, eventCode string, markets []string, addedBy string) (*models.BlacklistEntry, error)
	ResolveListing(ctx context.Context, req models.CreateBlacklistRequest, addedBy string) (*models.BlacklistEntry, error)
	IsBlocked(ctx context.Context, eventCode, notes string, section *string) (bool, error)
	InsertBlacklist(ctx context.Context, entry *models.BlacklistEntry) error
	DeleteBlacklist(ctx context.Context, req models.DeleteBlacklistRequest) error
	InsertChangeLog(ctx context.Context, operation models.AuditOperation, entry *models.BlacklistEntry, addedBy string) error
	InsertCompat(ctx context.Context, entry *models.BlacklistEntry) error
	DeleteCompat(ctx context.Context, id string, section *string) error
	ListBlacklist(ctx context.Context, page, pageSize int, search string) (*models.BlacklistPage, error)
}

// MappingStore is the warehouse surface for one marketplace's event mapping.
type MappingStore interface {
	Marketplace() models.Marketplace
	SetEventID(ctx context.Context, eventCode, secondaryID string) error
	SetIgnore(ctx context.Context, eventCode string, ignore bool) error
	ClearEventID(ctx context.Context, eventCode string) error
	UnmappedEvents(ctx context.Context, page, pageSize int) ([]models.UnmappedEvent, error)
	SearchMapped(ctx context.Context, search models.MappedEventSearch) ([]models.MappedEvent, error)
}

// ConfigStore is the warehouse surface for autopricing configuration.
type ConfigStore interface {
	UpsertConfigWithHistory(ctx context.Context, key, value, updatedBy string) error
	GetAllConfig(ctx context.Context) ([]models.AutopricingConfigEntry, error)
	GetConfigHistory(ctx context.Context) ([]models.AutopricingConfigHistoryEntry, error)
}

// CatalogStore mirrors config values into the secondary read-optimized store.
type CatalogStore interface {
	UpsertConfig(ctx context.Context, key, value string) error
}

// FeeProjector fans a fee change out to the wide-column store.
type FeeProjector interface {
	PropagateFeePct(ctx context.Context, partitionKey, value string) (*models.FanoutReport, error)
}

// OutboxPublisher sends mutation notifications to the message queue.
type OutboxPublisher interface {
	PublishBlacklist(ctx context.Context, msg *outbox.BlacklistMessage) error
	PublishSyncTrigger(ctx context.Context, msg *outbox.SyncTriggerMessage) error
}

// AuditRecorder appends immutable audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry models.AuditLogEntry) error
}

// CacheInvalidator deletes derived cache keys.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, key string) error
}
