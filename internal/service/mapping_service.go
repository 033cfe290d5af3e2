package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ticket-ops/catalog-sync-go/internal/models"
	"github.com/ticket-ops/catalog-sync-go/internal/outbox"
	"github.com/ticket-ops/catalog-sync-go/internal/warehouse"
	"github.com/ticket-ops/catalog-sync-go/pkg/logger"
)

// MappingService orchestrates event-mapping transitions for one secondary
// marketplace. Every event code moves between three mutually exclusive
// states: unmapped, mapped (identifier set) and ignored (marker set). The
// store clears the opposing field on each transition so the two can never be
// populated at once.
//
// The audit write after each transition is best-effort: audit failures are
// reported in logs but never roll back the mapping update, which is already
// recoverable from warehouse query logs.
type MappingService struct {
	store     MappingStore
	audit     AuditRecorder
	publisher OutboxPublisher
}

// NewMappingService creates a new MappingService instance.
func NewMappingService(store MappingStore, audit AuditRecorder, publisher OutboxPublisher) *MappingService {
	return &MappingService{
		store:     store,
		audit:     audit,
		publisher: publisher,
	}
}

// SetMapping transitions an event to the mapped state. A sync trigger is
// published fire-and-forget so the listing monitor fetches inventory for the
// new mapping immediately.
func (s *MappingService) SetMapping(ctx context.Context, req models.UpdateMappingRequest, actingUser string) error {
	if req.EventCode == "" || req.SecondaryID == "" {
		return &ValidationError{Message: "event code and secondary event id are required"}
	}

	if err := s.store.SetEventID(ctx, req.EventCode, req.SecondaryID); err != nil {
		return s.storeError("update event mapping", req.EventCode, err)
	}

	s.recordAudit(ctx, "update_event_id", actingUser, req)

	trigger := outbox.NewSyncTrigger(outbox.TriggerInventoryFetch, s.store.Marketplace(), req.EventCode, req.SecondaryID, actingUser)
	if err := s.publisher.PublishSyncTrigger(ctx, trigger); err != nil {
		propErr := &PropagationError{Target: "queue", Cause: err}
		logger.Log.Error("Sync trigger publish failed",
			zap.Error(propErr),
			zap.String("eventCode", req.EventCode),
		)
	}

	logger.Log.Info("Event mapping updated",
		zap.String("marketplace", string(s.store.Marketplace())),
		zap.String("eventCode", req.EventCode),
		zap.String("secondaryId", req.SecondaryID),
		zap.String("user", actingUser),
	)
	return nil
}

// SetIgnore transitions an event to the ignored state, or back to unmapped
// when ignore is false. Setting ignore clears any identifier; clearing it
// writes an explicit absent value. The operation is idempotent.
func (s *MappingService) SetIgnore(ctx context.Context, req models.UpdateIgnoreRequest, actingUser string) error {
	if req.EventCode == "" {
		return &ValidationError{Message: "event code is required"}
	}

	if err := s.store.SetIgnore(ctx, req.EventCode, req.Ignore); err != nil {
		return s.storeError("update ignore marker", req.EventCode, err)
	}

	s.recordAudit(ctx, "update_ignore", actingUser, req)

	logger.Log.Info("Event mapping ignore updated",
		zap.String("marketplace", string(s.store.Marketplace())),
		zap.String("eventCode", req.EventCode),
		zap.Bool("ignore", req.Ignore),
		zap.String("user", actingUser),
	)
	return nil
}

// RemoveMapping transitions a mapped event back to unmapped by clearing the
// identifier.
func (s *MappingService) RemoveMapping(ctx context.Context, req models.RemoveMappingRequest, actingUser string) error {
	if req.EventCode == "" {
		return &ValidationError{Message: "event code is required"}
	}

	if err := s.store.ClearEventID(ctx, req.EventCode); err != nil {
		return s.storeError("remove event mapping", req.EventCode, err)
	}

	s.recordAudit(ctx, "remove_event_id", actingUser, req)

	trigger := outbox.NewSyncTrigger(outbox.TriggerMappingRemoved, s.store.Marketplace(), req.EventCode, "", actingUser)
	if err := s.publisher.PublishSyncTrigger(ctx, trigger); err != nil {
		propErr := &PropagationError{Target: "queue", Cause: err}
		logger.Log.Error("Sync trigger publish failed",
			zap.Error(propErr),
			zap.String("eventCode", req.EventCode),
		)
	}

	logger.Log.Info("Event mapping removed",
		zap.String("marketplace", string(s.store.Marketplace())),
		zap.String("eventCode", req.EventCode),
		zap.String("user", actingUser),
	)
	return nil
}

// UnmappedEvents returns one page of events awaiting a mapping.
func (s *MappingService) UnmappedEvents(ctx context.Context, page, pageSize int) ([]models.UnmappedEvent, error) {
	if page < 1 || pageSize < 1 {
		return nil, &ValidationError{Message: "page and page_size must be positive"}
	}
	events, err := s.store.UnmappedEvents(ctx, page, pageSize)
	if err != nil {
		return nil, &StoreWriteError{Message: "failed to list unmapped events", Cause: err}
	}
	return events, nil
}

// SearchMapped returns mapped events filtered by name or canonical code.
func (s *MappingService) SearchMapped(ctx context.Context, search models.MappedEventSearch) ([]models.MappedEvent, error) {
	events, err := s.store.SearchMapped(ctx, search)
	if err != nil {
		return nil, &StoreWriteError{Message: "failed to search mapped events", Cause: err}
	}
	return events, nil
}

// auditModule builds tags like "viagogo_event_mapping_update_event_id".
func (s *MappingService) auditModule(action string) string {
	return fmt.Sprintf("%s_event_mapping_%s", s.store.Marketplace(), action)
}

func (s *MappingService) recordAudit(ctx context.Context, action, actingUser string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Error("Failed to serialize audit payload", zap.Error(err))
		return
	}
	if err := s.audit.Record(ctx, models.AuditLogEntry{
		Operation: models.AuditOperationUpdate,
		Module:    s.auditModule(action),
		User:      actingUser,
		Data:      string(data),
	}); err != nil {
		logger.Log.Error("Failed to record audit entry",
			zap.Error(err),
			zap.String("module", s.auditModule(action)),
		)
	}
}

func (s *MappingService) storeError(action, eventCode string, err error) error {
	if errors.Is(err, warehouse.ErrNotFound) {
		return &NotFoundError{Message: fmt.Sprintf("no mapping row for event %s", eventCode)}
	}
	logger.Log.Error("Mapping store write failed",
		zap.Error(err),
		zap.String("action", action),
		zap.String("eventCode", eventCode),
	)
	return &StoreWriteError{Message: "failed to " + action, Cause: err}
}
