package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ticket-ops/catalog-sync-go/internal/cache"
	"github.com/ticket-ops/catalog-sync-go/internal/models"
	"github.com/ticket-ops/catalog-sync-go/internal/outbox"
	"github.com/ticket-ops/catalog-sync-go/internal/validation"
	"github.com/ticket-ops/catalog-sync-go/internal/warehouse"
	"github.com/ticket-ops/catalog-sync-go/pkg/logger"
)

const blacklistModule = "blacklist"

// BlacklistService orchestrates blacklist creation and deletion across the
// warehouse, the message queue, the audit trail and the cache.
type BlacklistService struct {
	store       BlacklistStore
	publisher   OutboxPublisher
	audit       AuditRecorder
	invalidator CacheInvalidator
	validator   *validation.Validator
}

// NewBlacklistService creates a new BlacklistService instance.
func NewBlacklistService(store BlacklistStore, publisher OutboxPublisher, audit AuditRecorder, invalidator CacheInvalidator, validator *validation.Validator) *BlacklistService {
	return &BlacklistService{
		store:       store,
		publisher:   publisher,
		audit:       audit,
		invalidator: invalidator,
		validator:   validator,
	}
}

// Create resolves the request criteria into a canonical warehouse row,
// materializes it as a blacklist entry, and propagates the change. The
// warehouse insert is the commit point: the cache key is dropped and the
// outbox message is only sent after it succeeds, so consumers never observe
// a block notification for a non-existent entry. Cache, outbox, audit,
// change-log and compat-copy failures are logged and do not fail the
// operation.
func (s *BlacklistService) Create(ctx context.Context, req models.CreateBlacklistRequest, actingUser string) (*models.BlacklistEntry, error) {
	// Step 1: Validate criteria before any store is touched
	if err := s.validator.ValidateCreateBlacklist(&req); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	// Step 2: Resolve the canonical row from the warehouse
	entry, err := s.resolve(ctx, req, actingUser)
	if err != nil {
		if errors.Is(err, warehouse.ErrNotFound) {
			return nil, &NotFoundError{Message: "no items found for the given criteria"}
		}
		return nil, &StoreWriteError{Message: "failed to resolve blacklist target", Cause: err}
	}

	// Step 3: Reject when a matching entry already exists
	if entry.EventCode != nil && entry.Notes != nil {
		blocked, err := s.store.IsBlocked(ctx, *entry.EventCode, *entry.Notes, entry.Section)
		if err != nil {
			return nil, &StoreWriteError{Message: "failed to check existing blacklist", Cause: err}
		}
		if blocked {
			return nil, &AlreadyBlockedError{EventCode: *entry.EventCode}
		}
	}

	entry.ID = uuid.New().String()

	// Step 4: Insert the authoritative row
	if err := s.store.InsertBlacklist(ctx, entry); err != nil {
		logger.Log.Error("Failed to insert blacklist entry",
			zap.Error(err),
			zap.Stringp("eventCode", entry.EventCode),
		)
		return nil, &StoreWriteError{Message: "failed to insert blacklist entry", Cause: err}
	}

	logger.Log.Info("Blacklist entry created",
		zap.String("id", entry.ID),
		zap.Stringp("eventCode", entry.EventCode),
		zap.Stringp("notes", entry.Notes),
		zap.String("user", actingUser),
	)

	// Step 5: Drop the cached block lookup, which is stale now
	if entry.EventCode != nil {
		if err := s.invalidator.Invalidate(ctx, cache.BlacklistKey(*entry.EventCode)); err != nil {
			s.logPropagation("cache", entry.ID, err)
		}
	}

	// Step 6: Notify downstream workers, after the insert committed
	if err := s.publisher.PublishBlacklist(ctx, outbox.NewBlacklistMessage(outbox.ActionCreate, entry)); err != nil {
		s.logPropagation("queue", entry.ID, err)
	}

	// Step 7: Audit trail and per-module change log, best-effort
	s.recordAudit(ctx, models.AuditOperationCreate, entry, actingUser)
	if err := s.store.InsertChangeLog(ctx, models.AuditOperationCreate, entry, actingUser); err != nil {
		s.logPropagation("change log", entry.ID, err)
	}

	// Step 8: Denormalized copy for downstream query compatibility
	if err := s.store.InsertCompat(ctx, entry); err != nil {
		s.logPropagation("compat copy", entry.ID, err)
	}

	return entry, nil
}

// Delete removes one blacklist entry and its denormalized copy, audits the
// deletion and notifies downstream workers. The cache key for the event is
// invalidated in a deferred block so it runs even when an earlier step
// failed and the cache cannot keep serving a stale block.
func (s *BlacklistService) Delete(ctx context.Context, req models.DeleteBlacklistRequest, actingUser string) (entry *models.BlacklistEntry, err error) {
	defer func() {
		if cacheErr := s.invalidator.Invalidate(ctx, cache.BlacklistKey(req.EventCode)); cacheErr != nil {
			s.logPropagation("cache", req.ID, cacheErr)
		}
	}()

	if err := s.store.DeleteBlacklist(ctx, req); err != nil {
		if errors.Is(err, warehouse.ErrNotFound) {
			return nil, &NotFoundError{Message: "no blacklist entry found"}
		}
		logger.Log.Error("Failed to delete blacklist entry",
			zap.Error(err),
			zap.String("id", req.ID),
		)
		return nil, &StoreWriteError{Message: "failed to delete blacklist entry", Cause: err}
	}

	logger.Log.Info("Blacklist entry deleted",
		zap.String("id", req.ID),
		zap.String("eventCode", req.EventCode),
		zap.String("user", actingUser),
	)

	eventCode := req.EventCode
	notes := req.Notes
	deleted := &models.BlacklistEntry{
		ID:        req.ID,
		EventCode: &eventCode,
		Notes:     &notes,
		Section:   req.Section,
	}

	s.recordAudit(ctx, models.AuditOperationDelete, deleted, actingUser)
	if err := s.store.InsertChangeLog(ctx, models.AuditOperationDelete, deleted, actingUser); err != nil {
		s.logPropagation("change log", req.ID, err)
	}

	if err := s.store.DeleteCompat(ctx, req.ID, req.Section); err != nil {
		s.logPropagation("compat copy", req.ID, err)
	}

	if err := s.publisher.PublishBlacklist(ctx, outbox.NewBlacklistMessage(outbox.ActionDelete, deleted)); err != nil {
		s.logPropagation("queue", req.ID, err)
	}

	return deleted, nil
}

// List returns one page of blacklist entries.
func (s *BlacklistService) List(ctx context.Context, page, pageSize int, search string) (*models.BlacklistPage, error) {
	if page < 1 || pageSize < 1 {
		return nil, &ValidationError{Message: "page and page_size must be positive"}
	}
	result, err := s.store.ListBlacklist(ctx, page, pageSize, search)
	if err != nil {
		return nil, &StoreWriteError{Message: "failed to list blacklist entries", Cause: err}
	}
	return result, nil
}

func (s *BlacklistService) resolve(ctx context.Context, req models.CreateBlacklistRequest, actingUser string) (*models.BlacklistEntry, error) {
	switch req.Criteria {
	case models.CriteriaTicketmasterID:
		return s.store.ResolveEvent(ctx, req.TicketmasterID, "", req.Market, actingUser)
	case models.CriteriaEventCode:
		return s.store.ResolveEvent(ctx, "", req.EventCode, req.Market, actingUser)
	default:
		return s.store.ResolveListing(ctx, req, actingUser)
	}
}

func (s *BlacklistService) recordAudit(ctx context.Context, op models.AuditOperation, entry *models.BlacklistEntry, actingUser string) {
	data, err := json.Marshal(entry)
	if err != nil {
		logger.Log.Error("Failed to serialize audit payload", zap.Error(err), zap.String("id", entry.ID))
		return
	}
	if err := s.audit.Record(ctx, models.AuditLogEntry{
		Operation: op,
		Module:    blacklistModule,
		User:      actingUser,
		Data:      string(data),
	}); err != nil {
		logger.Log.Error("Failed to record audit entry",
			zap.Error(err),
			zap.String("module", blacklistModule),
			zap.String("id", entry.ID),
		)
	}
}

func (s *BlacklistService) logPropagation(target, id string, err error) {
	propErr := &PropagationError{Target: target, Cause: err}
	logger.Log.Error("Propagation failed after warehouse write",
		zap.Error(propErr),
		zap.String("id", id),
	)
}
