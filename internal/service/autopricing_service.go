package service

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/ticket-ops/catalog-sync-go/internal/models"
	"github.com/ticket-ops/catalog-sync-go/internal/validation"
	"github.com/ticket-ops/catalog-sync-go/pkg/logger"
)

const (
	autopricingModule = "autopricing_config_update"

	feePctSuffix     = "_fee_pct"
	partitionKeyMark = "_account"
)

// AutopricingService orchestrates config upserts: an atomic warehouse
// transaction, a best-effort catalog mirror, and fan-out propagation to the
// wide-column store when the key carries a fee percentage.
type AutopricingService struct {
	store     ConfigStore
	catalog   CatalogStore
	projector FeeProjector
	audit     AuditRecorder
	validator *validation.Validator
}

// NewAutopricingService creates a new AutopricingService instance.
func NewAutopricingService(store ConfigStore, catalog CatalogStore, projector FeeProjector, audit AuditRecorder, validator *validation.Validator) *AutopricingService {
	return &AutopricingService{
		store:     store,
		catalog:   catalog,
		projector: projector,
		audit:     audit,
		validator: validator,
	}
}

// UpsertConfig updates one config key. Only the warehouse transaction (live
// row upsert + history append) is atomic and fatal on failure; the catalog
// mirror and the fan-out are projections that may lag. The returned report
// is nil unless the key triggered fan-out.
func (s *AutopricingService) UpsertConfig(ctx context.Context, key, value, updatedBy string) (*models.FanoutReport, error) {
	// Step 1: Validate
	if err := s.validator.ValidateConfigKey(key, value); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	// Step 2: Atomic warehouse write, the only fatal step
	if err := s.store.UpsertConfigWithHistory(ctx, key, value, updatedBy); err != nil {
		logger.Log.Error("Config transaction failed",
			zap.Error(err),
			zap.String("key", key),
		)
		return nil, &StoreWriteError{Message: "failed to upsert config", Cause: err}
	}

	logger.Log.Info("Config updated",
		zap.String("key", key),
		zap.String("updatedBy", updatedBy),
	)

	s.recordAudit(ctx, key, value, updatedBy)

	// Step 3: Mirror into the read-optimized catalog, non-fatal
	if err := s.catalog.UpsertConfig(ctx, key, value); err != nil {
		propErr := &PropagationError{Target: "catalog", Cause: err}
		logger.Log.Error("Catalog mirror failed after warehouse write",
			zap.Error(propErr),
			zap.String("key", key),
		)
	}

	// Step 4: Fee keys fan out to every row of the account's partition
	account, isFeeKey := strings.CutSuffix(key, feePctSuffix)
	if !isFeeKey {
		return nil, nil
	}

	report, err := s.projector.PropagateFeePct(ctx, account+partitionKeyMark, value)
	if err != nil {
		// Fan-out never fails the operation; the warehouse already holds
		// the new value and the projection can be repaired by re-running.
		propErr := &PropagationError{Target: "wide-column store", Cause: err}
		logger.Log.Error("Fee fan-out failed after warehouse write",
			zap.Error(propErr),
			zap.String("key", key),
		)
		return &models.FanoutReport{
			PartitionKey: account + partitionKeyMark,
			Failed:       []models.RowFailure{{Reason: err.Error()}},
		}, nil
	}

	return report, nil
}

// GetAll returns every live config entry.
func (s *AutopricingService) GetAll(ctx context.Context) ([]models.AutopricingConfigEntry, error) {
	entries, err := s.store.GetAllConfig(ctx)
	if err != nil {
		return nil, &StoreWriteError{Message: "failed to fetch config", Cause: err}
	}
	return entries, nil
}

// GetHistory returns the append-only change history, newest first.
func (s *AutopricingService) GetHistory(ctx context.Context) ([]models.AutopricingConfigHistoryEntry, error) {
	entries, err := s.store.GetConfigHistory(ctx)
	if err != nil {
		return nil, &StoreWriteError{Message: "failed to fetch config history", Cause: err}
	}
	return entries, nil
}

func (s *AutopricingService) recordAudit(ctx context.Context, key, value, updatedBy string) {
	data, err := json.Marshal(models.ConfigUpdateRequest{Key: key, Value: value})
	if err != nil {
		logger.Log.Error("Failed to serialize audit payload", zap.Error(err), zap.String("key", key))
		return
	}
	if err := s.audit.Record(ctx, models.AuditLogEntry{
		Operation: models.AuditOperationUpdate,
		Module:    autopricingModule,
		User:      updatedBy,
		Data:      string(data),
	}); err != nil {
		logger.Log.Error("Failed to record audit entry",
			zap.Error(err),
			zap.String("module", autopricingModule),
			zap.String("key", key),
		)
	}
}
