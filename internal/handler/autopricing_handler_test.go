package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ticket-ops/catalog-sync-go/internal/middleware"
	"github.com/ticket-ops/catalog-sync-go/internal/models"
	"github.com/ticket-ops/catalog-sync-go/internal/service"
	"github.com/ticket-ops/catalog-sync-go/internal/validation"
)

type stubConfigStore struct {
	live    map[string]string
	history []models.AutopricingConfigHistoryEntry
}

func newStubConfigStore() *stubConfigStore {
	return &stubConfigStore{live: map[string]string{}}
}

func (s *stubConfigStore) UpsertConfigWithHistory(ctx context.Context, key, value, updatedBy string) error {
	s.live[key] = value
	s.history = append(s.history, models.AutopricingConfigHistoryEntry{Key: key, Value: value, UpdatedBy: updatedBy})
	return nil
}

func (s *stubConfigStore) GetAllConfig(ctx context.Context) ([]models.AutopricingConfigEntry, error) {
	entries := []models.AutopricingConfigEntry{}
	for k, v := range s.live {
		value := v
		entries = append(entries, models.AutopricingConfigEntry{Key: k, Value: &value})
	}
	return entries, nil
}

func (s *stubConfigStore) GetConfigHistory(ctx context.Context) ([]models.AutopricingConfigHistoryEntry, error) {
	return s.history, nil
}

type stubCatalog struct{}

func (stubCatalog) UpsertConfig(ctx context.Context, key, value string) error { return nil }

type stubProjector struct {
	partitionKeys []string
}

func (s *stubProjector) PropagateFeePct(ctx context.Context, partitionKey, value string) (*models.FanoutReport, error) {
	s.partitionKeys = append(s.partitionKeys, partitionKey)
	return &models.FanoutReport{PartitionKey: partitionKey, Updated: 2}, nil
}

func newAutopricingRouter(store *stubConfigStore, projector *stubProjector, keyRoles map[string][]string) *gin.Engine {
	svc := service.NewAutopricingService(store, stubCatalog{}, projector, stubAudit{}, validation.New())
	router := gin.New()
	auth := middleware.NewAPIKeyAuth(keyRoles)
	group := router.Group("/autopricing-config", auth.Middleware())
	NewAutopricingHandler(svc).Register(group)
	return router
}

func TestAutopricingHandler_UpsertFeeKey(t *testing.T) {
	store := newStubConfigStore()
	projector := &stubProjector{}
	router := newAutopricingRouter(store, projector, map[string][]string{"ops-key": {"admin"}})

	body, _ := json.Marshal(models.ConfigUpdateRequest{Key: "acme_fee_pct", Value: "0.07"})
	req := httptest.NewRequest(http.MethodPost, "/autopricing-config", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "ops-key")
	req.Header.Set("X-Acting-User", "alice")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Key    string               `json:"key"`
		Value  string               `json:"value"`
		Fanout *models.FanoutReport `json:"fanout"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Fanout == nil || resp.Fanout.Updated != 2 {
		t.Errorf("fanout = %+v, want 2 updated rows", resp.Fanout)
	}
	if len(projector.partitionKeys) != 1 || projector.partitionKeys[0] != "acme_account" {
		t.Errorf("partition keys = %v, want [acme_account]", projector.partitionKeys)
	}
	if store.history[0].UpdatedBy != "alice" {
		t.Errorf("updated_by = %q, want alice", store.history[0].UpdatedBy)
	}
}

func TestAutopricingHandler_UpsertNonFeeKeyHasNoFanout(t *testing.T) {
	store := newStubConfigStore()
	projector := &stubProjector{}
	router := newAutopricingRouter(store, projector, map[string][]string{"ops-key": {"shadows-lead"}})

	body, _ := json.Marshal(models.ConfigUpdateRequest{Key: "repricing_enabled", Value: "true"})
	req := httptest.NewRequest(http.MethodPost, "/autopricing-config", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "ops-key")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	if bytes.Contains(w.Body.Bytes(), []byte("fanout")) {
		t.Errorf("body = %s, want no fanout field for non-fee keys", w.Body.String())
	}
	if len(projector.partitionKeys) != 0 {
		t.Errorf("partition keys = %v, want none", projector.partitionKeys)
	}
}

func TestAutopricingHandler_UpsertRequiresOperatorRole(t *testing.T) {
	router := newAutopricingRouter(newStubConfigStore(), &stubProjector{}, map[string][]string{
		"robot-key": {"automation"},
	})

	body, _ := json.Marshal(models.ConfigUpdateRequest{Key: "acme_fee_pct", Value: "0.07"})
	req := httptest.NewRequest(http.MethodPost, "/autopricing-config", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "robot-key")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 for non-operator key", w.Code)
	}
}

func TestAutopricingHandler_ReadsAllowAnyKey(t *testing.T) {
	store := newStubConfigStore()
	store.live["repricing_enabled"] = "true"
	router := newAutopricingRouter(store, &stubProjector{}, map[string][]string{
		"robot-key": {"automation"},
	})

	for _, path := range []string{"/autopricing-config", "/autopricing-config/history"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-API-Key", "robot-key")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200; body: %s", path, w.Code, w.Body.String())
		}
	}
}
