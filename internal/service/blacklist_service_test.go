package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ticket-ops/catalog-sync-go/internal/models"
	"github.com/ticket-ops/catalog-sync-go/internal/outbox"
	"github.com/ticket-ops/catalog-sync-go/internal/validation"
	"github.com/ticket-ops/catalog-sync-go/internal/warehouse"
	"github.com/ticket-ops/catalog-sync-go/pkg/logger"
)

func init() {
	_ = logger.Init("error", "")
}

// fakeBlacklistStore keeps entries in memory and scripts failures per call.
type fakeBlacklistStore struct {
	entries   map[string]*models.BlacklistEntry
	compat    map[string]*models.BlacklistEntry
	changeLog []changeLogRecord

	resolveErr   error
	insertErr    error
	deleteErr    error
	compatErr    error
	changeLogErr error

	resolved *models.BlacklistEntry
}

type changeLogRecord struct {
	operation models.AuditOperation
	addedBy   string
}

func newFakeBlacklistStore() *fakeBlacklistStore {
	return &fakeBlacklistStore{
		entries: map[string]*models.BlacklistEntry{},
		compat:  map[string]*models.BlacklistEntry{},
	}
}

func (f *fakeBlacklistStore) ResolveEvent(ctx context.Context, ticketmasterID, eventCode string, markets []string, addedBy string) (*models.BlacklistEntry, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	entry := *f.resolved
	entry.AddedBy = &addedBy
	return &entry, nil
}

func (f *fakeBlacklistStore) ResolveListing(ctx context.Context, req models.CreateBlacklistRequest, addedBy string) (*models.BlacklistEntry, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	entry := *f.resolved
	entry.AddedBy = &addedBy
	return &entry, nil
}

func (f *fakeBlacklistStore) IsBlocked(ctx context.Context, eventCode, notes string, section *string) (bool, error) {
	for _, e := range f.entries {
		if e.EventCode != nil && *e.EventCode == eventCode && e.Notes != nil && *e.Notes == notes {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBlacklistStore) InsertBlacklist(ctx context.Context, entry *models.BlacklistEntry) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.entries[entry.ID] = entry
	return nil
}

func (f *fakeBlacklistStore) DeleteBlacklist(ctx context.Context, req models.DeleteBlacklistRequest) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.entries[req.ID]; !ok {
		return warehouse.ErrNotFound
	}
	delete(f.entries, req.ID)
	return nil
}

func (f *fakeBlacklistStore) InsertChangeLog(ctx context.Context, operation models.AuditOperation, entry *models.BlacklistEntry, addedBy string) error {
	if f.changeLogErr != nil {
		return f.changeLogErr
	}
	f.changeLog = append(f.changeLog, changeLogRecord{operation: operation, addedBy: addedBy})
	return nil
}

func (f *fakeBlacklistStore) InsertCompat(ctx context.Context, entry *models.BlacklistEntry) error {
	if f.compatErr != nil {
		return f.compatErr
	}
	f.compat[entry.ID] = entry
	return nil
}

func (f *fakeBlacklistStore) DeleteCompat(ctx context.Context, id string, section *string) error {
	if f.compatErr != nil {
		return f.compatErr
	}
	delete(f.compat, id)
	return nil
}

func (f *fakeBlacklistStore) ListBlacklist(ctx context.Context, page, pageSize int, search string) (*models.BlacklistPage, error) {
	pageOut := &models.BlacklistPage{Items: []models.BlacklistEntry{}}
	for _, e := range f.entries {
		pageOut.Items = append(pageOut.Items, *e)
	}
	pageOut.Total = len(pageOut.Items)
	return pageOut, nil
}

// fakePublisher records published envelopes.
type fakePublisher struct {
	blacklist []*outbox.BlacklistMessage
	triggers  []*outbox.SyncTriggerMessage
	err       error
}

func (f *fakePublisher) PublishBlacklist(ctx context.Context, msg *outbox.BlacklistMessage) error {
	if f.err != nil {
		return f.err
	}
	f.blacklist = append(f.blacklist, msg)
	return nil
}

func (f *fakePublisher) PublishSyncTrigger(ctx context.Context, msg *outbox.SyncTriggerMessage) error {
	if f.err != nil {
		return f.err
	}
	f.triggers = append(f.triggers, msg)
	return nil
}

// fakeAudit records audit entries.
type fakeAudit struct {
	entries []models.AuditLogEntry
	err     error
}

func (f *fakeAudit) Record(ctx context.Context, entry models.AuditLogEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

// fakeInvalidator records invalidated keys.
type fakeInvalidator struct {
	keys []string
	err  error
}

func (f *fakeInvalidator) Invalidate(ctx context.Context, key string) error {
	f.keys = append(f.keys, key)
	return f.err
}

func resolvedEntry(eventCode, notes string) *models.BlacklistEntry {
	start := time.Date(2026, 8, 1, 19, 30, 0, 0, time.UTC)
	name := "Test Event"
	market := "viagogo,vivid"
	return &models.BlacklistEntry{
		EventCode:      &eventCode,
		EventName:      &name,
		StartDate:      &start,
		Notes:          &notes,
		ExpirationDate: &start,
		Market:         &market,
	}
}

func newBlacklistFixture() (*BlacklistService, *fakeBlacklistStore, *fakePublisher, *fakeAudit, *fakeInvalidator) {
	store := newFakeBlacklistStore()
	publisher := &fakePublisher{}
	audit := &fakeAudit{}
	invalidator := &fakeInvalidator{}
	svc := NewBlacklistService(store, publisher, audit, invalidator, validation.New())
	return svc, store, publisher, audit, invalidator
}

func TestBlacklistCreate_HappyPath(t *testing.T) {
	svc, store, publisher, audit, invalidator := newBlacklistFixture()
	store.resolved = resolvedEntry("E100", models.NotesBlacklistEventCode)

	req := models.CreateBlacklistRequest{
		Criteria:  models.CriteriaEventCode,
		EventCode: "E100",
		Market:    []string{"viagogo", "vivid"},
	}

	entry, err := svc.Create(context.Background(), req, "alice")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if entry.ID == "" {
		t.Error("entry ID not assigned")
	}

	if len(store.entries) != 1 {
		t.Fatalf("store entries = %d, want 1", len(store.entries))
	}
	if len(store.compat) != 1 {
		t.Errorf("compat entries = %d, want 1", len(store.compat))
	}

	if len(publisher.blacklist) != 1 {
		t.Fatalf("published messages = %d, want 1", len(publisher.blacklist))
	}
	msg := publisher.blacklist[0]
	if msg.Action != outbox.ActionCreate {
		t.Errorf("action = %q, want %q", msg.Action, outbox.ActionCreate)
	}
	if msg.ID != "ticketmaster_event#E100" {
		t.Errorf("message id = %q, want ticketmaster_event#E100", msg.ID)
	}
	if msg.EventBlacklistedReason != models.NotesBlacklistEventCode {
		t.Errorf("reason = %q, want %q", msg.EventBlacklistedReason, models.NotesBlacklistEventCode)
	}

	if len(audit.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(audit.entries))
	}
	if audit.entries[0].Operation != models.AuditOperationCreate {
		t.Errorf("audit operation = %q, want create", audit.entries[0].Operation)
	}
	if audit.entries[0].Module != "blacklist" {
		t.Errorf("audit module = %q, want blacklist", audit.entries[0].Module)
	}
	if audit.entries[0].User != "alice" {
		t.Errorf("audit user = %q, want alice", audit.entries[0].User)
	}

	if len(invalidator.keys) != 1 || invalidator.keys[0] != "blacklist_E100" {
		t.Errorf("invalidated keys = %v, want [blacklist_E100]", invalidator.keys)
	}

	if len(store.changeLog) != 1 {
		t.Fatalf("change log rows = %d, want 1", len(store.changeLog))
	}
	if store.changeLog[0].operation != models.AuditOperationCreate || store.changeLog[0].addedBy != "alice" {
		t.Errorf("change log row = %+v, want create by alice", store.changeLog[0])
	}
}

func TestBlacklistCreate_ValidationError(t *testing.T) {
	svc, _, publisher, _, _ := newBlacklistFixture()

	tests := []struct {
		name string
		req  models.CreateBlacklistRequest
	}{
		{
			name: "missing event code",
			req:  models.CreateBlacklistRequest{Criteria: models.CriteriaEventCode, Market: []string{"viagogo"}},
		},
		{
			name: "missing market",
			req:  models.CreateBlacklistRequest{Criteria: models.CriteriaEventCode, EventCode: "E100"},
		},
		{
			name: "unknown criteria",
			req:  models.CreateBlacklistRequest{Criteria: "bogus", EventCode: "E100", Market: []string{"viagogo"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req, "alice")
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Create() error = %v, want *ValidationError", err)
			}
		})
	}

	if len(publisher.blacklist) != 0 {
		t.Errorf("published messages = %d, want 0", len(publisher.blacklist))
	}
}

func TestBlacklistCreate_TargetNotFound(t *testing.T) {
	svc, store, _, _, _ := newBlacklistFixture()
	store.resolveErr = warehouse.ErrNotFound

	req := models.CreateBlacklistRequest{
		Criteria:  models.CriteriaEventCode,
		EventCode: "E404",
		Market:    []string{"viagogo"},
	}

	_, err := svc.Create(context.Background(), req, "alice")
	var nfe *NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("Create() error = %v, want *NotFoundError", err)
	}
}

func TestBlacklistCreate_AlreadyBlocked(t *testing.T) {
	svc, store, publisher, _, _ := newBlacklistFixture()
	store.resolved = resolvedEntry("E100", models.NotesBlacklistEventCode)

	req := models.CreateBlacklistRequest{
		Criteria:  models.CriteriaEventCode,
		EventCode: "E100",
		Market:    []string{"viagogo"},
	}

	if _, err := svc.Create(context.Background(), req, "alice"); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}

	_, err := svc.Create(context.Background(), req, "alice")
	var abe *AlreadyBlockedError
	if !errors.As(err, &abe) {
		t.Fatalf("second Create() error = %v, want *AlreadyBlockedError", err)
	}
	if abe.EventCode != "E100" {
		t.Errorf("EventCode = %q, want E100", abe.EventCode)
	}
	if len(publisher.blacklist) != 1 {
		t.Errorf("published messages = %d, want 1 (duplicate not published)", len(publisher.blacklist))
	}
}

func TestBlacklistCreate_InsertFailureIsFatal(t *testing.T) {
	svc, store, publisher, audit, invalidator := newBlacklistFixture()
	store.resolved = resolvedEntry("E100", models.NotesBlacklistEventCode)
	store.insertErr = errors.New("connection reset")

	req := models.CreateBlacklistRequest{
		Criteria:  models.CriteriaEventCode,
		EventCode: "E100",
		Market:    []string{"viagogo"},
	}

	_, err := svc.Create(context.Background(), req, "alice")
	var swe *StoreWriteError
	if !errors.As(err, &swe) {
		t.Fatalf("Create() error = %v, want *StoreWriteError", err)
	}

	// Nothing downstream runs when the commit point fails.
	if len(publisher.blacklist) != 0 {
		t.Errorf("published messages = %d, want 0", len(publisher.blacklist))
	}
	if len(audit.entries) != 0 {
		t.Errorf("audit entries = %d, want 0", len(audit.entries))
	}
	if len(invalidator.keys) != 0 {
		t.Errorf("invalidated keys = %v, want none", invalidator.keys)
	}
	if len(store.changeLog) != 0 {
		t.Errorf("change log rows = %d, want 0", len(store.changeLog))
	}
}

func TestBlacklistCreate_OutboxFailureIsNotFatal(t *testing.T) {
	svc, store, publisher, audit, _ := newBlacklistFixture()
	store.resolved = resolvedEntry("E100", models.NotesBlacklistEventCode)
	publisher.err = errors.New("broker unavailable")

	req := models.CreateBlacklistRequest{
		Criteria:  models.CriteriaEventCode,
		EventCode: "E100",
		Market:    []string{"viagogo"},
	}

	entry, err := svc.Create(context.Background(), req, "alice")
	if err != nil {
		t.Fatalf("Create() error = %v, want nil (outbox failure is non-fatal)", err)
	}
	if _, ok := store.entries[entry.ID]; !ok {
		t.Error("entry not persisted")
	}
	if len(audit.entries) != 1 {
		t.Errorf("audit entries = %d, want 1", len(audit.entries))
	}
}

func TestBlacklistCreate_ChangeLogFailureIsNotFatal(t *testing.T) {
	svc, store, publisher, _, _ := newBlacklistFixture()
	store.resolved = resolvedEntry("E100", models.NotesBlacklistEventCode)
	store.changeLogErr = errors.New("connection reset")

	entry, err := svc.Create(context.Background(), models.CreateBlacklistRequest{
		Criteria:  models.CriteriaEventCode,
		EventCode: "E100",
		Market:    []string{"viagogo"},
	}, "alice")
	if err != nil {
		t.Fatalf("Create() error = %v, want nil (change log failure is non-fatal)", err)
	}
	if _, ok := store.entries[entry.ID]; !ok {
		t.Error("entry not persisted")
	}
	if len(publisher.blacklist) != 1 {
		t.Errorf("published messages = %d, want 1", len(publisher.blacklist))
	}
}

func TestBlacklistDelete_HappyPath(t *testing.T) {
	svc, store, publisher, audit, invalidator := newBlacklistFixture()
	store.resolved = resolvedEntry("E100", models.NotesBlacklistEventCode)

	created, err := svc.Create(context.Background(), models.CreateBlacklistRequest{
		Criteria:  models.CriteriaEventCode,
		EventCode: "E100",
		Market:    []string{"viagogo"},
	}, "alice")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	deleted, err := svc.Delete(context.Background(), models.DeleteBlacklistRequest{
		ID:        created.ID,
		EventCode: "E100",
		Notes:     models.NotesBlacklistEventCode,
	}, "bob")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted.ID != created.ID {
		t.Errorf("deleted ID = %q, want %q", deleted.ID, created.ID)
	}

	if len(store.entries) != 0 {
		t.Errorf("store entries = %d, want 0", len(store.entries))
	}
	if len(store.compat) != 0 {
		t.Errorf("compat entries = %d, want 0", len(store.compat))
	}

	if len(publisher.blacklist) != 2 {
		t.Fatalf("published messages = %d, want 2", len(publisher.blacklist))
	}
	if publisher.blacklist[1].Action != outbox.ActionDelete {
		t.Errorf("action = %q, want %q", publisher.blacklist[1].Action, outbox.ActionDelete)
	}

	if len(audit.entries) != 2 || audit.entries[1].Operation != models.AuditOperationDelete {
		t.Errorf("audit entries = %v, want create then delete", audit.entries)
	}

	if len(store.changeLog) != 2 || store.changeLog[1].operation != models.AuditOperationDelete {
		t.Errorf("change log rows = %+v, want create then delete", store.changeLog)
	}

	// One invalidation per mutation: create, then delete.
	if len(invalidator.keys) != 2 || invalidator.keys[1] != "blacklist_E100" {
		t.Errorf("invalidated keys = %v, want [blacklist_E100 blacklist_E100]", invalidator.keys)
	}
}

func TestBlacklistDelete_NotFound(t *testing.T) {
	svc, _, _, _, invalidator := newBlacklistFixture()

	_, err := svc.Delete(context.Background(), models.DeleteBlacklistRequest{
		ID:        "missing",
		EventCode: "E100",
		Notes:     models.NotesBlacklistEventCode,
	}, "bob")
	var nfe *NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("Delete() error = %v, want *NotFoundError", err)
	}

	// Cache is still invalidated so a stale block cannot keep serving.
	if len(invalidator.keys) != 1 || invalidator.keys[0] != "blacklist_E100" {
		t.Errorf("invalidated keys = %v, want [blacklist_E100]", invalidator.keys)
	}
}

func TestBlacklistDelete_CacheInvalidatedOnStoreFailure(t *testing.T) {
	svc, store, _, _, invalidator := newBlacklistFixture()
	store.deleteErr = errors.New("connection reset")

	_, err := svc.Delete(context.Background(), models.DeleteBlacklistRequest{
		ID:        "some-id",
		EventCode: "E100",
		Notes:     models.NotesBlacklistEventCode,
	}, "bob")
	var swe *StoreWriteError
	if !errors.As(err, &swe) {
		t.Fatalf("Delete() error = %v, want *StoreWriteError", err)
	}

	if len(invalidator.keys) != 1 {
		t.Errorf("invalidated keys = %v, want exactly one", invalidator.keys)
	}
}

func TestBlacklistDeleteThenRecreate(t *testing.T) {
	svc, store, publisher, _, _ := newBlacklistFixture()
	store.resolved = resolvedEntry("E100", models.NotesBlacklistEventCode)

	req := models.CreateBlacklistRequest{
		Criteria:  models.CriteriaEventCode,
		EventCode: "E100",
		Market:    []string{"viagogo"},
	}

	first, err := svc.Create(context.Background(), req, "alice")
	if err != nil {
		t.Fatalf("first Create() error = %v", err)
	}

	if _, err := svc.Delete(context.Background(), models.DeleteBlacklistRequest{
		ID:        first.ID,
		EventCode: "E100",
		Notes:     models.NotesBlacklistEventCode,
	}, "alice"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	second, err := svc.Create(context.Background(), req, "alice")
	if err != nil {
		t.Fatalf("second Create() error = %v", err)
	}

	if second.ID == first.ID {
		t.Error("recreated entry reused the old ID, want a fresh one")
	}
	// create, delete, create
	if len(publisher.blacklist) != 3 {
		t.Errorf("published messages = %d, want 3", len(publisher.blacklist))
	}
}

func TestBlacklistList_Validation(t *testing.T) {
	svc, _, _, _, _ := newBlacklistFixture()

	_, err := svc.List(context.Background(), 0, 50, "")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("List() error = %v, want *ValidationError", err)
	}
}
