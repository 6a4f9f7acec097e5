package store_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/crossidm/idsync/internal/crypto"
	"github.com/crossidm/idsync/internal/dbpool"
	"github.com/crossidm/idsync/internal/models"
	"github.com/crossidm/idsync/internal/store"
)

// testHexKey is a valid 64-char hex string (32 bytes) for test encryption.
const testHexKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// testEnv holds shared test infrastructure (single pool across all tests).
type testEnv struct {
	pool *dbpool.Pool
	log  *logrus.Logger
}

var sharedEnv *testEnv

func getTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if sharedEnv != nil {
		return sharedEnv
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()

	pool, err := dbpool.NewPool(ctx, dbURL)
	if err != nil {
		t.Fatalf("connecting to test DB: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	sharedEnv = &testEnv{
		pool: pool,
		log:  log,
	}

	return sharedEnv
}

func newCryptoService(t *testing.T) *crypto.Service {
	t.Helper()

	provider, err := crypto.NewStaticProvider(testHexKey)
	if err != nil {
		t.Fatalf("creating static provider: %v", err)
	}

	return crypto.NewService(provider)
}

// setupTestBase creates a Base plus a throwaway system, cleaned up after the test.
func setupTestBase(t *testing.T) (store.Base, *models.System) {
	t.Helper()

	env := getTestEnv(t)

	base := store.Base{
		Pool:   env.pool,
		Log:    env.log,
		Crypto: newCryptoService(t),
	}

	systems := store.NewSystemStore(base)
	ctx := context.Background()

	sys, err := systems.CreateSystem(ctx, fmt.Sprintf("test-system-%s", uuid.NewString()), "store test", false)
	if err != nil {
		t.Fatalf("creating test system: %v", err)
	}

	t.Cleanup(func() {
		_ = systems.DeleteSystem(context.Background(), sys.ID)
	})

	return base, sys
}

func TestSystemEntityAndAccountLifecycle(t *testing.T) {
	base, sys := setupTestBase(t)
	systems := store.NewSystemStore(base)
	ctx := context.Background()

	entity, err := systems.GetOrCreateSystemEntity(ctx, sys.ID, models.EntityTypeIdentity, "jdoe")
	if err != nil {
		t.Fatalf("creating system entity: %v", err)
	}

	// Second call must return the same row, not a duplicate.
	again, err := systems.GetOrCreateSystemEntity(ctx, sys.ID, models.EntityTypeIdentity, "jdoe")
	if err != nil {
		t.Fatalf("re-reading system entity: %v", err)
	}

	if again.ID != entity.ID {
		t.Errorf("expected same system entity, got %s and %s", entity.ID, again.ID)
	}

	acc, err := systems.CreateAccount(ctx, sys.ID, entity.ID, "jdoe", models.EntityTypeIdentity)
	if err != nil {
		t.Fatalf("creating account: %v", err)
	}

	found, err := systems.FindAccountByUID(ctx, sys.ID, models.EntityTypeIdentity, "jdoe")
	if err != nil {
		t.Fatalf("finding account: %v", err)
	}

	if found.ID != acc.ID {
		t.Errorf("expected account %s, got %s", acc.ID, found.ID)
	}

	entityID := uuid.New()

	if _, err := systems.LinkAccount(ctx, acc.ID, entityID, models.EntityTypeIdentity, true, nil); err != nil {
		t.Fatalf("linking account: %v", err)
	}

	links, err := systems.ListEntityAccountsByAccount(ctx, acc.ID)
	if err != nil {
		t.Fatalf("listing links: %v", err)
	}

	if len(links) != 1 || !links[0].Ownership {
		t.Errorf("expected one owning link, got %+v", links)
	}

	if err := systems.UnlinkAccount(ctx, acc.ID); err != nil {
		t.Fatalf("unlinking account: %v", err)
	}

	links, err = systems.ListEntityAccountsByAccount(ctx, acc.ID)
	if err != nil {
		t.Fatalf("listing links after unlink: %v", err)
	}

	if len(links) != 0 {
		t.Errorf("expected no links after unlink, got %d", len(links))
	}

	// Unlink must not touch the account itself.
	if _, err := systems.FindAccountByUID(ctx, sys.ID, models.EntityTypeIdentity, "jdoe"); err != nil {
		t.Errorf("account disappeared after unlink: %v", err)
	}
}

func TestSyncLogTree(t *testing.T) {
	base, sys := setupTestBase(t)
	configs := store.NewSyncConfigStore(base)
	logs := store.NewSyncLogStore(base)
	ctx := context.Background()

	cfg, err := configs.CreateConfig(ctx, models.SyncConfig{
		Name:                 fmt.Sprintf("test-sync-%s", uuid.NewString()),
		SystemID:             sys.ID,
		EntityType:           models.EntityTypeIdentity,
		ObjectClass:          "inetOrgPerson",
		CorrelationAttribute: "uid",
		LinkedAction:         models.ActionUpdateEntity,
		UnlinkedAction:       models.ActionLink,
		MissingEntityAction:  models.ActionCreateEntity,
		MissingAccountAction: models.ActionIgnore,
		Enabled:              true,
	})
	if err != nil {
		t.Fatalf("creating sync config: %v", err)
	}

	run, err := logs.CreateLog(ctx, cfg.ID, "")
	if err != nil {
		t.Fatalf("creating sync log: %v", err)
	}

	if !run.Running {
		t.Error("new sync log should be running")
	}

	running, err := logs.FindRunningLog(ctx, cfg.ID)
	if err != nil {
		t.Fatalf("finding running log: %v", err)
	}

	if running == nil || running.ID != run.ID {
		t.Fatalf("expected running log %s, got %+v", run.ID, running)
	}

	// Same combination twice: one action log, operation count 2.
	first, err := logs.EnsureActionLog(ctx, run.ID, models.SituationMissingEntity,
		models.ActionCreateEntity, models.ResultSuccess)
	if err != nil {
		t.Fatalf("upserting action log: %v", err)
	}

	second, err := logs.EnsureActionLog(ctx, run.ID, models.SituationMissingEntity,
		models.ActionCreateEntity, models.ResultSuccess)
	if err != nil {
		t.Fatalf("upserting action log again: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("expected one action log, got %s and %s", first.ID, second.ID)
	}

	if second.OperationCount != 2 {
		t.Errorf("expected operation count 2, got %d", second.OperationCount)
	}

	item := models.SyncItemLog{
		SyncActionLogID: first.ID,
		Identification:  "jdoe",
		DisplayName:     "John Doe",
		Message:         "entity created",
	}

	if _, err := logs.AddItemLog(ctx, item); err != nil {
		t.Fatalf("adding item log: %v", err)
	}

	items, err := logs.ListItemLogs(ctx, first.ID)
	if err != nil {
		t.Fatalf("listing item logs: %v", err)
	}

	if len(items) != 1 || items[0].Identification != "jdoe" {
		t.Errorf("unexpected item logs: %+v", items)
	}

	run.Token = "42"

	if err := logs.CloseLog(ctx, run); err != nil {
		t.Fatalf("closing sync log: %v", err)
	}

	token, err := logs.LastToken(ctx, cfg.ID)
	if err != nil {
		t.Fatalf("reading last token: %v", err)
	}

	if token != "42" {
		t.Errorf("expected token 42, got %q", token)
	}
}

func TestIdentityConfidentialRoundTrip(t *testing.T) {
	base, sys := setupTestBase(t)
	identities := store.NewIdentityStore(base)
	ctx := context.Background()

	ident, err := identities.CreateIdentity(ctx, models.Identity{
		Username: fmt.Sprintf("jdoe-%s", uuid.NewString()),
		Email:    "jdoe@example.com",
		Extended: map[string]any{"employeeNumber": "1001"},
	})
	if err != nil {
		t.Fatalf("creating identity: %v", err)
	}

	t.Cleanup(func() {
		_ = identities.DeleteIdentity(context.Background(), ident.ID)
	})

	secret := map[string]any{"initialPassword": "hunter2"}

	if err := identities.SetConfidential(ctx, ident.ID, sys.ID.String(), secret); err != nil {
		t.Fatalf("setting confidential attributes: %v", err)
	}

	got, err := identities.GetIdentity(ctx, ident.ID)
	if err != nil {
		t.Fatalf("reading identity: %v", err)
	}

	if got.Confidential["initialPassword"] != "hunter2" {
		t.Errorf("confidential attribute did not round trip: %+v", got.Confidential)
	}

	matches, err := identities.FindByProperty(ctx, "employeeNumber", "1001")
	if err != nil {
		t.Fatalf("finding by extended property: %v", err)
	}

	found := false

	for _, m := range matches {
		if m.ID == ident.ID {
			found = true
		}
	}

	if !found {
		t.Error("extended property lookup missed the identity")
	}
}

func TestProvisioningBatchUpsert(t *testing.T) {
	base, sys := setupTestBase(t)
	prov := store.NewProvisioningStore(base)
	ctx := context.Background()

	entityID := uuid.New()

	op1, err := prov.EnqueueOperation(ctx, models.ProvisioningOperation{
		Operation:       models.OperationCreate,
		EntityType:      models.EntityTypeIdentity,
		SystemID:        sys.ID,
		EntityID:        &entityID,
		SystemEntityUID: "jdoe",
		ObjectClass:     "inetOrgPerson",
		Payload:         map[string]any{"cn": "John Doe"},
	})
	if err != nil {
		t.Fatalf("enqueueing first operation: %v", err)
	}

	op2, err := prov.EnqueueOperation(ctx, models.ProvisioningOperation{
		Operation:       models.OperationUpdate,
		EntityType:      models.EntityTypeIdentity,
		SystemID:        sys.ID,
		EntityID:        &entityID,
		SystemEntityUID: "jdoe",
		ObjectClass:     "inetOrgPerson",
	})
	if err != nil {
		t.Fatalf("enqueueing second operation: %v", err)
	}

	if op1.BatchID != op2.BatchID {
		t.Errorf("operations for one triple landed in different batches: %s vs %s", op1.BatchID, op2.BatchID)
	}

	pending, err := prov.ListPendingOperations(ctx, op1.BatchID)
	if err != nil {
		t.Fatalf("listing pending operations: %v", err)
	}

	if len(pending) != 2 {
		t.Fatalf("expected 2 pending operations, got %d", len(pending))
	}

	// FIFO within the batch.
	if pending[0].Operation != models.OperationCreate {
		t.Errorf("expected CREATE first, got %s", pending[0].Operation)
	}

	if err := prov.UpdateOperationResult(ctx, op1.ID, models.OperationExecuted, "", 1); err != nil {
		t.Fatalf("marking executed: %v", err)
	}

	deleted, err := prov.DeleteBatchIfDone(ctx, op1.BatchID)
	if err != nil {
		t.Fatalf("deleting batch: %v", err)
	}

	if deleted {
		t.Error("batch deleted while an operation was still pending")
	}

	if err := prov.UpdateOperationResult(ctx, op2.ID, models.OperationExecuted, "", 1); err != nil {
		t.Fatalf("marking executed: %v", err)
	}

	deleted, err = prov.DeleteBatchIfDone(ctx, op1.BatchID)
	if err != nil {
		t.Fatalf("deleting batch: %v", err)
	}

	if !deleted {
		t.Error("batch not deleted after all operations executed")
	}
}

func TestSyncConfigValidationRejected(t *testing.T) {
	base, sys := setupTestBase(t)
	configs := store.NewSyncConfigStore(base)
	ctx := context.Background()

	_, err := configs.CreateConfig(ctx, models.SyncConfig{
		Name:        fmt.Sprintf("bad-%s", uuid.NewString()),
		SystemID:    sys.ID,
		EntityType:  models.EntityTypeIdentity,
		ObjectClass: "inetOrgPerson",
		// DELETE_ENTITY is not a valid action for LINKED.
		LinkedAction:         models.ActionDeleteEntity,
		UnlinkedAction:       models.ActionIgnore,
		MissingEntityAction:  models.ActionIgnore,
		MissingAccountAction: models.ActionIgnore,
	})
	if !errors.Is(err, models.ErrUnsupportedAction) {
		t.Errorf("expected ErrUnsupportedAction, got %v", err)
	}
}
