package api_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/crossidm/idsync/internal/models"
)

// mockSyncService implements domain.SyncService for testing.
type mockSyncService struct {
	startFn       func(ctx context.Context, configID uuid.UUID) (*models.SyncLog, error)
	stopFn        func(ctx context.Context, configID uuid.UUID) error
	runningFn     func(ctx context.Context, configID uuid.UUID) (*models.SyncLog, error)
	listLogsFn    func(ctx context.Context, configID uuid.UUID, limit int) ([]models.SyncLog, error)
	listActionsFn func(ctx context.Context, syncLogID uuid.UUID) ([]models.SyncActionLog, error)
	listItemsFn   func(ctx context.Context, actionLogID uuid.UUID) ([]models.SyncItemLog, error)
	resolveFn     func(ctx context.Context, configID uuid.UUID, situation models.Situation, action models.SyncAction, uid string) error
}

func (m *mockSyncService) StartSync(ctx context.Context, configID uuid.UUID) (*models.SyncLog, error) {
	return m.startFn(ctx, configID)
}

func (m *mockSyncService) StopSync(ctx context.Context, configID uuid.UUID) error {
	return m.stopFn(ctx, configID)
}

func (m *mockSyncService) RunningSync(ctx context.Context, configID uuid.UUID) (*models.SyncLog, error) {
	return m.runningFn(ctx, configID)
}

func (m *mockSyncService) ListLogs(ctx context.Context, configID uuid.UUID, limit int) ([]models.SyncLog, error) {
	return m.listLogsFn(ctx, configID, limit)
}

func (m *mockSyncService) ListActionLogs(ctx context.Context, syncLogID uuid.UUID) ([]models.SyncActionLog, error) {
	return m.listActionsFn(ctx, syncLogID)
}

func (m *mockSyncService) ListItemLogs(ctx context.Context, actionLogID uuid.UUID) ([]models.SyncItemLog, error) {
	return m.listItemsFn(ctx, actionLogID)
}

func (m *mockSyncService) ResolveItem(ctx context.Context, configID uuid.UUID, situation models.Situation, action models.SyncAction, uid string) error {
	return m.resolveFn(ctx, configID, situation, action, uid)
}

// mockSystemService implements domain.SystemService for testing.
type mockSystemService struct {
	createFn        func(ctx context.Context, name, description string, virtual bool) (*models.System, error)
	getFn           func(ctx context.Context, id uuid.UUID) (*models.System, error)
	listFn          func(ctx context.Context) ([]models.System, error)
	setDisabledFn   func(ctx context.Context, id uuid.UUID, disabled bool) error
	deleteFn        func(ctx context.Context, id uuid.UUID) error
	createMapFn     func(ctx context.Context, m models.AttributeMapping) (*models.AttributeMapping, error)
	listMapFn       func(ctx context.Context, systemID uuid.UUID) ([]models.AttributeMapping, error)
	updateMapFn     func(ctx context.Context, m models.AttributeMapping) (*models.AttributeMapping, error)
	deleteMappingFn func(ctx context.Context, id uuid.UUID) error
}

func (m *mockSystemService) CreateSystem(ctx context.Context, name, description string, virtual bool) (*models.System, error) {
	return m.createFn(ctx, name, description, virtual)
}

func (m *mockSystemService) GetSystem(ctx context.Context, id uuid.UUID) (*models.System, error) {
	return m.getFn(ctx, id)
}

func (m *mockSystemService) ListSystems(ctx context.Context) ([]models.System, error) {
	return m.listFn(ctx)
}

func (m *mockSystemService) SetSystemDisabled(ctx context.Context, id uuid.UUID, disabled bool) error {
	return m.setDisabledFn(ctx, id, disabled)
}

func (m *mockSystemService) DeleteSystem(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func (m *mockSystemService) CreateMapping(ctx context.Context, am models.AttributeMapping) (*models.AttributeMapping, error) {
	return m.createMapFn(ctx, am)
}

func (m *mockSystemService) ListMappings(ctx context.Context, systemID uuid.UUID) ([]models.AttributeMapping, error) {
	return m.listMapFn(ctx, systemID)
}

func (m *mockSystemService) UpdateMapping(ctx context.Context, am models.AttributeMapping) (*models.AttributeMapping, error) {
	return m.updateMapFn(ctx, am)
}

func (m *mockSystemService) DeleteMapping(ctx context.Context, id uuid.UUID) error {
	return m.deleteMappingFn(ctx, id)
}

// mockProvisioningService implements domain.ProvisioningService for testing.
type mockProvisioningService struct {
	enqueueFn      func(ctx context.Context, op models.ProvisioningOperation) (*models.ProvisioningOperation, error)
	executeDueFn   func(ctx context.Context) (int, error)
	executeBatchFn func(ctx context.Context, batchID uuid.UUID) error
	retryNowFn     func(ctx context.Context, batchID uuid.UUID) error
	listOpsFn      func(ctx context.Context, state models.OperationState, limit int) ([]models.ProvisioningOperation, error)
	queueDepthFn   func(ctx context.Context) (int, error)
}

func (m *mockProvisioningService) Enqueue(ctx context.Context, op models.ProvisioningOperation) (*models.ProvisioningOperation, error) {
	return m.enqueueFn(ctx, op)
}

func (m *mockProvisioningService) ExecuteDue(ctx context.Context) (int, error) {
	return m.executeDueFn(ctx)
}

func (m *mockProvisioningService) ExecuteBatch(ctx context.Context, batchID uuid.UUID) error {
	return m.executeBatchFn(ctx, batchID)
}

func (m *mockProvisioningService) RetryNow(ctx context.Context, batchID uuid.UUID) error {
	return m.retryNowFn(ctx, batchID)
}

func (m *mockProvisioningService) ListOperations(ctx context.Context, state models.OperationState, limit int) ([]models.ProvisioningOperation, error) {
	return m.listOpsFn(ctx, state, limit)
}

func (m *mockProvisioningService) QueueDepth(ctx context.Context) (int, error) {
	return m.queueDepthFn(ctx)
}
