// Package domain defines the canonical service interfaces shared across API
// layers (REST handlers, CLI, workers). Consumers should depend on these
// interfaces rather than re-declaring equivalent ones.
package domain

import (
	"context"

	"github.com/google/uuid"

	"github.com/crossidm/idsync/internal/models"
)

// SyncService defines synchronization run control and situation handling.
type SyncService interface {
	// StartSync begins a run for the config and blocks until it finishes or
	// is cancelled. At most one run per config may be active.
	StartSync(ctx context.Context, configID uuid.UUID) (*models.SyncLog, error)
	// StopSync requests cancellation of the config's running sync. The run
	// stops between items, never mid-item.
	StopSync(ctx context.Context, configID uuid.UUID) error
	RunningSync(ctx context.Context, configID uuid.UUID) (*models.SyncLog, error)
	ListLogs(ctx context.Context, configID uuid.UUID, limit int) ([]models.SyncLog, error)
	ListActionLogs(ctx context.Context, syncLogID uuid.UUID) ([]models.SyncActionLog, error)
	ListItemLogs(ctx context.Context, actionLogID uuid.UUID) ([]models.SyncItemLog, error)
	// ResolveItem re-resolves one remote object with an explicit situation and
	// action, for manual resolution by an operator.
	ResolveItem(ctx context.Context, configID uuid.UUID, situation models.Situation, action models.SyncAction, uid string) error
}

// SyncConfigService defines sync configuration management.
type SyncConfigService interface {
	CreateConfig(ctx context.Context, cfg models.SyncConfig) (*models.SyncConfig, error)
	GetConfig(ctx context.Context, id uuid.UUID) (*models.SyncConfig, error)
	ListConfigs(ctx context.Context) ([]models.SyncConfig, error)
	UpdateConfig(ctx context.Context, cfg models.SyncConfig) (*models.SyncConfig, error)
	DeleteConfig(ctx context.Context, id uuid.UUID) error
}

// SystemService defines system and attribute mapping management.
type SystemService interface {
	CreateSystem(ctx context.Context, name, description string, virtual bool) (*models.System, error)
	GetSystem(ctx context.Context, id uuid.UUID) (*models.System, error)
	ListSystems(ctx context.Context) ([]models.System, error)
	SetSystemDisabled(ctx context.Context, id uuid.UUID, disabled bool) error
	DeleteSystem(ctx context.Context, id uuid.UUID) error

	CreateMapping(ctx context.Context, m models.AttributeMapping) (*models.AttributeMapping, error)
	ListMappings(ctx context.Context, systemID uuid.UUID) ([]models.AttributeMapping, error)
	UpdateMapping(ctx context.Context, m models.AttributeMapping) (*models.AttributeMapping, error)
	DeleteMapping(ctx context.Context, id uuid.UUID) error
}

// ProvisioningService defines queue management and execution.
type ProvisioningService interface {
	// Enqueue adds an operation to its batch, creating the batch when absent.
	Enqueue(ctx context.Context, op models.ProvisioningOperation) (*models.ProvisioningOperation, error)
	// ExecuteDue runs every due batch once and returns the number of
	// operations attempted.
	ExecuteDue(ctx context.Context) (int, error)
	// ExecuteBatch runs one batch's pending operations in order, stopping at
	// the first failure.
	ExecuteBatch(ctx context.Context, batchID uuid.UUID) error
	// RetryNow clears a batch's backoff so the next poll picks it up.
	RetryNow(ctx context.Context, batchID uuid.UUID) error
	ListOperations(ctx context.Context, state models.OperationState, limit int) ([]models.ProvisioningOperation, error)
	QueueDepth(ctx context.Context) (int, error)
}

// AuditService defines audit log query operations.
type AuditService interface {
	Auditor
	QueryAudit(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, error)
}

// Auditor is the minimal interface for recording audit entries.
// Used by services and handlers for fire-and-forget audit logging.
type Auditor interface {
	RecordAudit(ctx context.Context, action, entityType, entityID, actor string, detail map[string]any) error
}
