package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/crossidm/idsync/internal/connector"
	"github.com/crossidm/idsync/internal/models"
)

// AccountStore is the account and link data access the engine depends on.
// *store.SystemStore implements it.
type AccountStore interface {
	GetOrCreateSystemEntity(ctx context.Context, systemID uuid.UUID, entityType models.EntityType, uid string) (*models.SystemEntity, error)
	FindAccountByUID(ctx context.Context, systemID uuid.UUID, entityType models.EntityType, uid string) (*models.Account, error)
	CreateAccount(ctx context.Context, systemID, systemEntityID uuid.UUID, uid string, entityType models.EntityType) (*models.Account, error)
	LinkAccount(ctx context.Context, accountID, entityID uuid.UUID, entityType models.EntityType, ownership bool, roleAssignmentID *uuid.UUID) (*models.EntityAccount, error)
	ListEntityAccountsByAccount(ctx context.Context, accountID uuid.UUID) ([]models.EntityAccount, error)
	ListAccountsBySystem(ctx context.Context, systemID uuid.UUID, entityType models.EntityType) ([]models.Account, error)
	UnlinkAccount(ctx context.Context, accountID uuid.UUID) error
	DeleteAccount(ctx context.Context, id uuid.UUID) error
	DeleteSystemEntity(ctx context.Context, id uuid.UUID) error
}

// Provisioner enqueues write-backs to external systems. Executors never talk
// to connectors directly; every outbound write funnels through the queue.
type Provisioner interface {
	Enqueue(ctx context.Context, op models.ProvisioningOperation) (*models.ProvisioningOperation, error)
}

// SyncItem carries the per-item state one resolution needs: the remote
// object, the classification results, the applicable mappings and the item
// log to append traces to. Built fresh per item, never shared across items.
type SyncItem struct {
	Config   *models.SyncConfig
	Object   connector.Object
	UID      string
	Account  *models.Account
	EntityID *uuid.UUID
	Mappings []models.AttributeMapping
	ItemLog  *models.SyncItemLog
}

// SituationExecutor performs entity-type-specific resolution of the four
// situations. One implementation per internal entity type, selected through
// the registry by Supports.
type SituationExecutor interface {
	Supports(entityType models.EntityType) bool
	ResolveMissingEntity(ctx context.Context, action models.SyncAction, item *SyncItem) error
	ResolveLinked(ctx context.Context, action models.SyncAction, item *SyncItem) error
	ResolveUnlinked(ctx context.Context, action models.SyncAction, item *SyncItem) error
	ResolveMissingAccount(ctx context.Context, action models.SyncAction, item *SyncItem) error
	// Finder correlates remote objects to this executor's entity type.
	Finder() EntityFinder
}

// snapshotPlanner is implemented by executors whose entity type requires a
// specific processing order over the snapshot (tree nodes, parents first).
type snapshotPlanner interface {
	PlanObjects(cfg *models.SyncConfig, mappings []models.AttributeMapping, objects []connector.Object) ([]connector.Object, error)
}

// ExecutorRegistry resolves the executor for an entity type. Built once at
// startup; no runtime discovery.
type ExecutorRegistry struct {
	executors []SituationExecutor
}

// NewExecutorRegistry creates a registry over the given executors.
func NewExecutorRegistry(executors ...SituationExecutor) *ExecutorRegistry {
	return &ExecutorRegistry{executors: executors}
}

// ForType returns the first executor supporting the entity type.
func (r *ExecutorRegistry) ForType(entityType models.EntityType) (SituationExecutor, error) {
	for _, e := range r.executors {
		if e.Supports(entityType) {
			return e, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedEntityType, entityType)
}

// baseExecutor bundles the collaborators every entity-type executor shares.
type baseExecutor struct {
	accounts AccountStore
	prov     Provisioner
	resolver *Resolver
	log      *logrus.Logger
}

// ensureLink records the UID as existing on the system and links it to the
// internal entity: system entity, account and entity-account relation. Any
// of the three may already exist from a previous run.
func (b *baseExecutor) ensureLink(ctx context.Context, item *SyncItem, entityID uuid.UUID, ownership bool) (*models.Account, error) {
	cfg := item.Config

	entity, err := b.accounts.GetOrCreateSystemEntity(ctx, cfg.SystemID, cfg.EntityType, item.UID)
	if err != nil {
		return nil, err
	}

	account := item.Account

	if account == nil {
		account, err = b.accounts.CreateAccount(ctx, cfg.SystemID, entity.ID, item.UID, cfg.EntityType)
		if err != nil && !errors.Is(err, models.ErrDuplicateKey) {
			return nil, err
		}

		if account == nil {
			account, err = b.accounts.FindAccountByUID(ctx, cfg.SystemID, cfg.EntityType, item.UID)
			if err != nil {
				return nil, err
			}
		}
	}

	if _, err := b.accounts.LinkAccount(ctx, account.ID, entityID, cfg.EntityType, ownership, nil); err != nil {
		return nil, err
	}

	item.ItemLog.Append(fmt.Sprintf("linked account %s to entity %s", item.UID, entityID))

	return account, nil
}

// provision enqueues one write-back for the item's external identity.
func (b *baseExecutor) provision(
	ctx context.Context,
	item *SyncItem,
	op models.OperationType,
	entityID *uuid.UUID,
	payload map[string]any,
) error {
	if b.prov == nil {
		return nil
	}

	cfg := item.Config

	queued, err := b.prov.Enqueue(ctx, models.ProvisioningOperation{
		Operation:       op,
		EntityType:      cfg.EntityType,
		SystemID:        cfg.SystemID,
		EntityID:        entityID,
		SystemEntityUID: item.UID,
		ObjectClass:     cfg.ObjectClass,
		Payload:         payload,
	})
	if err != nil {
		return fmt.Errorf("enqueueing %s provisioning: %w", op, err)
	}

	item.ItemLog.Append(fmt.Sprintf("queued %s provisioning operation %s", op, queued.ID))

	return nil
}

// unlink removes the entity-account relations of the item's account. It
// deliberately enqueues nothing: an unlink must never round-trip into a
// destructive write against the system being reconciled.
func (b *baseExecutor) unlink(ctx context.Context, item *SyncItem) error {
	if item.Account == nil {
		return models.ErrAccountNotFound
	}

	if err := b.accounts.UnlinkAccount(ctx, item.Account.ID); err != nil {
		return err
	}

	item.ItemLog.Append(fmt.Sprintf("unlinked account %s", item.UID))

	return nil
}

// dropAccount removes the account and its system entity after the internal
// entity was deleted.
func (b *baseExecutor) dropAccount(ctx context.Context, item *SyncItem) error {
	if item.Account == nil {
		return nil
	}

	if err := b.accounts.DeleteAccount(ctx, item.Account.ID); err != nil {
		return err
	}

	return b.accounts.DeleteSystemEntity(ctx, item.Account.SystemEntityID)
}

// timeNow is stubbed in tests.
var timeNow = time.Now
