package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/crossidm/idsync/internal/models"
)

// SystemStore handles systems, system entities, accounts and their links to
// internal entities.
type SystemStore struct {
	Base
}

// NewSystemStore creates a new SystemStore.
func NewSystemStore(base Base) *SystemStore {
	return &SystemStore{Base: base}
}

// CreateSystem inserts a new system and returns the created record.
func (s *SystemStore) CreateSystem(ctx context.Context, name, description string, virtual bool) (*models.System, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `INSERT INTO sys_system (name, description, virtual)
		VALUES ($1, $2, $3)
		RETURNING ` + systemColumns

	row := s.Pool.QueryRow(ctx, query, name, description, virtual)

	sys, err := scanSystem(row.Scan)
	if err != nil {
		if err := mapDuplicate(err); err == models.ErrDuplicateKey {
			return nil, err
		}

		return nil, fmt.Errorf("creating system: %w", err)
	}

	return sys, nil
}

// GetSystem returns a system by ID.
func (s *SystemStore) GetSystem(ctx context.Context, id uuid.UUID) (*models.System, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, `SELECT `+systemColumns+` FROM sys_system WHERE id = $1`, id)

	sys, err := scanSystem(row.Scan)
	if err != nil {
		return nil, notFound(err, models.ErrSystemNotFound)
	}

	return sys, nil
}

// ListSystems returns all systems ordered by name.
func (s *SystemStore) ListSystems(ctx context.Context) ([]models.System, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, `SELECT `+systemColumns+` FROM sys_system ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing systems: %w", err)
	}

	return collectRows(rows, scanSystem)
}

// SetSystemDisabled flips the disabled flag on a system.
func (s *SystemStore) SetSystemDisabled(ctx context.Context, id uuid.UUID, disabled bool) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, `UPDATE sys_system SET disabled = $2 WHERE id = $1`, id, disabled)
	if err != nil {
		return fmt.Errorf("updating system: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrSystemNotFound
	}

	return nil
}

// DeleteSystem removes a system and, via cascade, its entities and accounts.
func (s *SystemStore) DeleteSystem(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, `DELETE FROM sys_system WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting system: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrSystemNotFound
	}

	return nil
}

// GetOrCreateSystemEntity returns the system entity for the triple, creating
// it when absent. The upsert keeps concurrent callers from racing on the
// unique key.
func (s *SystemStore) GetOrCreateSystemEntity(
	ctx context.Context,
	systemID uuid.UUID,
	entityType models.EntityType,
	uid string,
) (*models.SystemEntity, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `INSERT INTO sys_system_entity (system_id, entity_type, uid)
		VALUES ($1, $2, $3)
		ON CONFLICT (system_id, entity_type, uid) DO UPDATE SET uid = EXCLUDED.uid
		RETURNING ` + systemEntityColumns

	row := s.Pool.QueryRow(ctx, query, systemID, entityType, uid)

	entity, err := scanSystemEntity(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("upserting system entity: %w", err)
	}

	return entity, nil
}

// FindSystemEntity returns the system entity for (system, type, uid).
func (s *SystemStore) FindSystemEntity(
	ctx context.Context,
	systemID uuid.UUID,
	entityType models.EntityType,
	uid string,
) (*models.SystemEntity, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + systemEntityColumns + ` FROM sys_system_entity
		WHERE system_id = $1 AND entity_type = $2 AND uid = $3`

	row := s.Pool.QueryRow(ctx, query, systemID, entityType, uid)

	entity, err := scanSystemEntity(row.Scan)
	if err != nil {
		return nil, notFound(err, models.ErrAccountNotFound)
	}

	return entity, nil
}

// DeleteSystemEntity removes a system entity and cascades to its accounts.
func (s *SystemStore) DeleteSystemEntity(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := s.Pool.Exec(ctx, `DELETE FROM sys_system_entity WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting system entity: %w", err)
	}

	return nil
}

// CreateAccount inserts an account pointing at a system entity.
func (s *SystemStore) CreateAccount(
	ctx context.Context,
	systemID, systemEntityID uuid.UUID,
	uid string,
	entityType models.EntityType,
) (*models.Account, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `INSERT INTO acc_account (system_id, system_entity_id, uid, entity_type)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + accountColumns

	row := s.Pool.QueryRow(ctx, query, systemID, systemEntityID, uid, entityType)

	acc, err := scanAccount(row.Scan)
	if err != nil {
		if err := mapDuplicate(err); err == models.ErrDuplicateKey {
			return nil, err
		}

		return nil, fmt.Errorf("creating account: %w", err)
	}

	return acc, nil
}

// FindAccountByUID returns the account for (system, type, uid).
func (s *SystemStore) FindAccountByUID(
	ctx context.Context,
	systemID uuid.UUID,
	entityType models.EntityType,
	uid string,
) (*models.Account, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + accountColumns + ` FROM acc_account
		WHERE system_id = $1 AND entity_type = $2 AND uid = $3`

	row := s.Pool.QueryRow(ctx, query, systemID, entityType, uid)

	acc, err := scanAccount(row.Scan)
	if err != nil {
		return nil, notFound(err, models.ErrAccountNotFound)
	}

	return acc, nil
}

// ListAccountsBySystem returns all accounts of the entity type on a system.
// Reconciliation walks this list to find accounts absent from the snapshot.
func (s *SystemStore) ListAccountsBySystem(
	ctx context.Context,
	systemID uuid.UUID,
	entityType models.EntityType,
) ([]models.Account, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + accountColumns + ` FROM acc_account
		WHERE system_id = $1 AND entity_type = $2 ORDER BY uid`

	rows, err := s.Pool.Query(ctx, query, systemID, entityType)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}

	return collectRows(rows, scanAccount)
}

// DeleteAccount removes an account and cascades to its entity links.
func (s *SystemStore) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, `DELETE FROM acc_account WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrAccountNotFound
	}

	return nil
}

// LinkAccount creates the entity-account relation.
func (s *SystemStore) LinkAccount(
	ctx context.Context,
	accountID, entityID uuid.UUID,
	entityType models.EntityType,
	ownership bool,
	roleAssignmentID *uuid.UUID,
) (*models.EntityAccount, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `INSERT INTO acc_entity_account
		(account_id, entity_id, entity_type, ownership, role_assignment_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + entityAccountColumns

	row := s.Pool.QueryRow(ctx, query, accountID, entityID, entityType, ownership, roleAssignmentID)

	ea, err := scanEntityAccount(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("linking account: %w", err)
	}

	return ea, nil
}

// ListEntityAccountsByAccount returns all entity links of an account.
func (s *SystemStore) ListEntityAccountsByAccount(ctx context.Context, accountID uuid.UUID) ([]models.EntityAccount, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + entityAccountColumns + ` FROM acc_entity_account
		WHERE account_id = $1 ORDER BY created_at`

	rows, err := s.Pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing entity accounts: %w", err)
	}

	return collectRows(rows, scanEntityAccount)
}

// ListEntityAccountsByEntity returns all account links of an internal entity.
func (s *SystemStore) ListEntityAccountsByEntity(ctx context.Context, entityID uuid.UUID) ([]models.EntityAccount, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + entityAccountColumns + ` FROM acc_entity_account
		WHERE entity_id = $1 ORDER BY created_at`

	rows, err := s.Pool.Query(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("listing entity accounts: %w", err)
	}

	return collectRows(rows, scanEntityAccount)
}

// UnlinkAccount removes every entity-account relation of the account without
// touching the account or the remote object.
func (s *SystemStore) UnlinkAccount(ctx context.Context, accountID uuid.UUID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := s.Pool.Exec(ctx, `DELETE FROM acc_entity_account WHERE account_id = $1`, accountID); err != nil {
		return fmt.Errorf("unlinking account: %w", err)
	}

	return nil
}
