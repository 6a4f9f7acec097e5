package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/crossidm/idsync/internal/models"
)

// SyncConfigStore handles synchronization configuration CRUD.
type SyncConfigStore struct {
	Base
}

// NewSyncConfigStore creates a new SyncConfigStore.
func NewSyncConfigStore(base Base) *SyncConfigStore {
	return &SyncConfigStore{Base: base}
}

// CreateConfig inserts a new sync config and returns the created record.
func (s *SyncConfigStore) CreateConfig(ctx context.Context, cfg models.SyncConfig) (*models.SyncConfig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `INSERT INTO sys_sync_config
		(name, system_id, entity_type, object_class, correlation_attribute,
		 reconciliation, custom_filter_script, roots_filter_script,
		 linked_action, unlinked_action, missing_entity_action,
		 missing_account_action, enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + syncConfigColumns

	row := s.Pool.QueryRow(ctx, query,
		cfg.Name, cfg.SystemID, cfg.EntityType, cfg.ObjectClass,
		cfg.CorrelationAttribute, cfg.Reconciliation, cfg.CustomFilterScript,
		cfg.RootsFilterScript, cfg.LinkedAction, cfg.UnlinkedAction,
		cfg.MissingEntityAction, cfg.MissingAccountAction, cfg.Enabled)

	created, err := scanSyncConfig(row.Scan)
	if err != nil {
		if err := mapDuplicate(err); err == models.ErrDuplicateKey {
			return nil, err
		}

		return nil, fmt.Errorf("creating sync config: %w", err)
	}

	return created, nil
}

// GetConfig returns a sync config by ID.
func (s *SyncConfigStore) GetConfig(ctx context.Context, id uuid.UUID) (*models.SyncConfig, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, `SELECT `+syncConfigColumns+` FROM sys_sync_config WHERE id = $1`, id)

	cfg, err := scanSyncConfig(row.Scan)
	if err != nil {
		return nil, notFound(err, models.ErrSyncConfigNotFound)
	}

	return cfg, nil
}

// ListConfigs returns all sync configs ordered by name.
func (s *SyncConfigStore) ListConfigs(ctx context.Context) ([]models.SyncConfig, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, `SELECT `+syncConfigColumns+` FROM sys_sync_config ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing sync configs: %w", err)
	}

	return collectRows(rows, scanSyncConfig)
}

// UpdateConfig replaces a sync config's settings and returns the result.
func (s *SyncConfigStore) UpdateConfig(ctx context.Context, cfg models.SyncConfig) (*models.SyncConfig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `UPDATE sys_sync_config SET
		name = $2, object_class = $3, correlation_attribute = $4,
		reconciliation = $5, custom_filter_script = $6, roots_filter_script = $7,
		linked_action = $8, unlinked_action = $9, missing_entity_action = $10,
		missing_account_action = $11, enabled = $12, updated_at = now()
		WHERE id = $1
		RETURNING ` + syncConfigColumns

	row := s.Pool.QueryRow(ctx, query,
		cfg.ID, cfg.Name, cfg.ObjectClass, cfg.CorrelationAttribute,
		cfg.Reconciliation, cfg.CustomFilterScript, cfg.RootsFilterScript,
		cfg.LinkedAction, cfg.UnlinkedAction, cfg.MissingEntityAction,
		cfg.MissingAccountAction, cfg.Enabled)

	updated, err := scanSyncConfig(row.Scan)
	if err != nil {
		return nil, notFound(err, models.ErrSyncConfigNotFound)
	}

	return updated, nil
}

// DeleteConfig removes a sync config and cascades to its logs.
func (s *SyncConfigStore) DeleteConfig(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, `DELETE FROM sys_sync_config WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting sync config: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrSyncConfigNotFound
	}

	return nil
}
