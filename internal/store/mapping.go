package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/crossidm/idsync/internal/models"
)

// MappingStore handles attribute mapping CRUD.
type MappingStore struct {
	Base
}

// NewMappingStore creates a new MappingStore.
func NewMappingStore(base Base) *MappingStore {
	return &MappingStore{Base: base}
}

// CreateMapping inserts a new attribute mapping.
func (s *MappingStore) CreateMapping(ctx context.Context, m models.AttributeMapping) (*models.AttributeMapping, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if m.Strategy == "" {
		m.Strategy = models.StrategySet
	}

	query := `INSERT INTO sys_attribute_mapping
		(system_id, entity_type, name, property, uid, entity_attribute,
		 extended, confidential, transform_script, strategy, disabled, seq)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + mappingColumns

	row := s.Pool.QueryRow(ctx, query,
		m.SystemID, m.EntityType, m.Name, m.Property, m.UID, m.EntityAttribute,
		m.Extended, m.Confidential, m.TransformScript, m.Strategy, m.Disabled, m.Seq)

	created, err := scanMapping(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("creating mapping: %w", err)
	}

	return created, nil
}

// ListMappings returns the enabled mappings for a (system, entity type) pair
// in sequence order. Disabled mappings are invisible to the engine.
func (s *MappingStore) ListMappings(
	ctx context.Context,
	systemID uuid.UUID,
	entityType models.EntityType,
) ([]models.AttributeMapping, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + mappingColumns + ` FROM sys_attribute_mapping
		WHERE system_id = $1 AND entity_type = $2 AND NOT disabled
		ORDER BY seq, name`

	rows, err := s.Pool.Query(ctx, query, systemID, entityType)
	if err != nil {
		return nil, fmt.Errorf("listing mappings: %w", err)
	}

	return collectRows(rows, scanMapping)
}

// ListAllMappings returns every mapping for a system including disabled ones,
// for the admin surface.
func (s *MappingStore) ListAllMappings(ctx context.Context, systemID uuid.UUID) ([]models.AttributeMapping, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + mappingColumns + ` FROM sys_attribute_mapping
		WHERE system_id = $1 ORDER BY entity_type, seq, name`

	rows, err := s.Pool.Query(ctx, query, systemID)
	if err != nil {
		return nil, fmt.Errorf("listing mappings: %w", err)
	}

	return collectRows(rows, scanMapping)
}

// UpdateMapping replaces a mapping's settings and returns the result.
func (s *MappingStore) UpdateMapping(ctx context.Context, m models.AttributeMapping) (*models.AttributeMapping, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `UPDATE sys_attribute_mapping SET
		name = $2, property = $3, uid = $4, entity_attribute = $5,
		extended = $6, confidential = $7, transform_script = $8,
		strategy = $9, disabled = $10, seq = $11
		WHERE id = $1
		RETURNING ` + mappingColumns

	row := s.Pool.QueryRow(ctx, query, m.ID, m.Name, m.Property, m.UID,
		m.EntityAttribute, m.Extended, m.Confidential, m.TransformScript,
		m.Strategy, m.Disabled, m.Seq)

	updated, err := scanMapping(row.Scan)
	if err != nil {
		return nil, notFound(err, models.ErrMissingMapping)
	}

	return updated, nil
}

// DeleteMapping removes a mapping.
func (s *MappingStore) DeleteMapping(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, `DELETE FROM sys_attribute_mapping WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting mapping: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrMissingMapping
	}

	return nil
}
