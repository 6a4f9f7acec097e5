package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/crossidm/idsync/internal/domain"
	"github.com/crossidm/idsync/internal/models"
)

// SystemRepo is the data-access interface SystemService depends on.
// *store.SystemStore implements it.
type SystemRepo interface {
	CreateSystem(ctx context.Context, name, description string, virtual bool) (*models.System, error)
	GetSystem(ctx context.Context, id uuid.UUID) (*models.System, error)
	ListSystems(ctx context.Context) ([]models.System, error)
	SetSystemDisabled(ctx context.Context, id uuid.UUID, disabled bool) error
	DeleteSystem(ctx context.Context, id uuid.UUID) error
}

// MappingRepo is the data-access interface for attribute mappings.
// *store.MappingStore implements it.
type MappingRepo interface {
	CreateMapping(ctx context.Context, m models.AttributeMapping) (*models.AttributeMapping, error)
	ListAllMappings(ctx context.Context, systemID uuid.UUID) ([]models.AttributeMapping, error)
	UpdateMapping(ctx context.Context, m models.AttributeMapping) (*models.AttributeMapping, error)
	DeleteMapping(ctx context.Context, id uuid.UUID) error
}

// Compile-time check: *SystemService must satisfy domain.SystemService.
var _ domain.SystemService = (*SystemService)(nil)

// SystemService manages target systems and their attribute mappings. Writes
// are recorded to the audit log asynchronously.
type SystemService struct {
	systems  SystemRepo
	mappings MappingRepo
	audit    *AuditWorker
	log      *logrus.Logger
}

// NewSystemService creates a SystemService.
func NewSystemService(systems SystemRepo, mappings MappingRepo, audit *AuditWorker, log *logrus.Logger) *SystemService {
	return &SystemService{systems: systems, mappings: mappings, audit: audit, log: log}
}

func (s *SystemService) record(action, entityType, entityID string, detail map[string]any) {
	if s.audit == nil {
		return
	}

	s.audit.Enqueue(&AuditJob{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
	})
}

// CreateSystem registers a target system.
func (s *SystemService) CreateSystem(ctx context.Context, name, description string, virtual bool) (*models.System, error) {
	system, err := s.systems.CreateSystem(ctx, name, description, virtual)
	if err != nil {
		return nil, err
	}

	s.record("system.create", "system", system.ID.String(), map[string]any{
		"name":    name,
		"virtual": virtual,
	})

	return system, nil
}

// GetSystem returns a system by ID.
func (s *SystemService) GetSystem(ctx context.Context, id uuid.UUID) (*models.System, error) {
	return s.systems.GetSystem(ctx, id)
}

// ListSystems returns all registered systems.
func (s *SystemService) ListSystems(ctx context.Context) ([]models.System, error) {
	return s.systems.ListSystems(ctx)
}

// SetSystemDisabled toggles a system's disabled flag. A disabled system
// still accepts queued provisioning; execution is postponed.
func (s *SystemService) SetSystemDisabled(ctx context.Context, id uuid.UUID, disabled bool) error {
	if err := s.systems.SetSystemDisabled(ctx, id, disabled); err != nil {
		return err
	}

	s.record("system.disable", "system", id.String(), map[string]any{
		"disabled": disabled,
	})

	return nil
}

// DeleteSystem removes a system and, by cascade, its accounts, mappings,
// sync configs and queued provisioning.
func (s *SystemService) DeleteSystem(ctx context.Context, id uuid.UUID) error {
	if err := s.systems.DeleteSystem(ctx, id); err != nil {
		return err
	}

	s.record("system.delete", "system", id.String(), nil)

	return nil
}

// CreateMapping adds an attribute mapping to a system schema.
func (s *SystemService) CreateMapping(ctx context.Context, m models.AttributeMapping) (*models.AttributeMapping, error) {
	created, err := s.mappings.CreateMapping(ctx, m)
	if err != nil {
		return nil, err
	}

	s.record("mapping.create", "attribute_mapping", created.ID.String(), map[string]any{
		"name":     created.Name,
		"property": created.Property,
	})

	return created, nil
}

// ListMappings returns all mappings of a system, disabled ones included.
func (s *SystemService) ListMappings(ctx context.Context, systemID uuid.UUID) ([]models.AttributeMapping, error) {
	return s.mappings.ListAllMappings(ctx, systemID)
}

// UpdateMapping replaces a mapping's mutable fields.
func (s *SystemService) UpdateMapping(ctx context.Context, m models.AttributeMapping) (*models.AttributeMapping, error) {
	updated, err := s.mappings.UpdateMapping(ctx, m)
	if err != nil {
		return nil, err
	}

	s.record("mapping.update", "attribute_mapping", updated.ID.String(), map[string]any{
		"name": updated.Name,
	})

	return updated, nil
}

// DeleteMapping removes a mapping.
func (s *SystemService) DeleteMapping(ctx context.Context, id uuid.UUID) error {
	if err := s.mappings.DeleteMapping(ctx, id); err != nil {
		return err
	}

	s.record("mapping.delete", "attribute_mapping", id.String(), nil)

	return nil
}
