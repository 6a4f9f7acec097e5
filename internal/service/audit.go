package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/crossidm/idsync/internal/domain"
	"github.com/crossidm/idsync/internal/models"
)

// AuditEntryStore is the data-access interface AuditService depends on.
// *store.AuditStore implements it.
type AuditEntryStore interface {
	Insert(ctx context.Context, entry models.AuditEntry) error
	Query(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, error)
}

// Compile-time check: *AuditService must satisfy domain.AuditService.
var _ domain.AuditService = (*AuditService)(nil)

// AuditService records and queries the operational audit log.
type AuditService struct {
	store AuditEntryStore
	log   *logrus.Logger
}

// NewAuditService creates an AuditService.
func NewAuditService(store AuditEntryStore, log *logrus.Logger) *AuditService {
	return &AuditService{store: store, log: log}
}

// RecordAudit inserts an audit log entry.
func (s *AuditService) RecordAudit(
	ctx context.Context, action, entityType, entityID, actor string, detail map[string]any,
) error {
	return s.store.Insert(ctx, models.AuditEntry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Actor:      actor,
		Detail:     detail,
	})
}

// QueryAudit returns audit entries matching the given filters.
func (s *AuditService) QueryAudit(
	ctx context.Context, opts models.AuditQueryOpts,
) ([]models.AuditEntry, error) {
	return s.store.Query(ctx, opts)
}
