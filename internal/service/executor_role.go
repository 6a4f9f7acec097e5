package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/crossidm/idsync/internal/models"
)

// RoleRepo is the role data access the executor depends on.
// *store.RoleStore implements it.
type RoleRepo interface {
	CreateRole(ctx context.Context, r models.Role) (*models.Role, error)
	GetRole(ctx context.Context, id uuid.UUID) (*models.Role, error)
	UpdateRole(ctx context.Context, r models.Role) (*models.Role, error)
	DeleteRole(ctx context.Context, id uuid.UUID) error
	FindByProperty(ctx context.Context, property string, value any) ([]models.Role, error)
	SetConfidential(ctx context.Context, id uuid.UUID, systemID string, values map[string]any) error
}

// RoleExecutor resolves situations for role entities.
type RoleExecutor struct {
	baseExecutor
	roles RoleRepo
}

var _ SituationExecutor = (*RoleExecutor)(nil)

// NewRoleExecutor creates a RoleExecutor.
func NewRoleExecutor(accounts AccountStore, roles RoleRepo, prov Provisioner, resolver *Resolver, log *logrus.Logger) *RoleExecutor {
	return &RoleExecutor{
		baseExecutor: baseExecutor{accounts: accounts, prov: prov, resolver: resolver, log: log},
		roles:        roles,
	}
}

// Supports reports whether this executor handles the entity type.
func (e *RoleExecutor) Supports(entityType models.EntityType) bool {
	return entityType == models.EntityTypeRole
}

// Finder returns the role correlation finder.
func (e *RoleExecutor) Finder() EntityFinder {
	return roleFinder{repo: e.roles}
}

type roleFinder struct {
	repo RoleRepo
}

func (f roleFinder) FindIDsByProperty(ctx context.Context, property string, value any) ([]uuid.UUID, error) {
	matches, err := f.repo.FindByProperty(ctx, property, value)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(matches))
	for i := range matches {
		ids[i] = matches[i].ID
	}

	return ids, nil
}

// applyRoleAttributes merges resolved values into the role. The roleType
// property runs through the enum re-mapping hook: a raw remote string must
// parse into a known RoleType or the item fails.
func applyRoleAttributes(role *models.Role, resolved *ResolvedAttributes, mappings []models.AttributeMapping) error {
	strategies := strategyIndex(mappings)

	for property, value := range resolved.Entity {
		strategy := strategies[property]

		switch property {
		case "name":
			role.Name = asString(Apply(strategy, role.Name, value))
		case "roleType":
			parsed, err := models.ParseRoleType(asString(value))
			if err != nil {
				return err
			}

			role.RoleType = parsed
		case "description":
			role.Description = asString(Apply(strategy, role.Description, value))
		default:
			if role.Extended == nil {
				role.Extended = map[string]any{}
			}

			role.Extended[property] = Apply(strategy, role.Extended[property], value)
		}
	}

	for name, value := range resolved.Extended {
		if role.Extended == nil {
			role.Extended = map[string]any{}
		}

		role.Extended[name] = Apply(strategies[name], role.Extended[name], value)
	}

	return nil
}

// ResolveMissingEntity handles a remote object with no account and no
// correlated role.
func (e *RoleExecutor) ResolveMissingEntity(ctx context.Context, action models.SyncAction, item *SyncItem) error {
	switch action {
	case models.ActionCreateEntity:
		return e.createRole(ctx, item)
	case models.ActionLink, models.ActionLinkAndUpdateEntity:
		return fmt.Errorf("%w: no role correlated for %s", models.ErrEntityNotFound, item.UID)
	case models.ActionIgnore:
		item.ItemLog.Append("missing entity ignored")

		return nil
	}

	return models.ValidateAction(models.SituationMissingEntity, action)
}

func (e *RoleExecutor) createRole(ctx context.Context, item *SyncItem) error {
	resolved, err := e.resolver.Resolve(item.Mappings, item.Object)
	if err != nil {
		return err
	}

	var role models.Role

	if err := applyRoleAttributes(&role, resolved, item.Mappings); err != nil {
		return err
	}

	if role.Name == "" {
		role.Name = item.UID
	}

	created, err := e.roles.CreateRole(ctx, role)
	if err != nil {
		return fmt.Errorf("creating role %s: %w", role.Name, err)
	}

	item.ItemLog.Append(fmt.Sprintf("created role %s", created.Name))

	if len(resolved.Confidential) > 0 {
		if err := e.roles.SetConfidential(ctx, created.ID, item.Config.SystemID.String(), resolved.Confidential); err != nil {
			return err
		}
	}

	if _, err := e.ensureLink(ctx, item, created.ID, true); err != nil {
		return err
	}

	return e.provision(ctx, item, models.OperationCreate, &created.ID,
		e.resolver.Export(item.Mappings, resolved.Entity))
}

// ResolveLinked handles a remote object that already has an account.
func (e *RoleExecutor) ResolveLinked(ctx context.Context, action models.SyncAction, item *SyncItem) error {
	switch action {
	case models.ActionUpdateEntity:
		return e.updateRole(ctx, item)
	case models.ActionUpdateAccount:
		return e.pushAccount(ctx, item)
	case models.ActionIgnore:
		item.ItemLog.Append("linked item ignored")

		return nil
	}

	return models.ValidateAction(models.SituationLinked, action)
}

func (e *RoleExecutor) updateRole(ctx context.Context, item *SyncItem) error {
	if item.EntityID == nil {
		return fmt.Errorf("%w: account %s has no entity relation", models.ErrEntityNotFound, item.UID)
	}

	role, err := e.roles.GetRole(ctx, *item.EntityID)
	if err != nil {
		return err
	}

	resolved, err := e.resolver.Resolve(item.Mappings, item.Object)
	if err != nil {
		return err
	}

	if err := applyRoleAttributes(role, resolved, item.Mappings); err != nil {
		return err
	}

	if _, err := e.roles.UpdateRole(ctx, *role); err != nil {
		return fmt.Errorf("updating role %s: %w", role.Name, err)
	}

	if len(resolved.Confidential) > 0 {
		if err := e.roles.SetConfidential(ctx, role.ID, item.Config.SystemID.String(), resolved.Confidential); err != nil {
			return err
		}
	}

	item.ItemLog.Append(fmt.Sprintf("updated role %s", role.Name))

	return e.provision(ctx, item, models.OperationUpdate, item.EntityID,
		e.resolver.Export(item.Mappings, resolved.Entity))
}

func (e *RoleExecutor) pushAccount(ctx context.Context, item *SyncItem) error {
	if item.EntityID == nil {
		return fmt.Errorf("%w: account %s has no entity relation", models.ErrEntityNotFound, item.UID)
	}

	role, err := e.roles.GetRole(ctx, *item.EntityID)
	if err != nil {
		return err
	}

	values := map[string]any{
		"name":        role.Name,
		"roleType":    string(role.RoleType),
		"description": role.Description,
	}

	for name, value := range role.Extended {
		values[name] = value
	}

	item.ItemLog.Append(fmt.Sprintf("pushing role %s to system", role.Name))

	return e.provision(ctx, item, models.OperationUpdate, item.EntityID,
		e.resolver.Export(item.Mappings, values))
}

// ResolveUnlinked handles a remote object with no account but a correlated
// role.
func (e *RoleExecutor) ResolveUnlinked(ctx context.Context, action models.SyncAction, item *SyncItem) error {
	if item.EntityID == nil {
		return fmt.Errorf("%w: unlinked item %s without correlated entity", models.ErrEntityNotFound, item.UID)
	}

	switch action {
	case models.ActionLink:
		_, err := e.ensureLink(ctx, item, *item.EntityID, false)

		return err
	case models.ActionLinkAndUpdateAccount:
		account, err := e.ensureLink(ctx, item, *item.EntityID, false)
		if err != nil {
			return err
		}

		item.Account = account

		return e.pushAccount(ctx, item)
	case models.ActionIgnore:
		item.ItemLog.Append("unlinked item ignored")

		return nil
	}

	return models.ValidateAction(models.SituationUnlinked, action)
}

// ResolveMissingAccount handles an internal account whose remote object was
// absent from the snapshot. UNLINK_AND_REMOVE_ROLE additionally removes the
// role assignments the link produced.
func (e *RoleExecutor) ResolveMissingAccount(ctx context.Context, action models.SyncAction, item *SyncItem) error {
	switch action {
	case models.ActionDeleteEntity:
		if item.EntityID != nil {
			if err := e.roles.DeleteRole(ctx, *item.EntityID); err != nil {
				return err
			}

			item.ItemLog.Append(fmt.Sprintf("deleted role %s", item.EntityID))
		}

		return e.dropAccount(ctx, item)
	case models.ActionUnlink, models.ActionUnlinkAndRemoveRole:
		return e.unlink(ctx, item)
	case models.ActionIgnore:
		item.ItemLog.Append("missing account ignored")

		return nil
	}

	return models.ValidateAction(models.SituationMissingAccount, action)
}
