package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/crossidm/idsync/internal/models"
)

// IdentityRepo is the identity data access the executor depends on.
// *store.IdentityStore implements it.
type IdentityRepo interface {
	CreateIdentity(ctx context.Context, i models.Identity) (*models.Identity, error)
	GetIdentity(ctx context.Context, id uuid.UUID) (*models.Identity, error)
	UpdateIdentity(ctx context.Context, i models.Identity) (*models.Identity, error)
	DeleteIdentity(ctx context.Context, id uuid.UUID) error
	FindByProperty(ctx context.Context, property string, value any) ([]models.Identity, error)
	SetConfidential(ctx context.Context, id uuid.UUID, systemID string, values map[string]any) error
}

// IdentityExecutor resolves situations for identity entities.
type IdentityExecutor struct {
	baseExecutor
	identities IdentityRepo
}

var _ SituationExecutor = (*IdentityExecutor)(nil)

// NewIdentityExecutor creates an IdentityExecutor.
func NewIdentityExecutor(accounts AccountStore, identities IdentityRepo, prov Provisioner, resolver *Resolver, log *logrus.Logger) *IdentityExecutor {
	return &IdentityExecutor{
		baseExecutor: baseExecutor{accounts: accounts, prov: prov, resolver: resolver, log: log},
		identities:   identities,
	}
}

// Supports reports whether this executor handles the entity type.
func (e *IdentityExecutor) Supports(entityType models.EntityType) bool {
	return entityType == models.EntityTypeIdentity
}

// Finder returns the identity correlation finder.
func (e *IdentityExecutor) Finder() EntityFinder {
	return identityFinder{repo: e.identities}
}

type identityFinder struct {
	repo IdentityRepo
}

func (f identityFinder) FindIDsByProperty(ctx context.Context, property string, value any) ([]uuid.UUID, error) {
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

// applyIdentityAttributes merges resolved entity values into the identity
// per each mapping's strategy. Unknown properties land in Extended.
func applyIdentityAttributes(ident *models.Identity, resolved *ResolvedAttributes, mappings []models.AttributeMapping) {
	strategies := strategyIndex(mappings)

	for property, value := range resolved.Entity {
		strategy := strategies[property]

		switch property {
		case "username":
			ident.Username = asString(Apply(strategy, ident.Username, value))
		case "firstName":
			ident.FirstName = asString(Apply(strategy, ident.FirstName, value))
		case "lastName":
			ident.LastName = asString(Apply(strategy, ident.LastName, value))
		case "email":
			ident.Email = asString(Apply(strategy, ident.Email, value))
		case "disabled":
			ident.Disabled = asBool(value)
		default:
			if ident.Extended == nil {
				ident.Extended = map[string]any{}
			}

			ident.Extended[property] = Apply(strategy, ident.Extended[property], value)
		}
	}

	for name, value := range resolved.Extended {
		if ident.Extended == nil {
			ident.Extended = map[string]any{}
		}

		ident.Extended[name] = Apply(strategies[name], ident.Extended[name], value)
	}
}

// ResolveMissingEntity handles a remote object with no account and no
// correlated identity.
func (e *IdentityExecutor) ResolveMissingEntity(ctx context.Context, action models.SyncAction, item *SyncItem) error {
	switch action {
	case models.ActionCreateEntity:
		return e.createIdentity(ctx, item)
	case models.ActionLink, models.ActionLinkAndUpdateEntity:
		// Nothing correlated, so there is nothing to link to.
		return fmt.Errorf("%w: no identity correlated for %s", models.ErrEntityNotFound, item.UID)
	case models.ActionIgnore:
		item.ItemLog.Append("missing entity ignored")

		return nil
	}

	return models.ValidateAction(models.SituationMissingEntity, action)
}

func (e *IdentityExecutor) createIdentity(ctx context.Context, item *SyncItem) error {
	resolved, err := e.resolver.Resolve(item.Mappings, item.Object)
	if err != nil {
		return err
	}

	var ident models.Identity

	applyIdentityAttributes(&ident, resolved, item.Mappings)

	if ident.Username == "" {
		ident.Username = item.UID
	}

	created, err := e.identities.CreateIdentity(ctx, ident)
	if err != nil {
		return fmt.Errorf("creating identity %s: %w", ident.Username, err)
	}

	item.ItemLog.Append(fmt.Sprintf("created identity %s", created.Username))

	// Confidential values need the persisted entity id.
	if len(resolved.Confidential) > 0 {
		if err := e.identities.SetConfidential(ctx, created.ID, item.Config.SystemID.String(), resolved.Confidential); err != nil {
			return err
		}

		item.ItemLog.Append("stored confidential attributes")
	}

	if _, err := e.ensureLink(ctx, item, created.ID, true); err != nil {
		return err
	}

	return e.provision(ctx, item, models.OperationCreate, &created.ID,
		e.resolver.Export(item.Mappings, resolved.Entity))
}

// ResolveLinked handles a remote object that already has an account.
func (e *IdentityExecutor) ResolveLinked(ctx context.Context, action models.SyncAction, item *SyncItem) error {
	switch action {
	case models.ActionUpdateEntity:
		return e.updateIdentity(ctx, item)
	case models.ActionUpdateAccount:
		return e.pushAccount(ctx, item)
	case models.ActionIgnore:
		item.ItemLog.Append("linked item ignored")

		return nil
	}

	return models.ValidateAction(models.SituationLinked, action)
}

func (e *IdentityExecutor) updateIdentity(ctx context.Context, item *SyncItem) error {
	if item.EntityID == nil {
		return fmt.Errorf("%w: account %s has no entity relation", models.ErrEntityNotFound, item.UID)
	}

	ident, err := e.identities.GetIdentity(ctx, *item.EntityID)
	if err != nil {
		return err
	}

	resolved, err := e.resolver.Resolve(item.Mappings, item.Object)
	if err != nil {
		return err
	}

	applyIdentityAttributes(ident, resolved, item.Mappings)

	if _, err := e.identities.UpdateIdentity(ctx, *ident); err != nil {
		return fmt.Errorf("updating identity %s: %w", ident.Username, err)
	}

	if len(resolved.Confidential) > 0 {
		if err := e.identities.SetConfidential(ctx, ident.ID, item.Config.SystemID.String(), resolved.Confidential); err != nil {
			return err
		}
	}

	item.ItemLog.Append(fmt.Sprintf("updated identity %s", ident.Username))

	return e.provision(ctx, item, models.OperationUpdate, item.EntityID,
		e.resolver.Export(item.Mappings, resolved.Entity))
}

// pushAccount writes the internal identity state back to the system without
// touching the internal entity.
func (e *IdentityExecutor) pushAccount(ctx context.Context, item *SyncItem) error {
	if item.EntityID == nil {
		return fmt.Errorf("%w: account %s has no entity relation", models.ErrEntityNotFound, item.UID)
	}

	ident, err := e.identities.GetIdentity(ctx, *item.EntityID)
	if err != nil {
		return err
	}

	payload := e.resolver.Export(item.Mappings, identityProperties(ident))

	item.ItemLog.Append(fmt.Sprintf("pushing identity %s to system", ident.Username))

	return e.provision(ctx, item, models.OperationUpdate, item.EntityID, payload)
}

// ResolveUnlinked handles a remote object with no account but a correlated
// identity.
func (e *IdentityExecutor) ResolveUnlinked(ctx context.Context, action models.SyncAction, item *SyncItem) error {
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
// absent from the snapshot.
func (e *IdentityExecutor) ResolveMissingAccount(ctx context.Context, action models.SyncAction, item *SyncItem) error {
	switch action {
	case models.ActionDeleteEntity:
		if item.EntityID != nil {
			if err := e.identities.DeleteIdentity(ctx, *item.EntityID); err != nil {
				return err
			}

			item.ItemLog.Append(fmt.Sprintf("deleted identity %s", item.EntityID))
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

// identityProperties flattens an identity into property values for export.
func identityProperties(i *models.Identity) map[string]any {
	values := map[string]any{
		"username":  i.Username,
		"firstName": i.FirstName,
		"lastName":  i.LastName,
		"email":     i.Email,
		"disabled":  i.Disabled,
	}

	for name, value := range i.Extended {
		values[name] = value
	}

	return values
}

// strategyIndex maps property names to their mapping strategy.
func strategyIndex(mappings []models.AttributeMapping) map[string]models.MappingStrategy {
	out := make(map[string]models.MappingStrategy, len(mappings))
	for _, m := range mappings {
		out[m.Property] = m.Strategy
	}

	return out
}

func asString(v any) string {
	if v == nil {
		return ""
	}

	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprint(v)
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true" || t == "TRUE" || t == "1"
	}

	return false
}
