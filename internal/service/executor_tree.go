package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/crossidm/idsync/internal/connector"
	"github.com/crossidm/idsync/internal/models"
)

// treeParentProperty is the internal property that carries the parent
// node's remote UID.
const treeParentProperty = "parent"

// TreeRepo is the tree node data access the executor depends on.
// *store.TreeStore implements it.
type TreeRepo interface {
	CreateNode(ctx context.Context, n models.TreeNode) (*models.TreeNode, error)
	GetNode(ctx context.Context, id uuid.UUID) (*models.TreeNode, error)
	UpdateNode(ctx context.Context, n models.TreeNode) (*models.TreeNode, error)
	DeleteNode(ctx context.Context, id uuid.UUID) error
	FindByProperty(ctx context.Context, property string, value any) ([]models.TreeNode, error)
	SetConfidential(ctx context.Context, id uuid.UUID, systemID string, values map[string]any) error
}

// TreeExecutor resolves situations for organizational tree nodes. Tree sync
// is order-sensitive: a node can only be created once its parent exists, so
// the executor also plans the snapshot order (roots first, then level by
// level). Nodes not reachable from any root are skipped entirely.
type TreeExecutor struct {
	baseExecutor
	nodes TreeRepo
}

var _ SituationExecutor = (*TreeExecutor)(nil)
var _ snapshotPlanner = (*TreeExecutor)(nil)

// NewTreeExecutor creates a TreeExecutor.
func NewTreeExecutor(accounts AccountStore, nodes TreeRepo, prov Provisioner, resolver *Resolver, log *logrus.Logger) *TreeExecutor {
	return &TreeExecutor{
		baseExecutor: baseExecutor{accounts: accounts, prov: prov, resolver: resolver, log: log},
		nodes:        nodes,
	}
}

// Supports reports whether this executor handles the entity type.
func (e *TreeExecutor) Supports(entityType models.EntityType) bool {
	return entityType == models.EntityTypeTreeNode
}

// Finder returns the tree node correlation finder.
func (e *TreeExecutor) Finder() EntityFinder {
	return treeFinder{repo: e.nodes}
}

type treeFinder struct {
	repo TreeRepo
}

func (f treeFinder) FindIDsByProperty(ctx context.Context, property string, value any) ([]uuid.UUID, error) {
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

// parentAttributeName finds the remote attribute mapped to the parent
// property.
func parentAttributeName(mappings []models.AttributeMapping) string {
	for _, m := range mappings {
		if m.Property == treeParentProperty {
			return m.Name
		}
	}

	return ""
}

// PlanObjects orders the snapshot root-first. A node is a root when the
// roots filter script says so, or, without a script, when its parent
// attribute is empty. Children follow their parent breadth-first; anything
// unreachable from a root (cycles, orphans) is dropped from the plan.
func (e *TreeExecutor) PlanObjects(
	cfg *models.SyncConfig,
	mappings []models.AttributeMapping,
	objects []connector.Object,
) ([]connector.Object, error) {
	parentAttr := parentAttributeName(mappings)

	byUID := make(map[string]connector.Object, len(objects))
	children := make(map[string][]string)

	var roots []string

	for _, obj := range objects {
		uid, err := e.resolver.UID(mappings, obj)
		if err != nil {
			return nil, fmt.Errorf("planning tree order for %s: %w", obj.UID, err)
		}

		byUID[uid] = obj

		isRoot := false

		if cfg.RootsFilterScript != "" {
			isRoot, err = e.resolver.FilterMatch(cfg.RootsFilterScript, obj)
			if err != nil {
				return nil, fmt.Errorf("roots filter for %s: %w", uid, err)
			}
		} else {
			isRoot = asString(obj.Attributes[parentAttr]) == ""
		}

		if isRoot {
			roots = append(roots, uid)

			continue
		}

		parent := asString(obj.Attributes[parentAttr])
		children[parent] = append(children[parent], uid)
	}

	sort.Strings(roots)

	ordered := make([]connector.Object, 0, len(objects))
	visited := make(map[string]bool, len(objects))
	queue := roots

	for len(queue) > 0 {
		uid := queue[0]
		queue = queue[1:]

		if visited[uid] {
			continue
		}

		visited[uid] = true

		obj, ok := byUID[uid]
		if !ok {
			continue
		}

		ordered = append(ordered, obj)

		kids := children[uid]
		sort.Strings(kids)
		queue = append(queue, kids...)
	}

	if skipped := len(objects) - len(ordered); skipped > 0 {
		e.log.WithFields(logrus.Fields{
			"object_class": cfg.ObjectClass,
			"skipped":      skipped,
		}).Warn("tree nodes unreachable from any root, skipping")
	}

	return ordered, nil
}

// resolveParentID maps a parent's remote UID to the internal node linked to
// its account.
func (e *TreeExecutor) resolveParentID(ctx context.Context, item *SyncItem, parentUID string) (*uuid.UUID, error) {
	if parentUID == "" || parentUID == item.UID {
		return nil, nil
	}

	account, err := e.accounts.FindAccountByUID(ctx, item.Config.SystemID, models.EntityTypeTreeNode, parentUID)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			return nil, fmt.Errorf("parent node %s not synchronized yet", parentUID)
		}

		return nil, err
	}

	links, err := e.accounts.ListEntityAccountsByAccount(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	if len(links) == 0 {
		return nil, fmt.Errorf("parent node %s has no linked entity", parentUID)
	}

	return &links[0].EntityID, nil
}

// applyTreeAttributes merges resolved values into the node. The parent
// property is remapped from the parent's remote UID to an internal node id.
func (e *TreeExecutor) applyTreeAttributes(ctx context.Context, node *models.TreeNode, item *SyncItem, resolved *ResolvedAttributes) error {
	strategies := strategyIndex(item.Mappings)

	for property, value := range resolved.Entity {
		strategy := strategies[property]

		switch property {
		case "code":
			node.Code = asString(Apply(strategy, node.Code, value))
		case "name":
			node.Name = asString(Apply(strategy, node.Name, value))
		case "externalId":
			node.ExternalID = asString(Apply(strategy, node.ExternalID, value))
		case treeParentProperty:
			parentID, err := e.resolveParentID(ctx, item, asString(value))
			if err != nil {
				return err
			}

			node.ParentID = parentID
		default:
			if node.Extended == nil {
				node.Extended = map[string]any{}
			}

			node.Extended[property] = Apply(strategy, node.Extended[property], value)
		}
	}

	for name, value := range resolved.Extended {
		if node.Extended == nil {
			node.Extended = map[string]any{}
		}

		node.Extended[name] = Apply(strategies[name], node.Extended[name], value)
	}

	return nil
}

// ResolveMissingEntity handles a remote node with no account and no
// correlated internal node.
func (e *TreeExecutor) ResolveMissingEntity(ctx context.Context, action models.SyncAction, item *SyncItem) error {
	switch action {
	case models.ActionCreateEntity:
		return e.createNode(ctx, item)
	case models.ActionLink, models.ActionLinkAndUpdateEntity:
		return fmt.Errorf("%w: no tree node correlated for %s", models.ErrEntityNotFound, item.UID)
	case models.ActionIgnore:
		item.ItemLog.Append("missing entity ignored")

		return nil
	}

	return models.ValidateAction(models.SituationMissingEntity, action)
}

func (e *TreeExecutor) createNode(ctx context.Context, item *SyncItem) error {
	resolved, err := e.resolver.Resolve(item.Mappings, item.Object)
	if err != nil {
		return err
	}

	var node models.TreeNode

	if err := e.applyTreeAttributes(ctx, &node, item, resolved); err != nil {
		return err
	}

	if node.Code == "" {
		node.Code = item.UID
	}

	created, err := e.nodes.CreateNode(ctx, node)
	if err != nil {
		return fmt.Errorf("creating tree node %s: %w", node.Code, err)
	}

	item.ItemLog.Append(fmt.Sprintf("created tree node %s", created.Code))

	if len(resolved.Confidential) > 0 {
		if err := e.nodes.SetConfidential(ctx, created.ID, item.Config.SystemID.String(), resolved.Confidential); err != nil {
			return err
		}
	}

	if _, err := e.ensureLink(ctx, item, created.ID, true); err != nil {
		return err
	}

	return e.provision(ctx, item, models.OperationCreate, &created.ID,
		e.resolver.Export(item.Mappings, resolved.Entity))
}

// ResolveLinked handles a remote node that already has an account.
func (e *TreeExecutor) ResolveLinked(ctx context.Context, action models.SyncAction, item *SyncItem) error {
	switch action {
	case models.ActionUpdateEntity:
		return e.updateNode(ctx, item)
	case models.ActionUpdateAccount:
		return e.pushAccount(ctx, item)
	case models.ActionIgnore:
		item.ItemLog.Append("linked item ignored")

		return nil
	}

	return models.ValidateAction(models.SituationLinked, action)
}

func (e *TreeExecutor) updateNode(ctx context.Context, item *SyncItem) error {
	if item.EntityID == nil {
		return fmt.Errorf("%w: account %s has no entity relation", models.ErrEntityNotFound, item.UID)
	}

	node, err := e.nodes.GetNode(ctx, *item.EntityID)
	if err != nil {
		return err
	}

	resolved, err := e.resolver.Resolve(item.Mappings, item.Object)
	if err != nil {
		return err
	}

	if err := e.applyTreeAttributes(ctx, node, item, resolved); err != nil {
		return err
	}

	if _, err := e.nodes.UpdateNode(ctx, *node); err != nil {
		return fmt.Errorf("updating tree node %s: %w", node.Code, err)
	}

	item.ItemLog.Append(fmt.Sprintf("updated tree node %s", node.Code))

	return e.provision(ctx, item, models.OperationUpdate, item.EntityID,
		e.resolver.Export(item.Mappings, resolved.Entity))
}

func (e *TreeExecutor) pushAccount(ctx context.Context, item *SyncItem) error {
	if item.EntityID == nil {
		return fmt.Errorf("%w: account %s has no entity relation", models.ErrEntityNotFound, item.UID)
	}

	node, err := e.nodes.GetNode(ctx, *item.EntityID)
	if err != nil {
		return err
	}

	values := map[string]any{
		"code":       node.Code,
		"name":       node.Name,
		"externalId": node.ExternalID,
	}

	for name, value := range node.Extended {
		values[name] = value
	}

	item.ItemLog.Append(fmt.Sprintf("pushing tree node %s to system", node.Code))

	return e.provision(ctx, item, models.OperationUpdate, item.EntityID,
		e.resolver.Export(item.Mappings, values))
}

// ResolveUnlinked handles a remote node with no account but a correlated
// internal node.
func (e *TreeExecutor) ResolveUnlinked(ctx context.Context, action models.SyncAction, item *SyncItem) error {
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

// ResolveMissingAccount handles an internal account whose remote node was
// absent from the snapshot.
func (e *TreeExecutor) ResolveMissingAccount(ctx context.Context, action models.SyncAction, item *SyncItem) error {
	switch action {
	case models.ActionDeleteEntity:
		if item.EntityID != nil {
			if err := e.nodes.DeleteNode(ctx, *item.EntityID); err != nil {
				return err
			}

			item.ItemLog.Append(fmt.Sprintf("deleted tree node %s", item.EntityID))
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
