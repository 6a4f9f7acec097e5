package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/crossidm/idsync/internal/models"
)

// TreeStore handles organizational tree node CRUD and correlation lookups.
type TreeStore struct {
	Base
}

// NewTreeStore creates a new TreeStore.
func NewTreeStore(base Base) *TreeStore {
	return &TreeStore{Base: base}
}

const treeColumns = `id, code, name, external_id, parent_id, extended,
	confidential, created_at, updated_at`

var treeProperties = map[string]string{
	"code":       "code",
	"name":       "name",
	"externalId": "external_id",
}

func (s *TreeStore) scanNode(ctx context.Context, scan func(dest ...any) error) (*models.TreeNode, error) {
	var n models.TreeNode
	var extended, confidential []byte

	err := scan(&n.ID, &n.Code, &n.Name, &n.ExternalID, &n.ParentID,
		&extended, &confidential, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(extended, &n.Extended); err != nil {
		return nil, fmt.Errorf("unmarshalling tree node extended attributes: %w", err)
	}

	n.Confidential, err = s.decryptConfidential(ctx, confidential)
	if err != nil {
		return nil, fmt.Errorf("tree node %s: %w", n.ID, err)
	}

	return &n, nil
}

// CreateNode inserts a new tree node and returns the created record.
func (s *TreeStore) CreateNode(ctx context.Context, n models.TreeNode) (*models.TreeNode, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	extended, err := marshalExtended(n.Extended)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO idm_tree_node (code, name, external_id, parent_id, extended)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + treeColumns

	row := s.Pool.QueryRow(ctx, query, n.Code, n.Name, n.ExternalID, n.ParentID, extended)

	created, err := s.scanNode(ctx, row.Scan)
	if err != nil {
		return nil, fmt.Errorf("creating tree node: %w", err)
	}

	return created, nil
}

// GetNode returns a tree node by ID.
func (s *TreeStore) GetNode(ctx context.Context, id uuid.UUID) (*models.TreeNode, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, `SELECT `+treeColumns+` FROM idm_tree_node WHERE id = $1`, id)

	n, err := s.scanNode(ctx, row.Scan)
	if err != nil {
		return nil, notFound(err, models.ErrEntityNotFound)
	}

	return n, nil
}

// UpdateNode replaces a tree node's fields and extended attributes.
func (s *TreeStore) UpdateNode(ctx context.Context, n models.TreeNode) (*models.TreeNode, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	extended, err := marshalExtended(n.Extended)
	if err != nil {
		return nil, err
	}

	query := `UPDATE idm_tree_node SET
		code = $2, name = $3, external_id = $4, parent_id = $5,
		extended = $6, updated_at = now()
		WHERE id = $1
		RETURNING ` + treeColumns

	row := s.Pool.QueryRow(ctx, query, n.ID, n.Code, n.Name, n.ExternalID, n.ParentID, extended)

	updated, err := s.scanNode(ctx, row.Scan)
	if err != nil {
		return nil, notFound(err, models.ErrEntityNotFound)
	}

	return updated, nil
}

// SetConfidential seals the node's confidential attributes under the source
// system's key.
func (s *TreeStore) SetConfidential(ctx context.Context, id uuid.UUID, systemID string, values map[string]any) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	envelope, err := s.encryptConfidential(ctx, systemID, values)
	if err != nil {
		return err
	}

	tag, err := s.Pool.Exec(ctx,
		`UPDATE idm_tree_node SET confidential = $2, updated_at = now() WHERE id = $1`,
		id, envelope)
	if err != nil {
		return fmt.Errorf("setting tree node confidential attributes: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrEntityNotFound
	}

	return nil
}

// FindByProperty returns every tree node whose property equals the value.
func (s *TreeStore) FindByProperty(ctx context.Context, property string, value any) ([]models.TreeNode, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var query string
	args := []any{fmt.Sprint(value)}

	if col, ok := treeProperties[property]; ok {
		query = `SELECT ` + treeColumns + ` FROM idm_tree_node WHERE ` + col + ` = $1`
	} else {
		query = `SELECT ` + treeColumns + ` FROM idm_tree_node WHERE extended->>$2 = $1`
		args = append(args, property)
	}

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding tree nodes by %s: %w", property, err)
	}
	defer rows.Close()

	var out []models.TreeNode

	for rows.Next() {
		n, err := s.scanNode(ctx, rows.Scan)
		if err != nil {
			return nil, err
		}

		out = append(out, *n)
	}

	return out, rows.Err()
}

// ListChildren returns the direct children of a node, or the roots when
// parentID is nil.
func (s *TreeStore) ListChildren(ctx context.Context, parentID *uuid.UUID) ([]models.TreeNode, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var query string
	var args []any

	if parentID == nil {
		query = `SELECT ` + treeColumns + ` FROM idm_tree_node WHERE parent_id IS NULL ORDER BY code`
	} else {
		query = `SELECT ` + treeColumns + ` FROM idm_tree_node WHERE parent_id = $1 ORDER BY code`
		args = append(args, *parentID)
	}

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tree children: %w", err)
	}
	defer rows.Close()

	var out []models.TreeNode

	for rows.Next() {
		n, err := s.scanNode(ctx, rows.Scan)
		if err != nil {
			return nil, err
		}

		out = append(out, *n)
	}

	return out, rows.Err()
}

// CountRoots returns the number of root nodes.
func (s *TreeStore) CountRoots(ctx context.Context) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var count int
	if err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM idm_tree_node WHERE parent_id IS NULL`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting tree roots: %w", err)
	}

	return count, nil
}

// DeleteNode removes a tree node. Children are re-rooted by the FK's
// ON DELETE SET NULL rather than deleted.
func (s *TreeStore) DeleteNode(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, `DELETE FROM idm_tree_node WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting tree node: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrEntityNotFound
	}

	return nil
}
