package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/crossidm/idsync/internal/models"
)

// RoleStore handles role CRUD and correlation lookups.
type RoleStore struct {
	Base
}

// NewRoleStore creates a new RoleStore.
func NewRoleStore(base Base) *RoleStore {
	return &RoleStore{Base: base}
}

const roleColumns = `id, name, role_type, description, extended, confidential,
	created_at, updated_at`

var roleProperties = map[string]string{
	"name":        "name",
	"roleType":    "role_type",
	"description": "description",
}

func (s *RoleStore) scanRole(ctx context.Context, scan func(dest ...any) error) (*models.Role, error) {
	var r models.Role
	var extended, confidential []byte

	err := scan(&r.ID, &r.Name, &r.RoleType, &r.Description, &extended,
		&confidential, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(extended, &r.Extended); err != nil {
		return nil, fmt.Errorf("unmarshalling role extended attributes: %w", err)
	}

	r.Confidential, err = s.decryptConfidential(ctx, confidential)
	if err != nil {
		return nil, fmt.Errorf("role %s: %w", r.ID, err)
	}

	return &r, nil
}

// CreateRole inserts a new role and returns the created record.
func (s *RoleStore) CreateRole(ctx context.Context, r models.Role) (*models.Role, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if r.RoleType == "" {
		r.RoleType = models.RoleTypeTechnical
	}

	extended, err := marshalExtended(r.Extended)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO idm_role (name, role_type, description, extended)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + roleColumns

	row := s.Pool.QueryRow(ctx, query, r.Name, r.RoleType, r.Description, extended)

	created, err := s.scanRole(ctx, row.Scan)
	if err != nil {
		if err := mapDuplicate(err); err == models.ErrDuplicateKey {
			return nil, err
		}

		return nil, fmt.Errorf("creating role: %w", err)
	}

	return created, nil
}

// GetRole returns a role by ID.
func (s *RoleStore) GetRole(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM idm_role WHERE id = $1`, id)

	r, err := s.scanRole(ctx, row.Scan)
	if err != nil {
		return nil, notFound(err, models.ErrEntityNotFound)
	}

	return r, nil
}

// UpdateRole replaces a role's fields and extended attributes.
func (s *RoleStore) UpdateRole(ctx context.Context, r models.Role) (*models.Role, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	extended, err := marshalExtended(r.Extended)
	if err != nil {
		return nil, err
	}

	query := `UPDATE idm_role SET
		name = $2, role_type = $3, description = $4, extended = $5, updated_at = now()
		WHERE id = $1
		RETURNING ` + roleColumns

	row := s.Pool.QueryRow(ctx, query, r.ID, r.Name, r.RoleType, r.Description, extended)

	updated, err := s.scanRole(ctx, row.Scan)
	if err != nil {
		return nil, notFound(err, models.ErrEntityNotFound)
	}

	return updated, nil
}

// SetConfidential seals the role's confidential attributes under the source
// system's key.
func (s *RoleStore) SetConfidential(ctx context.Context, id uuid.UUID, systemID string, values map[string]any) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	envelope, err := s.encryptConfidential(ctx, systemID, values)
	if err != nil {
		return err
	}

	tag, err := s.Pool.Exec(ctx,
		`UPDATE idm_role SET confidential = $2, updated_at = now() WHERE id = $1`,
		id, envelope)
	if err != nil {
		return fmt.Errorf("setting role confidential attributes: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrEntityNotFound
	}

	return nil
}

// FindByProperty returns every role whose property equals the value.
func (s *RoleStore) FindByProperty(ctx context.Context, property string, value any) ([]models.Role, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var query string
	args := []any{fmt.Sprint(value)}

	if col, ok := roleProperties[property]; ok {
		query = `SELECT ` + roleColumns + ` FROM idm_role WHERE ` + col + ` = $1`
	} else {
		query = `SELECT ` + roleColumns + ` FROM idm_role WHERE extended->>$2 = $1`
		args = append(args, property)
	}

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding roles by %s: %w", property, err)
	}
	defer rows.Close()

	var out []models.Role

	for rows.Next() {
		r, err := s.scanRole(ctx, rows.Scan)
		if err != nil {
			return nil, err
		}

		out = append(out, *r)
	}

	return out, rows.Err()
}

// DeleteRole removes a role.
func (s *RoleStore) DeleteRole(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, `DELETE FROM idm_role WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting role: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrEntityNotFound
	}

	return nil
}
