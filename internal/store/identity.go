package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/crossidm/idsync/internal/models"
)

// IdentityStore handles identity CRUD and correlation lookups.
type IdentityStore struct {
	Base
}

// NewIdentityStore creates a new IdentityStore.
func NewIdentityStore(base Base) *IdentityStore {
	return &IdentityStore{Base: base}
}

const identityColumns = `id, username, first_name, last_name, email, disabled,
	extended, confidential, created_at, updated_at`

// identityProperties maps correlatable property names to columns. Anything
// else correlates against the extended attribute map.
var identityProperties = map[string]string{
	"username":  "username",
	"firstName": "first_name",
	"lastName":  "last_name",
	"email":     "email",
}

func (s *IdentityStore) scanIdentity(ctx context.Context, scan func(dest ...any) error) (*models.Identity, error) {
	var i models.Identity
	var extended, confidential []byte

	err := scan(&i.ID, &i.Username, &i.FirstName, &i.LastName, &i.Email,
		&i.Disabled, &extended, &confidential, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(extended, &i.Extended); err != nil {
		return nil, fmt.Errorf("unmarshalling identity extended attributes: %w", err)
	}

	i.Confidential, err = s.decryptConfidential(ctx, confidential)
	if err != nil {
		return nil, fmt.Errorf("identity %s: %w", i.ID, err)
	}

	return &i, nil
}

// CreateIdentity inserts a new identity and returns the created record.
func (s *IdentityStore) CreateIdentity(ctx context.Context, i models.Identity) (*models.Identity, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	extended, err := marshalExtended(i.Extended)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO idm_identity (username, first_name, last_name, email, disabled, extended)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + identityColumns

	row := s.Pool.QueryRow(ctx, query, i.Username, i.FirstName, i.LastName, i.Email, i.Disabled, extended)

	created, err := s.scanIdentity(ctx, row.Scan)
	if err != nil {
		if err := mapDuplicate(err); err == models.ErrDuplicateKey {
			return nil, err
		}

		return nil, fmt.Errorf("creating identity: %w", err)
	}

	return created, nil
}

// GetIdentity returns an identity by ID.
func (s *IdentityStore) GetIdentity(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, `SELECT `+identityColumns+` FROM idm_identity WHERE id = $1`, id)

	i, err := s.scanIdentity(ctx, row.Scan)
	if err != nil {
		return nil, notFound(err, models.ErrEntityNotFound)
	}

	return i, nil
}

// UpdateIdentity replaces an identity's fields and extended attributes.
func (s *IdentityStore) UpdateIdentity(ctx context.Context, i models.Identity) (*models.Identity, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	extended, err := marshalExtended(i.Extended)
	if err != nil {
		return nil, err
	}

	query := `UPDATE idm_identity SET
		username = $2, first_name = $3, last_name = $4, email = $5,
		disabled = $6, extended = $7, updated_at = now()
		WHERE id = $1
		RETURNING ` + identityColumns

	row := s.Pool.QueryRow(ctx, query, i.ID, i.Username, i.FirstName, i.LastName,
		i.Email, i.Disabled, extended)

	updated, err := s.scanIdentity(ctx, row.Scan)
	if err != nil {
		return nil, notFound(err, models.ErrEntityNotFound)
	}

	return updated, nil
}

// SetConfidential seals the identity's confidential attributes under the
// source system's key.
func (s *IdentityStore) SetConfidential(ctx context.Context, id uuid.UUID, systemID string, values map[string]any) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	envelope, err := s.encryptConfidential(ctx, systemID, values)
	if err != nil {
		return err
	}

	tag, err := s.Pool.Exec(ctx,
		`UPDATE idm_identity SET confidential = $2, updated_at = now() WHERE id = $1`,
		id, envelope)
	if err != nil {
		return fmt.Errorf("setting identity confidential attributes: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrEntityNotFound
	}

	return nil
}

// FindByProperty returns every identity whose property equals the value.
// Known properties match their column; anything else matches the extended
// attribute map. Callers treat more than one result as a correlation error.
func (s *IdentityStore) FindByProperty(ctx context.Context, property string, value any) ([]models.Identity, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var query string
	args := []any{fmt.Sprint(value)}

	if col, ok := identityProperties[property]; ok {
		query = `SELECT ` + identityColumns + ` FROM idm_identity WHERE ` + col + ` = $1`
	} else {
		query = `SELECT ` + identityColumns + ` FROM idm_identity WHERE extended->>$2 = $1`
		args = append(args, property)
	}

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding identities by %s: %w", property, err)
	}
	defer rows.Close()

	var out []models.Identity

	for rows.Next() {
		i, err := s.scanIdentity(ctx, rows.Scan)
		if err != nil {
			return nil, err
		}

		out = append(out, *i)
	}

	return out, rows.Err()
}

// DeleteIdentity removes an identity.
func (s *IdentityStore) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, `DELETE FROM idm_identity WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting identity: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrEntityNotFound
	}

	return nil
}

// marshalExtended serializes an extended attribute map, defaulting nil to {}.
func marshalExtended(extended map[string]any) ([]byte, error) {
	if extended == nil {
		extended = map[string]any{}
	}

	raw, err := json.Marshal(extended)
	if err != nil {
		return nil, fmt.Errorf("marshalling extended attributes: %w", err)
	}

	return raw, nil
}
