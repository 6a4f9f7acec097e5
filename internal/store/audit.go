package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/crossidm/idsync/internal/models"
)

// AuditStore handles the operational audit log.
type AuditStore struct {
	Base
}

// NewAuditStore creates a new AuditStore.
func NewAuditStore(base Base) *AuditStore {
	return &AuditStore{Base: base}
}

// Insert writes one audit entry.
func (s *AuditStore) Insert(ctx context.Context, entry models.AuditEntry) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	detail := entry.Detail
	if detail == nil {
		detail = map[string]any{}
	}

	detailJSON, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("marshalling audit detail: %w", err)
	}

	query := `INSERT INTO sys_audit (action, entity_type, entity_id, actor, detail)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := s.Pool.Exec(ctx, query, entry.Action, entry.EntityType,
		entry.EntityID, entry.Actor, detailJSON); err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	return nil
}

// Query returns audit entries matching the filters, newest first.
func (s *AuditStore) Query(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var conds []string
	var args []any

	addCond := func(clause string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(clause, len(args)))
	}

	if opts.EntityType != "" {
		addCond("entity_type = $%d", opts.EntityType)
	}

	if opts.EntityID != "" {
		addCond("entity_id = $%d", opts.EntityID)
	}

	if opts.Action != "" {
		addCond("action = $%d", opts.Action)
	}

	if opts.Since != nil {
		addCond("created_at >= $%d", *opts.Since)
	}

	query := `SELECT id, action, entity_type, entity_id, actor, detail, created_at FROM sys_audit`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	args = append(args, limit, opts.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var out []models.AuditEntry

	for rows.Next() {
		var entry models.AuditEntry
		var detail []byte

		if err := rows.Scan(&entry.ID, &entry.Action, &entry.EntityType,
			&entry.EntityID, &entry.Actor, &detail, &entry.CreatedAt); err != nil {
			return nil, err
		}

		if err := json.Unmarshal(detail, &entry.Detail); err != nil {
			return nil, fmt.Errorf("unmarshalling audit detail: %w", err)
		}

		out = append(out, entry)
	}

	return out, rows.Err()
}
