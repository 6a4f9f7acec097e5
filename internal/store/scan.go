package store

import (
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/crossidm/idsync/internal/models"
)

// systemColumns lists the columns selected for system queries.
const systemColumns = `id, name, description, virtual, disabled, created_at`

// systemEntityColumns lists the columns selected for system entity queries.
const systemEntityColumns = `id, system_id, entity_type, uid, created_at`

// accountColumns lists the columns selected for account queries.
const accountColumns = `id, system_id, system_entity_id, uid, entity_type, created_at`

// entityAccountColumns lists the columns selected for entity account queries.
const entityAccountColumns = `id, account_id, entity_id, entity_type, ownership,
	role_assignment_id, created_at`

// mappingColumns lists the columns selected for attribute mapping queries.
const mappingColumns = `id, system_id, entity_type, name, property, uid,
	entity_attribute, extended, confidential, transform_script, strategy,
	disabled, seq, created_at`

// syncConfigColumns lists the columns selected for sync config queries.
const syncConfigColumns = `id, name, system_id, entity_type, object_class,
	correlation_attribute, reconciliation, custom_filter_script,
	roots_filter_script, linked_action, unlinked_action,
	missing_entity_action, missing_account_action, enabled,
	created_at, updated_at`

// syncLogColumns lists the columns selected for sync log queries.
const syncLogColumns = `id, sync_config_id, running, contains_error, started,
	ended, token, log`

// batchColumns lists the columns selected for provisioning batch queries.
const batchColumns = `id, system_id, entity_id, system_entity_uid, next_attempt, created_at`

// operationColumns lists the columns selected for provisioning operation queries.
const operationColumns = `id, batch_id, operation, entity_type, system_id,
	entity_id, system_entity_uid, object_class, result_state, result_message,
	attempt, payload, created_at`

func scanSystem(scan func(dest ...any) error) (*models.System, error) {
	var s models.System

	err := scan(&s.ID, &s.Name, &s.Description, &s.Virtual, &s.Disabled, &s.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func scanSystemEntity(scan func(dest ...any) error) (*models.SystemEntity, error) {
	var e models.SystemEntity

	err := scan(&e.ID, &e.SystemID, &e.EntityType, &e.UID, &e.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &e, nil
}

func scanAccount(scan func(dest ...any) error) (*models.Account, error) {
	var a models.Account

	err := scan(&a.ID, &a.SystemID, &a.SystemEntityID, &a.UID, &a.EntityType, &a.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &a, nil
}

func scanEntityAccount(scan func(dest ...any) error) (*models.EntityAccount, error) {
	var ea models.EntityAccount

	err := scan(&ea.ID, &ea.AccountID, &ea.EntityID, &ea.EntityType,
		&ea.Ownership, &ea.RoleAssignmentID, &ea.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &ea, nil
}

func scanMapping(scan func(dest ...any) error) (*models.AttributeMapping, error) {
	var m models.AttributeMapping

	err := scan(&m.ID, &m.SystemID, &m.EntityType, &m.Name, &m.Property, &m.UID,
		&m.EntityAttribute, &m.Extended, &m.Confidential, &m.TransformScript,
		&m.Strategy, &m.Disabled, &m.Seq, &m.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &m, nil
}

func scanSyncConfig(scan func(dest ...any) error) (*models.SyncConfig, error) {
	var c models.SyncConfig

	err := scan(&c.ID, &c.Name, &c.SystemID, &c.EntityType, &c.ObjectClass,
		&c.CorrelationAttribute, &c.Reconciliation, &c.CustomFilterScript,
		&c.RootsFilterScript, &c.LinkedAction, &c.UnlinkedAction,
		&c.MissingEntityAction, &c.MissingAccountAction, &c.Enabled,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func scanSyncLog(scan func(dest ...any) error) (*models.SyncLog, error) {
	var l models.SyncLog

	err := scan(&l.ID, &l.SyncConfigID, &l.Running, &l.ContainsError,
		&l.Started, &l.Ended, &l.Token, &l.Log)
	if err != nil {
		return nil, err
	}

	return &l, nil
}

func scanBatch(scan func(dest ...any) error) (*models.ProvisioningBatch, error) {
	var b models.ProvisioningBatch

	err := scan(&b.ID, &b.SystemID, &b.EntityID, &b.SystemEntityUID,
		&b.NextAttempt, &b.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &b, nil
}

func scanOperation(scan func(dest ...any) error) (*models.ProvisioningOperation, error) {
	var op models.ProvisioningOperation
	var payload []byte

	err := scan(&op.ID, &op.BatchID, &op.Operation, &op.EntityType, &op.SystemID,
		&op.EntityID, &op.SystemEntityUID, &op.ObjectClass, &op.ResultState,
		&op.ResultMessage, &op.Attempt, &payload, &op.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(payload, &op.Payload); err != nil {
		return nil, fmt.Errorf("unmarshalling operation payload: %w", err)
	}

	return &op, nil
}

// collectRows scans all rows with the given per-row scanner.
func collectRows[T any](rows pgx.Rows, scanOne func(scan func(dest ...any) error) (*T, error)) ([]T, error) {
	defer rows.Close()

	var out []T

	for rows.Next() {
		item, err := scanOne(rows.Scan)
		if err != nil {
			return nil, err
		}

		out = append(out, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
