package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/crossidm/idsync/internal/models"
)

// ProvisioningStore handles the provisioning batch queue and its operations.
type ProvisioningStore struct {
	Base
}

// NewProvisioningStore creates a new ProvisioningStore.
func NewProvisioningStore(base Base) *ProvisioningStore {
	return &ProvisioningStore{Base: base}
}

// EnqueueOperation appends an operation to the batch owning its
// (system, entity, uid) triple, creating the batch when absent. The batch
// upsert and the operation insert run in one transaction so a crash cannot
// leave an operation without its batch.
func (s *ProvisioningStore) EnqueueOperation(ctx context.Context, op models.ProvisioningOperation) (*models.ProvisioningOperation, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("enqueueing operation: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	// entity_id is nullable, so the conflict target differs per shape.
	var batchQuery string
	var batchArgs []any

	if op.EntityID != nil {
		batchQuery = `INSERT INTO sys_provisioning_batch (system_id, entity_id, system_entity_uid)
			VALUES ($1, $2, $3)
			ON CONFLICT (system_id, entity_id, system_entity_uid) WHERE entity_id IS NOT NULL
			DO UPDATE SET system_entity_uid = EXCLUDED.system_entity_uid
			RETURNING id`
		batchArgs = []any{op.SystemID, op.EntityID, op.SystemEntityUID}
	} else {
		batchQuery = `INSERT INTO sys_provisioning_batch (system_id, entity_id, system_entity_uid)
			VALUES ($1, NULL, $2)
			ON CONFLICT (system_id, system_entity_uid) WHERE entity_id IS NULL
			DO UPDATE SET system_entity_uid = EXCLUDED.system_entity_uid
			RETURNING id`
		batchArgs = []any{op.SystemID, op.SystemEntityUID}
	}

	if err := tx.QueryRow(ctx, batchQuery, batchArgs...).Scan(&op.BatchID); err != nil {
		return nil, fmt.Errorf("upserting provisioning batch: %w", err)
	}

	payload := op.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshalling operation payload: %w", err)
	}

	if op.ResultState == "" {
		op.ResultState = models.OperationCreated
	}

	opQuery := `INSERT INTO sys_provisioning_operation
		(batch_id, operation, entity_type, system_id, entity_id,
		 system_entity_uid, object_class, result_state, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err = tx.QueryRow(ctx, opQuery, op.BatchID, op.Operation, op.EntityType,
		op.SystemID, op.EntityID, op.SystemEntityUID, op.ObjectClass,
		op.ResultState, payloadJSON).Scan(&op.ID, &op.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting provisioning operation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing enqueue: %w", err)
	}

	return &op, nil
}

// GetBatch returns a batch by ID.
func (s *ProvisioningStore) GetBatch(ctx context.Context, id uuid.UUID) (*models.ProvisioningBatch, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, `SELECT `+batchColumns+` FROM sys_provisioning_batch WHERE id = $1`, id)

	b, err := scanBatch(row.Scan)
	if err != nil {
		return nil, notFound(err, models.ErrEntityNotFound)
	}

	return b, nil
}

// ListDueBatches returns batches ready to run: never attempted, or whose
// next attempt time has passed. Oldest first so retries cannot starve.
func (s *ProvisioningStore) ListDueBatches(ctx context.Context, now time.Time, limit int) ([]models.ProvisioningBatch, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + batchColumns + ` FROM sys_provisioning_batch
		WHERE next_attempt IS NULL OR next_attempt <= $1
		ORDER BY created_at LIMIT $2`

	rows, err := s.Pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("listing due batches: %w", err)
	}

	return collectRows(rows, scanBatch)
}

// ListPendingOperations returns the batch's unfinished operations in
// insertion order. EXECUTED operations stay behind as history.
func (s *ProvisioningStore) ListPendingOperations(ctx context.Context, batchID uuid.UUID) ([]models.ProvisioningOperation, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + operationColumns + ` FROM sys_provisioning_operation
		WHERE batch_id = $1 AND result_state IN ($2, $3)
		ORDER BY created_at`

	rows, err := s.Pool.Query(ctx, query, batchID,
		models.OperationCreated, models.OperationException)
	if err != nil {
		return nil, fmt.Errorf("listing pending operations: %w", err)
	}

	return collectRows(rows, scanOperation)
}

// ListOperations returns operations filtered by state, newest first, for the
// admin surface. Empty state means all.
func (s *ProvisioningStore) ListOperations(ctx context.Context, state models.OperationState, limit int) ([]models.ProvisioningOperation, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	var query string
	args := []any{limit}

	if state == "" {
		query = `SELECT ` + operationColumns + ` FROM sys_provisioning_operation
			ORDER BY created_at DESC LIMIT $1`
	} else {
		query = `SELECT ` + operationColumns + ` FROM sys_provisioning_operation
			WHERE result_state = $2 ORDER BY created_at DESC LIMIT $1`
		args = append(args, state)
	}

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}

	return collectRows(rows, scanOperation)
}

// UpdateOperationResult records the outcome of one execution attempt.
func (s *ProvisioningStore) UpdateOperationResult(
	ctx context.Context,
	id uuid.UUID,
	state models.OperationState,
	message string,
	attempt int,
) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `UPDATE sys_provisioning_operation
		SET result_state = $2, result_message = $3, attempt = $4
		WHERE id = $1`

	tag, err := s.Pool.Exec(ctx, query, id, state, message, attempt)
	if err != nil {
		return fmt.Errorf("updating operation result: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrEntityNotFound
	}

	return nil
}

// SetBatchNextAttempt schedules or clears the batch's next retry time.
func (s *ProvisioningStore) SetBatchNextAttempt(ctx context.Context, batchID uuid.UUID, next *time.Time) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx,
		`UPDATE sys_provisioning_batch SET next_attempt = $2 WHERE id = $1`,
		batchID, next)
	if err != nil {
		return fmt.Errorf("scheduling batch retry: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrEntityNotFound
	}

	return nil
}

// DeleteBatchIfDone removes the batch when no pending operations remain.
// Returns true when the batch was deleted.
func (s *ProvisioningStore) DeleteBatchIfDone(ctx context.Context, batchID uuid.UUID) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `DELETE FROM sys_provisioning_batch
		WHERE id = $1 AND NOT EXISTS (
			SELECT 1 FROM sys_provisioning_operation
			WHERE batch_id = $1 AND result_state IN ($2, $3))`

	tag, err := s.Pool.Exec(ctx, query, batchID,
		models.OperationCreated, models.OperationException)
	if err != nil {
		return false, fmt.Errorf("deleting finished batch: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// QueueDepth returns the number of unfinished operations, for the gauge.
func (s *ProvisioningStore) QueueDepth(ctx context.Context) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var depth int

	query := `SELECT count(*) FROM sys_provisioning_operation
		WHERE result_state IN ($1, $2)`

	if err := s.Pool.QueryRow(ctx, query,
		models.OperationCreated, models.OperationException).Scan(&depth); err != nil {
		return 0, fmt.Errorf("counting queue depth: %w", err)
	}

	return depth, nil
}

// PurgeExecuted removes executed operations older than the cutoff and any
// batches left with no operations at all. Housekeeping, run periodically.
func (s *ProvisioningStore) PurgeExecuted(ctx context.Context, olderThan time.Time) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("purging executed operations: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	tag, err := tx.Exec(ctx,
		`DELETE FROM sys_provisioning_operation
		 WHERE result_state = $1 AND created_at < $2`,
		models.OperationExecuted, olderThan)
	if err != nil {
		return 0, fmt.Errorf("purging executed operations: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM sys_provisioning_batch b
		 WHERE NOT EXISTS (SELECT 1 FROM sys_provisioning_operation WHERE batch_id = b.id)`); err != nil {
		return 0, fmt.Errorf("purging empty batches: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing purge: %w", err)
	}

	return tag.RowsAffected(), nil
}
