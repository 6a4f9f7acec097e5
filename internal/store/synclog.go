package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/crossidm/idsync/internal/models"
)

// SyncLogStore handles the per-run log tree: sync logs, action logs and
// item logs.
type SyncLogStore struct {
	Base
}

// NewSyncLogStore creates a new SyncLogStore.
func NewSyncLogStore(base Base) *SyncLogStore {
	return &SyncLogStore{Base: base}
}

// CreateLog opens a new running sync log for the config.
func (s *SyncLogStore) CreateLog(ctx context.Context, configID uuid.UUID, token string) (*models.SyncLog, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `INSERT INTO sys_sync_log (sync_config_id, running, token)
		VALUES ($1, TRUE, $2)
		RETURNING ` + syncLogColumns

	row := s.Pool.QueryRow(ctx, query, configID, token)

	log, err := scanSyncLog(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("creating sync log: %w", err)
	}

	return log, nil
}

// CloseLog ends a run: clears running, stamps ended and persists the final
// token, free-text log and error flag.
func (s *SyncLogStore) CloseLog(ctx context.Context, log *models.SyncLog) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()

	query := `UPDATE sys_sync_log SET
		running = FALSE, contains_error = $2, ended = $3, token = $4, log = $5
		WHERE id = $1`

	tag, err := s.Pool.Exec(ctx, query, log.ID, log.ContainsError, now, log.Token, log.Log)
	if err != nil {
		return fmt.Errorf("closing sync log: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrSyncNotRunning
	}

	log.Running = false
	log.Ended = &now

	return nil
}

// GetLog returns a sync log by ID.
func (s *SyncLogStore) GetLog(ctx context.Context, id uuid.UUID) (*models.SyncLog, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, `SELECT `+syncLogColumns+` FROM sys_sync_log WHERE id = $1`, id)

	log, err := scanSyncLog(row.Scan)
	if err != nil {
		return nil, notFound(err, models.ErrSyncNotRunning)
	}

	return log, nil
}

// FindRunningLog returns the running log of a config, or nil when the config
// is idle.
func (s *SyncLogStore) FindRunningLog(ctx context.Context, configID uuid.UUID) (*models.SyncLog, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + syncLogColumns + ` FROM sys_sync_log
		WHERE sync_config_id = $1 AND running ORDER BY started DESC LIMIT 1`

	rows, err := s.Pool.Query(ctx, query, configID)
	if err != nil {
		return nil, fmt.Errorf("finding running log: %w", err)
	}

	logs, err := collectRows(rows, scanSyncLog)
	if err != nil {
		return nil, fmt.Errorf("finding running log: %w", err)
	}

	if len(logs) == 0 {
		return nil, nil
	}

	return &logs[0], nil
}

// LastToken returns the token persisted by the most recent completed run of
// the config, or empty when no run finished yet.
func (s *SyncLogStore) LastToken(ctx context.Context, configID uuid.UUID) (string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT token FROM sys_sync_log
		WHERE sync_config_id = $1 AND NOT running AND NOT contains_error
		ORDER BY started DESC LIMIT 1`

	var token string
	if err := s.Pool.QueryRow(ctx, query, configID).Scan(&token); err != nil {
		return "", nil //nolint:nilerr // no completed run means no token.
	}

	return token, nil
}

// ListLogs returns the logs of a config, newest first.
func (s *SyncLogStore) ListLogs(ctx context.Context, configID uuid.UUID, limit int) ([]models.SyncLog, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + syncLogColumns + ` FROM sys_sync_log
		WHERE sync_config_id = $1 ORDER BY started DESC LIMIT $2`

	rows, err := s.Pool.Query(ctx, query, configID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sync logs: %w", err)
	}

	return collectRows(rows, scanSyncLog)
}

// EnsureActionLog returns the action log for (run, situation, action, result),
// creating it on first use and bumping its operation count by one either way.
func (s *SyncLogStore) EnsureActionLog(
	ctx context.Context,
	syncLogID uuid.UUID,
	situation models.Situation,
	action models.SyncAction,
	result models.ResultType,
) (*models.SyncActionLog, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `INSERT INTO sys_sync_action_log
		(sync_log_id, situation, action, result, operation_count)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (sync_log_id, situation, action, result)
		DO UPDATE SET operation_count = sys_sync_action_log.operation_count + 1
		RETURNING id, sync_log_id, situation, action, result, operation_count`

	var al models.SyncActionLog

	err := s.Pool.QueryRow(ctx, query, syncLogID, situation, action, result).
		Scan(&al.ID, &al.SyncLogID, &al.Situation, &al.Action, &al.Result, &al.OperationCount)
	if err != nil {
		return nil, fmt.Errorf("upserting action log: %w", err)
	}

	return &al, nil
}

// ListActionLogs returns the action logs of one run.
func (s *SyncLogStore) ListActionLogs(ctx context.Context, syncLogID uuid.UUID) ([]models.SyncActionLog, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT id, sync_log_id, situation, action, result, operation_count
		FROM sys_sync_action_log WHERE sync_log_id = $1
		ORDER BY situation, action, result`

	rows, err := s.Pool.Query(ctx, query, syncLogID)
	if err != nil {
		return nil, fmt.Errorf("listing action logs: %w", err)
	}
	defer rows.Close()

	var out []models.SyncActionLog

	for rows.Next() {
		var al models.SyncActionLog
		if err := rows.Scan(&al.ID, &al.SyncLogID, &al.Situation, &al.Action,
			&al.Result, &al.OperationCount); err != nil {
			return nil, err
		}

		out = append(out, al)
	}

	return out, rows.Err()
}

// AddItemLog appends one item log under an action log. Item logs are
// append-only; there is no update path.
func (s *SyncLogStore) AddItemLog(ctx context.Context, item models.SyncItemLog) (*models.SyncItemLog, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `INSERT INTO sys_sync_item_log
		(sync_action_log_id, identification, display_name, message, log)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := s.Pool.QueryRow(ctx, query, item.SyncActionLogID, item.Identification,
		item.DisplayName, item.Message, item.Log).Scan(&item.ID)
	if err != nil {
		return nil, fmt.Errorf("adding item log: %w", err)
	}

	return &item, nil
}

// ListItemLogs returns the item logs of one action log in insertion order.
func (s *SyncLogStore) ListItemLogs(ctx context.Context, actionLogID uuid.UUID) ([]models.SyncItemLog, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT id, sync_action_log_id, identification, display_name, message, log
		FROM sys_sync_item_log WHERE sync_action_log_id = $1 ORDER BY created_at`

	rows, err := s.Pool.Query(ctx, query, actionLogID)
	if err != nil {
		return nil, fmt.Errorf("listing item logs: %w", err)
	}
	defer rows.Close()

	var out []models.SyncItemLog

	for rows.Next() {
		var item models.SyncItemLog
		if err := rows.Scan(&item.ID, &item.SyncActionLogID, &item.Identification,
			&item.DisplayName, &item.Message, &item.Log); err != nil {
			return nil, err
		}

		out = append(out, item)
	}

	return out, rows.Err()
}
