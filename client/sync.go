package client

import (
	"context"
	"net/url"
	"strconv"
)

// SyncService handles run control and run log inspection.
type SyncService struct {
	c *Client
}

// logListResponse wraps the sync log list response.
type logListResponse struct {
	Logs []SyncLog `json:"logs"`
}

// actionListResponse wraps the action log list response.
type actionListResponse struct {
	Actions []SyncActionLog `json:"actions"`
}

// itemListResponse wraps the item log list response.
type itemListResponse struct {
	Items []SyncItemLog `json:"items"`
}

// Start begins a run for the config. The run executes server-side in the
// background; poll Running or Logs for progress.
func (s *SyncService) Start(ctx context.Context, configID string) error {
	return s.c.post(ctx, "/api/v1/sync-configs/"+url.PathEscape(configID)+"/start", nil, nil)
}

// Stop requests cooperative cancellation of the config's running sync.
func (s *SyncService) Stop(ctx context.Context, configID string) error {
	return s.c.post(ctx, "/api/v1/sync-configs/"+url.PathEscape(configID)+"/stop", nil, nil)
}

// Running reports whether the config has an active run.
func (s *SyncService) Running(ctx context.Context, configID string) (*RunningStatus, error) {
	var status RunningStatus
	if err := s.c.get(ctx, "/api/v1/sync-configs/"+url.PathEscape(configID)+"/running", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Logs returns the config's most recent run logs.
func (s *SyncService) Logs(ctx context.Context, configID string, limit int) ([]SyncLog, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var resp logListResponse
	if err := s.c.get(ctx, "/api/v1/sync-configs/"+url.PathEscape(configID)+"/logs", params, &resp); err != nil {
		return nil, err
	}
	return resp.Logs, nil
}

// ActionLogs returns the situation/action buckets of one run.
func (s *SyncService) ActionLogs(ctx context.Context, syncLogID string) ([]SyncActionLog, error) {
	var resp actionListResponse
	if err := s.c.get(ctx, "/api/v1/sync-logs/"+url.PathEscape(syncLogID)+"/actions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Actions, nil
}

// ItemLogs returns the per-object logs of one action bucket.
func (s *SyncService) ItemLogs(ctx context.Context, actionLogID string) ([]SyncItemLog, error) {
	var resp itemListResponse
	if err := s.c.get(ctx, "/api/v1/sync-actions/"+url.PathEscape(actionLogID)+"/items", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// ResolveItem applies an explicit situation and action to one remote object.
func (s *SyncService) ResolveItem(ctx context.Context, configID string, req *ResolveItemRequest) error {
	return s.c.post(ctx, "/api/v1/sync-configs/"+url.PathEscape(configID)+"/resolve", req, nil)
}
