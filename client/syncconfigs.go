package client

import (
	"context"
	"net/url"
)

// SyncConfigService handles synchronization configuration management.
type SyncConfigService struct {
	c *Client
}

// configListResponse wraps the config list response.
type configListResponse struct {
	Configs []SyncConfig `json:"configs"`
}

// List returns all sync configurations.
func (s *SyncConfigService) List(ctx context.Context) ([]SyncConfig, error) {
	var resp configListResponse
	if err := s.c.get(ctx, "/api/v1/sync-configs", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Configs, nil
}

// Get returns a single sync configuration by ID.
func (s *SyncConfigService) Get(ctx context.Context, id string) (*SyncConfig, error) {
	var cfg SyncConfig
	if err := s.c.get(ctx, "/api/v1/sync-configs/"+url.PathEscape(id), nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Create adds a sync configuration.
func (s *SyncConfigService) Create(ctx context.Context, cfg *SyncConfig) (*SyncConfig, error) {
	var created SyncConfig
	if err := s.c.post(ctx, "/api/v1/sync-configs", cfg, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update replaces a sync configuration. Fails while the config is running.
func (s *SyncConfigService) Update(ctx context.Context, id string, cfg *SyncConfig) (*SyncConfig, error) {
	var updated SyncConfig
	if err := s.c.put(ctx, "/api/v1/sync-configs/"+url.PathEscape(id), cfg, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a sync configuration.
func (s *SyncConfigService) Delete(ctx context.Context, id string) error {
	return s.c.del(ctx, "/api/v1/sync-configs/"+url.PathEscape(id), nil, nil)
}
